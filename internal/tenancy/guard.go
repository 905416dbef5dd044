package tenancy

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	pkgerrors "github.com/angelmondragon/stockledger-backend/pkg/errors"
)

// Resource names a company-owned row addressable by id from the API.
type Resource string

const (
	PurchaseOrder       Resource = "purchase order"
	GoodsReceipt        Resource = "goods receipt"
	GoodsReceiptDetail  Resource = "goods receipt detail"
	GoodsReceiptSerial  Resource = "goods receipt serial"
	StockTransfer       Resource = "stock transfer"
	StockTransferDetail Resource = "stock transfer detail"
	Invoice             Resource = "invoice"
	Expense             Resource = "expense"
	JournalEntry        Resource = "journal entry"
	Warehouse           Resource = "warehouse"
	WarehouseProduct    Resource = "warehouse product"
)

type ownerPath struct {
	table   string
	joins   []string
	company string
	// live lists the soft-deletable tables on the path
	live    []string
}

var paths = map[Resource]ownerPath{
	PurchaseOrder: {table: "purchase_orders", company: "purchase_orders.company_id", live: []string{"purchase_orders"}},
	GoodsReceipt:  {table: "goods_receipts", company: "goods_receipts.company_id", live: []string{"goods_receipts"}},
	GoodsReceiptDetail: {
		table:   "goods_receipt_details",
		joins:   []string{"JOIN goods_receipts ON goods_receipts.id = goods_receipt_details.goods_receipt_id"},
		company: "goods_receipts.company_id",
		live:    []string{"goods_receipts"},
	},
	GoodsReceiptSerial: {
		table: "goods_receipt_serials",
		joins: []string{
			"JOIN goods_receipt_details ON goods_receipt_details.id = goods_receipt_serials.goods_receipt_detail_id",
			"JOIN goods_receipts ON goods_receipts.id = goods_receipt_details.goods_receipt_id",
		},
		company: "goods_receipts.company_id",
		live:    []string{"goods_receipt_serials", "goods_receipts"},
	},
	StockTransfer: {table: "stock_transfers", company: "stock_transfers.company_id", live: []string{"stock_transfers"}},
	StockTransferDetail: {
		table:   "stock_transfer_details",
		joins:   []string{"JOIN stock_transfers ON stock_transfers.id = stock_transfer_details.stock_transfer_id"},
		company: "stock_transfers.company_id",
		live:    []string{"stock_transfers"},
	},
	Invoice:          {table: "invoices", company: "invoices.company_id", live: []string{"invoices"}},
	Expense:          {table: "expenses", company: "expenses.company_id", live: []string{"expenses"}},
	JournalEntry:     {table: "journal_entries", company: "journal_entries.company_id", live: []string{"journal_entries"}},
	Warehouse:        {table: "warehouses", company: "warehouses.company_id", live: []string{"warehouses"}},
	WarehouseProduct: {table: "warehouse_products", company: "warehouse_products.company_id", live: []string{"warehouse_products"}},
}

// Guard answers whether a row belongs to the acting company. Rows owned by
// another company are reported as not found so ids do not leak across tenants.
type Guard struct {
	db *gorm.DB
}

func NewGuard(db *gorm.DB) (*Guard, error) {
	if db == nil {
		return nil, fmt.Errorf("db required")
	}
	return &Guard{db: db}, nil
}

// Require returns NOT_FOUND unless the resource with id is owned by companyID.
func (g *Guard) Require(ctx context.Context, resource Resource, id, companyID uint) error {
	p, ok := paths[resource]
	if !ok {
		return pkgerrors.New(pkgerrors.CodeInternal, fmt.Sprintf("unknown resource %q", resource))
	}
	q := g.db.WithContext(ctx).Table(p.table)
	for _, join := range p.joins {
		q = q.Joins(join)
	}
	for _, table := range p.live {
		q = q.Where(table + ".deleted_at IS NULL")
	}
	var count int64
	err := q.Where(p.table+".id = ?", id).
		Where(p.company+" = ?", companyID).
		Count(&count).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check "+string(resource)+" ownership")
	}
	if count == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, string(resource)+" not found")
	}
	return nil
}
