package payloads

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/stockledger-backend/pkg/enums"
)

// PurchaseOrderCreatedEvent announces a new draft purchase order.
type PurchaseOrderCreatedEvent struct {
	PurchaseOrderID uint            `json:"purchase_order_id"`
	CompanyID       uint            `json:"company_id"`
	Number          string          `json:"number"`
	Total           decimal.Decimal `json:"total"`
}

// PurchaseOrderStatusChangedEvent is emitted on every purchase order transition.
type PurchaseOrderStatusChangedEvent struct {
	PurchaseOrderID uint                      `json:"purchase_order_id"`
	CompanyID       uint                      `json:"company_id"`
	Number          string                    `json:"number"`
	From            enums.PurchaseOrderStatus `json:"from"`
	To              enums.PurchaseOrderStatus `json:"to"`
	GoodsReceiptID  *uint                     `json:"goods_receipt_id,omitempty"`
}

type GoodsReceiptCreatedEvent struct {
	GoodsReceiptID  uint   `json:"goods_receipt_id"`
	PurchaseOrderID uint   `json:"purchase_order_id"`
	CompanyID       uint   `json:"company_id"`
	Number          string `json:"number"`
}

// GoodsReceiptReceivedEvent is emitted when quantity is received or returned on a detail.
type GoodsReceiptReceivedEvent struct {
	GoodsReceiptID uint                     `json:"goods_receipt_id"`
	DetailID       uint                     `json:"detail_id"`
	Delta          decimal.Decimal          `json:"delta"`
	ReceivedQty    decimal.Decimal          `json:"received_qty"`
	Status         enums.GoodsReceiptStatus `json:"status"`
}

// GoodsReceiptTransferredEvent is emitted once a receipt has moved into warehouse stock.
type GoodsReceiptTransferredEvent struct {
	GoodsReceiptID  uint      `json:"goods_receipt_id"`
	PurchaseOrderID uint      `json:"purchase_order_id"`
	CompanyID       uint      `json:"company_id"`
	WarehouseID     uint      `json:"warehouse_id"`
	Number          string    `json:"number"`
	TransferredAt   time.Time `json:"transferred_at"`
}

type StockTransferCreatedEvent struct {
	StockTransferID        uint                      `json:"stock_transfer_id"`
	CompanyID              uint                      `json:"company_id"`
	Number                 string                    `json:"number"`
	OriginWarehouseID      uint                      `json:"origin_warehouse_id"`
	DestinationWarehouseID uint                      `json:"destination_warehouse_id"`
	Status                 enums.StockTransferStatus `json:"status"`
}

type StockTransferStatusChangedEvent struct {
	StockTransferID uint                      `json:"stock_transfer_id"`
	CompanyID       uint                      `json:"company_id"`
	Number          string                    `json:"number"`
	From            enums.StockTransferStatus `json:"from"`
	To              enums.StockTransferStatus `json:"to"`
}

// StockTransferCompletedEvent is emitted after stock physically moved between warehouses.
type StockTransferCompletedEvent struct {
	StockTransferID        uint      `json:"stock_transfer_id"`
	CompanyID              uint      `json:"company_id"`
	Number                 string    `json:"number"`
	OriginWarehouseID      uint      `json:"origin_warehouse_id"`
	DestinationWarehouseID uint      `json:"destination_warehouse_id"`
	CompletedAt            time.Time `json:"completed_at"`
}

type InvoiceCreatedEvent struct {
	InvoiceID uint                `json:"invoice_id"`
	CompanyID uint                `json:"company_id"`
	Number    string              `json:"number"`
	Type      enums.InvoiceType   `json:"type"`
	Status    enums.InvoiceStatus `json:"status"`
	Total     decimal.Decimal     `json:"total"`
}

// InvoiceFullyPaidEvent triggers journal posting for the invoice.
type InvoiceFullyPaidEvent struct {
	InvoiceID uint            `json:"invoice_id"`
	CompanyID uint            `json:"company_id"`
	Number    string          `json:"number"`
	Total     decimal.Decimal `json:"total"`
	PaidAt    time.Time       `json:"paid_at"`
}

type InvoiceCancelledEvent struct {
	InvoiceID     uint                `json:"invoice_id"`
	CompanyID     uint                `json:"company_id"`
	Number        string              `json:"number"`
	PreviousState enums.InvoiceStatus `json:"previous_status"`
	StockRestored bool                `json:"stock_restored"`
}

// ExpenseRecordedEvent triggers journal posting for the expense.
type ExpenseRecordedEvent struct {
	ExpenseID       uint                    `json:"expense_id"`
	CompanyID       uint                    `json:"company_id"`
	ReferenceNumber string                  `json:"reference_number"`
	PaymentMethod   enums.PaymentMethodCode `json:"payment_method"`
	Amount          decimal.Decimal         `json:"amount"`
}

type JournalEntryPostedEvent struct {
	JournalEntryID  uint                    `json:"journal_entry_id"`
	CompanyID       uint                    `json:"company_id"`
	SourceType      enums.JournalSourceType `json:"source_type"`
	ReferenceNumber string                  `json:"reference_number"`
	Total           decimal.Decimal         `json:"total"`
}

// StockBelowCriticalEvent is emitted when an outbound movement leaves a row at or below its reorder level.
type StockBelowCriticalEvent struct {
	WarehouseProductID uint            `json:"warehouse_product_id"`
	WarehouseID        uint            `json:"warehouse_id"`
	ProductVariantID   uint            `json:"product_variant_id"`
	Qty                decimal.Decimal `json:"qty"`
	CriticalLevelQty   decimal.Decimal `json:"critical_level_qty"`
}
