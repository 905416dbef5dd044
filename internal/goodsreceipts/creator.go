package goodsreceipts

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/angelmondragon/stockledger-backend/pkg/db/models"
	"github.com/angelmondragon/stockledger-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/stockledger-backend/pkg/errors"
	"github.com/angelmondragon/stockledger-backend/pkg/outbox"
	"github.com/angelmondragon/stockledger-backend/pkg/outbox/payloads"
)

type numberGenerator interface {
	Next(ctx context.Context, tx *gorm.DB, companyID uint, doc enums.DocumentType) (string, error)
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Creator opens the goods receipt for an ordered purchase order.
type Creator struct {
	repo    Repository
	numbers numberGenerator
	outbox  outboxPublisher
}

func NewCreator(repo Repository, numbers numberGenerator, outbox outboxPublisher) (*Creator, error) {
	if repo == nil {
		return nil, fmt.Errorf("goods receipt repository required")
	}
	if numbers == nil {
		return nil, fmt.Errorf("number generator required")
	}
	if outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &Creator{repo: repo, numbers: numbers, outbox: outbox}, nil
}

// CreateFromPurchaseOrder creates a pending receipt with one line per order
// line, expecting the ordered quantity. order.Details must be loaded.
func (c *Creator) CreateFromPurchaseOrder(ctx context.Context, tx *gorm.DB, order *models.PurchaseOrder) (*models.GoodsReceipt, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction required")
	}
	if order == nil || len(order.Details) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "purchase order has no details to receive")
	}

	number, err := c.numbers.Next(ctx, tx, order.CompanyID, enums.DocumentGoodsReceipt)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "generate goods receipt number")
	}

	remarks := fmt.Sprintf("Auto-generated from PO: %s", order.Number)
	details := make([]models.GoodsReceiptDetail, 0, len(order.Details))
	for _, d := range order.Details {
		details = append(details, models.GoodsReceiptDetail{
			PurchaseOrderDetailID: d.ID,
			ProductVariantID:      d.ProductVariantID,
			ExpectedQty:           d.Qty,
			UnitCost:              d.Price,
		})
	}
	receipt := &models.GoodsReceipt{
		CompanyID:       order.CompanyID,
		Number:          number,
		PurchaseOrderID: order.ID,
		WarehouseID:     order.WarehouseID,
		Status:          enums.GoodsReceiptStatusPending,
		Remarks:         &remarks,
		Details:         details,
	}
	if err := c.repo.WithTx(tx).Create(ctx, receipt); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create goods receipt")
	}

	if err := c.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventGoodsReceiptCreated,
		AggregateType: enums.AggregateGoodsReceipt,
		AggregateID:   receipt.ID,
		Actor:         &outbox.ActorRef{CompanyID: order.CompanyID},
		Data: payloads.GoodsReceiptCreatedEvent{
			GoodsReceiptID:  receipt.ID,
			PurchaseOrderID: order.ID,
			CompanyID:       order.CompanyID,
			Number:          receipt.Number,
		},
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit goods receipt created")
	}
	return receipt, nil
}
