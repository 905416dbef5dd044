package purchaseorders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockledger-backend/internal/numbering"
	"github.com/angelmondragon/stockledger-backend/internal/repo"
	"github.com/angelmondragon/stockledger-backend/pkg/db/models"
	"github.com/angelmondragon/stockledger-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/stockledger-backend/pkg/errors"
	"github.com/angelmondragon/stockledger-backend/pkg/money"
	"github.com/angelmondragon/stockledger-backend/pkg/outbox"
	"github.com/angelmondragon/stockledger-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type numberGenerator interface {
	Next(ctx context.Context, tx *gorm.DB, companyID uint, doc enums.DocumentType) (string, error)
}

// receiptCreator opens the goods receipt that tracks arrival of an ordered PO.
type receiptCreator interface {
	CreateFromPurchaseOrder(ctx context.Context, tx *gorm.DB, order *models.PurchaseOrder) (*models.GoodsReceipt, error)
}

// Service coordinates purchase order creation and its approval workflow.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.PurchaseOrder, error)
	Get(ctx context.Context, id uint) (*models.PurchaseOrder, error)
	Transition(ctx context.Context, id uint, action Action, actor outbox.ActorRef) (*TransitionResult, error)
	MarkReceived(ctx context.Context, tx *gorm.DB, id uint) error
	Delete(ctx context.Context, id uint) error
}

type CreateInput struct {
	CompanyID    uint
	ActorUserID  uint
	SupplierName string
	WarehouseID  uint
	OrderDate    time.Time
	TaxRate      decimal.Decimal
	ShippingCost decimal.Decimal
	Remarks      *string
	Details      []DetailInput
}

type DetailInput struct {
	ProductVariantID uint
	Qty              decimal.Decimal
	Price            decimal.Decimal
}

// TransitionResult carries the updated order and, for Order, the receipt it opened.
type TransitionResult struct {
	Order        *models.PurchaseOrder `json:"purchase_order"`
	GoodsReceipt *models.GoodsReceipt  `json:"goods_receipt,omitempty"`
}

type ServiceParams struct {
	Repo       Repository
	Receipts   receiptCreator
	Numbers    numberGenerator
	Outbox     outboxPublisher
	Tx         txRunner
	MaxRetries int
}

type service struct {
	repo       Repository
	receipts   receiptCreator
	numbers    numberGenerator
	outbox     outboxPublisher
	tx         txRunner
	maxRetries int
}

func NewService(p ServiceParams) (Service, error) {
	if p.Repo == nil {
		return nil, fmt.Errorf("purchase order repository required")
	}
	if p.Receipts == nil {
		return nil, fmt.Errorf("goods receipt creator required")
	}
	if p.Numbers == nil {
		return nil, fmt.Errorf("number generator required")
	}
	if p.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if p.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		repo:       p.Repo,
		receipts:   p.Receipts,
		numbers:    p.Numbers,
		outbox:     p.Outbox,
		tx:         p.Tx,
		maxRetries: p.MaxRetries,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.PurchaseOrder, error) {
	if err := validateCreate(input); err != nil {
		return nil, err
	}

	var created *models.PurchaseOrder
	err := numbering.WithRetry(ctx, s.maxRetries, func(int) error {
		return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			txRepo := s.repo.WithTx(tx)

			ok, err := txRepo.WarehouseBelongsTo(ctx, input.CompanyID, input.WarehouseID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check warehouse")
			}
			if !ok {
				return pkgerrors.New(pkgerrors.CodeNotFound, "warehouse not found")
			}
			ids := make([]uint, 0, len(input.Details))
			for _, d := range input.Details {
				ids = append(ids, d.ProductVariantID)
			}
			ok, err = txRepo.ProductVariantsExist(ctx, input.CompanyID, ids)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check product variants")
			}
			if !ok {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product variant not found")
			}

			number, err := s.numbers.Next(ctx, tx, input.CompanyID, enums.DocumentPurchaseOrder)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "generate purchase order number")
			}

			order := buildOrder(input, number)
			if err := txRepo.Create(ctx, order); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create purchase order")
			}
			if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventPurchaseOrderCreated,
				AggregateType: enums.AggregatePurchaseOrder,
				AggregateID:   order.ID,
				Actor:         &outbox.ActorRef{UserID: input.ActorUserID, CompanyID: input.CompanyID},
				Data: payloads.PurchaseOrderCreatedEvent{
					PurchaseOrderID: order.ID,
					CompanyID:       order.CompanyID,
					Number:          order.Number,
					Total:           order.Total,
				},
			}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit purchase order created")
			}
			created = order
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func validateCreate(input CreateInput) error {
	if input.CompanyID == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "company is required")
	}
	if strings.TrimSpace(input.SupplierName) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "supplier name is required")
	}
	if input.WarehouseID == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "warehouse is required")
	}
	if len(input.Details) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "at least one detail is required")
	}
	if input.TaxRate.IsNegative() || input.ShippingCost.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "tax rate and shipping cost must not be negative")
	}
	for i, d := range input.Details {
		if d.ProductVariantID == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("details[%d]: product variant is required", i))
		}
		if !d.Qty.IsPositive() {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("details[%d]: qty must be positive", i))
		}
		if d.Price.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("details[%d]: price must not be negative", i))
		}
	}
	return nil
}

func buildOrder(input CreateInput, number string) *models.PurchaseOrder {
	details := make([]models.PurchaseOrderDetail, 0, len(input.Details))
	totals := make([]decimal.Decimal, 0, len(input.Details))
	for _, d := range input.Details {
		line := money.LineTotal(d.Qty, d.Price)
		totals = append(totals, line)
		details = append(details, models.PurchaseOrderDetail{
			ProductVariantID: d.ProductVariantID,
			Qty:              d.Qty,
			Price:            d.Price,
			Total:            line,
		})
	}
	subtotal := money.Sum(totals...)
	tax := money.Percent(subtotal, input.TaxRate)
	orderDate := input.OrderDate
	if orderDate.IsZero() {
		orderDate = time.Now().UTC()
	}
	return &models.PurchaseOrder{
		CompanyID:    input.CompanyID,
		Number:       number,
		SupplierName: strings.TrimSpace(input.SupplierName),
		WarehouseID:  input.WarehouseID,
		OrderDate:    orderDate,
		Status:       enums.PurchaseOrderStatusDraft,
		Subtotal:     subtotal,
		TaxRate:      input.TaxRate,
		TaxAmount:    tax,
		ShippingCost: input.ShippingCost,
		Total:        money.Sum(subtotal, tax, input.ShippingCost),
		Remarks:      input.Remarks,
		Details:      details,
	}
}

func (s *service) Get(ctx context.Context, id uint) (*models.PurchaseOrder, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, repo.MapError(err, "purchase order")
	}
	return order, nil
}

func (s *service) Transition(ctx context.Context, id uint, action Action, actor outbox.ActorRef) (*TransitionResult, error) {
	if action == ActionReceive {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "purchase orders are received through their goods receipt")
	}
	var result *TransitionResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		order, err := s.repo.WithTx(tx).FindForUpdate(ctx, id)
		if err != nil {
			return repo.MapError(err, "purchase order")
		}
		res, err := s.apply(ctx, tx, order, action, &actor)
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// MarkReceived closes an ordered purchase order once its receipt reached the
// warehouse. Runs inside the caller's transaction.
func (s *service) MarkReceived(ctx context.Context, tx *gorm.DB, id uint) error {
	if tx == nil {
		return fmt.Errorf("transaction required")
	}
	order, err := s.repo.WithTx(tx).FindForUpdate(ctx, id)
	if err != nil {
		return repo.MapError(err, "purchase order")
	}
	_, err = s.apply(ctx, tx, order, ActionReceive, &outbox.ActorRef{CompanyID: order.CompanyID})
	return err
}

func (s *service) apply(ctx context.Context, tx *gorm.DB, order *models.PurchaseOrder, action Action, actor *outbox.ActorRef) (*TransitionResult, error) {
	target, noop, err := next(order.Status, action)
	if err != nil {
		return nil, err
	}
	result := &TransitionResult{Order: order}
	if noop {
		return result, nil
	}

	from := order.Status
	if err := s.repo.WithTx(tx).UpdateStatus(ctx, order.ID, target); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update purchase order status")
	}
	order.Status = target

	var receiptID *uint
	if action == ActionOrder {
		receipt, err := s.receipts.CreateFromPurchaseOrder(ctx, tx, order)
		if err != nil {
			return nil, err
		}
		result.GoodsReceipt = receipt
		receiptID = &receipt.ID
	}

	if actor != nil && actor.CompanyID == 0 {
		actor.CompanyID = order.CompanyID
	}
	if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventPurchaseOrderStatusChanged,
		AggregateType: enums.AggregatePurchaseOrder,
		AggregateID:   order.ID,
		Actor:         actor,
		Data: payloads.PurchaseOrderStatusChangedEvent{
			PurchaseOrderID: order.ID,
			CompanyID:       order.CompanyID,
			Number:          order.Number,
			From:            from,
			To:              target,
			GoodsReceiptID:  receiptID,
		},
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit purchase order status change")
	}
	return result, nil
}

func (s *service) Delete(ctx context.Context, id uint) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		order, err := txRepo.FindForUpdate(ctx, id)
		if err != nil {
			return repo.MapError(err, "purchase order")
		}
		switch order.Status {
		case enums.PurchaseOrderStatusDraft, enums.PurchaseOrderStatusCancelled, enums.PurchaseOrderStatusRejected:
		default:
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("Cannot delete a purchase order that is %s", order.Status))
		}
		if err := txRepo.Delete(ctx, id); err != nil {
			return repo.MapError(err, "purchase order")
		}
		return nil
	})
}
