package invoices

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockledger-backend/internal/numbering"
	"github.com/angelmondragon/stockledger-backend/internal/repo"
	"github.com/angelmondragon/stockledger-backend/internal/stock"
	"github.com/angelmondragon/stockledger-backend/pkg/db/models"
	"github.com/angelmondragon/stockledger-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/stockledger-backend/pkg/errors"
	"github.com/angelmondragon/stockledger-backend/pkg/money"
	"github.com/angelmondragon/stockledger-backend/pkg/outbox"
	"github.com/angelmondragon/stockledger-backend/pkg/outbox/payloads"
)

const (
	sourceType      = "invoice"
	defaultCurrency = "PHP"
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

type stockLedger interface {
	AdjustByID(ctx context.Context, tx *gorm.DB, warehouseProductID uint, delta decimal.Decimal, reason enums.StockMovementReason, source stock.Source) (*models.WarehouseProduct, error)
}

type serialTracker interface {
	MarkSold(ctx context.Context, tx *gorm.DB, warehouseProductID uint, serialNumber string) (*models.WarehouseProductSerial, error)
	Reverse(ctx context.Context, tx *gorm.DB, serialID uint) error
}

// Service manages sales and point-of-sale invoices. Stock leaves the
// warehouse when an invoice becomes fully paid and returns only when a paid
// invoice is cancelled. Mutations return the domain events they emitted so
// callers can act on them after commit.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Invoice, []outbox.DomainEvent, error)
	Get(ctx context.Context, id uint) (*models.Invoice, error)
	MarkPaid(ctx context.Context, input MarkPaidInput) (*models.Invoice, []outbox.DomainEvent, error)
	Cancel(ctx context.Context, invoiceID uint, actor outbox.ActorRef) (*models.Invoice, []outbox.DomainEvent, error)
}

type CreateInput struct {
	CompanyID    uint
	ActorUserID  uint
	CustomerName string
	Type         enums.InvoiceType
	Status       enums.InvoiceStatus
	InvoiceDate  time.Time
	DiscountRate decimal.Decimal
	TaxRate      decimal.Decimal
	ShippingCost decimal.Decimal
	Currency     string
	Notes        *string
	Payments     []PaymentInput
	Items        []ItemInput
}

type PaymentInput struct {
	PaymentMethod   enums.PaymentMethodCode
	Amount          decimal.Decimal
	AccountNumber   *string
	AccountName     *string
	BankName        *string
	ReferenceNumber *string
}

type ItemInput struct {
	WarehouseProductID uint
	Qty                decimal.Decimal
	Price              decimal.Decimal
	Serials            []string
}

type MarkPaidInput struct {
	InvoiceID uint
	Actor     outbox.ActorRef
	// Payments replace the recorded payments when present.
	Payments []PaymentInput
}

type ServiceParams struct {
	Repo       Repository
	Ledger     stockLedger
	Serials    serialTracker
	Numbers    numberGenerator
	Outbox     outboxPublisher
	Tx         txRunner
	MaxRetries int
}

type service struct {
	repo       Repository
	ledger     stockLedger
	serials    serialTracker
	numbers    numberGenerator
	outbox     outboxPublisher
	tx         txRunner
	maxRetries int
	now        func() time.Time
}

func NewService(p ServiceParams) (Service, error) {
	if p.Repo == nil {
		return nil, fmt.Errorf("invoice repository required")
	}
	if p.Ledger == nil {
		return nil, fmt.Errorf("stock ledger required")
	}
	if p.Serials == nil {
		return nil, fmt.Errorf("serial tracker required")
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
		ledger:     p.Ledger,
		serials:    p.Serials,
		numbers:    p.Numbers,
		outbox:     p.Outbox,
		tx:         p.Tx,
		maxRetries: p.MaxRetries,
		now:        time.Now,
	}, nil
}

func (s *service) Get(ctx context.Context, id uint) (*models.Invoice, error) {
	invoice, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, repo.MapError(err, "invoice")
	}
	return invoice, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Invoice, []outbox.DomainEvent, error) {
	if input.Type == enums.InvoiceTypePOS {
		input.Status = enums.InvoiceStatusFullyPaid
	}
	if input.Status == "" {
		input.Status = enums.InvoiceStatusDraft
	}
	if err := validateCreate(input); err != nil {
		return nil, nil, err
	}

	var (
		created *models.Invoice
		events  []outbox.DomainEvent
	)
	err := numbering.WithRetry(ctx, s.maxRetries, func(int) error {
		events = nil
		return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			invoice, err := s.build(ctx, tx, input)
			if err != nil {
				return err
			}
			if err := s.repo.WithTx(tx).Create(ctx, invoice); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create invoice")
			}

			actor := &outbox.ActorRef{UserID: input.ActorUserID, CompanyID: input.CompanyID}
			ev, err := s.emit(ctx, tx, invoice, enums.EventInvoiceCreated, actor, payloads.InvoiceCreatedEvent{
				InvoiceID: invoice.ID,
				CompanyID: invoice.CompanyID,
				Number:    invoice.Number,
				Type:      invoice.Type,
				Status:    invoice.Status,
				Total:     invoice.Total,
			})
			if err != nil {
				return err
			}
			events = append(events, ev)

			if invoice.Status == enums.InvoiceStatusFullyPaid {
				paid, err := s.settle(ctx, tx, invoice, actor)
				if err != nil {
					return err
				}
				events = append(events, paid)
			}
			created = invoice
			return nil
		})
	})
	if err != nil {
		return nil, nil, err
	}
	return created, events, nil
}

func validateCreate(input CreateInput) error {
	if input.CompanyID == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "company is required")
	}
	if !input.Type.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid invoice type %q", input.Type))
	}
	if input.Status != enums.InvoiceStatusDraft && input.Status != enums.InvoiceStatusFullyPaid {
		return pkgerrors.New(pkgerrors.CodeValidation, "invoices are created as draft or fully-paid")
	}
	if strings.TrimSpace(input.CustomerName) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer name is required")
	}
	if len(input.Items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "at least one item is required")
	}
	if input.DiscountRate.IsNegative() || input.TaxRate.IsNegative() || input.ShippingCost.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "rates and shipping cost must not be negative")
	}
	if input.DiscountRate.GreaterThan(decimal.NewFromInt(100)) {
		return pkgerrors.New(pkgerrors.CodeValidation, "discount rate cannot exceed 100")
	}
	for i, it := range input.Items {
		if it.WarehouseProductID == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("items[%d]: stock is required", i))
		}
		if !it.Qty.IsPositive() {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("items[%d]: qty must be positive", i))
		}
		if it.Price.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("items[%d]: price must not be negative", i))
		}
		if decimal.NewFromInt(int64(len(it.Serials))).GreaterThan(it.Qty) {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("items[%d]: more serials than qty", i))
		}
	}
	return validatePayments(input.Payments)
}

func validatePayments(payments []PaymentInput) error {
	for i, p := range payments {
		if !p.PaymentMethod.IsValid() {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("payments[%d]: invalid payment method %q", i, p.PaymentMethod))
		}
		if !p.Amount.IsPositive() {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("payments[%d]: amount must be positive", i))
		}
	}
	return nil
}

func (s *service) build(ctx context.Context, tx *gorm.DB, input CreateInput) (*models.Invoice, error) {
	txRepo := s.repo.WithTx(tx)
	details := make([]models.InvoiceDetail, 0, len(input.Items))
	for i, it := range input.Items {
		row, err := txRepo.FindStock(ctx, it.WarehouseProductID)
		if err != nil {
			return nil, repo.MapError(err, "warehouse product")
		}
		if row.CompanyID != input.CompanyID {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "warehouse product not found")
		}
		if row.HasSerials && !decimal.NewFromInt(int64(len(it.Serials))).Equal(it.Qty) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("items[%d]: serialized stock needs one serial per unit", i))
		}
		serials := make([]models.InvoiceDetailSerial, 0, len(it.Serials))
		seen := map[string]struct{}{}
		for _, raw := range it.Serials {
			number := strings.TrimSpace(raw)
			if number == "" {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("items[%d]: blank serial number", i))
			}
			if _, dup := seen[number]; dup {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("items[%d]: serial %s listed twice", i, number))
			}
			seen[number] = struct{}{}
			serials = append(serials, models.InvoiceDetailSerial{SerialNumber: number})
		}
		details = append(details, models.InvoiceDetail{
			WarehouseProductID: row.ID,
			ProductVariantID:   row.ProductVariantID,
			Qty:                it.Qty,
			Price:              it.Price,
			Total:              money.LineTotal(it.Qty, it.Price),
			Serials:            serials,
		})
	}

	number, err := s.numbers.Next(ctx, tx, input.CompanyID, enums.DocumentInvoice)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "generate invoice number")
	}
	totals := ComputeTotals(input.Items, input.DiscountRate, input.TaxRate, input.ShippingCost)
	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	if currency == "" {
		currency = defaultCurrency
	}
	invoiceDate := input.InvoiceDate
	if invoiceDate.IsZero() {
		invoiceDate = s.now().UTC()
	}
	return &models.Invoice{
		CompanyID:      input.CompanyID,
		Number:         number,
		Type:           input.Type,
		Status:         input.Status,
		CustomerName:   strings.TrimSpace(input.CustomerName),
		InvoiceDate:    invoiceDate,
		Subtotal:       totals.Subtotal,
		DiscountRate:   input.DiscountRate,
		DiscountAmount: totals.Discount,
		TaxRate:        input.TaxRate,
		TaxAmount:      totals.Tax,
		ShippingCost:   input.ShippingCost,
		Total:          totals.Total,
		Currency:       currency,
		Notes:          input.Notes,
		Details:        details,
		Payments:       paymentRows(input.Payments, totals.Total, input.Status),
	}, nil
}

// paymentRows builds payment details. A fully paid invoice marks every row
// fully paid; a draft records what was collected so far.
func paymentRows(payments []PaymentInput, total decimal.Decimal, status enums.InvoiceStatus) []models.InvoicePaymentDetail {
	collected := decimal.Zero
	for _, p := range payments {
		collected = collected.Add(p.Amount)
	}
	rowStatus := enums.PaymentStatusUnpaid
	switch {
	case status == enums.InvoiceStatusFullyPaid:
		rowStatus = enums.PaymentStatusFullyPaid
	case collected.IsPositive() && collected.LessThan(total):
		rowStatus = enums.PaymentStatusPartiallyPaid
	case collected.IsPositive():
		rowStatus = enums.PaymentStatusFullyPaid
	}
	rows := make([]models.InvoicePaymentDetail, 0, len(payments))
	for _, p := range payments {
		rows = append(rows, models.InvoicePaymentDetail{
			PaymentMethod:   p.PaymentMethod,
			Amount:          p.Amount,
			Status:          rowStatus,
			AccountNumber:   p.AccountNumber,
			AccountName:     p.AccountName,
			BankName:        p.BankName,
			ReferenceNumber: p.ReferenceNumber,
		})
	}
	return rows
}

func (s *service) MarkPaid(ctx context.Context, input MarkPaidInput) (*models.Invoice, []outbox.DomainEvent, error) {
	if err := validatePayments(input.Payments); err != nil {
		return nil, nil, err
	}
	var (
		out    *models.Invoice
		events []outbox.DomainEvent
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		invoice, err := txRepo.FindForUpdate(ctx, input.InvoiceID)
		if err != nil {
			return repo.MapError(err, "invoice")
		}
		switch invoice.Status {
		case enums.InvoiceStatusFullyPaid:
			out = invoice
			return nil
		case enums.InvoiceStatusCancelled:
			return pkgerrors.New(pkgerrors.CodeStateConflict, "Cannot pay a cancelled invoice")
		}

		if len(input.Payments) > 0 {
			rows := paymentRows(input.Payments, invoice.Total, enums.InvoiceStatusFullyPaid)
			if err := txRepo.ReplacePayments(ctx, invoice.ID, rows); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record payments")
			}
			invoice.Payments = rows
		} else {
			if err := txRepo.SetPaymentStatus(ctx, invoice.ID, enums.PaymentStatusFullyPaid); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update payments")
			}
			for i := range invoice.Payments {
				invoice.Payments[i].Status = enums.PaymentStatusFullyPaid
			}
		}

		actor := input.Actor
		if actor.CompanyID == 0 {
			actor.CompanyID = invoice.CompanyID
		}
		paid, err := s.settle(ctx, tx, invoice, &actor)
		if err != nil {
			return err
		}
		events = append(events, paid)
		out = invoice
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return out, events, nil
}

// settle deducts stock and sells serials for a fully paid invoice, then emits
// invoice_fully_paid.
func (s *service) settle(ctx context.Context, tx *gorm.DB, invoice *models.Invoice, actor *outbox.ActorRef) (outbox.DomainEvent, error) {
	txRepo := s.repo.WithTx(tx)
	source := stock.Source{Type: sourceType, ID: invoice.ID, Reference: invoice.Number}
	for i := range invoice.Details {
		d := &invoice.Details[i]
		if _, err := s.ledger.AdjustByID(ctx, tx, d.WarehouseProductID, d.Qty.Neg(), enums.StockMovementSale, source); err != nil {
			return outbox.DomainEvent{}, err
		}
		for j := range d.Serials {
			unit, err := s.serials.MarkSold(ctx, tx, d.WarehouseProductID, d.Serials[j].SerialNumber)
			if err != nil {
				return outbox.DomainEvent{}, err
			}
			if err := txRepo.LinkSerial(ctx, d.Serials[j].ID, unit.ID); err != nil {
				return outbox.DomainEvent{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "link sold serial")
			}
			d.Serials[j].WarehouseProductSerialID = &unit.ID
		}
	}

	paidAt := s.now().UTC()
	if err := txRepo.Update(ctx, invoice.ID, map[string]any{
		"status":         enums.InvoiceStatusFullyPaid,
		"stock_deducted": true,
		"paid_at":        paidAt,
	}); err != nil {
		return outbox.DomainEvent{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update invoice")
	}
	invoice.Status = enums.InvoiceStatusFullyPaid
	invoice.StockDeducted = true
	invoice.PaidAt = &paidAt

	return s.emit(ctx, tx, invoice, enums.EventInvoiceFullyPaid, actor, payloads.InvoiceFullyPaidEvent{
		InvoiceID: invoice.ID,
		CompanyID: invoice.CompanyID,
		Number:    invoice.Number,
		Total:     invoice.Total,
		PaidAt:    paidAt,
	})
}

// Cancel voids an invoice. A paid invoice puts its stock back and releases its
// serials; this is the only path that reverses a sale.
func (s *service) Cancel(ctx context.Context, invoiceID uint, actor outbox.ActorRef) (*models.Invoice, []outbox.DomainEvent, error) {
	var (
		out    *models.Invoice
		events []outbox.DomainEvent
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		invoice, err := txRepo.FindForUpdate(ctx, invoiceID)
		if err != nil {
			return repo.MapError(err, "invoice")
		}
		if invoice.Status == enums.InvoiceStatusCancelled {
			out = invoice
			return nil
		}

		previous := invoice.Status
		restored := false
		if invoice.StockDeducted {
			source := stock.Source{Type: sourceType, ID: invoice.ID, Reference: invoice.Number}
			for _, d := range invoice.Details {
				for _, sr := range d.Serials {
					if sr.WarehouseProductSerialID == nil {
						continue
					}
					if err := s.serials.Reverse(ctx, tx, *sr.WarehouseProductSerialID); err != nil {
						return err
					}
				}
				if _, err := s.ledger.AdjustByID(ctx, tx, d.WarehouseProductID, d.Qty, enums.StockMovementSaleReversal, source); err != nil {
					return err
				}
			}
			restored = true
		}

		cancelledAt := s.now().UTC()
		if err := txRepo.Update(ctx, invoice.ID, map[string]any{
			"status":         enums.InvoiceStatusCancelled,
			"stock_deducted": false,
			"cancelled_at":   cancelledAt,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update invoice")
		}
		invoice.Status = enums.InvoiceStatusCancelled
		invoice.StockDeducted = false
		invoice.CancelledAt = &cancelledAt

		if actor.CompanyID == 0 {
			actor.CompanyID = invoice.CompanyID
		}
		ev, err := s.emit(ctx, tx, invoice, enums.EventInvoiceCancelled, &actor, payloads.InvoiceCancelledEvent{
			InvoiceID:     invoice.ID,
			CompanyID:     invoice.CompanyID,
			Number:        invoice.Number,
			PreviousState: previous,
			StockRestored: restored,
		})
		if err != nil {
			return err
		}
		events = append(events, ev)
		out = invoice
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return out, events, nil
}

func (s *service) emit(ctx context.Context, tx *gorm.DB, invoice *models.Invoice, eventType enums.OutboxEventType, actor *outbox.ActorRef, data any) (outbox.DomainEvent, error) {
	event := outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregateInvoice,
		AggregateID:   invoice.ID,
		Actor:         actor,
		Data:          data,
		OccurredAt:    s.now().UTC(),
	}
	if err := s.outbox.Emit(ctx, tx, event); err != nil {
		return outbox.DomainEvent{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("emit %s", eventType))
	}
	return event, nil
}
