package expenses

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
	"github.com/angelmondragon/stockledger-backend/pkg/outbox"
	"github.com/angelmondragon/stockledger-backend/pkg/outbox/payloads"
)

const defaultCurrency = "PHP"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type numberGenerator interface {
	Next(ctx context.Context, tx *gorm.DB, companyID uint, doc enums.DocumentType) (string, error)
}

// Service records expenses. Create returns the expense_recorded event so the
// caller can hand it to journal posting once the transaction has committed.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Expense, []outbox.DomainEvent, error)
	Get(ctx context.Context, id uint) (*models.Expense, error)
}

type CreateInput struct {
	CompanyID     uint
	ActorUserID   uint
	CategoryID    uint
	SupplierName  *string
	Payee         string
	PaymentMethod enums.PaymentMethodCode
	Amount        decimal.Decimal
	Currency      string
	Description   *string
	ExpenseDate   time.Time
	// ReceiptPath is an opaque storage path.
	ReceiptPath *string
}

type ServiceParams struct {
	Repo       Repository
	Numbers    numberGenerator
	Outbox     outboxPublisher
	Tx         txRunner
	MaxRetries int
}

type service struct {
	repo       Repository
	numbers    numberGenerator
	outbox     outboxPublisher
	tx         txRunner
	maxRetries int
	now        func() time.Time
}

func NewService(p ServiceParams) (Service, error) {
	if p.Repo == nil {
		return nil, fmt.Errorf("expense repository required")
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
		numbers:    p.Numbers,
		outbox:     p.Outbox,
		tx:         p.Tx,
		maxRetries: p.MaxRetries,
		now:        time.Now,
	}, nil
}

func (s *service) Get(ctx context.Context, id uint) (*models.Expense, error) {
	expense, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, repo.MapError(err, "expense")
	}
	return expense, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Expense, []outbox.DomainEvent, error) {
	if err := validateCreate(input); err != nil {
		return nil, nil, err
	}

	var (
		created *models.Expense
		event   outbox.DomainEvent
	)
	err := numbering.WithRetry(ctx, s.maxRetries, func(int) error {
		return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			txRepo := s.repo.WithTx(tx)
			ok, err := txRepo.CategoryBelongsTo(ctx, input.CompanyID, input.CategoryID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check expense category")
			}
			if !ok {
				return pkgerrors.New(pkgerrors.CodeNotFound, "expense category not found")
			}

			number, err := s.numbers.Next(ctx, tx, input.CompanyID, enums.DocumentExpense)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "generate expense number")
			}
			expense := s.build(input, number)
			if err := txRepo.Create(ctx, expense); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create expense")
			}

			event = outbox.DomainEvent{
				EventType:     enums.EventExpenseRecorded,
				AggregateType: enums.AggregateExpense,
				AggregateID:   expense.ID,
				Actor:         &outbox.ActorRef{UserID: input.ActorUserID, CompanyID: input.CompanyID},
				Data: payloads.ExpenseRecordedEvent{
					ExpenseID:       expense.ID,
					CompanyID:       expense.CompanyID,
					ReferenceNumber: expense.ReferenceNumber,
					PaymentMethod:   expense.PaymentMethod,
					Amount:          expense.Amount,
				},
				OccurredAt: s.now().UTC(),
			}
			if err := s.outbox.Emit(ctx, tx, event); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit expense recorded")
			}
			created = expense
			return nil
		})
	})
	if err != nil {
		return nil, nil, err
	}
	return created, []outbox.DomainEvent{event}, nil
}

func validateCreate(input CreateInput) error {
	switch {
	case input.CompanyID == 0:
		return pkgerrors.New(pkgerrors.CodeValidation, "company is required")
	case input.CategoryID == 0:
		return pkgerrors.New(pkgerrors.CodeValidation, "category is required")
	case strings.TrimSpace(input.Payee) == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "payee is required")
	case !input.PaymentMethod.IsValid():
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid payment method %q", input.PaymentMethod))
	case !input.Amount.IsPositive():
		return pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	return nil
}

func (s *service) build(input CreateInput, number string) *models.Expense {
	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	if currency == "" {
		currency = defaultCurrency
	}
	date := input.ExpenseDate
	if date.IsZero() {
		date = s.now().UTC()
	}
	return &models.Expense{
		CompanyID:       input.CompanyID,
		ReferenceNumber: number,
		CategoryID:      input.CategoryID,
		SupplierName:    input.SupplierName,
		Payee:           strings.TrimSpace(input.Payee),
		PaymentMethod:   input.PaymentMethod,
		Amount:          input.Amount,
		Currency:        currency,
		Description:     input.Description,
		ExpenseDate:     date,
		ReceiptPath:     input.ReceiptPath,
	}
}
