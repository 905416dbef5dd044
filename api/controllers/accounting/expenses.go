package accounting

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/stockledger-backend/api/middleware"
	"github.com/angelmondragon/stockledger-backend/api/responses"
	"github.com/angelmondragon/stockledger-backend/api/validators"
	"github.com/angelmondragon/stockledger-backend/internal/expenses"
	"github.com/angelmondragon/stockledger-backend/internal/tenancy"
	"github.com/angelmondragon/stockledger-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/stockledger-backend/pkg/errors"
	"github.com/angelmondragon/stockledger-backend/pkg/logger"
	"github.com/angelmondragon/stockledger-backend/pkg/outbox"
)

type ownershipGuard interface {
	Require(ctx context.Context, resource tenancy.Resource, id, companyID uint) error
}

type postingDispatcher interface {
	Dispatch(ctx context.Context, events ...outbox.DomainEvent)
}

type createExpenseRequest struct {
	CategoryID    uint            `json:"category_id" validate:"required"`
	SupplierName  *string         `json:"supplier_name,omitempty" validate:"omitempty,max=191"`
	Payee         string          `json:"payee" validate:"required,max=191"`
	PaymentMethod string          `json:"payment_method" validate:"required,oneof=cash bank-transfer credit-card gcash other"`
	Amount        decimal.Decimal `json:"amount" validate:"gt=0"`
	Currency      string          `json:"currency" validate:"omitempty,len=3"`
	Description   *string         `json:"description,omitempty" validate:"omitempty,max=1000"`
	ExpenseDate   string          `json:"expense_date"`
	ReceiptPath   *string         `json:"receipt_path,omitempty" validate:"omitempty,max=1024"`
}

// CreateExpense records an expense and posts it to the journal after commit.
func CreateExpense(svc expenses.Service, dispatcher postingDispatcher, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "expense service unavailable"))
			return
		}
		var body createExpenseRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		expenseDate, err := validators.ParseDate("expense_date", body.ExpenseDate)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actor := middleware.ActorFromContext(r.Context())
		expense, events, err := svc.Create(r.Context(), expenses.CreateInput{
			CompanyID:     actor.CompanyID,
			ActorUserID:   actor.UserID,
			CategoryID:    body.CategoryID,
			SupplierName:  validators.CleanOptional(body.SupplierName),
			Payee:         validators.CleanText(body.Payee),
			PaymentMethod: enums.PaymentMethodCode(body.PaymentMethod),
			Amount:        body.Amount,
			Currency:      body.Currency,
			Description:   validators.CleanOptional(body.Description),
			ExpenseDate:   expenseDate,
			ReceiptPath:   body.ReceiptPath,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if dispatcher != nil && len(events) > 0 {
			dispatcher.Dispatch(context.WithoutCancel(r.Context()), events...)
		}
		responses.WriteCreated(w, expense, "Expense recorded")
	}
}

func GetExpense(svc expenses.Service, guard ownershipGuard, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := ownedID(w, r, guard, logg, tenancy.Expense)
		if !ok {
			return
		}
		expense, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, expense)
	}
}

func ownedID(w http.ResponseWriter, r *http.Request, guard ownershipGuard, logg *logger.Logger, resource tenancy.Resource) (uint, bool) {
	id, err := validators.ParseIDParam(r, "id")
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return 0, false
	}
	if err := guard.Require(r.Context(), resource, id, middleware.CompanyIDFromContext(r.Context())); err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return 0, false
	}
	return id, true
}
