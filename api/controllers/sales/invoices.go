package sales

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/stockledger-backend/api/middleware"
	"github.com/angelmondragon/stockledger-backend/api/responses"
	"github.com/angelmondragon/stockledger-backend/api/validators"
	"github.com/angelmondragon/stockledger-backend/internal/invoices"
	"github.com/angelmondragon/stockledger-backend/internal/tenancy"
	"github.com/angelmondragon/stockledger-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/stockledger-backend/pkg/errors"
	"github.com/angelmondragon/stockledger-backend/pkg/logger"
	"github.com/angelmondragon/stockledger-backend/pkg/outbox"
)

type ownershipGuard interface {
	Require(ctx context.Context, resource tenancy.Resource, id, companyID uint) error
}

// postingDispatcher receives domain events once their transaction committed.
type postingDispatcher interface {
	Dispatch(ctx context.Context, events ...outbox.DomainEvent)
}

type createInvoiceRequest struct {
	CustomerName string               `json:"customer_name" validate:"required,max=191"`
	Type         string               `json:"type" validate:"required,oneof=pos-invoice sales-invoice"`
	Status       string               `json:"status" validate:"omitempty,oneof=draft fully-paid"`
	InvoiceDate  string               `json:"invoice_date"`
	DiscountRate decimal.Decimal      `json:"discount_rate" validate:"gte=0,lte=100"`
	TaxRate      decimal.Decimal      `json:"tax_rate" validate:"gte=0"`
	ShippingCost decimal.Decimal      `json:"shipping_cost" validate:"gte=0"`
	Currency     string               `json:"currency" validate:"omitempty,len=3"`
	Notes        *string              `json:"notes,omitempty" validate:"omitempty,max=1000"`
	Payments     []paymentRequest     `json:"payments,omitempty" validate:"omitempty,dive"`
	Items        []invoiceItemRequest `json:"items" validate:"required,min=1,dive"`
}

type paymentRequest struct {
	PaymentMethod   string          `json:"payment_method" validate:"required,oneof=cash bank-transfer credit-card gcash other"`
	Amount          decimal.Decimal `json:"amount" validate:"gte=0"`
	AccountNumber   *string         `json:"account_number,omitempty" validate:"omitempty,max=191"`
	AccountName     *string         `json:"account_name,omitempty" validate:"omitempty,max=191"`
	BankName        *string         `json:"bank_name,omitempty" validate:"omitempty,max=191"`
	ReferenceNumber *string         `json:"reference_number,omitempty" validate:"omitempty,max=191"`
}

type invoiceItemRequest struct {
	WarehouseProductID uint            `json:"warehouse_product_id" validate:"required"`
	Qty                decimal.Decimal `json:"qty" validate:"gt=0"`
	Price              decimal.Decimal `json:"price" validate:"gte=0"`
	Serials            []string        `json:"serials,omitempty" validate:"omitempty,dive,required,max=191"`
}

type markPaidRequest struct {
	Payments []paymentRequest `json:"payments,omitempty" validate:"omitempty,dive"`
}

// CreateInvoice records a sale. Fully paid invoices deduct stock in the same
// transaction and are posted to the journal after commit.
func CreateInvoice(svc invoices.Service, dispatcher postingDispatcher, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "invoice service unavailable"))
			return
		}
		var body createInvoiceRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		invoiceDate, err := validators.ParseDate("invoice_date", body.InvoiceDate)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actor := middleware.ActorFromContext(r.Context())
		input := invoices.CreateInput{
			CompanyID:    actor.CompanyID,
			ActorUserID:  actor.UserID,
			CustomerName: body.CustomerName,
			Type:         enums.InvoiceType(body.Type),
			Status:       enums.InvoiceStatus(body.Status),
			InvoiceDate:  invoiceDate,
			DiscountRate: body.DiscountRate,
			TaxRate:      body.TaxRate,
			ShippingCost: body.ShippingCost,
			Currency:     body.Currency,
			Notes:        body.Notes,
			Payments:     toPayments(body.Payments),
		}
		for _, item := range body.Items {
			input.Items = append(input.Items, invoices.ItemInput{
				WarehouseProductID: item.WarehouseProductID,
				Qty:                item.Qty,
				Price:              item.Price,
				Serials:            item.Serials,
			})
		}

		invoice, events, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dispatch(r, dispatcher, events)
		responses.WriteCreated(w, invoice, "Invoice created")
	}
}

func GetInvoice(svc invoices.Service, guard ownershipGuard, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := ownedID(w, r, guard, logg)
		if !ok {
			return
		}
		invoice, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, invoice)
	}
}

// PayInvoice settles a draft invoice, optionally replacing its payment rows.
func PayInvoice(svc invoices.Service, guard ownershipGuard, dispatcher postingDispatcher, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := ownedID(w, r, guard, logg)
		if !ok {
			return
		}
		var body markPaidRequest
		if r.ContentLength != 0 {
			if err := validators.DecodeJSONBody(r, &body); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}
		invoice, events, err := svc.MarkPaid(r.Context(), invoices.MarkPaidInput{
			InvoiceID: id,
			Actor:     middleware.ActorFromContext(r.Context()),
			Payments:  toPayments(body.Payments),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dispatch(r, dispatcher, events)
		responses.WriteMessage(w, invoice, "Invoice paid")
	}
}

func CancelInvoice(svc invoices.Service, guard ownershipGuard, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := ownedID(w, r, guard, logg)
		if !ok {
			return
		}
		invoice, _, err := svc.Cancel(r.Context(), id, middleware.ActorFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, invoice, "Invoice cancelled")
	}
}

func toPayments(in []paymentRequest) []invoices.PaymentInput {
	if len(in) == 0 {
		return nil
	}
	out := make([]invoices.PaymentInput, 0, len(in))
	for _, p := range in {
		out = append(out, invoices.PaymentInput{
			PaymentMethod:   enums.PaymentMethodCode(p.PaymentMethod),
			Amount:          p.Amount,
			AccountNumber:   p.AccountNumber,
			AccountName:     p.AccountName,
			BankName:        p.BankName,
			ReferenceNumber: p.ReferenceNumber,
		})
	}
	return out
}

// dispatch runs after the response data is final; posting outcomes never
// change the HTTP result.
func dispatch(r *http.Request, dispatcher postingDispatcher, events []outbox.DomainEvent) {
	if dispatcher == nil || len(events) == 0 {
		return
	}
	dispatcher.Dispatch(context.WithoutCancel(r.Context()), events...)
}

func ownedID(w http.ResponseWriter, r *http.Request, guard ownershipGuard, logg *logger.Logger) (uint, bool) {
	id, err := validators.ParseIDParam(r, "id")
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return 0, false
	}
	if err := guard.Require(r.Context(), tenancy.Invoice, id, middleware.CompanyIDFromContext(r.Context())); err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return 0, false
	}
	return id, true
}
