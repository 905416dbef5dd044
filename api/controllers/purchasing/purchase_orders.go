package purchasing

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/stockledger-backend/api/middleware"
	"github.com/angelmondragon/stockledger-backend/api/responses"
	"github.com/angelmondragon/stockledger-backend/api/validators"
	"github.com/angelmondragon/stockledger-backend/internal/purchaseorders"
	"github.com/angelmondragon/stockledger-backend/internal/tenancy"
	pkgerrors "github.com/angelmondragon/stockledger-backend/pkg/errors"
	"github.com/angelmondragon/stockledger-backend/pkg/logger"
)

type ownershipGuard interface {
	Require(ctx context.Context, resource tenancy.Resource, id, companyID uint) error
}

type createPurchaseOrderRequest struct {
	SupplierName string                     `json:"supplier_name" validate:"required,max=191"`
	WarehouseID  uint                       `json:"warehouse_id" validate:"required"`
	OrderDate    string                     `json:"order_date"`
	TaxRate      decimal.Decimal            `json:"tax_rate" validate:"gte=0,lte=100"`
	ShippingCost decimal.Decimal            `json:"shipping_cost" validate:"gte=0"`
	Remarks      *string                    `json:"remarks,omitempty" validate:"omitempty,max=1000"`
	Details      []purchaseOrderLineRequest `json:"details" validate:"required,min=1,dive"`
}

type purchaseOrderLineRequest struct {
	ProductVariantID uint            `json:"product_variant_id" validate:"required"`
	Qty              decimal.Decimal `json:"qty" validate:"gt=0"`
	Price            decimal.Decimal `json:"price" validate:"gte=0"`
}

// CreatePurchaseOrder opens a draft purchase order for the acting company.
func CreatePurchaseOrder(svc purchaseorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "purchase order service unavailable"))
			return
		}

		var body createPurchaseOrderRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderDate, err := validators.ParseDate("order_date", body.OrderDate)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actor := middleware.ActorFromContext(r.Context())
		input := purchaseorders.CreateInput{
			CompanyID:    actor.CompanyID,
			ActorUserID:  actor.UserID,
			SupplierName: body.SupplierName,
			WarehouseID:  body.WarehouseID,
			OrderDate:    orderDate,
			TaxRate:      body.TaxRate,
			ShippingCost: body.ShippingCost,
			Remarks:      validators.CleanOptional(body.Remarks),
		}
		for _, d := range body.Details {
			input.Details = append(input.Details, purchaseorders.DetailInput{
				ProductVariantID: d.ProductVariantID,
				Qty:              d.Qty,
				Price:            d.Price,
			})
		}

		order, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, order, "Purchase order created")
	}
}

func GetPurchaseOrder(svc purchaseorders.Service, guard ownershipGuard, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := ownedID(w, r, guard, logg, tenancy.PurchaseOrder)
		if !ok {
			return
		}
		order, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// DeletePurchaseOrder soft-deletes a draft, cancelled or rejected order.
func DeletePurchaseOrder(svc purchaseorders.Service, guard ownershipGuard, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := ownedID(w, r, guard, logg, tenancy.PurchaseOrder)
		if !ok {
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, map[string]uint{"id": id}, "Purchase order deleted")
	}
}

// TransitionPurchaseOrder applies the {action} path segment: submit, approve,
// reject, cancel or order.
func TransitionPurchaseOrder(svc purchaseorders.Service, guard ownershipGuard, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		action, err := purchaseorders.ParseAction(chi.URLParam(r, "action"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, ok := ownedID(w, r, guard, logg, tenancy.PurchaseOrder)
		if !ok {
			return
		}
		result, err := svc.Transition(r.Context(), id, action, middleware.ActorFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// ownedID parses the {id} parameter and confirms the acting company owns it.
// It writes the error response and returns false on failure.
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
