package inventory

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/stockledger-backend/api/middleware"
	"github.com/angelmondragon/stockledger-backend/api/responses"
	"github.com/angelmondragon/stockledger-backend/api/validators"
	"github.com/angelmondragon/stockledger-backend/internal/stock"
	"github.com/angelmondragon/stockledger-backend/internal/tenancy"
	"github.com/angelmondragon/stockledger-backend/pkg/logger"
)

type ownershipGuard interface {
	Require(ctx context.Context, resource tenancy.Resource, id, companyID uint) error
}

type adjustRequest struct {
	Delta   decimal.Decimal `json:"delta"`
	Remarks string          `json:"remarks" validate:"required,max=1000"`
}

// WarehouseStock pages the stock rows held by a warehouse.
func WarehouseStock(svc stock.Service, guard ownershipGuard, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := ownedID(w, r, guard, logg, tenancy.Warehouse)
		if !ok {
			return
		}
		params, err := validators.ParsePage(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := svc.ListByWarehouse(r.Context(), id, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

// CriticalStock is the reorder report: rows at or below their critical level.
func CriticalStock(svc stock.Service, guard ownershipGuard, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := ownedID(w, r, guard, logg, tenancy.Warehouse)
		if !ok {
			return
		}
		rows, err := svc.BelowCriticalLevel(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

func StockMovements(svc stock.Service, guard ownershipGuard, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := ownedID(w, r, guard, logg, tenancy.WarehouseProduct)
		if !ok {
			return
		}
		params, err := validators.ParsePage(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := svc.ListMovements(r.Context(), id, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

// AdjustStock applies a physical-count correction to a non-serialized row.
func AdjustStock(svc stock.Service, guard ownershipGuard, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := ownedID(w, r, guard, logg, tenancy.WarehouseProduct)
		if !ok {
			return
		}
		var body adjustRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		row, err := svc.ManualAdjust(r.Context(), stock.ManualAdjustInput{
			WarehouseProductID: id,
			Delta:              body.Delta,
			Remarks:            validators.CleanText(body.Remarks),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, row, "Stock adjusted")
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
