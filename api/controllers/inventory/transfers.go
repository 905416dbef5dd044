package inventory

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/stockledger-backend/api/middleware"
	"github.com/angelmondragon/stockledger-backend/api/responses"
	"github.com/angelmondragon/stockledger-backend/api/validators"
	"github.com/angelmondragon/stockledger-backend/internal/tenancy"
	"github.com/angelmondragon/stockledger-backend/internal/transfers"
	pkgerrors "github.com/angelmondragon/stockledger-backend/pkg/errors"
	"github.com/angelmondragon/stockledger-backend/pkg/logger"
)

type storeTransferRequest struct {
	OriginWarehouseID      uint                    `json:"origin_warehouse_id" validate:"required"`
	DestinationWarehouseID uint                    `json:"destination_warehouse_id" validate:"required"`
	TransferDate           string                  `json:"transfer_date"`
	Remarks                *string                 `json:"remarks,omitempty" validate:"omitempty,max=1000"`
	Details                []transferDetailRequest `json:"details" validate:"required,min=1,dive"`
}

type transferDetailRequest struct {
	OriginWarehouseProductID uint            `json:"origin_warehouse_product_id" validate:"required"`
	Qty                      decimal.Decimal `json:"qty" validate:"gt=0"`
	Serials                  []string        `json:"serials,omitempty" validate:"omitempty,dive,required,max=191"`
}

type validateSerialRequest struct {
	WarehouseProductID uint   `json:"warehouse_product_id" validate:"required"`
	SerialNumber       string `json:"serial_number" validate:"required,max=191"`
}

type receiveTransferRequest struct {
	Qty           decimal.Decimal `json:"qty" validate:"gt=0"`
	SerialNumbers []string        `json:"serial_numbers,omitempty" validate:"omitempty,dive,required,max=191"`
}

// StoreTransfer creates a staged transfer that reserves origin stock until it
// is completed.
func StoreTransfer(svc transfers.Service, logg *logger.Logger) http.HandlerFunc {
	return storeTransfer(svc, logg, false)
}

// StoreImmediateTransfer moves the stock in the same request and lands the
// transfer in completed.
func StoreImmediateTransfer(svc transfers.Service, logg *logger.Logger) http.HandlerFunc {
	return storeTransfer(svc, logg, true)
}

func storeTransfer(svc transfers.Service, logg *logger.Logger, immediate bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "stock transfer service unavailable"))
			return
		}
		var body storeTransferRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		transferDate, err := validators.ParseDate("transfer_date", body.TransferDate)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actor := middleware.ActorFromContext(r.Context())
		input := transfers.StoreInput{
			CompanyID:              actor.CompanyID,
			ActorUserID:            actor.UserID,
			OriginWarehouseID:      body.OriginWarehouseID,
			DestinationWarehouseID: body.DestinationWarehouseID,
			TransferDate:           transferDate,
			Remarks:                validators.CleanOptional(body.Remarks),
		}
		for _, d := range body.Details {
			input.Details = append(input.Details, transfers.DetailInput{
				OriginWarehouseProductID: d.OriginWarehouseProductID,
				Qty:                      d.Qty,
				Serials:                  d.Serials,
			})
		}

		store := svc.Store
		if immediate {
			store = svc.StoreImmediate
		}
		transfer, err := store(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, transfer, "Stock transfer created")
	}
}

func GetTransfer(svc transfers.Service, guard ownershipGuard, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := ownedID(w, r, guard, logg, tenancy.StockTransfer)
		if !ok {
			return
		}
		transfer, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, transfer)
	}
}

// TransitionTransfer applies approve, reject or cancel. Complete has its own
// handler because it moves stock.
func TransitionTransfer(svc transfers.Service, guard ownershipGuard, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		action, err := transfers.ParseAction(chi.URLParam(r, "action"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, ok := ownedID(w, r, guard, logg, tenancy.StockTransfer)
		if !ok {
			return
		}
		transfer, err := svc.Transition(r.Context(), id, action, middleware.ActorFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, transfer)
	}
}

func CompleteTransfer(svc transfers.Service, guard ownershipGuard, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := ownedID(w, r, guard, logg, tenancy.StockTransfer)
		if !ok {
			return
		}
		transfer, err := svc.Complete(r.Context(), id, middleware.ActorFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, transfer, "Stock transfer completed")
	}
}

// ValidateTransferSerial answers whether a scanned serial can be received.
// An invalid serial is a 200 with valid=false and the reason.
func ValidateTransferSerial(svc transfers.Service, guard ownershipGuard, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := ownedID(w, r, guard, logg, tenancy.StockTransfer)
		if !ok {
			return
		}
		var body validateSerialRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.ValidateSerial(r.Context(), id, body.WarehouseProductID, body.SerialNumber)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func ReceiveTransferDetail(svc transfers.Service, guard ownershipGuard, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := ownedID(w, r, guard, logg, tenancy.StockTransferDetail)
		if !ok {
			return
		}
		var body receiveTransferRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		transfer, err := svc.Receive(r.Context(), transfers.ReceiveInput{
			DetailID:      id,
			Qty:           body.Qty,
			SerialNumbers: body.SerialNumbers,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, transfer, "Items received")
	}
}
