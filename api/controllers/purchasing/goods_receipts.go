package purchasing

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/stockledger-backend/api/middleware"
	"github.com/angelmondragon/stockledger-backend/api/responses"
	"github.com/angelmondragon/stockledger-backend/api/validators"
	"github.com/angelmondragon/stockledger-backend/internal/goodsreceipts"
	"github.com/angelmondragon/stockledger-backend/internal/serials"
	"github.com/angelmondragon/stockledger-backend/internal/tenancy"
	"github.com/angelmondragon/stockledger-backend/pkg/logger"
)

type receiveRequest struct {
	Qty     decimal.Decimal `json:"qty" validate:"gt=0"`
	Notes   *string         `json:"notes,omitempty" validate:"omitempty,max=1000"`
	Serials []serials.Input `json:"serials,omitempty" validate:"omitempty,dive"`
}

type returnRequest struct {
	Qty   decimal.Decimal `json:"qty" validate:"gt=0"`
	Notes *string         `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

func GetGoodsReceipt(svc goodsreceipts.Service, guard ownershipGuard, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := ownedID(w, r, guard, logg, tenancy.GoodsReceipt)
		if !ok {
			return
		}
		receipt, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, receipt)
	}
}

// ReceiveGoodsReceiptDetail books arriving quantity. Rejected serials are
// reported per index alongside the ones that were recorded.
func ReceiveGoodsReceiptDetail(svc goodsreceipts.Service, guard ownershipGuard, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := ownedID(w, r, guard, logg, tenancy.GoodsReceiptDetail)
		if !ok {
			return
		}
		var body receiveRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Receive(r.Context(), goodsreceipts.ReceiveInput{
			DetailID: id,
			Qty:      body.Qty,
			Notes:    body.Notes,
			Serials:  body.Serials,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		message := "Items received"
		if len(result.Errors) > 0 {
			message = "Some serials were rejected"
		}
		responses.WriteMessage(w, result, message)
	}
}

func ReturnGoodsReceiptDetail(svc goodsreceipts.Service, guard ownershipGuard, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := ownedID(w, r, guard, logg, tenancy.GoodsReceiptDetail)
		if !ok {
			return
		}
		var body returnRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		detail, err := svc.Return(r.Context(), goodsreceipts.ReturnInput{DetailID: id, Qty: body.Qty, Notes: body.Notes})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, detail, "Items returned")
	}
}

func DeleteGoodsReceiptSerial(svc goodsreceipts.Service, guard ownershipGuard, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := ownedID(w, r, guard, logg, tenancy.GoodsReceiptSerial)
		if !ok {
			return
		}
		detail, err := svc.DeleteSerial(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, detail, "Serial removed")
	}
}

// TransferGoodsReceipt moves a fully received receipt into its warehouse.
func TransferGoodsReceipt(svc goodsreceipts.Service, guard ownershipGuard, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := ownedID(w, r, guard, logg, tenancy.GoodsReceipt)
		if !ok {
			return
		}
		receipt, err := svc.Transfer(r.Context(), id, middleware.ActorFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, receipt, "Goods receipt transferred to warehouse")
	}
}
