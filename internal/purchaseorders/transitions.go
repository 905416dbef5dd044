package purchaseorders

import (
	"fmt"

	"github.com/angelmondragon/stockledger-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/stockledger-backend/pkg/errors"
)

// Action is a client-requested purchase order transition.
type Action string

const (
	ActionSubmit  Action = "submit"
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
	ActionCancel  Action = "cancel"
	ActionOrder   Action = "order"
	ActionReceive Action = "receive"
)

type rule struct {
	from []enums.PurchaseOrderStatus
	to   enums.PurchaseOrderStatus
}

var rules = map[Action]rule{
	ActionSubmit:  {from: []enums.PurchaseOrderStatus{enums.PurchaseOrderStatusDraft}, to: enums.PurchaseOrderStatusPending},
	ActionApprove: {from: []enums.PurchaseOrderStatus{enums.PurchaseOrderStatusPending}, to: enums.PurchaseOrderStatusApproved},
	ActionReject:  {from: []enums.PurchaseOrderStatus{enums.PurchaseOrderStatusPending, enums.PurchaseOrderStatusApproved}, to: enums.PurchaseOrderStatusRejected},
	ActionCancel:  {from: []enums.PurchaseOrderStatus{enums.PurchaseOrderStatusPending, enums.PurchaseOrderStatusApproved}, to: enums.PurchaseOrderStatusCancelled},
	ActionOrder:   {from: []enums.PurchaseOrderStatus{enums.PurchaseOrderStatusApproved}, to: enums.PurchaseOrderStatusOrdered},
	ActionReceive: {from: []enums.PurchaseOrderStatus{enums.PurchaseOrderStatusOrdered}, to: enums.PurchaseOrderStatusReceived},
}

// ParseAction converts a path segment into an Action. Receive is driven by
// goods receipts and is not accepted from clients.
func ParseAction(value string) (Action, error) {
	a := Action(value)
	if _, ok := rules[a]; !ok || a == ActionReceive {
		return "", pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown purchase order action %q", value))
	}
	return a, nil
}

// next resolves the target status for action. noop is true when the order is
// already in the target status.
func next(current enums.PurchaseOrderStatus, action Action) (target enums.PurchaseOrderStatus, noop bool, err error) {
	r, ok := rules[action]
	if !ok {
		return "", false, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown purchase order action %q", action))
	}
	if current == r.to {
		return r.to, true, nil
	}
	for _, from := range r.from {
		if from == current {
			return r.to, false, nil
		}
	}
	return "", false, pkgerrors.New(pkgerrors.CodeStateConflict,
		fmt.Sprintf("Cannot %s a purchase order that is %s", action, current)).
		WithDetails(map[string]any{"status": current, "action": action})
}
