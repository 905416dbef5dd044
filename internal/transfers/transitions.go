package transfers

import (
	"fmt"

	"github.com/angelmondragon/stockledger-backend/pkg/db/models"
	"github.com/angelmondragon/stockledger-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/stockledger-backend/pkg/errors"
)

type Action string

const (
	ActionApprove  Action = "approve"
	ActionReject   Action = "reject"
	ActionCancel   Action = "cancel"
	ActionComplete Action = "complete"
)

var reviewTargets = map[Action]enums.StockTransferStatus{
	ActionApprove: enums.StockTransferStatusApproved,
	ActionReject:  enums.StockTransferStatusRejected,
	ActionCancel:  enums.StockTransferStatusCancelled,
}

func ParseAction(value string) (Action, error) {
	a := Action(value)
	if _, ok := reviewTargets[a]; ok || a == ActionComplete {
		return a, nil
	}
	return "", pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown stock transfer action %q", value))
}

// review resolves approve, reject and cancel. All three only leave pending.
func review(current enums.StockTransferStatus, action Action) (enums.StockTransferStatus, bool, error) {
	target, ok := reviewTargets[action]
	if !ok {
		return "", false, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown stock transfer action %q", action))
	}
	if current == target {
		return target, true, nil
	}
	if current != enums.StockTransferStatusPending {
		return "", false, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("Cannot %s a stock transfer that is %s", action, current)).
			WithDetails(map[string]any{"status": current, "action": action})
	}
	return target, false, nil
}

// receivedStatus derives the status after a receipt at the destination.
func receivedStatus(details []models.StockTransferDetail) enums.StockTransferStatus {
	for _, d := range details {
		if d.TransferredQty.LessThan(d.Qty) {
			return enums.StockTransferStatusPartiallyReceived
		}
	}
	return enums.StockTransferStatusFullyTransferred
}
