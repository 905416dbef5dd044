package journal

import (
	"context"
	"fmt"

	"github.com/angelmondragon/stockledger-backend/pkg/enums"
	"github.com/angelmondragon/stockledger-backend/pkg/logger"
	"github.com/angelmondragon/stockledger-backend/pkg/outbox"
)

type poster interface {
	PostExpense(ctx context.Context, expenseID uint) (Result, error)
	PostInvoice(ctx context.Context, invoiceID uint) (Result, error)
}

// Dispatcher forwards committed domain events to the posting engine. It never
// returns an error: a failed posting leaves the document unjournaled for the
// reconciler to pick up.
type Dispatcher struct {
	engine poster
	logg   *logger.Logger
}

func NewDispatcher(engine poster, logg *logger.Logger) (*Dispatcher, error) {
	if engine == nil {
		return nil, fmt.Errorf("posting engine required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Dispatcher{engine: engine, logg: logg}, nil
}

// Dispatch must only be called after the transaction that produced events has
// committed. Events other than invoice_fully_paid and expense_recorded are
// ignored.
func (d *Dispatcher) Dispatch(ctx context.Context, events ...outbox.DomainEvent) {
	for _, event := range events {
		var err error
		switch event.EventType {
		case enums.EventInvoiceFullyPaid:
			_, err = d.engine.PostInvoice(ctx, event.AggregateID)
		case enums.EventExpenseRecorded:
			_, err = d.engine.PostExpense(ctx, event.AggregateID)
		default:
			continue
		}
		if err != nil {
			d.logg.Error(d.logg.WithFields(ctx, map[string]any{
				"event_type":   event.EventType,
				"aggregate_id": event.AggregateID,
			}), "journal posting failed", err)
		}
	}
}
