package journal

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/angelmondragon/stockledger-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/stockledger-backend/pkg/errors"
	"github.com/angelmondragon/stockledger-backend/pkg/logger"
	"github.com/angelmondragon/stockledger-backend/pkg/outbox"
	"github.com/angelmondragon/stockledger-backend/pkg/outbox/payloads"
)

const postingConsumerName = "journal-posting"

type processedMarker interface {
	CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
	Delete(ctx context.Context, consumer string, eventID uuid.UUID) error
}

// Consumer posts journal entries from the domain event subscription. It is the
// durable counterpart of Dispatcher: a posting lost when the API process dies
// after commit is picked up here once the outbox row is published.
type Consumer struct {
	engine       poster
	subscription *pubsub.Subscriber
	idempotency  processedMarker
	logg         *logger.Logger
}

func NewConsumer(engine poster, subscription *pubsub.Subscriber, marker processedMarker, logg *logger.Logger) (*Consumer, error) {
	if engine == nil {
		return nil, fmt.Errorf("posting engine required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("domain subscription required")
	}
	if marker == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{engine: engine, subscription: subscription, idempotency: marker, logg: logg}, nil
}

// Run receives until ctx is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		if c.process(ctx, msg.ID, msg.Attributes["event_type"], msg.Data) {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

// process handles one delivery and reports whether it should be redelivered.
func (c *Consumer) process(ctx context.Context, messageID, eventType string, data []byte) (retry bool) {
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": messageID,
		"event_type": eventType,
	})

	if eventType != string(enums.EventInvoiceFullyPaid) && eventType != string(enums.EventExpenseRecorded) {
		return false
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return false
	}
	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return false
	}

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, postingConsumerName, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return true
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return false
	}

	result, err := c.post(ctx, enums.OutboxEventType(eventType), envelope.Data)
	if err != nil {
		retry = retryable(err)
		if retry {
			if derr := c.idempotency.Delete(ctx, postingConsumerName, eventID); derr != nil {
				c.logg.Warn(c.logg.WithField(logCtx, "error", derr.Error()), "release processed marker failed, redelivery will be skipped")
			}
		}
		c.logg.Error(c.logg.WithField(logCtx, "retry", retry), "journal posting failed", err)
		return retry
	}

	c.logg.Info(c.logg.WithField(logCtx, "outcome", string(result.Outcome)), "journal posting handled")
	return false
}

func (c *Consumer) post(ctx context.Context, eventType enums.OutboxEventType, data json.RawMessage) (Result, error) {
	switch eventType {
	case enums.EventInvoiceFullyPaid:
		var payload payloads.InvoiceFullyPaidEvent
		if err := json.Unmarshal(data, &payload); err != nil || payload.InvoiceID == 0 {
			return Result{}, pkgerrors.New(pkgerrors.CodeValidation, "invoice_fully_paid payload missing invoice_id")
		}
		return c.engine.PostInvoice(ctx, payload.InvoiceID)
	default:
		var payload payloads.ExpenseRecordedEvent
		if err := json.Unmarshal(data, &payload); err != nil || payload.ExpenseID == 0 {
			return Result{}, pkgerrors.New(pkgerrors.CodeValidation, "expense_recorded payload missing expense_id")
		}
		return c.engine.PostExpense(ctx, payload.ExpenseID)
	}
}

func retryable(err error) bool {
	typed := pkgerrors.As(err)
	if typed == nil {
		return true
	}
	return pkgerrors.MetadataFor(typed.Code()).Retryable
}
