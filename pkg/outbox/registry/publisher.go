package registry

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/angelmondragon/stockledger-backend/pkg/config"
	"github.com/angelmondragon/stockledger-backend/pkg/db/models"
	"github.com/angelmondragon/stockledger-backend/pkg/enums"
	"github.com/angelmondragon/stockledger-backend/pkg/outbox"
	"github.com/angelmondragon/stockledger-backend/pkg/outbox/payloads"
)

// EventDescriptor links an event type to its aggregate/topic/payload schema.
type EventDescriptor struct {
	EventType      enums.OutboxEventType
	AggregateType  enums.OutboxAggregateType
	Topic          string
	PayloadFactory func() interface{}
}

// ResolvedEvent is the result of decoding an outbox row.
type ResolvedEvent struct {
	Descriptor EventDescriptor
	Envelope   outbox.PayloadEnvelope
	Payload    interface{}
}

// EventRegistry maps each supported event type to its descriptor.
type EventRegistry struct {
	entries map[enums.OutboxEventType]EventDescriptor
}

// NonRetryableError signals the dispatcher should stop retrying a row.
type NonRetryableError struct {
	Err error
}

// Error implements error.
func (e NonRetryableError) Error() string {
	if e.Err == nil {
		return "non-retryable error"
	}
	return e.Err.Error()
}

// Unwrap exposes the wrapped error.
func (e NonRetryableError) Unwrap() error {
	return e.Err
}

// NewEventRegistry builds the registry. Every document event goes to the domain topic.
func NewEventRegistry(cfg config.PubSubConfig) (*EventRegistry, error) {
	if cfg.DomainTopic == "" {
		return nil, fmt.Errorf("domain topic is required")
	}
	topic := cfg.DomainTopic

	reg := &EventRegistry{entries: make(map[enums.OutboxEventType]EventDescriptor)}
	for _, desc := range []EventDescriptor{
		{
			EventType:      enums.EventPurchaseOrderCreated,
			AggregateType:  enums.AggregatePurchaseOrder,
			PayloadFactory: func() interface{} { return &payloads.PurchaseOrderCreatedEvent{} },
		},
		{
			EventType:      enums.EventPurchaseOrderStatusChanged,
			AggregateType:  enums.AggregatePurchaseOrder,
			PayloadFactory: func() interface{} { return &payloads.PurchaseOrderStatusChangedEvent{} },
		},
		{
			EventType:      enums.EventGoodsReceiptCreated,
			AggregateType:  enums.AggregateGoodsReceipt,
			PayloadFactory: func() interface{} { return &payloads.GoodsReceiptCreatedEvent{} },
		},
		{
			EventType:      enums.EventGoodsReceiptReceived,
			AggregateType:  enums.AggregateGoodsReceipt,
			PayloadFactory: func() interface{} { return &payloads.GoodsReceiptReceivedEvent{} },
		},
		{
			EventType:      enums.EventGoodsReceiptTransferred,
			AggregateType:  enums.AggregateGoodsReceipt,
			PayloadFactory: func() interface{} { return &payloads.GoodsReceiptTransferredEvent{} },
		},
		{
			EventType:      enums.EventStockTransferCreated,
			AggregateType:  enums.AggregateStockTransfer,
			PayloadFactory: func() interface{} { return &payloads.StockTransferCreatedEvent{} },
		},
		{
			EventType:      enums.EventStockTransferStatusChanged,
			AggregateType:  enums.AggregateStockTransfer,
			PayloadFactory: func() interface{} { return &payloads.StockTransferStatusChangedEvent{} },
		},
		{
			EventType:      enums.EventStockTransferCompleted,
			AggregateType:  enums.AggregateStockTransfer,
			PayloadFactory: func() interface{} { return &payloads.StockTransferCompletedEvent{} },
		},
		{
			EventType:      enums.EventInvoiceCreated,
			AggregateType:  enums.AggregateInvoice,
			PayloadFactory: func() interface{} { return &payloads.InvoiceCreatedEvent{} },
		},
		{
			EventType:      enums.EventInvoiceFullyPaid,
			AggregateType:  enums.AggregateInvoice,
			PayloadFactory: func() interface{} { return &payloads.InvoiceFullyPaidEvent{} },
		},
		{
			EventType:      enums.EventInvoiceCancelled,
			AggregateType:  enums.AggregateInvoice,
			PayloadFactory: func() interface{} { return &payloads.InvoiceCancelledEvent{} },
		},
		{
			EventType:      enums.EventExpenseRecorded,
			AggregateType:  enums.AggregateExpense,
			PayloadFactory: func() interface{} { return &payloads.ExpenseRecordedEvent{} },
		},
		{
			EventType:      enums.EventJournalEntryPosted,
			AggregateType:  enums.AggregateJournalEntry,
			PayloadFactory: func() interface{} { return &payloads.JournalEntryPostedEvent{} },
		},
		{
			EventType:      enums.EventStockBelowCritical,
			AggregateType:  enums.AggregateWarehouseItem,
			PayloadFactory: func() interface{} { return &payloads.StockBelowCriticalEvent{} },
		},
	} {
		desc.Topic = topic
		reg.register(desc)
	}

	return reg, nil
}

func (r *EventRegistry) register(desc EventDescriptor) {
	if desc.PayloadFactory == nil {
		return
	}
	r.entries[desc.EventType] = desc
}

// Resolve validates the row and decodes its typed payload.
func (r *EventRegistry) Resolve(event models.OutboxEvent) (*ResolvedEvent, error) {
	desc, ok := r.entries[event.EventType]
	if !ok {
		return nil, NewNonRetryableError(fmt.Errorf("unsupported event type %s", event.EventType))
	}
	if desc.AggregateType != event.AggregateType {
		return nil, NewNonRetryableError(fmt.Errorf("aggregate mismatch: expected %s got %s", desc.AggregateType, event.AggregateType))
	}
	if event.AggregateID == 0 {
		return nil, NewNonRetryableError(fmt.Errorf("missing aggregate_id"))
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(event.Payload, &envelope); err != nil {
		return nil, NewNonRetryableError(fmt.Errorf("decode envelope: %w", err))
	}

	trimmed := bytes.TrimSpace(envelope.Data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, NewNonRetryableError(fmt.Errorf("payload missing for %s", event.EventType))
	}

	payload := desc.PayloadFactory()
	if err := json.Unmarshal(envelope.Data, payload); err != nil {
		return nil, NewNonRetryableError(fmt.Errorf("decode %s payload: %w", event.EventType, err))
	}

	return &ResolvedEvent{
		Descriptor: desc,
		Envelope:   envelope,
		Payload:    payload,
	}, nil
}

// NewNonRetryableError wraps an error to signal no retries.
func NewNonRetryableError(err error) NonRetryableError {
	return NonRetryableError{Err: err}
}
