package enums

import "fmt"

// OutboxAggregateType maps to outbox_events.aggregate_type.
type OutboxAggregateType string

const (
	AggregatePurchaseOrder OutboxAggregateType = "purchase_order"
	AggregateGoodsReceipt  OutboxAggregateType = "goods_receipt"
	AggregateStockTransfer OutboxAggregateType = "stock_transfer"
	AggregateInvoice       OutboxAggregateType = "invoice"
	AggregateExpense       OutboxAggregateType = "expense"
	AggregateJournalEntry  OutboxAggregateType = "journal_entry"
	AggregateWarehouseItem OutboxAggregateType = "warehouse_product"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregatePurchaseOrder,
	AggregateGoodsReceipt,
	AggregateStockTransfer,
	AggregateInvoice,
	AggregateExpense,
	AggregateJournalEntry,
	AggregateWarehouseItem,
}

// IsValid reports whether the value is a known aggregate type.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to outbox_events.event_type.
type OutboxEventType string

const (
	EventPurchaseOrderCreated       OutboxEventType = "purchase_order_created"
	EventPurchaseOrderStatusChanged OutboxEventType = "purchase_order_status_changed"
	EventGoodsReceiptCreated        OutboxEventType = "goods_receipt_created"
	EventGoodsReceiptReceived       OutboxEventType = "goods_receipt_received"
	EventGoodsReceiptTransferred    OutboxEventType = "goods_receipt_transferred"
	EventStockTransferCreated       OutboxEventType = "stock_transfer_created"
	EventStockTransferStatusChanged OutboxEventType = "stock_transfer_status_changed"
	EventStockTransferCompleted     OutboxEventType = "stock_transfer_completed"
	EventInvoiceCreated             OutboxEventType = "invoice_created"
	EventInvoiceFullyPaid           OutboxEventType = "invoice_fully_paid"
	EventInvoiceCancelled           OutboxEventType = "invoice_cancelled"
	EventExpenseRecorded            OutboxEventType = "expense_recorded"
	EventJournalEntryPosted         OutboxEventType = "journal_entry_posted"
	EventStockBelowCritical         OutboxEventType = "stock_below_critical"
)

var validOutboxEventTypes = []OutboxEventType{
	EventPurchaseOrderCreated,
	EventPurchaseOrderStatusChanged,
	EventGoodsReceiptCreated,
	EventGoodsReceiptReceived,
	EventGoodsReceiptTransferred,
	EventStockTransferCreated,
	EventStockTransferStatusChanged,
	EventStockTransferCompleted,
	EventInvoiceCreated,
	EventInvoiceFullyPaid,
	EventInvoiceCancelled,
	EventExpenseRecorded,
	EventJournalEntryPosted,
	EventStockBelowCritical,
}

// IsValid reports whether the value is a known event type.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
