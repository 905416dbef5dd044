package models

// All lists every persisted model in dependency order, for AutoMigrate in
// tests and sqlite development databases.
func All() []any {
	return []any{
		&Company{},
		&Warehouse{},
		&ProductVariant{},
		&Account{},
		&PaymentMethod{},
		&ExpenseCategory{},
		&AccountingSetting{},
		&WarehouseProduct{},
		&WarehouseProductSerial{},
		&StockMovement{},
		&PurchaseOrder{},
		&PurchaseOrderDetail{},
		&GoodsReceipt{},
		&GoodsReceiptDetail{},
		&GoodsReceiptSerial{},
		&StockTransfer{},
		&StockTransferDetail{},
		&StockTransferSerial{},
		&Invoice{},
		&InvoiceDetail{},
		&InvoiceDetailSerial{},
		&InvoicePaymentDetail{},
		&Expense{},
		&JournalEntry{},
		&JournalEntryDetail{},
		&OutboxEvent{},
		&OutboxDLQ{},
	}
}
