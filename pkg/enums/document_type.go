package enums

// DocumentType identifies a numbered document and carries its reference code.
type DocumentType string

const (
	DocumentPurchaseOrder DocumentType = "PO"
	DocumentGoodsReceipt  DocumentType = "GR"
	DocumentStockTransfer DocumentType = "ST"
	DocumentInvoice       DocumentType = "INV"
	DocumentExpense       DocumentType = "EXP"
	DocumentJournalEntry  DocumentType = "JE"
)

func (d DocumentType) IsValid() bool {
	switch d {
	case DocumentPurchaseOrder, DocumentGoodsReceipt, DocumentStockTransfer,
		DocumentInvoice, DocumentExpense, DocumentJournalEntry:
		return true
	}
	return false
}

// Code returns the short code used inside reference numbers.
func (d DocumentType) Code() string {
	return string(d)
}
