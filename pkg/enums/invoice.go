package enums

import "fmt"

// InvoiceType distinguishes point-of-sale receipts from credit sales invoices.
type InvoiceType string

const (
	InvoiceTypePOS   InvoiceType = "pos-invoice"
	InvoiceTypeSales InvoiceType = "sales-invoice"
)

var validInvoiceTypes = []InvoiceType{InvoiceTypePOS, InvoiceTypeSales}

func (t InvoiceType) IsValid() bool {
	for _, candidate := range validInvoiceTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseInvoiceType converts raw input into InvoiceType.
func ParseInvoiceType(value string) (InvoiceType, error) {
	for _, candidate := range validInvoiceTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid invoice type %q", value)
}

// InvoiceStatus tracks whether an invoice has been recognized against stock.
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "draft"
	InvoiceStatusFullyPaid InvoiceStatus = "fully-paid"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

var validInvoiceStatuses = []InvoiceStatus{
	InvoiceStatusDraft,
	InvoiceStatusFullyPaid,
	InvoiceStatusCancelled,
}

func (s InvoiceStatus) IsValid() bool {
	for _, candidate := range validInvoiceStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseInvoiceStatus converts raw input into InvoiceStatus.
func ParseInvoiceStatus(value string) (InvoiceStatus, error) {
	for _, candidate := range validInvoiceStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid invoice status %q", value)
}

// PaymentStatus tracks collection on a single payment method detail row.
type PaymentStatus string

const (
	PaymentStatusUnpaid        PaymentStatus = "unpaid"
	PaymentStatusPartiallyPaid PaymentStatus = "partially-paid"
	PaymentStatusFullyPaid     PaymentStatus = "fully-paid"
)

func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusUnpaid, PaymentStatusPartiallyPaid, PaymentStatusFullyPaid:
		return true
	}
	return false
}
