package enums

import "fmt"

// PaymentMethodCode maps to payment_methods.code and resolves a ledger account.
type PaymentMethodCode string

const (
	PaymentMethodCash         PaymentMethodCode = "cash"
	PaymentMethodBankTransfer PaymentMethodCode = "bank-transfer"
	PaymentMethodCreditCard   PaymentMethodCode = "credit-card"
	PaymentMethodGCash        PaymentMethodCode = "gcash"
	PaymentMethodOther        PaymentMethodCode = "other"
)

var validPaymentMethodCodes = []PaymentMethodCode{
	PaymentMethodCash,
	PaymentMethodBankTransfer,
	PaymentMethodCreditCard,
	PaymentMethodGCash,
	PaymentMethodOther,
}

func (c PaymentMethodCode) IsValid() bool {
	for _, candidate := range validPaymentMethodCodes {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParsePaymentMethodCode converts raw input into PaymentMethodCode.
func ParsePaymentMethodCode(value string) (PaymentMethodCode, error) {
	for _, candidate := range validPaymentMethodCodes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment method %q", value)
}
