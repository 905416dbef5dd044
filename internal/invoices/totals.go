package invoices

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/stockledger-backend/pkg/money"
)

// Totals are an invoice's derived amounts. Rates are percentages.
type Totals struct {
	Subtotal decimal.Decimal
	Discount decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// ComputeTotals applies the discount to the subtotal, taxes the discounted
// amount and adds shipping.
func ComputeTotals(items []ItemInput, discountRate, taxRate, shipping decimal.Decimal) Totals {
	lines := make([]decimal.Decimal, 0, len(items))
	for _, it := range items {
		lines = append(lines, money.LineTotal(it.Qty, it.Price))
	}
	subtotal := money.Sum(lines...)
	discount := money.Percent(subtotal, discountRate)
	tax := money.Percent(subtotal.Sub(discount), taxRate)
	return Totals{
		Subtotal: subtotal,
		Discount: discount,
		Tax:      tax,
		Total:    money.Round(subtotal.Sub(discount).Add(tax).Add(shipping)),
	}
}
