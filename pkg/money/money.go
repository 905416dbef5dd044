// Package money holds the rounding rules shared by document totals.
package money

import "github.com/shopspring/decimal"

// Scale matches the numeric(18,4) money columns.
const Scale = 4

var hundred = decimal.NewFromInt(100)

func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Scale)
}

// LineTotal is qty × price.
func LineTotal(qty, price decimal.Decimal) decimal.Decimal {
	return Round(qty.Mul(price))
}

// Percent applies a percentage rate, where 12 means 12%.
func Percent(amount, rate decimal.Decimal) decimal.Decimal {
	return Round(amount.Mul(rate).Div(hundred))
}

// Sum adds values.
func Sum(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}
