package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func TestPercent(t *testing.T) {
	assert.True(t, Percent(d("50"), d("12")).Equal(d("6")))
	assert.True(t, Percent(d("33.33"), d("12.5")).Equal(d("4.1663")))
	assert.True(t, Percent(d("100"), decimal.Zero).IsZero())
}

func TestLineTotalAndSum(t *testing.T) {
	assert.True(t, LineTotal(d("10"), d("5.00")).Equal(d("50")))
	assert.True(t, Sum(d("1.1"), d("2.2"), d("3.3")).Equal(d("6.6")))
	assert.True(t, Sum().IsZero())
}
