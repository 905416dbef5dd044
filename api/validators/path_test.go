package validators

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/stockledger-backend/pkg/errors"
)

func requestWithParam(key, value string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rc := chi.NewRouteContext()
	rc.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
}

func TestParseIDParam(t *testing.T) {
	id, err := ParseIDParam(requestWithParam("id", "42"), "id")
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)

	for _, raw := range []string{"", "0", "-1", "abc"} {
		_, err := ParseIDParam(requestWithParam("id", raw), "id")
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "raw=%q", raw)
	}
}

func TestParseDate(t *testing.T) {
	got, err := ParseDate("invoice_date", "2026-03-01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), got)

	zero, err := ParseDate("invoice_date", " ")
	require.NoError(t, err)
	assert.True(t, zero.IsZero())

	_, err = ParseDate("invoice_date", "03/01/2026")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

type lineBody struct {
	Qty   decimal.Decimal `json:"qty" validate:"gt=0"`
	Price decimal.Decimal `json:"price" validate:"gte=0"`
}

type documentBody struct {
	Name  string     `json:"name" validate:"required,max=10"`
	Items []lineBody `json:"items" validate:"required,min=1,dive"`
}

func TestDecodeJSONBodyValidatesNestedDecimals(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"po","items":[{"qty":"0","price":"1.5"}]}`))
	var body documentBody
	err := DecodeJSONBody(req, &body)

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	details, ok := typed.Details().(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "must be greater than 0", details["items[0].qty"])
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"po","items":[{"qty":"1","price":"1"}],"extra":true}`))
	var body documentBody
	err := DecodeJSONBody(req, &body)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestDecodeJSONBodyAcceptsNumericQty(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"po","items":[{"qty":2,"price":"1.25"}]}`))
	var body documentBody
	require.NoError(t, DecodeJSONBody(req, &body))
	assert.True(t, body.Items[0].Qty.Equal(decimal.NewFromInt(2)))
}
