package numbering

import (
	"context"
	"errors"
	"strings"

	"github.com/angelmondragon/stockledger-backend/pkg/db"
)

var numberConstraints = []string{
	"idx_purchase_orders_company_number",
	"idx_goods_receipts_company_number",
	"idx_stock_transfers_company_number",
	"idx_invoices_company_number",
	"idx_expenses_company_number",
}

// IsNumberConflict reports whether err is a unique violation on a document
// number column, i.e. another request took the same number first.
func IsNumberConflict(err error) bool {
	for _, name := range numberConstraints {
		if db.IsUniqueViolation(err, name) {
			return true
		}
	}
	// sqlite names columns instead of constraints
	if !db.IsUniqueViolation(err, "") {
		return false
	}
	for e := err; e != nil; e = errors.Unwrap(e) {
		msg := e.Error()
		if strings.Contains(msg, ".number") || strings.Contains(msg, "expenses.reference_number") {
			return true
		}
	}
	return false
}

// WithRetry runs fn, re-running it while it fails on a number conflict, up to
// maxRetries additional attempts. fn must open its own transaction so each
// attempt regenerates its number.
func WithRetry(ctx context.Context, maxRetries int, fn func(attempt int) error) error {
	if maxRetries < 0 {
		maxRetries = 0
	}
	var err error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		err = fn(attempt)
		if err == nil || !IsNumberConflict(err) {
			return err
		}
	}
	return err
}
