package validators

import (
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/angelmondragon/stockledger-backend/pkg/errors"
	"github.com/angelmondragon/stockledger-backend/pkg/pagination"
)

// ParsePage reads the limit and cursor query parameters used by every
// listing. A malformed cursor is rejected here rather than at the query.
func ParsePage(r *http.Request) (pagination.Params, error) {
	q := r.URL.Query()
	params := pagination.Params{Limit: pagination.DefaultLimit}

	if raw := strings.TrimSpace(q.Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > pagination.MaxLimit {
			return pagination.Params{}, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
				WithDetails(map[string]string{"limit": "must be between 1 and " + strconv.Itoa(pagination.MaxLimit)})
		}
		params.Limit = limit
	}

	if cursor := strings.TrimSpace(q.Get("cursor")); cursor != "" {
		if _, err := pagination.ParseCursor(cursor); err != nil {
			return pagination.Params{}, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
				WithDetails(map[string]string{"cursor": "is not a valid page cursor"})
		}
		params.Cursor = cursor
	}
	return params, nil
}
