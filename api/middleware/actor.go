package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/angelmondragon/stockledger-backend/api/responses"
	pkgerrors "github.com/angelmondragon/stockledger-backend/pkg/errors"
	"github.com/angelmondragon/stockledger-backend/pkg/logger"
)

const (
	userIDHeader    = "X-User-Id"
	companyIDHeader = "X-Company-Id"
)

// Actor reads the caller identity forwarded by the upstream gateway. The
// gateway authenticates; this service only trusts the headers it sets.
func Actor(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			companyID, err := parseIDHeader(r, companyIDHeader)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			userID, err := parseIDHeader(r, userIDHeader)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}

			ctx := WithCompanyID(r.Context(), companyID)
			ctx = WithUserID(ctx, userID)
			if logg != nil {
				ctx = logg.WithCompanyID(ctx, companyID)
				ctx = logg.WithUserID(ctx, userID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func parseIDHeader(r *http.Request, header string) (uint, error) {
	raw := strings.TrimSpace(r.Header.Get(header))
	if raw == "" {
		return 0, pkgerrors.New(pkgerrors.CodeUnauthorized, header+" header required")
	}
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || value == 0 {
		return 0, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid "+header+" header")
	}
	return uint(value), nil
}
