package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/stockledger-backend/pkg/logger"
)

func serveWithRequestID(t *testing.T, logg *logger.Logger, inbound string) (echoed, seen string) {
	t.Helper()
	handler := RequestID(logg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
		if logg != nil {
			logg.Info(r.Context(), "handled")
		}
	}))
	req := httptest.NewRequest(http.MethodGet, "/api/v1/stock", nil)
	if inbound != "" {
		req.Header.Set(RequestIDHeader, inbound)
	}
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	return resp.Header().Get(RequestIDHeader), seen
}

func TestRequestIDKeepsInboundValue(t *testing.T) {
	buf := &bytes.Buffer{}
	logg := logger.New(logger.Options{ServiceName: "request-id-test", Output: buf})

	echoed, seen := serveWithRequestID(t, logg, "gw-7f3a91")
	assert.Equal(t, "gw-7f3a91", echoed)
	assert.Equal(t, "gw-7f3a91", seen)
	assert.Contains(t, buf.String(), `"request_id":"gw-7f3a91"`)
}

func TestRequestIDReplacesMissingOrMalformedValues(t *testing.T) {
	cases := map[string]string{
		"missing":   "",
		"too long":  strings.Repeat("a", maxRequestIDLen+1),
		"has space": "abc def",
		"non ascii": "päckchen",
	}
	for name, inbound := range cases {
		t.Run(name, func(t *testing.T) {
			echoed, seen := serveWithRequestID(t, nil, inbound)
			_, err := uuid.Parse(echoed)
			require.NoError(t, err)
			assert.Equal(t, echoed, seen)
		})
	}
}

func TestRequestIDFromContextEmptyWithoutMiddleware(t *testing.T) {
	assert.Empty(t, RequestIDFromContext(httptest.NewRequest(http.MethodGet, "/", nil).Context()))
}
