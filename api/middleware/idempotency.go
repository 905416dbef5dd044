package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/angelmondragon/stockledger-backend/api/responses"
	pkgerrors "github.com/angelmondragon/stockledger-backend/pkg/errors"
	"github.com/angelmondragon/stockledger-backend/pkg/logger"
)

const (
	IdempotencyHeader = "Idempotency-Key"

	defaultIdempotencyTTL  = 24 * time.Hour
	criticalIdempotencyTTL = 7 * 24 * time.Hour
)

// replayableRoutes maps POST path globs to how long their responses are kept.
// Money movements and transfer completion are kept for a week.
var replayableRoutes = []struct {
	glob string
	ttl  time.Duration
}{
	{"/api/v1/invoices", criticalIdempotencyTTL},
	{"/api/v1/invoices/*/pay", criticalIdempotencyTTL},
	{"/api/v1/invoices/*/cancel", criticalIdempotencyTTL},
	{"/api/v1/stock-transfers/*/complete", criticalIdempotencyTTL},

	{"/api/v1/purchase-orders", defaultIdempotencyTTL},
	{"/api/v1/purchase-orders/*/*", defaultIdempotencyTTL},
	{"/api/v1/goods-receipts/*/transfer", defaultIdempotencyTTL},
	{"/api/v1/goods-receipt-details/*/*", defaultIdempotencyTTL},
	{"/api/v1/stock-transfers", defaultIdempotencyTTL},
	{"/api/v1/stock-transfers/immediate", defaultIdempotencyTTL},
	{"/api/v1/stock-transfer-details/*/receive", defaultIdempotencyTTL},
	{"/api/v1/warehouse-products/*/adjust", defaultIdempotencyTTL},
	{"/api/v1/expenses", defaultIdempotencyTTL},
	{"/api/v1/journal-entries", defaultIdempotencyTTL},
}

// IdempotencyStore is the redis surface used to persist replayable responses.
type IdempotencyStore interface {
	Get(context.Context, string) (string, error)
	SetNX(context.Context, string, any, time.Duration) (bool, error)
	IdempotencyKey(scope, id string) string
}

type storedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type,omitempty"`
	Body        []byte `json:"body"`
	RequestHash string `json:"request_hash"`
}

// Idempotency replays the stored response of a covered write when the client
// repeats its Idempotency-Key. Requests without the header pass through, and
// 5xx responses are never stored so the client can retry them.
func Idempotency(store IdempotencyStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if store == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientKey := strings.TrimSpace(r.Header.Get(IdempotencyHeader))
			ttl, covered := routeTTL(r.Method, r.URL.Path)
			if !covered || clientKey == "" {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()

			body, err := io.ReadAll(r.Body)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unreadable request body"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))
			digest := sha256.Sum256(body)
			hash := base64.RawStdEncoding.EncodeToString(digest[:])
			key := store.IdempotencyKey(requestScope(r), clientKey)

			prior, err := lookupResponse(ctx, store, key)
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			if prior != nil {
				if prior.RequestHash != hash {
					responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with different request body"))
					return
				}
				if prior.ContentType != "" {
					w.Header().Set("Content-Type", prior.ContentType)
				}
				w.WriteHeader(prior.Status)
				_, _ = w.Write(prior.Body)
				return
			}

			capture := &responseCapture{ResponseWriter: w}
			next.ServeHTTP(capture, r)
			status := capture.statusOrOK()
			if status >= http.StatusInternalServerError {
				return
			}

			payload, err := json.Marshal(storedResponse{
				Status:      status,
				ContentType: capture.Header().Get("Content-Type"),
				Body:        capture.body.Bytes(),
				RequestHash: hash,
			})
			if err == nil {
				_, err = store.SetNX(ctx, key, string(payload), ttl)
			}
			if err != nil && logg != nil {
				logg.Error(ctx, "persist idempotency record", err)
			}
		})
	}
}

func lookupResponse(ctx context.Context, store IdempotencyStore, key string) (*storedResponse, error) {
	raw, err := store.Get(ctx, key)
	if errors.Is(err, redis.Nil) || (err == nil && raw == "") {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency")
	}
	var prior storedResponse
	if err := json.Unmarshal([]byte(raw), &prior); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode idempotency record")
	}
	return &prior, nil
}

// requestScope keys a response to the tenant, the actor and the exact target.
func requestScope(r *http.Request) string {
	ctx := r.Context()
	return fmt.Sprintf("%d|%d|%s|%s", CompanyIDFromContext(ctx), UserIDFromContext(ctx), r.Method, r.URL.Path)
}

func routeTTL(method, p string) (time.Duration, bool) {
	if method != http.MethodPost || p == "" {
		return 0, false
	}
	p = strings.TrimSuffix(p, "/")
	for _, route := range replayableRoutes {
		if ok, _ := path.Match(route.glob, p); ok {
			return route.ttl, true
		}
	}
	return 0, false
}

type responseCapture struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (r *responseCapture) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseCapture) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

func (r *responseCapture) statusOrOK() int {
	if r.status == 0 {
		return http.StatusOK
	}
	return r.status
}
