package middleware

import (
	"context"

	"github.com/angelmondragon/stockledger-backend/pkg/outbox"
)

type contextKey string

const (
	ctxUserID    contextKey = "user_id"
	ctxCompanyID contextKey = "company_id"
)

func UserIDFromContext(ctx context.Context) uint {
	if ctx == nil {
		return 0
	}
	if v, ok := ctx.Value(ctxUserID).(uint); ok {
		return v
	}
	return 0
}

func CompanyIDFromContext(ctx context.Context) uint {
	if ctx == nil {
		return 0
	}
	if v, ok := ctx.Value(ctxCompanyID).(uint); ok {
		return v
	}
	return 0
}

// ActorFromContext returns the acting user and company recorded by Actor.
func ActorFromContext(ctx context.Context) outbox.ActorRef {
	return outbox.ActorRef{UserID: UserIDFromContext(ctx), CompanyID: CompanyIDFromContext(ctx)}
}

// WithUserID injects the user identifier into the context.
func WithUserID(ctx context.Context, userID uint) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxUserID, userID)
}

// WithCompanyID injects the company identifier into the context for downstream handlers.
func WithCompanyID(ctx context.Context, companyID uint) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxCompanyID, companyID)
}
