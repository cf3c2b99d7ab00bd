package internal

import (
	"context"
	"time"
)

type ctxKey string

const (
	ContextClientIPKey  ctxKey = "clientIP"
	ContextUserAgentKey ctxKey = "userAgent"
)

// ClientMetadata is the caller information recorded alongside an issued session.
type ClientMetadata struct {
	IPAddress string
	UserAgent string
}

func ContextWithClientMetadata(ctx context.Context, meta ClientMetadata) context.Context {
	ctx = context.WithValue(ctx, ContextClientIPKey, meta.IPAddress)
	return context.WithValue(ctx, ContextUserAgentKey, meta.UserAgent)
}

func ClientMetadataFromContext(ctx context.Context) ClientMetadata {
	if ctx == nil {
		return ClientMetadata{}
	}
	ip, _ := ctx.Value(ContextClientIPKey).(string)
	ua, _ := ctx.Value(ContextUserAgentKey).(string)
	return ClientMetadata{IPAddress: ip, UserAgent: ua}
}

// WithTimeout returns a context with timeout, defaulting to 5 seconds if duration is zero or negative.
func WithTimeout(ctx context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if duration <= 0 {
		duration = 5 * time.Second
	}
	return context.WithTimeout(ctx, duration)
}
