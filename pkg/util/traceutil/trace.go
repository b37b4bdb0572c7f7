package traceutil

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// TraceIDHeader is the HTTP header carrying the trace id of a request.
	TraceIDHeader = "X-Request-Id"

	_traceLogKey = "trace-id"
)

type traceIDKey struct{}

// SetTraceID sets the traceID into the context.
func SetTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey{}, traceID)
}

// TraceID returns the traceID from the context.
func TraceID(ctx context.Context) string {
	if traceID, ok := ctx.Value(traceIDKey{}).(string); ok {
		return traceID
	}
	return ""
}

// NewTraceID generates a random trace id.
func NewTraceID() string {
	return uuid.NewString()
}

// TraceLogField returns a zap field with the trace id in the context.
func TraceLogField(ctx context.Context) zap.Field {
	return zap.String(_traceLogKey, TraceID(ctx))
}
