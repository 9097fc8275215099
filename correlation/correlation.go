// Package correlation carries the request-scoped identifier that ties
// every step of an orchestration (and any later recovery attempt) back
// to the original call chain. Ids are opaque strings; they are passed
// explicitly through the saga rather than read from ambient state.
package correlation

import (
	"context"

	"github.com/google/uuid"
)

type ctxKey struct{}

// NewID mints a fresh correlation id.
func NewID() string {
	return uuid.New().String()
}

// WithID returns a child context carrying the given correlation id.
func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the correlation id on the context, or "".
func FromContext(ctx context.Context) string {
	if id, ok := ctx.Value(ctxKey{}).(string); ok {
		return id
	}
	return ""
}

// Ensure returns the context's correlation id, minting one if the
// context has none yet.
func Ensure(ctx context.Context) (context.Context, string) {
	if id := FromContext(ctx); id != "" {
		return ctx, id
	}
	id := NewID()
	return WithID(ctx, id), id
}
