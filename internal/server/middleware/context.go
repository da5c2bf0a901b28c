// internal/server/middleware/context.go
// Package middleware carries per-request values through context: the
// correlation ID assigned at the edge and the authenticated viewer.
package middleware

import (
	"context"

	"github.com/Kb28022004/toperNoteBackend/internal/model"
)

type contextKey string

const (
	correlationIDKey contextKey = "correlationID"
	viewerKey        contextKey = "viewer"
)

// WithCorrelationID attaches a correlation ID to the context.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey, id)
}

// CorrelationIDFrom returns the correlation ID, or "" when none was set.
func CorrelationIDFrom(ctx context.Context) string {
	if id, ok := ctx.Value(correlationIDKey).(string); ok {
		return id
	}
	return ""
}

// WithViewer attaches the authenticated viewer to the context.
func WithViewer(ctx context.Context, v model.Viewer) context.Context {
	return context.WithValue(ctx, viewerKey, v)
}

// ViewerFrom returns the viewer from the context. An absent viewer is the
// anonymous viewer.
func ViewerFrom(ctx context.Context) model.Viewer {
	if v, ok := ctx.Value(viewerKey).(model.Viewer); ok {
		return v
	}
	return model.Viewer{}
}
