package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

const TraceHeader = "X-Trace-Id"

type traceKey struct{}

// TraceMiddleware automatically generates or extracts trace IDs from requests
func TraceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get(TraceHeader)
		if traceID == "" {
			traceID = uuid.New().String()
		}

		w.Header().Set(TraceHeader, traceID)

		next.ServeHTTP(w, r.WithContext(WithTraceID(r.Context(), traceID)))
	})
}

func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceKey{}, traceID)
}

func TraceIDFromContext(ctx context.Context) string {
	if traceID, ok := ctx.Value(traceKey{}).(string); ok {
		return traceID
	}
	return ""
}

// retrieves the trace ID from the request context
func GetTraceID(r *http.Request) string {
	return TraceIDFromContext(r.Context())
}

// adds the trace ID to an outgoing HTTP request
func PropagateTraceID(req *http.Request, traceID string) {
	if traceID != "" {
		req.Header.Set(TraceHeader, traceID)
	}
}
