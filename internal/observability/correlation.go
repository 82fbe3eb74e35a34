package observability

import (
	"context"
	"strings"
)

// CorrelationHeader carries the request correlation identifier on HTTP
// responses and on published evaluation events.
const CorrelationHeader = "X-Correlation-ID"

// EvaluationCacheHeader reports "hit" when an analysis was replayed from the
// result cache and "miss" when the engine produced it.
const EvaluationCacheHeader = "X-Evaluation-Cache"

type correlationIDKey struct{}

// WithCorrelationID binds a correlation identifier to ctx. Blank identifiers
// leave ctx unchanged.
func WithCorrelationID(ctx context.Context, correlationID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	correlationID = strings.TrimSpace(correlationID)
	if correlationID == "" {
		return ctx
	}
	return context.WithValue(ctx, correlationIDKey{}, correlationID)
}

// CorrelationIDFromContext returns the identifier bound by WithCorrelationID.
func CorrelationIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(correlationIDKey{}).(string)
	return id
}
