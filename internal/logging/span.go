package logging

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Span marks a named unit of work inside a request. Ending the span logs
// how long the work took, tagged with the surrounding trace.
type Span struct {
	logger *slog.Logger
	start  time.Time
}

// StartSpan opens a span under the context's trace, starting a fresh trace
// when none exists yet. The returned context carries a logger enriched with
// the span metadata, so nested calls inherit it.
func StartSpan(ctx context.Context, name string) (context.Context, *Span) {
	if ctx == nil {
		ctx = context.Background()
	}

	logger := FromContext(ctx)

	trace := traceID(ctx)
	if trace == "" {
		trace = uuid.NewString()
		ctx = withTraceID(ctx, trace)
		logger = logger.With(slog.String("trace_id", trace))
	}

	parent := spanID(ctx)
	id := uuid.NewString()

	logger = logger.With(
		slog.String("span_id", id),
		slog.String("span_name", name),
	)
	if parent != "" {
		logger = logger.With(slog.String("parent_span_id", parent))
	}

	ctx = WithLogger(ctx, logger)
	ctx = withSpanID(ctx, id)

	return ctx, &Span{logger: logger, start: time.Now()}
}

// End emits the completion entry for the span. Safe on a nil receiver.
func (s *Span) End() {
	if s == nil {
		return
	}
	s.logger.Info("span completed", slog.Duration("duration", time.Since(s.start)))
}
