package observability

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// TraceFields возвращает поля trace_id/span_id текущего span, если он есть
func TraceFields(ctx context.Context) []zap.Field {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return nil
	}
	return []zap.Field{
		zap.String("trace_id", sc.TraceID().String()),
		zap.String("span_id", sc.SpanID().String()),
	}
}

// L возвращает логгер запроса: сначала из контекста (его кладёт HTTPMiddleware),
// иначе base с trace полями.
func L(ctx context.Context, base *zap.Logger) *zap.Logger {
	if l := LoggerFromContext(ctx); l != nil {
		return l
	}
	fields := TraceFields(ctx)
	if len(fields) == 0 {
		return base
	}
	return base.With(fields...)
}
