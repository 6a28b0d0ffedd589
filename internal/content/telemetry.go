package content

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const instrumentationName = "kivlab.dev/portfolio-web/internal/content"

var tracer = otel.Tracer(instrumentationName)

// loadMetrics counts loads per resource and how many of them fell back.
type loadMetrics struct {
	loads     metric.Int64Counter
	fallbacks metric.Int64Counter
}

func newLoadMetrics(meter metric.Meter, logger *zap.Logger) loadMetrics {
	if meter == nil {
		meter = otel.GetMeterProvider().Meter(instrumentationName)
	}
	fallbackMeter := noop.NewMeterProvider().Meter(instrumentationName)

	loads, err := meter.Int64Counter(
		"content.load.count",
		metric.WithDescription("Content resource loads"),
	)
	if err != nil {
		logger.Warn("content: unable to register load metric", zap.Error(err))
		loads, _ = fallbackMeter.Int64Counter("content.load.count")
	}
	fallbacks, err := meter.Int64Counter(
		"content.load.fallbacks",
		metric.WithDescription("Content resource loads served from fallback data"),
	)
	if err != nil {
		logger.Warn("content: unable to register fallback metric", zap.Error(err))
		fallbacks, _ = fallbackMeter.Int64Counter("content.load.fallbacks")
	}
	return loadMetrics{loads: loads, fallbacks: fallbacks}
}

func startLoadSpan(ctx context.Context, name, source string) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(attribute.String("content.source", source)))
}

// finishLoad annotates the span and records the outcome of one load.
func (m loadMetrics) finishLoad(ctx context.Context, span trace.Span, resource string, status LoadStatus) {
	attrs := metric.WithAttributes(attribute.String("resource", resource))
	m.loads.Add(ctx, 1, attrs)
	span.SetAttributes(attribute.String("content.load_source", string(status.Source)))
	if status.Degraded() {
		m.fallbacks.Add(ctx, 1, attrs)
		if status.Err != nil {
			span.RecordError(status.Err)
			span.SetStatus(codes.Error, "served fallback data")
		}
	}
}
