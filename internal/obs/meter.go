package obs

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	meterOnce       sync.Once
	checkoutLatency metric.Float64Histogram
)

func checkoutHistogram() metric.Float64Histogram {
	meterOnce.Do(func() {
		h, err := otel.Meter("toko-checkout/checkout").Float64Histogram(
			"checkout.duration",
			metric.WithUnit("ms"),
			metric.WithDescription("Duration of order placement including retries."),
		)
		if err == nil {
			checkoutLatency = h
		}
	})
	return checkoutLatency
}

// RecordCheckoutLatency reports the duration of a checkout labelled by its
// outcome code ("ok" on success).
func RecordCheckoutLatency(ctx context.Context, d time.Duration, outcome string) {
	h := checkoutHistogram()
	if h == nil {
		return
	}
	h.Record(ctx, DurationMillis(d), metric.WithAttributes(attribute.String("outcome", outcome)))
}
