package kafka

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	eventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_events_published_total",
			Help: "Cart and wishlist events accepted by the broker, by event type.",
		},
		[]string{"kind", "type"},
	)

	publishFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_event_publish_failures_total",
			Help: "Cart and wishlist events the broker rejected or never acknowledged.",
		},
		[]string{"kind", "type"},
	)

	publishDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storefront_event_publish_duration_seconds",
			Help:    "Time spent writing one storefront event to the broker.",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"kind"},
	)

	// Large cart.updated payloads usually mean a cart near the line cap.
	payloadBytes = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storefront_event_payload_bytes",
			Help:    "Encoded size of published storefront events.",
			Buckets: prometheus.ExponentialBuckets(128, 2, 8),
		},
		[]string{"kind"},
	)
)

func observePublish(event *Event, size int, seconds float64, err error) {
	kind := string(event.Subject.Kind)
	publishDuration.WithLabelValues(kind).Observe(seconds)
	if err != nil {
		publishFailures.WithLabelValues(kind, event.Type).Inc()
		return
	}
	eventsPublished.WithLabelValues(kind, event.Type).Inc()
	payloadBytes.WithLabelValues(kind).Observe(float64(size))
}
