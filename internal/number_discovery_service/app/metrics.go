package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	discoveryAttemptsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "number_discovery",
			Name:      "attempts_total",
			Help:      "Total FindLiveNumber attempts.",
		},
		[]string{"outcome"}, // "found", "not_found", "error", "cancelled"
	)

	discoveryAttemptDurationHist = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "number_discovery",
			Name:      "attempt_duration_seconds",
			Help:      "Duration of FindLiveNumber attempts.",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 40, 80, 160},
		},
		[]string{"outcome"},
	)

	countryListingFailuresCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "number_discovery",
			Name:      "country_listing_failures_total",
			Help:      "Per-country number listings that failed and were skipped.",
		},
	)

	livenessProbesCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "number_discovery",
			Name:      "liveness_probes_total",
			Help:      "Total inbox liveness probes.",
		},
		[]string{"outcome"}, // "live", "failed"
	)

	inboxFetchesCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "number_discovery",
			Name:      "inbox_fetches_total",
			Help:      "Total inbox fetches, probes included.",
		},
		[]string{"outcome"}, // "success", "error"
	)
)
