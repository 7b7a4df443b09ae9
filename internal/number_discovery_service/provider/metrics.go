package provider

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	providerRequestsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "number_discovery",
			Name:      "provider_requests_total",
			Help:      "Total calls to the numbering provider, after retries.",
		},
		[]string{"provider_name", "operation", "outcome"}, // outcome: "success", "unavailable", "protocol"
	)

	providerRetriesCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "number_discovery",
			Name:      "provider_retries_total",
			Help:      "Total retried HTTP requests to the numbering provider.",
		},
		[]string{"provider_name", "operation"},
	)

	providerRequestDurationHist = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "number_discovery",
			Name:      "provider_request_duration_seconds",
			Help:      "Duration of provider calls including retries.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"provider_name", "operation"},
	)
)
