// Package metrics declares the Prometheus collectors exported by the server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "restaurantql"

var (
	// UpstreamRequests counts calls to third-party APIs by endpoint and outcome (ok, status, error).
	UpstreamRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "upstream_requests_total",
		Help:      "Number of requests made to upstream APIs.",
	}, []string{"endpoint", "outcome"})

	// UpstreamLatency observes the duration of upstream calls in seconds.
	UpstreamLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "upstream_request_duration_seconds",
		Help:      "Latency of upstream API requests.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"endpoint"})

	// Operations counts GraphQL root fields resolved, by field name and error code ("" = ok).
	Operations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "operations_total",
		Help:      "Number of GraphQL root fields resolved.",
	}, []string{"field", "code"})

	// EnrichmentFailures counts enrichment values that were returned as null.
	EnrichmentFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "enrichment_failures_total",
		Help:      "Number of temperature/local time lookups that failed.",
	}, []string{"field"})

	// HTTPRequests counts HTTP requests to the GraphQL endpoint by status code.
	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Number of HTTP requests handled.",
	}, []string{"code"})
)

// Register adds all the collectors to reg.
func Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{
		UpstreamRequests, UpstreamLatency, Operations, EnrichmentFailures, HTTPRequests,
	} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
