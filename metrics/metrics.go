package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestCounter counts HTTP requests by status code, method, and path
	RequestCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "review_api_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"status", "method", "path"},
	)

	// RequestDuration measures HTTP request duration
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "review_api_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"status", "method", "path"},
	)

	// AssignmentsCreated counts review assignments persisted by the balancer
	AssignmentsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "review_api_assignments_created_total",
			Help: "Total number of review assignments created",
		},
	)

	// ReviewsSubmitted counts accepted reviews
	ReviewsSubmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "review_api_reviews_submitted_total",
			Help: "Total number of reviews accepted",
		},
	)

	// AggregationsRun counts score aggregation runs by outcome
	AggregationsRun = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "review_api_aggregations_total",
			Help: "Total number of score aggregation runs",
		},
		[]string{"decision"},
	)

	// RoundsEnded counts phase-end orchestrations by result
	RoundsEnded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "review_api_rounds_ended_total",
			Help: "Total number of phase-end runs",
		},
		[]string{"result"},
	)
)
