package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MatchRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fundmatch_runs_total",
			Help: "Total number of match runs by outcome",
		},
		[]string{"outcome"},
	)

	MatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fundmatch_run_duration_seconds",
			Help:    "Duration of one engine run in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		},
	)

	FundPlacements = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fundmatch_fund_placements_total",
			Help: "Funds placed per list; excluded placements carry their category",
		},
		[]string{"list", "category"},
	)

	CatalogDefects = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fundmatch_catalog_defects_total",
			Help: "Fund records skipped for not conforming to the catalog schema",
		},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fundmatch_cache_lookups_total",
			Help: "Result cache lookups by outcome",
		},
		[]string{"outcome"},
	)

	BatchCompanies = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fundmatch_batch_companies_total",
			Help: "Companies processed by the batch pipeline",
		},
		[]string{"outcome"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fundmatch_http_requests_total",
			Help: "HTTP requests by route and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "fundmatch_http_request_duration_seconds",
			Help: "HTTP request latency in seconds",
		},
		[]string{"method", "route"},
	)
)

const (
	OutcomeSuccess = "success"
	OutcomeInvalid = "invalid_input"
	OutcomeError   = "error"
	OutcomeHit     = "hit"
	OutcomeMiss    = "miss"
)
