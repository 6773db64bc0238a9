package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ResolutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bili_resolutions_total",
		Help: "The total number of content resolutions by kind and status",
	}, []string{"kind", "status"})

	SourceAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bili_source_attempts_total",
		Help: "The total number of per-source resolution attempts by outcome",
	}, []string{"source", "outcome"})

	FetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bili_fetch_duration_seconds",
		Help:    "Duration of upstream fetches",
		Buckets: prometheus.DefBuckets,
	}, []string{"source"})

	TitleRecoveriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bili_title_recoveries_total",
		Help: "The total number of title recovery attempts by strategy and status",
	}, []string{"strategy", "status"})

	StreamResolutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bili_stream_resolutions_total",
		Help: "The total number of stream URL resolutions by strategy and status",
	}, []string{"strategy", "status"})

	RedirectHops = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "bili_redirect_hops",
		Help:    "Redirect hops followed while resolving short links",
		Buckets: []float64{0, 1, 2, 3, 4, 5},
	})
)

// Attempt outcome label values for SourceAttemptsTotal.
const (
	OutcomeDecoded     = "decoded"
	OutcomeMismatch    = "schema_mismatch"
	OutcomeFetchFailed = "fetch_failed"
	OutcomeTitleOnly   = "title_only"
)
