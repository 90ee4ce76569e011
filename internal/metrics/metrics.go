package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lendmatch_http_requests_total",
			Help: "Total number of HTTP requests by route and status code",
		},
		[]string{"route", "code"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lendmatch_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	RankDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lendmatch_rank_duration_seconds",
			Help:    "Duration of ranking a profile against the partner catalog",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 8),
		},
		[]string{"variant"},
	)

	MatchesFound = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "lendmatch_matches_per_rank",
			Help:    "Number of eligible partners returned by a ranking",
			Buckets: prometheus.LinearBuckets(0, 1, 10),
		},
	)

	ChatMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lendmatch_chat_messages_total",
			Help: "Total number of chat messages handled",
		},
		[]string{"outcome"},
	)

	AssistantFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lendmatch_assistant_fallbacks_total",
			Help: "Total number of times the secondary assistant strategy was used",
		},
		[]string{"stage"},
	)

	ExtractionCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lendmatch_extraction_cache_total",
			Help: "Extraction cache lookups by result",
		},
		[]string{"result"},
	)

	PartnerSync = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lendmatch_partner_sync_rows_total",
			Help: "Partner rows processed by spreadsheet import by outcome",
		},
		[]string{"outcome"},
	)
)
