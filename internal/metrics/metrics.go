package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Live stream metrics
	LiveEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledgerpane_live_events_total",
			Help: "Total number of live billing events received from the bus",
		},
		[]string{"tenant"},
	)

	LiveEventsMalformed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ledgerpane_live_events_malformed_total",
			Help: "Total number of live event payloads that failed to decode",
		},
	)

	DroppedFanoutTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ledgerpane_stream_dropped_fanout_total",
			Help: "Total number of events dropped because a client channel was full",
		},
	)

	StreamClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ledgerpane_stream_clients",
			Help: "Number of currently connected event stream clients",
		},
	)

	// Feed metrics
	FeedRequestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ledgerpane_feed_request_duration_seconds",
			Help:    "Duration of merged feed requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	FeedMergedSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ledgerpane_feed_merged_size",
			Help:    "Number of events in served merged feeds",
			Buckets: []float64{0, 10, 25, 50, 100, 250, 500},
		},
	)
)
