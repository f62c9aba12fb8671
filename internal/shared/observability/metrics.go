package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	LinesReadTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "histop_lines_read_total",
		Help: "Total number of physical history lines read.",
	}, []string{"dialect"})

	UndecodableLinesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "histop_undecodable_lines_total",
		Help: "Total number of history lines skipped because they were not valid UTF-8.",
	})

	CommandsCountedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "histop_commands_counted_total",
		Help: "Total number of command names added to a frequency map.",
	})

	IngestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "histop_ingest_seconds",
		Help:    "Time spent ingesting one history stream.",
		Buckets: prometheus.DefBuckets,
	}, []string{"dialect"})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "histop_watch_events_total",
		Help: "Total number of history file changes delivered by the watcher.",
	})

	RefreshDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "histop_refresh_dropped_total",
		Help: "Total number of watch refreshes skipped by the rate limiter.",
	})

	ArchiveSaveDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "histop_archive_save_seconds",
		Help:    "Latency for saving one run to the archive.",
		Buckets: prometheus.DefBuckets,
	})
)
