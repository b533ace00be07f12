package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	ParsingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pyward_parsing_seconds",
		Help:    "Time spent parsing a source file into a syntax tree.",
		Buckets: prometheus.DefBuckets,
	}, []string{"language"})

	FileAnalysisDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pyward_file_analysis_seconds",
		Help:    "Time spent running every rule against one file.",
		Buckets: prometheus.DefBuckets,
	})

	ScanDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pyward_scan_seconds",
		Help:    "Wall time of a full scan.",
		Buckets: prometheus.DefBuckets,
	})

	FilesScannedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pyward_files_scanned_total",
		Help: "Total number of files analysed.",
	})

	FileStatusTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pyward_file_status_total",
		Help: "Files analysed, by overall report status.",
	}, []string{"status"})

	ViolationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pyward_violations_total",
		Help: "Violations found, by kind.",
	}, []string{"kind"})

	WorkersBusy = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pyward_workers_busy",
		Help: "Number of scan workers currently analysing a file.",
	})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pyward_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})
)
