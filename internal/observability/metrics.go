package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Tracer is the shared handle for audit spans. Exporter wiring is the
// embedding host's responsibility.
var Tracer trace.Tracer = otel.Tracer("pqscan")

// Metrics definitions
var (
	ParsingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pqscan_parsing_seconds",
		Help:    "Time spent parsing one source file.",
		Buckets: prometheus.DefBuckets,
	}, []string{"language"})

	DetectionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pqscan_detection_seconds",
		Help:    "Time spent matching the pattern catalog against one file.",
		Buckets: prometheus.DefBuckets,
	})

	AuditDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pqscan_audit_seconds",
		Help:    "Time spent on one audit operation.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	FilesScannedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pqscan_files_scanned_total",
		Help: "Total number of files run through the pipeline.",
	})

	LinesScannedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pqscan_lines_scanned_total",
		Help: "Total number of source lines run through the pipeline.",
	})

	FindingsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pqscan_findings_total",
		Help: "Total findings produced after filtering, by severity.",
	}, []string{"severity"})

	FilesSkippedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pqscan_files_skipped_total",
		Help: "Total batch files skipped due to per-file input errors.",
	})

	PatternErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pqscan_pattern_errors_total",
		Help: "Total pattern/line evaluations abandoned after an internal matcher error.",
	})

	ParseCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pqscan_parse_cache_hits_total",
		Help: "Total parsed-file arena hits (identical content and language).",
	})
)
