package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AICalls counts orchestrator operations by outcome: ok, fallback or error
	AICalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "creative",
		Subsystem: "ai",
		Name:      "calls_total",
		Help:      "AI orchestrator operations by operation and outcome.",
	}, []string{"operation", "outcome"})

	// AIAttempts counts raw model requests by result
	AIAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "creative",
		Subsystem: "ai",
		Name:      "attempts_total",
		Help:      "Model requests by result (ok, transient, fatal).",
	}, []string{"result"})

	// KeyRotations counts API key pool rotations
	KeyRotations = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "creative",
		Subsystem: "ai",
		Name:      "key_rotations_total",
		Help:      "API key pool rotations.",
	})

	// ComplianceChecks counts compliance runs by resulting status
	ComplianceChecks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "creative",
		Subsystem: "compliance",
		Name:      "checks_total",
		Help:      "Compliance checks by resulting status.",
	}, []string{"status"})

	// ExportOutputs counts rendered outputs by format
	ExportOutputs = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "creative",
		Subsystem: "export",
		Name:      "outputs_total",
		Help:      "Rendered export outputs by format.",
	}, []string{"format"})

	// ExportDuration observes the wall time of whole export runs
	ExportDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "creative",
		Subsystem: "export",
		Name:      "duration_seconds",
		Help:      "Duration of batch export runs.",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
	})

	// BackgroundRemovals counts background removal requests by outcome
	BackgroundRemovals = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "creative",
		Subsystem: "bgremoval",
		Name:      "requests_total",
		Help:      "Background removal requests by outcome.",
	}, []string{"outcome"})

	// StorageErrors counts failed store operations by operation
	StorageErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "creative",
		Subsystem: "storage",
		Name:      "errors_total",
		Help:      "Failed blob store operations.",
	}, []string{"operation"})
)
