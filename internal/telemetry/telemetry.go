// Package telemetry emits the nine named run measurements (spec §4.6) to a
// Prometheus registry unconditionally, and optionally fans them out to an
// external sink (e.g. cloudwatchtelemetry) whose failure is logged but
// never fails the run.
package telemetry

import (
	"context"

	"event-shipper/internal/models"
	"event-shipper/internal/shared/loggers"
	"event-shipper/internal/shared/metrics"
)

// Sink delivers a run's measurements to an external system. Implementations
// must not block indefinitely; Emit is called once at the end of a run.
type Sink interface {
	Emit(ctx context.Context, summary *models.RunSummary) error
}

var (
	eventsScanned = metrics.NewCounterVec(metrics.CounterOpts{
		Namespace: metrics.Namespace,
		Subsystem: metrics.SubRun,
		Name:      "events_scanned_total",
		Help:      "Total events read from the source store across all runs.",
	}, nil)
	eventsInWindow = metrics.NewCounterVec(metrics.CounterOpts{
		Namespace: metrics.Namespace,
		Subsystem: metrics.SubRun,
		Name:      "events_in_window_total",
		Help:      "Total events that fell within the active window.",
	}, nil)
	eventsRejected = metrics.NewCounterVec(metrics.CounterOpts{
		Namespace: metrics.Namespace,
		Subsystem: metrics.SubRun,
		Name:      "events_rejected_total",
		Help:      "Total events rejected as malformed.",
	}, nil)
	clientsSeen = metrics.NewCounterVec(metrics.CounterOpts{
		Namespace: metrics.Namespace,
		Subsystem: metrics.SubRun,
		Name:      "clients_seen_total",
		Help:      "Distinct client_id values observed, summed across runs.",
	}, nil)
	objectsWritten = metrics.NewCounterVec(metrics.CounterOpts{
		Namespace: metrics.Namespace,
		Subsystem: metrics.SubRun,
		Name:      "objects_written_total",
		Help:      "Total objects successfully written to the sink.",
	}, nil)
	objectsFailed = metrics.NewCounterVec(metrics.CounterOpts{
		Namespace: metrics.Namespace,
		Subsystem: metrics.SubRun,
		Name:      "objects_failed_total",
		Help:      "Total objects that failed to write after exhausting retries.",
	}, nil)
	bytesWritten = metrics.NewCounterVec(metrics.CounterOpts{
		Namespace: metrics.Namespace,
		Subsystem: metrics.SubRun,
		Name:      "bytes_written_total",
		Help:      "Total bytes successfully written to the sink.",
	}, nil)
	runDuration = metrics.NewHistogramVec(metrics.HistogramOpts{
		Namespace: metrics.Namespace,
		Subsystem: metrics.SubRun,
		Name:      "duration_ms",
		Help:      "Run duration in milliseconds.",
		Buckets:   []float64{100, 500, 1000, 5000, 10000, 30000, 60000, 300000, 900000},
	}, nil)
	partialRuns = metrics.NewCounterVec(metrics.CounterOpts{
		Namespace: metrics.Namespace,
		Subsystem: metrics.SubRun,
		Name:      "partial_total",
		Help:      "Total runs that completed with partial=true.",
	}, nil)
)

// Telemetry records the nine named measurements for a single run, always to
// the local Prometheus registry and, if an external Sink is configured,
// also to it.
type Telemetry struct {
	sink Sink
}

// New builds a Telemetry. sink may be nil, in which case only the local
// Prometheus registration occurs.
func New(sink Sink) *Telemetry {
	return &Telemetry{sink: sink}
}

// Record publishes summary's counters to Prometheus and, best-effort, to
// the external sink. A sink failure is logged and does not return an error
// (spec §4.6: "failure to emit is logged but does not fail the run").
func (t *Telemetry) Record(ctx context.Context, summary *models.RunSummary) {
	eventsScanned.WithLabelValues().Add(float64(summary.EventsScanned))
	eventsInWindow.WithLabelValues().Add(float64(summary.EventsInWindow))
	eventsRejected.WithLabelValues().Add(float64(summary.EventsRejected))
	clientsSeen.WithLabelValues().Add(float64(summary.ClientCount()))
	objectsWritten.WithLabelValues().Add(float64(summary.ObjectsWritten))
	objectsFailed.WithLabelValues().Add(float64(summary.ObjectsFailed))
	bytesWritten.WithLabelValues().Add(float64(summary.BytesWritten))
	runDuration.WithLabelValues().Observe(float64(summary.DurationMS))
	if summary.Partial {
		partialRuns.WithLabelValues().Add(1)
	}

	if t.sink == nil {
		return
	}
	if err := t.sink.Emit(ctx, summary); err != nil {
		loggers.Ctx(ctx).Warn().Err(err).Msg("failed to emit telemetry to external sink")
	}
}
