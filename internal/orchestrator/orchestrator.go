// Package orchestrator implements the Orchestrator (spec §4.5): it computes
// the window, fans Reader output into the Partitioner, dispatches finalized
// buffers to the Writer pool, and aggregates outcomes into a RunSummary.
// Grounded on the teacher's app.New/app.Start/app.Shutdown lifecycle split,
// adapted from a long-lived HTTP server to a single bounded Run call.
package orchestrator

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"event-shipper/internal/models"
	"event-shipper/internal/partition"
	"event-shipper/internal/shared/configs"
	"event-shipper/internal/shared/loggers"
	"event-shipper/internal/shared/svcerrors"
	"event-shipper/internal/shared/ulid"
	"event-shipper/internal/sinks"
	"event-shipper/internal/sources"
	"event-shipper/internal/streams"
	"event-shipper/internal/telemetry"
)

// Orchestrator wires the Reader, Partitioner, and Writer for one invocation.
type Orchestrator struct {
	reader    sources.Reader
	writer    sinks.Writer
	telemetry *telemetry.Telemetry
	cfg       *configs.Config
}

// New builds an Orchestrator. cfg must already be validated (configs.LoadConfig).
func New(reader sources.Reader, writer sinks.Writer, tel *telemetry.Telemetry, cfg *configs.Config) *Orchestrator {
	return &Orchestrator{reader: reader, writer: writer, telemetry: tel, cfg: cfg}
}

// dispatchJob is one object destined for the Writer pool: either a
// bounded-mode early-flush chunk or a finalized per-client buffer.
type dispatchJob struct {
	clientID    string
	key         string
	body        []byte
	contentType string
}

// Run executes one scan-partition-write cycle: compute window, load config
// (already loaded by the caller), launch the Reader, stream records through
// the Partitioner, dispatch finalized buffers to the Writer pool, await all
// outcomes, emit telemetry, and return the RunSummary. A non-nil error is
// returned only when the Orchestrator itself fails before any segment
// completes (spec §6); everything else is folded into RunSummary.Partial.
func (o *Orchestrator) Run(ctx context.Context) (*models.RunSummary, error) {
	start := time.Now()
	runCtx, cancel := applyDeadlineMargin(ctx)
	defer cancel()

	runID := ulid.NewULID()
	logger := loggers.Ctx(runCtx).With().Str(loggers.FieldRunID, runID).Logger()
	runCtx = logger.WithContext(runCtx)

	summary := models.NewRunSummary()
	window := models.ComputeWindow(time.Now().UTC(), o.cfg.Processing.WindowHours)
	format := partition.Format(o.cfg.Sink.OutputFormat)

	o.logScanEstimate(runCtx, logger)

	queueWidth := o.cfg.Performance.MaxConcurrentUploads
	dispatch := streams.NewPartitionedQueueN[dispatchJob](queueWidth, queueWidth*4)

	var writerWG sync.WaitGroup
	for i := 0; i < dispatch.PartitionCount(); i++ {
		writerWG.Add(1)
		go o.runWriterPartition(runCtx, dispatch.Partition(i), summary, &writerWG)
	}

	evict := func(obj models.OutputObject) {
		dispatch.Publish(obj.ClientID, dispatchJob{
			clientID:    obj.ClientID,
			key:         obj.Key,
			body:        obj.Body,
			contentType: obj.ContentType,
		})
	}
	partitioner := partition.New(window, format, o.cfg.Processing.HighWaterMarkBytes, evict)

	records, outcomes := o.reader.Read(runCtx, window)

	for rec := range records {
		if svcErr := partitioner.Admit(rec); svcErr != nil {
			summary.AddRejected(1)
			continue
		}
		summary.SeeClient(rec.ClientID)
	}

	// EventsScanned/EventsInWindow come from the Reader's own per-segment
	// counts, not from the records channel: records only ever carries
	// already-window-filtered events, so counting off it can never surface
	// out-of-window or unparseable-time items that the Reader saw and
	// dropped (spec §3/§4.2 require those to still be reflected in
	// EventsScanned).
	for outcome := range outcomes {
		summary.AddScanned(outcome.Scanned)
		summary.AddInWindow(outcome.InWindow)
		if outcome.Err != nil {
			logger.Error().
				Err(outcome.Err).
				Int(loggers.FieldSegment, outcome.Segment).
				Msg("reader segment ended with an error")
			summary.MarkPartial()
		}
	}

	for clientID, buf := range partitioner.Finalize() {
		body, err := partition.Serialize(buf.Events, format)
		if err != nil {
			summary.RecordObjectFailed(clientID, svcerrors.EventMalformed, err.Error())
			continue
		}
		dispatch.Publish(clientID, dispatchJob{
			clientID:    clientID,
			key:         window.Key(format.Extension()),
			body:        body,
			contentType: format.ContentType(),
		})
	}

	dispatch.Close()
	writerWG.Wait()

	summary.DurationMS = time.Since(start).Milliseconds()
	o.telemetry.Record(ctx, summary)

	logger.Info().
		Int64(loggers.FieldDuration, summary.DurationMS).
		Int64("events_scanned", summary.EventsScanned).
		Int64("events_in_window", summary.EventsInWindow).
		Int64("events_rejected", summary.EventsRejected).
		Int("clients_seen", summary.ClientCount()).
		Int64("objects_written", summary.ObjectsWritten).
		Int64("objects_failed", summary.ObjectsFailed).
		Int64("bytes_written", summary.BytesWritten).
		Bool("partial", summary.Partial).
		Msg("run complete")

	return summary, nil
}

// scanEstimator is implemented by Readers that can produce a scan-time
// heuristic (spec §9: DynamoDBReader.EstimateScanSeconds). It is optional:
// Readers that can't estimate simply aren't asserted to this interface, and
// logScanEstimate becomes a no-op.
type scanEstimator interface {
	EstimateScanSeconds(ctx context.Context) (float64, error)
}

// logScanEstimate logs a best-effort scan-time heuristic at run start. It
// never affects control flow: a missing estimate or an error from the
// underlying DescribeTable call is logged and otherwise ignored.
func (o *Orchestrator) logScanEstimate(ctx context.Context, logger loggers.Logger) {
	estimator, ok := o.reader.(scanEstimator)
	if !ok {
		return
	}
	seconds, err := estimator.EstimateScanSeconds(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("scan time estimate unavailable")
		return
	}
	logger.Info().Float64("estimated_scan_seconds", seconds).Msg("scan time estimate")
}

// runWriterPartition drains one PartitionedQueue lane, writing each job
// through the Writer and recording its outcome. A panicking upload is
// recovered and folded into RunSummary as a SinkFatal failure rather than
// crashing the process, grounded on the teacher's partialInsightConsumer
// recover() pattern.
func (o *Orchestrator) runWriterPartition(ctx context.Context, ch <-chan dispatchJob, summary *models.RunSummary, wg *sync.WaitGroup) {
	defer wg.Done()

	for job := range ch {
		func() {
			defer func() {
				if r := recover(); r != nil {
					loggers.Ctx(ctx).Error().
						Bytes(loggers.FieldErrorStack, debug.Stack()).
						Msg("writer worker panic recovered")

					var panicErr error
					if err, ok := r.(error); ok {
						panicErr = err
					} else {
						panicErr = fmt.Errorf("%v", r)
					}
					summary.RecordObjectFailed(job.clientID, svcerrors.SinkFatal, panicErr.Error())
				}
			}()

			uploadStart := time.Now()
			result, svcErr := o.writer.Write(ctx, job.clientID, job.key, job.body, job.contentType)
			if svcErr != nil {
				loggers.Ctx(ctx).Error().
					Err(svcErr).
					Str(loggers.FieldClientID, job.clientID).
					Str(loggers.FieldKey, job.key).
					Msg("upload failed")
				summary.RecordObjectFailed(job.clientID, svcErr.Kind, svcErr.Message)
				return
			}
			summary.RecordObjectWritten(job.clientID, result.BytesWritten, time.Since(uploadStart), result.Retries)
		}()
	}
}
