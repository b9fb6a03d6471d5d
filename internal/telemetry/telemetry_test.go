package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"event-shipper/internal/models"

	"github.com/stretchr/testify/assert"
)

type fakeSink struct {
	lastSummary *models.RunSummary
	err         error
	calls       int
}

func (f *fakeSink) Emit(_ context.Context, summary *models.RunSummary) error {
	f.calls++
	f.lastSummary = summary
	return f.err
}

func buildSummary() *models.RunSummary {
	s := models.NewRunSummary()
	s.AddScanned(10)
	s.AddInWindow(8)
	s.AddRejected(2)
	s.SeeClient("acme")
	s.RecordObjectWritten("acme", 1024, 5*time.Millisecond, 0)
	return s
}

func TestRecordForwardsToSink(t *testing.T) {
	t.Parallel()

	sink := &fakeSink{}
	tel := New(sink)

	summary := buildSummary()
	tel.Record(context.Background(), summary)

	assert.Equal(t, 1, sink.calls)
	assert.Same(t, summary, sink.lastSummary)
}

func TestRecordToleratesSinkFailure(t *testing.T) {
	t.Parallel()

	sink := &fakeSink{err: errors.New("cloudwatch unavailable")}
	tel := New(sink)

	assert.NotPanics(t, func() {
		tel.Record(context.Background(), buildSummary())
	})
}

func TestRecordWithNilSink(t *testing.T) {
	t.Parallel()

	tel := New(nil)
	assert.NotPanics(t, func() {
		tel.Record(context.Background(), buildSummary())
	})
}
