package models

import (
	"testing"
	"time"

	"event-shipper/internal/shared/svcerrors"

	"github.com/stretchr/testify/assert"
)

func TestRunSummaryCountersAndClientTracking(t *testing.T) {
	t.Parallel()

	s := NewRunSummary()
	s.AddScanned(10)
	s.AddInWindow(8)
	s.AddRejected(2)
	s.SeeClient("acme")
	s.SeeClient("acme")
	s.SeeClient("globex")

	assert.Equal(t, int64(10), s.EventsScanned)
	assert.Equal(t, int64(8), s.EventsInWindow)
	assert.Equal(t, int64(2), s.EventsRejected)
	assert.Equal(t, 2, s.ClientCount())
}

func TestRunSummaryRecordObjectWritten(t *testing.T) {
	t.Parallel()

	s := NewRunSummary()
	s.RecordObjectWritten("acme", 1024, 50*time.Millisecond, 1)

	assert.Equal(t, int64(1), s.ObjectsWritten)
	assert.Equal(t, int64(1024), s.BytesWritten)
	assert.False(t, s.Partial)
	assert.Len(t, s.ClientUploads, 1)
	assert.True(t, s.ClientUploads[0].Succeeded)
}

func TestRunSummaryRecordObjectFailedMarksPartial(t *testing.T) {
	t.Parallel()

	s := NewRunSummary()
	s.RecordObjectFailed("acme", svcerrors.SinkFatal, "boom")

	assert.Equal(t, int64(1), s.ObjectsFailed)
	assert.True(t, s.Partial)
	assert.Equal(t, []ClientError{{ClientID: "acme", Kind: svcerrors.SinkFatal, Message: "boom"}}, s.ClientErrors)
	assert.Len(t, s.ClientUploads, 1)
	assert.False(t, s.ClientUploads[0].Succeeded)
}

func TestRunSummaryClientErrorsCapped(t *testing.T) {
	t.Parallel()

	s := NewRunSummary()
	for i := 0; i < maxClientErrors+50; i++ {
		s.RecordObjectFailed("client", svcerrors.SinkFatal, "boom")
	}

	assert.Len(t, s.ClientErrors, maxClientErrors)
	assert.Equal(t, int64(maxClientErrors+50), s.ObjectsFailed)
}

func TestRunSummaryClientUploadsCapped(t *testing.T) {
	t.Parallel()

	s := NewRunSummary()
	for i := 0; i < maxClientUploads+50; i++ {
		s.RecordObjectWritten("client", 1, time.Millisecond, 0)
	}
	for i := 0; i < maxClientUploads+50; i++ {
		s.RecordObjectFailed("client", svcerrors.SinkFatal, "boom")
	}

	assert.Len(t, s.ClientUploads, maxClientUploads, "ClientUploads must not grow without bound across both success and failure recording")
	assert.Equal(t, int64(maxClientUploads+50), s.ObjectsWritten)
}
