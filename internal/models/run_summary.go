package models

import (
	"sync"
	"time"

	"event-shipper/internal/shared/svcerrors"
)

// maxClientErrors and maxClientUploads bound the per-client detail lists
// carried on RunSummary, per spec §7's propagation policy ("bounded list of
// per-client error details, capped to avoid unbounded memory") — a run
// touching thousands of clients must not grow either list without bound.
const (
	maxClientErrors  = 100
	maxClientUploads = 100
)

// ClientError is one entry in RunSummary's bounded per-client error list.
type ClientError struct {
	ClientID string
	Kind     svcerrors.Kind
	Message  string
}

// ClientUpload is the supplemented per-client upload detail carried on
// RunSummary, grounded on original_source/src/metrics_collector.py's
// S3UploadMetrics — operators get per-client throughput, not just aggregate
// counters.
type ClientUpload struct {
	ClientID  string
	Bytes     int64
	Duration  time.Duration
	Retries   int
	Succeeded bool
}

// RunSummary is the per-invocation record returned to the caller and
// emitted as telemetry. Mutation during a run happens through its methods,
// which are safe for concurrent use by the Reader and Writer pools;
// DurationMS is assigned directly once the Writer pool has finished.
type RunSummary struct {
	mu sync.Mutex

	EventsScanned  int64
	EventsInWindow int64
	EventsRejected int64
	ClientsSeen    map[string]struct{}
	ObjectsWritten int64
	ObjectsFailed  int64
	BytesWritten   int64
	Partial        bool
	DurationMS     int64

	ClientErrors  []ClientError
	ClientUploads []ClientUpload
}

// NewRunSummary returns an initialized, zero-valued RunSummary.
func NewRunSummary() *RunSummary {
	return &RunSummary{ClientsSeen: make(map[string]struct{})}
}

func (s *RunSummary) AddScanned(n int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.EventsScanned += n
}

func (s *RunSummary) AddInWindow(n int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.EventsInWindow += n
}

func (s *RunSummary) AddRejected(n int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.EventsRejected += n
}

func (s *RunSummary) SeeClient(clientID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ClientsSeen[clientID] = struct{}{}
}

func (s *RunSummary) MarkPartial() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Partial = true
}

// RecordObjectWritten records a successful upload and its throughput detail.
func (s *RunSummary) RecordObjectWritten(clientID string, bytesWritten int64, dur time.Duration, retries int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ObjectsWritten++
	s.BytesWritten += bytesWritten
	if len(s.ClientUploads) < maxClientUploads {
		s.ClientUploads = append(s.ClientUploads, ClientUpload{
			ClientID: clientID, Bytes: bytesWritten, Duration: dur, Retries: retries, Succeeded: true,
		})
	}
}

// RecordObjectFailed records a failed upload and, if the per-client error
// list has room, its cause.
func (s *RunSummary) RecordObjectFailed(clientID string, kind svcerrors.Kind, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ObjectsFailed++
	s.Partial = true
	if len(s.ClientErrors) < maxClientErrors {
		s.ClientErrors = append(s.ClientErrors, ClientError{ClientID: clientID, Kind: kind, Message: message})
	}
	if len(s.ClientUploads) < maxClientUploads {
		s.ClientUploads = append(s.ClientUploads, ClientUpload{ClientID: clientID, Succeeded: false})
	}
}

// ClientCount returns the number of distinct clients seen so far.
func (s *RunSummary) ClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ClientsSeen)
}
