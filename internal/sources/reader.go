// Package sources defines the Source Reader contract: a partitioned
// parallel scan over the event store that produces a lazy, finite,
// non-restartable sequence of in-window events (spec §4.2).
package sources

import (
	"context"

	"event-shipper/internal/models"
)

// Record is one raw item read from the source store, before client_id/time
// validation (that validation is the Partitioner's job — spec §4.3).
type Record struct {
	EventID string
	ClientID string
	TimeRaw  string
	Payload  []byte // compact JSON
}

// SegmentOutcome reports one segment worker's terminal state. Err is
// non-nil only when the segment failed fatally (svcerrors.SourceFatal);
// partial progress up to that point was still published.
type SegmentOutcome struct {
	Segment  int
	Scanned  int64
	InWindow int64
	Err      error
}

// Reader scans a Window and streams in-window records. Records is closed
// once every segment worker has returned or ctx is cancelled; Outcomes is
// closed after Records, once all segment workers have reported in.
type Reader interface {
	Read(ctx context.Context, window models.Window) (records <-chan Record, outcomes <-chan SegmentOutcome)
}
