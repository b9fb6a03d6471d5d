package models

// PartitionBuffer is the append-only ordered sequence of events observed for
// one client_id during a single run. Insertion order is the scan arrival
// order; output order equals insertion order — no timestamp re-sort is
// mandated (spec §9).
type PartitionBuffer struct {
	ClientID string
	Events   []Event
	bytes    int64
}

// Append adds e to the buffer and tracks the buffer's approximate size in
// bytes, used by the Partitioner's high-water-mark eviction check.
func (b *PartitionBuffer) Append(e Event, approxSize int64) {
	b.Events = append(b.Events, e)
	b.bytes += approxSize
}

// Bytes returns the buffer's tracked approximate size.
func (b *PartitionBuffer) Bytes() int64 {
	return b.bytes
}

// Empty reports whether the buffer holds no events. No output object is
// ever written for an empty buffer (spec §8's invariant).
func (b *PartitionBuffer) Empty() bool {
	return len(b.Events) == 0
}
