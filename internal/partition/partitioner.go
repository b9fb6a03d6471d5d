// Package partition implements the Partitioner (spec §4.3): it consumes the
// event stream, groups by client_id into PartitionBuffers, and serializes
// each client's buffer on finalize. It is the memory ceiling of the
// pipeline and runs in a single owner goroutine — no locking inside this
// package, by design (spec §5: "the PartitionBuffer map is owned
// exclusively by the Partitioner; all mutations are serialized through
// it").
package partition

import (
	"fmt"

	"event-shipper/internal/models"
	"event-shipper/internal/shared/svcerrors"
	"event-shipper/internal/sources"
)

// EvictFunc handles one early-flush chunk produced by bounded mode.
type EvictFunc func(obj models.OutputObject)

// Partitioner groups admitted events by client_id and serializes the
// result on finalize. Constructed with HighWaterMarkBytes == 0, it never
// evicts (the default, unbounded mode); a nonzero value activates
// high-water-mark eviction.
type Partitioner struct {
	window             models.Window
	format             Format
	highWaterMarkBytes int64
	evict              EvictFunc

	buffers    map[string]*models.PartitionBuffer
	chunkCount map[string]int
	totalBytes int64
}

// New builds a Partitioner for one run. Chunks produced by bounded-mode
// eviction carry no Bucket — the Sink Writer resolves the bucket from
// ClientID, the same as for Finalize's output, keeping that concern owned
// entirely by the Sink Writer.
func New(window models.Window, format Format, highWaterMarkBytes int64, evict EvictFunc) *Partitioner {
	return &Partitioner{
		window:             window,
		format:             format,
		highWaterMarkBytes: highWaterMarkBytes,
		evict:              evict,
		buffers:            make(map[string]*models.PartitionBuffer),
		chunkCount:         make(map[string]int),
	}
}

// Admit validates a raw Record (client_id non-empty, time parseable and
// in-window — redundant checks against the Reader's own filtering) and
// appends it to the buffer for its client_id, creating the buffer on first
// sight. It returns a *svcerrors.ServiceError of Kind EventMalformed when
// the record is rejected; the caller counts rejections, the run continues.
func (p *Partitioner) Admit(rec sources.Record) *svcerrors.ServiceError {
	if rec.ClientID == "" {
		return svcerrors.New(svcerrors.EventMalformed, "PART_1000", "missing client_id", nil)
	}

	t, err := models.ParseTime(rec.TimeRaw)
	if err != nil {
		return svcerrors.New(svcerrors.EventMalformed, "PART_1001", "unparseable time", err)
	}
	if !p.window.Contains(t) {
		return svcerrors.New(svcerrors.EventMalformed, "PART_1002", "event outside window", nil)
	}

	event := models.Event{
		EventID:    rec.EventID,
		ClientID:   rec.ClientID,
		Time:       rec.TimeRaw,
		Payload:    rec.Payload,
		ParsedTime: t,
	}

	buf, ok := p.buffers[rec.ClientID]
	if !ok {
		buf = &models.PartitionBuffer{ClientID: rec.ClientID}
		p.buffers[rec.ClientID] = buf
	}

	size := int64(len(rec.Payload)) + int64(len(rec.EventID)+len(rec.ClientID)+len(rec.TimeRaw))
	buf.Append(event, size)
	p.totalBytes += size

	p.maybeEvict()
	return nil
}

// maybeEvict implements the bounded-mode high-water-mark check: when
// aggregate buffered bytes exceed the mark, the single largest buffer is
// flushed early under a stable chunked key and cleared locally.
func (p *Partitioner) maybeEvict() {
	if p.highWaterMarkBytes <= 0 || p.totalBytes <= p.highWaterMarkBytes {
		return
	}

	var largestID string
	var largestBytes int64 = -1
	for id, buf := range p.buffers {
		if buf.Bytes() > largestBytes {
			largestID = id
			largestBytes = buf.Bytes()
		}
	}
	if largestID == "" {
		return
	}

	buf := p.buffers[largestID]

	body, err := Serialize(buf.Events, p.format)
	if err != nil {
		return // best-effort: leave the buffer intact, retry on the next admit
	}
	p.chunkCount[largestID]++
	n := p.chunkCount[largestID]

	obj := models.OutputObject{
		Key:         fmt.Sprintf("events-%s.chunk-%d.%s", p.window.Start.UTC().Format("2006-01-02-15"), n, p.format.Extension()),
		Body:        body,
		ContentType: p.format.ContentType(),
		ClientID:    largestID,
		EventCount:  len(buf.Events),
		ChunkIndex:  n,
	}

	p.totalBytes -= buf.Bytes()
	p.buffers[largestID] = &models.PartitionBuffer{ClientID: largestID}

	if p.evict != nil {
		p.evict(obj)
	}
}

// Finalize returns the mapping of non-empty buffers and clears internal
// state.
func (p *Partitioner) Finalize() map[string]*models.PartitionBuffer {
	out := make(map[string]*models.PartitionBuffer, len(p.buffers))
	for id, buf := range p.buffers {
		if !buf.Empty() {
			out[id] = buf
		}
	}
	p.buffers = make(map[string]*models.PartitionBuffer)
	p.totalBytes = 0
	return out
}

// ChunksEmitted reports how many early-flush chunks a client produced
// during this run (0 if the client never crossed the high-water mark).
func (p *Partitioner) ChunksEmitted(clientID string) int {
	return p.chunkCount[clientID]
}
