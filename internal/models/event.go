package models

import (
	"encoding/json"
	"time"
)

// Event is the atomic record scanned from the source store. Payload is kept
// as json.RawMessage — an opaque byte span preserved verbatim — so the
// pipeline never declares a payload schema, per the "dynamic, schema-free
// event payload" design note.
type Event struct {
	EventID  string          `json:"event_id"`
	ClientID string          `json:"client_id"`
	Time     string          `json:"time"`
	Payload  json.RawMessage `json:"payload,omitempty"`

	// ParsedTime is Time parsed once at admission. It is never serialized;
	// Time keeps the original string form so output round-trips byte for
	// byte (spec §8's round-trip property).
	ParsedTime time.Time `json:"-"`
}

// ParseTime attempts RFC3339 first, then RFC3339Nano, matching the two
// formats original_source/src/data_processor.py accepts.
func ParseTime(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339Nano, raw)
}

// Valid reports whether the event carries a non-empty client_id and a
// parseable time, per spec §3's invariant. It also records the parsed time
// on the receiver for callers that want it without re-parsing.
func (e *Event) Valid() bool {
	if e.ClientID == "" {
		return false
	}
	t, err := ParseTime(e.Time)
	if err != nil {
		return false
	}
	e.ParsedTime = t
	return true
}
