package partition

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"sort"

	"event-shipper/internal/models"
)

// Serialize produces the byte payload for a single client's buffer in the
// given format, per spec §4.3's three serialization contracts.
func Serialize(events []models.Event, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		return serializeJSON(events)
	case FormatJSONL:
		return serializeJSONL(events)
	case FormatCSV:
		return serializeCSV(events)
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}

// serializeJSON encodes the buffer as a single top-level array, element
// order = insertion order, no trailing newline.
func serializeJSON(events []models.Event) ([]byte, error) {
	if events == nil {
		events = []models.Event{}
	}
	return json.Marshal(events)
}

// serializeJSONL encodes one event per line, every line (including the
// last) terminated by \n.
func serializeJSONL(events []models.Event) ([]byte, error) {
	var buf bytes.Buffer
	for _, e := range events {
		b, err := json.Marshal(e)
		if err != nil {
			return nil, err
		}
		buf.Write(b)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

// serializeCSV builds a header row from the sorted union of top-level keys
// observed across the buffer's serialized events (spec §4.3's derived-header
// rule, an Open Question this spec resolves — see DESIGN.md). Missing
// fields emit an empty cell; object/array/number/bool/null values are
// encoded as their compact JSON form, string values are emitted unquoted
// (the CSV writer quotes per RFC 4180 only when a cell requires it).
func serializeCSV(events []models.Event) ([]byte, error) {
	rows := make([]map[string]json.RawMessage, len(events))
	keySet := make(map[string]struct{})

	for i, e := range events {
		b, err := json.Marshal(e)
		if err != nil {
			return nil, err
		}
		var m map[string]json.RawMessage
		if err := json.Unmarshal(b, &m); err != nil {
			return nil, err
		}
		rows[i] = m
		for k := range m {
			keySet[k] = struct{}{}
		}
	}

	keys := make([]string, 0, len(keySet))
	for k := range keySet {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(keys); err != nil {
		return nil, err
	}
	for _, m := range rows {
		record := make([]string, len(keys))
		for i, k := range keys {
			raw, ok := m[k]
			if !ok {
				record[i] = ""
				continue
			}
			record[i] = rawToCell(raw)
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func rawToCell(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
