package partition

import (
	"encoding/json"
	"strings"
	"testing"

	"event-shipper/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mkEvent(t *testing.T, id, client, timeRaw, payload string) models.Event {
	t.Helper()
	e := models.Event{EventID: id, ClientID: client, Time: timeRaw}
	if payload != "" {
		e.Payload = json.RawMessage(payload)
	}
	tm, err := models.ParseTime(timeRaw)
	require.NoError(t, err)
	e.ParsedTime = tm
	return e
}

func TestSerializeJSONRoundTrip(t *testing.T) {
	t.Parallel()

	events := []models.Event{
		mkEvent(t, "e1", "acme", "2024-06-01T10:15:00Z", `{"a":1}`),
		mkEvent(t, "e2", "acme", "2024-06-01T10:16:00Z", `{"a":2}`),
	}

	body, err := Serialize(events, FormatJSON)
	require.NoError(t, err)
	assert.False(t, strings.HasSuffix(string(body), "\n"), "json mode has no trailing newline")

	var decoded []models.Event
	require.NoError(t, json.Unmarshal(body, &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "2024-06-01T10:15:00Z", decoded[0].Time, "original string time form preserved")

	reencoded, err := Serialize(decoded, FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, body, reencoded)
}

func TestSerializeJSONEmptyBuffer(t *testing.T) {
	t.Parallel()

	body, err := Serialize(nil, FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(body))
}

func TestSerializeJSONLOneEventPerLineTerminated(t *testing.T) {
	t.Parallel()

	events := []models.Event{
		mkEvent(t, "e1", "acme", "2024-06-01T10:15:00Z", `{"a":1}`),
		mkEvent(t, "e2", "acme", "2024-06-01T10:16:00Z", `{"a":2}`),
	}

	body, err := Serialize(events, FormatJSONL)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(string(body), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasSuffix(string(body), "\n"), "final line terminated")

	var first models.Event
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "e1", first.EventID)
}

func TestSerializeCSVHeaderIsSortedUnionOfTopLevelKeys(t *testing.T) {
	t.Parallel()

	events := []models.Event{
		mkEvent(t, "e1", "acme", "2024-06-01T10:15:00Z", `{"a":1}`),
		mkEvent(t, "e2", "acme", "2024-06-01T10:16:00Z", ""), // no payload
	}

	body, err := Serialize(events, FormatCSV)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(body), "\r\n"), "\n")
	require.Len(t, lines, 3)
	header := strings.Split(lines[0], ",")
	assert.Equal(t, []string{"client_id", "event_id", "payload", "time"}, header,
		"union includes payload because at least one event carries it")
}

func TestSerializeCSVMissingFieldEmitsEmptyCell(t *testing.T) {
	t.Parallel()

	events := []models.Event{
		mkEvent(t, "e1", "acme", "2024-06-01T10:15:00Z", `{"a":1}`),
		mkEvent(t, "e2", "acme", "2024-06-01T10:16:00Z", ""),
	}

	body, err := Serialize(events, FormatCSV)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(body), "\r\n"), "\n")
	require.Len(t, lines, 3)
	secondRow := strings.Split(lines[2], ",")
	// header order: client_id,event_id,payload,time -> payload column is index 2
	assert.Equal(t, "", secondRow[2], "event without payload gets an empty cell")
}

func TestSerializeCSVNestedValueEncodedAsCompactJSON(t *testing.T) {
	t.Parallel()

	events := []models.Event{
		mkEvent(t, "e1", "acme", "2024-06-01T10:15:00Z", `{"a":1,"b":"x"}`),
	}

	body, err := Serialize(events, FormatCSV)
	require.NoError(t, err)
	// The cell holds the compact JSON; RFC 4180 quoting doubles its quotes.
	assert.Contains(t, string(body), `"{""a"":1,""b"":""x""}"`)
}
