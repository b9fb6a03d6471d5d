package main

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigPrefersInlinePayloadConfig(t *testing.T) {
	payload := invocationPayload{
		"config": map[string]any{
			"source":      map[string]any{"table": "events"},
			"sink":        map[string]any{"bucket_prefix": "shipped"},
			"processing":  map[string]any{"window_hours": 2},
			"performance": map[string]any{"max_concurrent_uploads": 3},
			"log":         map[string]any{"level": "warn"},
		},
	}

	cfg, err := loadConfig(payload)
	require.NoError(t, err)
	assert.Equal(t, "events", cfg.Source.Table)
	assert.Equal(t, 2, cfg.Processing.WindowHours)
}

func TestLoadConfigFallsBackToEnvInlineConfig(t *testing.T) {
	t.Setenv("EVENT_SHIPPER_CONFIG", `source:
  table: events
sink:
  bucket_prefix: shipped
processing:
  window_hours: 3
performance:
  max_concurrent_uploads: 4
log:
  level: info
`)

	cfg, err := loadConfig(invocationPayload{})
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Processing.WindowHours)
}

func TestLoadConfigFallsBackToFile(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "lambda_config_*.yml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	_, err = tmpfile.WriteString(`source:
  table: events
sink:
  bucket_prefix: shipped
processing:
  window_hours: 5
performance:
  max_concurrent_uploads: 2
log:
  level: debug
`)
	require.NoError(t, err)
	tmpfile.Close()

	t.Setenv("EVENT_SHIPPER_CONFIG_PATH", tmpfile.Name())

	cfg, err := loadConfig(invocationPayload{})
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Processing.WindowHours)
}
