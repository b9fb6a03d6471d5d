package localsink

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"event-shipper/internal/shared/svcerrors"
	"event-shipper/internal/sinks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteCreatesFileUnderBucketDir(t *testing.T) {
	t.Parallel()

	w, err := New(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, w.EnsureBucket("acme"))

	result, svcErr := w.Write(context.Background(), "acme", "events-2024-06-01-10.json", []byte(`[1,2,3]`), "application/json")
	require.Nil(t, svcErr)
	assert.Equal(t, sinks.NormalizeBucketName("events", "acme"), result.Bucket)
	assert.Equal(t, int64(7), result.BytesWritten)

	content, err := os.ReadFile(filepath.Join(w.rootDir, result.Bucket, "events-2024-06-01-10.json"))
	require.NoError(t, err)
	assert.Equal(t, "[1,2,3]", string(content))
}

func TestWriteOverwritesExistingKey(t *testing.T) {
	t.Parallel()

	w, err := New(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, w.EnsureBucket("acme"))

	_, svcErr := w.Write(context.Background(), "acme", "key.json", []byte("first"), "application/json")
	require.Nil(t, svcErr)

	result, svcErr := w.Write(context.Background(), "acme", "key.json", []byte("second"), "application/json")
	require.Nil(t, svcErr)

	content, err := os.ReadFile(filepath.Join(w.rootDir, result.Bucket, "key.json"))
	require.NoError(t, err)
	assert.Equal(t, "second", string(content))
}

func TestWriteRejectsInvalidKey(t *testing.T) {
	t.Parallel()

	w, err := New(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, w.EnsureBucket("acme"))

	for _, key := range []string{"", "/abs/path", "../escape", "a/../.."} {
		_, svcErr := w.Write(context.Background(), "acme", key, []byte("x"), "application/json")
		require.NotNil(t, svcErr, "key %q should be rejected", key)
		assert.Equal(t, svcerrors.SinkFatal, svcErr.Kind)
	}
}

func TestWriteOnMissingBucketReturnsBucketMissing(t *testing.T) {
	t.Parallel()

	w, err := New(t.TempDir())
	require.NoError(t, err)

	_, svcErr := w.Write(context.Background(), "acme", "key.json", []byte("x"), "application/json")
	require.NotNil(t, svcErr)
	assert.Equal(t, svcerrors.BucketMissing, svcErr.Kind)
}

func TestNewRejectsEmptyRootDir(t *testing.T) {
	t.Parallel()

	_, err := New("")
	assert.ErrorIs(t, err, ErrInvalidRootDir)
}

func TestWriteWithCancelledContextReturnsDeadlineApproaching(t *testing.T) {
	t.Parallel()

	w, err := New(t.TempDir())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, svcErr := w.Write(ctx, "acme", "events-2024-06-01-10.json", []byte(`[1,2,3]`), "application/json")
	require.NotNil(t, svcErr)
	assert.Equal(t, svcerrors.DeadlineApproaching, svcErr.Kind)
}
