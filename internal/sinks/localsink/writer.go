// Package localsink implements sinks.Writer against the local filesystem
// using an atomic temp-file-then-rename protocol, for dev/test runs
// without AWS credentials.
package localsink

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"event-shipper/internal/shared/svcerrors"
	"event-shipper/internal/sinks"
)

var (
	ErrInvalidKey     = fmt.Errorf("invalid file key")
	ErrInvalidRootDir = fmt.Errorf("invalid root directory")
)

// Writer implements sinks.Writer by writing one file per bucket/key under a
// root directory, bucket becoming a subdirectory of root.
type Writer struct {
	rootDir string

	mu             sync.Mutex
	checkedBuckets map[string]bool
}

// New builds a Writer rooted at rootDir, creating it if necessary.
func New(rootDir string) (*Writer, error) {
	if rootDir == "" {
		return nil, fmt.Errorf("%w: root directory cannot be empty", ErrInvalidRootDir)
	}
	absRoot, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRootDir, err)
	}
	if err := os.MkdirAll(absRoot, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRootDir, err)
	}
	return &Writer{rootDir: absRoot, checkedBuckets: make(map[string]bool)}, nil
}

// EnsureBucket provisions the on-disk directory for clientID's bucket. It is
// the local-filesystem equivalent of creating an S3 bucket out of band: this
// Writer never creates one implicitly from Write, matching the same
// verify-don't-create contract s3sink.Writer honors against real buckets.
func (w *Writer) EnsureBucket(clientID string) error {
	bucket := sinks.NormalizeBucketName("events", clientID)
	if err := os.MkdirAll(filepath.Join(w.rootDir, bucket), 0o755); err != nil {
		return err
	}
	w.mu.Lock()
	w.checkedBuckets[bucket] = true
	w.mu.Unlock()
	return nil
}

// Write implements sinks.Writer. clientID resolves to a bucket through
// sinks.NormalizeBucketName with the fixed prefix "events"; the configured
// sink bucket prefix is not used, so paths match s3sink's bucket names only
// when that prefix is "events".
func (w *Writer) Write(ctx context.Context, clientID, key string, body []byte, _ string) (sinks.UploadResult, *svcerrors.ServiceError) {
	bucket := sinks.NormalizeBucketName("events", clientID)
	result := sinks.UploadResult{Bucket: bucket, Key: key}

	if ctx.Err() != nil {
		return result, svcerrors.New(svcerrors.DeadlineApproaching, "SNK_3008", "context already done before write started", ctx.Err())
	}

	if err := validateKey(key); err != nil {
		return result, svcerrors.New(svcerrors.SinkFatal, "SNK_3000", "invalid object key", err)
	}

	if err := w.ensureBucketExists(bucket); err != nil {
		return result, err
	}

	finalPath := filepath.Join(w.rootDir, bucket, filepath.Clean(key))
	dir := filepath.Dir(finalPath)

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return result, svcerrors.New(svcerrors.SinkFatal, "SNK_3002", "failed to create temp file", err)
	}
	tmpPath := tmp.Name()
	defer func() { _ = tmp.Close(); _ = os.Remove(tmpPath) }()

	if _, err := bytes.NewReader(body).WriteTo(tmp); err != nil {
		if ctx.Err() != nil {
			return result, svcerrors.New(svcerrors.DeadlineApproaching, "SNK_3003", "cancelled while writing object", ctx.Err())
		}
		return result, svcerrors.New(svcerrors.SinkFatal, "SNK_3004", "failed to write object body", err)
	}
	if err := tmp.Sync(); err != nil {
		return result, svcerrors.New(svcerrors.SinkFatal, "SNK_3005", "failed to sync object", err)
	}
	if err := tmp.Close(); err != nil {
		return result, svcerrors.New(svcerrors.SinkFatal, "SNK_3006", "failed to close temp file", err)
	}

	if err := os.Rename(tmpPath, finalPath); err != nil {
		return result, svcerrors.New(svcerrors.SinkFatal, "SNK_3007", "failed to publish object", err)
	}

	result.BytesWritten = int64(len(body))
	return result, nil
}

// ensureBucketExists mirrors s3sink.Writer.ensureBucketExists: a missing
// bucket directory fails the write with BucketMissing rather than being
// silently created (spec §4.4: "missing buckets do not trigger creation by
// this component"). The check result is cached per bucket per Writer.
func (w *Writer) ensureBucketExists(bucket string) *svcerrors.ServiceError {
	w.mu.Lock()
	ok := w.checkedBuckets[bucket]
	w.mu.Unlock()
	if ok {
		return nil
	}

	info, err := os.Stat(filepath.Join(w.rootDir, bucket))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return svcerrors.New(svcerrors.BucketMissing, "SNK_3009", fmt.Sprintf("bucket %q does not exist", bucket), err)
		}
		return svcerrors.New(svcerrors.SinkFatal, "SNK_3010", fmt.Sprintf("stat bucket %q failed", bucket), err)
	}
	if !info.IsDir() {
		return svcerrors.New(svcerrors.BucketMissing, "SNK_3011", fmt.Sprintf("bucket %q is not a directory", bucket), nil)
	}

	w.mu.Lock()
	w.checkedBuckets[bucket] = true
	w.mu.Unlock()
	return nil
}

func validateKey(key string) error {
	if key == "" {
		return ErrInvalidKey
	}
	if filepath.IsAbs(key) {
		return ErrInvalidKey
	}
	clean := filepath.Clean(key)
	if clean == ".." || clean == "." || strings.HasPrefix(clean, "..") {
		return ErrInvalidKey
	}
	return nil
}
