// Package sinks defines the Sink Writer contract (spec §4.4): bucket
// resolution, upload, retry, and concurrency-capped dispatch are all
// implementation concerns of a concrete Writer; this package fixes only
// the shared bucket-naming rule and the interface every implementation
// (s3sink, localsink) satisfies.
package sinks

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"

	"event-shipper/internal/shared/svcerrors"
)

// MaxBucketNameLength is S3's bucket name length ceiling; other object
// stores behind this interface are expected to tolerate the same cap.
const MaxBucketNameLength = 63

// UploadResult carries the outcome detail RunSummary needs for a
// successful or attempted upload.
type UploadResult struct {
	Bucket       string
	Key          string
	BytesWritten int64
	Retries      int
}

// Writer publishes one object for one client. Implementations own bucket
// existence checking, the upload protocol, and the transient-vs-fatal
// retry split; callers run Write under their own concurrency semaphore.
type Writer interface {
	Write(ctx context.Context, clientID, key string, body []byte, contentType string) (UploadResult, *svcerrors.ServiceError)
}

// NormalizeBucketName implements spec §4.4/§6's bucket naming rule:
// "{prefix}-{client_id}", lowercased, any character outside [a-z0-9-]
// replaced by '-', leading/trailing hyphens trimmed from the normalized
// client_id and from the whole name, length capped with a
// deterministic hash suffix on overflow. The hash uses fnv32a, grounded on
// the teacher's partitionIndex hashing idiom in
// internal/streams/paritioned_queue.go.
func NormalizeBucketName(prefix, clientID string) string {
	normalize := func(s string) string {
		var b strings.Builder
		for _, r := range strings.ToLower(s) {
			switch {
			case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
				b.WriteRune(r)
			default:
				b.WriteRune('-')
			}
		}
		return b.String()
	}
	name := strings.Trim(normalize(prefix)+"-"+strings.Trim(normalize(clientID), "-"), "-")

	if len(name) <= MaxBucketNameLength {
		return name
	}

	suffix := fmt.Sprintf("-%08x", fnv32a(clientID))
	cut := MaxBucketNameLength - len(suffix)
	if cut < 0 {
		cut = 0
	}
	return strings.TrimRight(name[:cut], "-") + suffix
}

func fnv32a(s string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return h.Sum32()
}
