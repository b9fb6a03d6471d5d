// Package s3sink implements sinks.Writer against Amazon S3, grounded on
// original_source/src/s3_writer.py's upload/retry protocol and on
// other_examples' aws-sdk-go-v2/service/s3 usage pattern.
package s3sink

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"

	"event-shipper/internal/shared/retrypolicy"
	"event-shipper/internal/shared/svcerrors"
	"event-shipper/internal/sinks"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	smithy "github.com/aws/smithy-go"
)

// s3API is the narrow slice of the S3 client the Writer depends on.
type s3API interface {
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Writer implements sinks.Writer on top of S3.
type Writer struct {
	api          s3API
	bucketPrefix string
	sse          types.ServerSideEncryption
	retry        retrypolicy.Policy

	mu             sync.Mutex
	checkedBuckets map[string]bool
}

// New builds a Writer backed by a real *s3.Client.
func New(client *s3.Client, bucketPrefix, serverSideEncryption string, retry retrypolicy.Policy) *Writer {
	return newWriter(client, bucketPrefix, serverSideEncryption, retry)
}

func newWriter(api s3API, bucketPrefix, serverSideEncryption string, retry retrypolicy.Policy) *Writer {
	return &Writer{
		api:            api,
		bucketPrefix:   bucketPrefix,
		sse:            types.ServerSideEncryption(serverSideEncryption),
		retry:          retry,
		checkedBuckets: make(map[string]bool),
	}
}

// Write implements sinks.Writer.
func (w *Writer) Write(ctx context.Context, clientID, key string, body []byte, contentType string) (sinks.UploadResult, *svcerrors.ServiceError) {
	bucket := sinks.NormalizeBucketName(w.bucketPrefix, clientID)
	result := sinks.UploadResult{Bucket: bucket, Key: key}

	if ctx.Err() != nil {
		return result, svcerrors.New(svcerrors.DeadlineApproaching, "SNK_2005", "context already done before upload started", ctx.Err())
	}

	if err := w.ensureBucketExists(ctx, bucket); err != nil {
		return result, err
	}

	attempt := 0
	for {
		_, err := w.api.PutObject(ctx, &s3.PutObjectInput{
			Bucket:               aws.String(bucket),
			Key:                  aws.String(key),
			Body:                 bytes.NewReader(body),
			ServerSideEncryption: w.sse,
			ContentType:          aws.String(contentType),
			Metadata: map[string]string{
				"event-count-client": clientID,
			},
		})
		if err == nil {
			result.BytesWritten = int64(len(body))
			result.Retries = attempt
			return result, nil
		}

		kind := classifyPutError(err)
		if kind == svcerrors.DeadlineApproaching {
			return result, svcerrors.New(kind, "SNK_2007", "put object cancelled", err)
		}
		if !kind.Retryable() {
			return result, svcerrors.New(kind, "SNK_2000", "put object failed", err)
		}
		if w.retry.Exhausted(attempt) {
			return result, svcerrors.New(svcerrors.SinkFatal, "SNK_2001", "exceeded retry budget on upload", err)
		}
		if sleepErr := w.retry.Sleep(ctx, attempt); sleepErr != nil {
			return result, svcerrors.New(svcerrors.DeadlineApproaching, "SNK_2002", "cancelled during upload backoff", sleepErr)
		}
		result.Retries = attempt + 1
		attempt++
	}
}

// ensureBucketExists probes bucket existence once per client per run,
// caching the result (spec §4.4: "verifies bucket existence once per
// client per run").
func (w *Writer) ensureBucketExists(ctx context.Context, bucket string) *svcerrors.ServiceError {
	w.mu.Lock()
	ok := w.checkedBuckets[bucket]
	w.mu.Unlock()
	if ok {
		return nil
	}

	_, err := w.api.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return svcerrors.New(svcerrors.DeadlineApproaching, "SNK_2006", fmt.Sprintf("head bucket %q cancelled", bucket), err)
		}
		var notFound *types.NotFound
		var apiErr smithy.APIError
		if errors.As(err, &notFound) || (errors.As(err, &apiErr) && apiErr.ErrorCode() == "NotFound") {
			return svcerrors.New(svcerrors.BucketMissing, "SNK_2003", fmt.Sprintf("bucket %q does not exist", bucket), err)
		}
		return svcerrors.New(svcerrors.SinkFatal, "SNK_2004", fmt.Sprintf("head bucket %q failed", bucket), err)
	}

	w.mu.Lock()
	w.checkedBuckets[bucket] = true
	w.mu.Unlock()
	return nil
}

// classifyPutError maps an S3 SDK error to the taxonomy's retryable kinds,
// or SinkFatal for everything else (spec §4.4: "non-transient failures (4xx
// other than 429/503) are not retried").
func classifyPutError(err error) svcerrors.Kind {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return svcerrors.DeadlineApproaching
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "SlowDown", "RequestTimeout", "RequestTimeTooSkewed", "ServiceUnavailable", "InternalError":
			return svcerrors.SinkThrottled
		}
	}

	var retryableErr interface{ RetryableError() bool }
	if errors.As(err, &retryableErr) && retryableErr.RetryableError() {
		return svcerrors.SinkTransient
	}

	return svcerrors.SinkFatal
}
