// Package cloudwatchtelemetry implements telemetry.Sink against Amazon
// CloudWatch, grounded on original_source/src/metrics_collector.py's
// publish_cloudwatch_metrics (20-MetricDatum batching, the CloudWatch API's
// own limit per PutMetricData call).
package cloudwatchtelemetry

import (
	"context"

	"event-shipper/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

// Namespace is the CloudWatch namespace all measurements are published
// under, matching metrics_collector.py's default of 'EventProcessor'
// renamed for this system.
const Namespace = "EventShipper"

const maxDatumPerCall = 20

// cloudwatchAPI is the narrow slice of the CloudWatch client the Sink
// depends on.
type cloudwatchAPI interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// Sink publishes a RunSummary's nine named measurements to CloudWatch.
type Sink struct {
	api cloudwatchAPI
}

// New builds a Sink backed by a real *cloudwatch.Client.
func New(client *cloudwatch.Client) *Sink {
	return &Sink{api: client}
}

func newSink(api cloudwatchAPI) *Sink {
	return &Sink{api: api}
}

// Emit implements telemetry.Sink.
func (s *Sink) Emit(ctx context.Context, summary *models.RunSummary) error {
	data := datumsFor(summary)

	for i := 0; i < len(data); i += maxDatumPerCall {
		end := i + maxDatumPerCall
		if end > len(data) {
			end = len(data)
		}
		if _, err := s.api.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
			Namespace:  aws.String(Namespace),
			MetricData: data[i:end],
		}); err != nil {
			return err
		}
	}
	return nil
}

func datumsFor(summary *models.RunSummary) []types.MetricDatum {
	count := types.StandardUnitCount
	ms := types.StandardUnitMilliseconds
	bytes := types.StandardUnitBytes

	partial := float64(0)
	if summary.Partial {
		partial = 1
	}

	return []types.MetricDatum{
		{MetricName: aws.String("EventsScanned"), Value: aws.Float64(float64(summary.EventsScanned)), Unit: count},
		{MetricName: aws.String("EventsInWindow"), Value: aws.Float64(float64(summary.EventsInWindow)), Unit: count},
		{MetricName: aws.String("EventsRejected"), Value: aws.Float64(float64(summary.EventsRejected)), Unit: count},
		{MetricName: aws.String("ClientsSeen"), Value: aws.Float64(float64(summary.ClientCount())), Unit: count},
		{MetricName: aws.String("ObjectsWritten"), Value: aws.Float64(float64(summary.ObjectsWritten)), Unit: count},
		{MetricName: aws.String("ObjectsFailed"), Value: aws.Float64(float64(summary.ObjectsFailed)), Unit: count},
		{MetricName: aws.String("BytesWritten"), Value: aws.Float64(float64(summary.BytesWritten)), Unit: bytes},
		{MetricName: aws.String("DurationMs"), Value: aws.Float64(float64(summary.DurationMS)), Unit: ms},
		{MetricName: aws.String("PartialRun"), Value: aws.Float64(partial), Unit: count},
	}
}
