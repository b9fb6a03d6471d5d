package cloudwatchtelemetry

import (
	"context"
	"errors"
	"testing"

	"event-shipper/internal/models"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCloudwatchAPI struct {
	calls []*cloudwatch.PutMetricDataInput
	err   error
}

func (f *fakeCloudwatchAPI) PutMetricData(_ context.Context, params *cloudwatch.PutMetricDataInput, _ ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	f.calls = append(f.calls, params)
	if f.err != nil {
		return nil, f.err
	}
	return &cloudwatch.PutMetricDataOutput{}, nil
}

func TestEmitSendsSingleBatchForNineMeasurements(t *testing.T) {
	t.Parallel()

	api := &fakeCloudwatchAPI{}
	sink := newSink(api)

	summary := models.NewRunSummary()
	summary.AddScanned(5)
	summary.MarkPartial()

	err := sink.Emit(context.Background(), summary)
	require.NoError(t, err)

	require.Len(t, api.calls, 1)
	assert.Equal(t, "EventShipper", *api.calls[0].Namespace)
	assert.Len(t, api.calls[0].MetricData, 9)
}

func TestEmitPropagatesAPIError(t *testing.T) {
	t.Parallel()

	api := &fakeCloudwatchAPI{err: errors.New("throttled")}
	sink := newSink(api)

	err := sink.Emit(context.Background(), models.NewRunSummary())
	assert.Error(t, err)
}
