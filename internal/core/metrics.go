package core

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"ridewise/internal/types"
)

// MetricsCollector records API and domain telemetry.
type MetricsCollector interface {
	RecordRequest(method, endpoint, status string, duration time.Duration)
	RecordUpstreamFailure(provider string)
	RecordRidingScore(suitability types.Suitability, score int)
}

// NoopMetrics discards everything. It is the default collector.
type NoopMetrics struct{}

func (NoopMetrics) RecordRequest(_, _, _ string, _ time.Duration) {}
func (NoopMetrics) RecordUpstreamFailure(_ string) {}
func (NoopMetrics) RecordRidingScore(_ types.Suitability, _ int) {}

// CloudWatchClient is the subset of the CloudWatch SDK client used here.
type CloudWatchClient interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

const metricPublishTimeout = 2 * time.Second

// CloudWatchMetrics publishes each datum asynchronously so request latency
// never includes a CloudWatch round trip. Close waits for in-flight puts.
type CloudWatchMetrics struct {
	client    CloudWatchClient
	namespace string
	logger    *slog.Logger
	wg        sync.WaitGroup
}

var _ MetricsCollector = (*CloudWatchMetrics)(nil)

// NewCloudWatchMetrics creates a collector for the namespace, falling back to
// types.MetricNamespace when empty.
func NewCloudWatchMetrics(client CloudWatchClient, namespace string, logger *slog.Logger) *CloudWatchMetrics {
	if namespace == "" {
		namespace = types.MetricNamespace
	}
	return &CloudWatchMetrics{client: client, namespace: namespace, logger: logger}
}

// RecordRequest emits APILatency (ms) and APIRequestCount with endpoint,
// method and status dimensions.
func (m *CloudWatchMetrics) RecordRequest(method, endpoint, status string, duration time.Duration) {
	dims := []cwtypes.Dimension{
		dimension(types.DimEndpoint, endpoint),
		dimension(types.DimMethod, method),
		dimension(types.DimStatus, status),
	}
	m.publish(
		cwtypes.MetricDatum{
			MetricName: aws.String(types.MetricAPILatency),
			Value:      aws.Float64(float64(duration.Milliseconds())),
			Unit:       cwtypes.StandardUnitMilliseconds,
			Dimensions: dims,
		},
		cwtypes.MetricDatum{
			MetricName: aws.String(types.MetricAPIRequestCount),
			Value:      aws.Float64(1),
			Unit:       cwtypes.StandardUnitCount,
			Dimensions: dims,
		},
	)
}

// RecordUpstreamFailure counts a failed call to a weather, places or
// geocoding provider.
func (m *CloudWatchMetrics) RecordUpstreamFailure(provider string) {
	m.publish(cwtypes.MetricDatum{
		MetricName: aws.String(types.MetricExternalAPIFailure),
		Value:      aws.Float64(1),
		Unit:       cwtypes.StandardUnitCount,
		Dimensions: []cwtypes.Dimension{dimension(types.DimProvider, provider)},
	})
}

// RecordRidingScore emits the computed score dimensioned by suitability.
func (m *CloudWatchMetrics) RecordRidingScore(suitability types.Suitability, score int) {
	m.publish(cwtypes.MetricDatum{
		MetricName: aws.String(types.MetricRidingScore),
		Value:      aws.Float64(float64(score)),
		Unit:       cwtypes.StandardUnitNone,
		Dimensions: []cwtypes.Dimension{dimension(types.DimSuitability, string(suitability))},
	})
}

// Close blocks until all pending puts have finished.
func (m *CloudWatchMetrics) Close() error {
	m.wg.Wait()
	return nil
}

func (m *CloudWatchMetrics) publish(data ...cwtypes.MetricDatum) {
	input := &cloudwatch.PutMetricDataInput{
		Namespace:  aws.String(m.namespace),
		MetricData: data,
	}
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), metricPublishTimeout)
		defer cancel()
		if _, err := m.client.PutMetricData(ctx, input); err != nil {
			m.logger.Warn("failed to publish metric",
				"error", err.Error(),
				"metric", aws.ToString(data[0].MetricName),
			)
		}
	}()
}

func dimension(name, value string) cwtypes.Dimension {
	return cwtypes.Dimension{Name: aws.String(name), Value: aws.String(value)}
}
