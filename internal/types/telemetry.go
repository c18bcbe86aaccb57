package types

// Telemetry metric names for CloudWatch.
// All components MUST use these constants.
const (
	// Metric Names
	MetricAPILatency         = "APILatency"
	MetricAPIRequestCount    = "APIRequestCount"
	MetricExternalAPIFailure = "ExternalAPIFailure"
	MetricRidingScore        = "RidingScore"

	// Dimension Keys
	DimEndpoint    = "Endpoint"
	DimMethod      = "Method"
	DimStatus      = "Status"
	DimProvider    = "Provider"
	DimSuitability = "Suitability"

	// Metric Namespace
	MetricNamespace = "RideWise"
)
