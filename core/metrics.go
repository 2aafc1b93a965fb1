package core

import (
	"context"
	"fmt"
	"strings"
)

const metricPrefix = "custody."

// NopMetricsRecorder discards every sample.
type NopMetricsRecorder struct{}

func (NopMetricsRecorder) IncCounter(context.Context, string, int64, map[string]string) {}

func (NopMetricsRecorder) ObserveHistogram(context.Context, string, float64, map[string]string) {}

func operationCounterName(operation string) string {
	return metricPrefix + operation + ".total"
}

func operationDurationName(operation string) string {
	return metricPrefix + operation + ".duration_ms"
}

// conversionUnitsName tracks derivative units moved per committed
// conversion, e.g. custody.wrap.derivative_units.
func conversionUnitsName(direction ConversionDirection) string {
	return metricPrefix + string(direction) + ".derivative_units"
}

func operationTags(operation, status string, fields map[string]any) map[string]string {
	tags := map[string]string{
		"operation": operation,
		"status":    status,
	}
	if value := strings.TrimSpace(fmt.Sprint(fields["direction"])); value != "" && value != "<nil>" {
		tags["direction"] = value
	}
	return tags
}

func cloneTags(tags map[string]string) map[string]string {
	copied := make(map[string]string, len(tags))
	for key, value := range tags {
		copied[key] = value
	}
	return copied
}

var _ MetricsRecorder = NopMetricsRecorder{}
