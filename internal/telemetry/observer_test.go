package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collectSums(t *testing.T, reader *sdkmetric.ManualReader) map[string]int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	sums := make(map[string]int64)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range sum.DataPoints {
					sums[m.Name] += dp.Value
				}
			}
		}
	}
	return sums
}

func TestRunObserver_RecordsRunsAndAttempts(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	obs, err := NewRunObserver(mp.Meter(InstrumentationName))
	require.NoError(t, err)

	obs.ObserveAttempt("audio", "openai", "failed", 120*time.Millisecond)
	obs.ObserveAttempt("audio", "deepgram", "success", 80*time.Millisecond)
	obs.ObserveAttempt("audio", "groq", "skipped", 0)
	obs.ObserveRun("audio", "success", false, 250*time.Millisecond)

	sums := collectSums(t, reader)
	assert.Equal(t, int64(3), sums["capflow.provider.attempts"])
	assert.Equal(t, int64(1), sums["capflow.capability.runs"])
}
