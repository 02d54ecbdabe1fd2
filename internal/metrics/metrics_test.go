package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRegistered(t *testing.T) {
	t.Parallel()

	// Verify all metrics are non-nil (registered via promauto on package init).
	assert.NotNil(t, HTTPRequestDuration)
	assert.NotNil(t, TickDuration)
	assert.NotNil(t, ChecksTotal)
	assert.NotNil(t, CheckErrorsTotal)
	assert.NotNil(t, EndedTransitionsTotal)
	assert.NotNil(t, NotificationsTotal)
	assert.NotNil(t, TrackedListings)
	assert.NotNil(t, SourceFetchesTotal)
	assert.NotNil(t, SourceFallbacksTotal)
	assert.NotNil(t, GatewayErrorsTotal)
}

func TestMetricsGathered(t *testing.T) {
	ChecksTotal.Inc()
	TrackedListings.WithLabelValues("active").Set(3)

	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)

	byName := make(map[string]*dto.MetricFamily, len(families))
	for _, mf := range families {
		byName[mf.GetName()] = mf
	}

	require.Contains(t, byName, "bidwatch_checks_total")
	assert.Equal(t, dto.MetricType_COUNTER, byName["bidwatch_checks_total"].GetType())

	require.Contains(t, byName, "bidwatch_tracked_listings")
	assert.Equal(t, dto.MetricType_GAUGE, byName["bidwatch_tracked_listings"].GetType())
}
