package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gathered returns name{label=value,...} -> counter or gauge value for every sample in the registry.
func gathered(t *testing.T, metrics *MetricsService) map[string]float64 {
	t.Helper()
	families, err := metrics.Registry().Gather()
	require.NoError(t, err)
	out := map[string]float64{}
	for _, family := range families {
		for _, metric := range family.GetMetric() {
			key := family.GetName()
			for _, label := range metric.GetLabel() {
				key += "|" + label.GetName() + "=" + label.GetValue()
			}
			switch {
			case metric.GetCounter() != nil:
				out[key] = metric.GetCounter().GetValue()
			case metric.GetGauge() != nil:
				out[key] = metric.GetGauge().GetValue()
			case metric.GetHistogram() != nil:
				out[key] = float64(metric.GetHistogram().GetSampleCount())
			}
		}
	}
	return out
}

func TestMetricsServiceExportCollectors(t *testing.T) {
	metrics := NewMetricsService()
	metrics.RecordExport("day", "ok")
	metrics.RecordExport("day", "ok")
	metrics.RecordExport("item", "not_found")
	metrics.ObservePhotoFetch(true, 10*time.Millisecond)
	metrics.ObservePhotoFetch(false, 20*time.Millisecond)
	metrics.ObserveArchive(3)

	values := gathered(t, metrics)
	assert.Equal(t, float64(2), values["export_requests_total|outcome=ok|scope=day"])
	assert.Equal(t, float64(1), values["export_requests_total|outcome=not_found|scope=item"])
	assert.Equal(t, float64(1), values["export_photo_fetch_total|outcome=failed"])
	assert.Equal(t, float64(2), values["export_photo_fetch_duration_seconds"])
	assert.Equal(t, float64(1), values["export_archive_files"])
}

func TestMetricsServiceCacheRatio(t *testing.T) {
	metrics := NewMetricsService()
	metrics.RecordCacheOperation(true, time.Millisecond)
	metrics.RecordCacheOperation(false, time.Millisecond)

	values := gathered(t, metrics)
	assert.Equal(t, 0.5, values["cache_hit_ratio"])
	assert.Equal(t, float64(1), values["cache_hits_total"])
}

func TestMetricsServiceNilSafe(t *testing.T) {
	var metrics *MetricsService
	assert.NotPanics(t, func() {
		metrics.RecordExport("day", "ok")
		metrics.ObservePhotoFetch(true, time.Millisecond)
		metrics.ObserveArchive(1)
		metrics.ObserveHTTPRequest("GET", "/health", 200, time.Millisecond)
		metrics.RecordCacheOperation(true, time.Millisecond)
	})
	assert.Nil(t, metrics.Registry())
}
