package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRunLifecycle(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordRunStarted()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ActiveRuns))

	m.RecordRunFinished("cancelled", 4096)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.ActiveRuns))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsStarted))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsFinished.WithLabelValues("cancelled")))
	assert.Equal(t, 4096.0, testutil.ToFloat64(m.OutputBytes))
}

func TestRecordJob(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordJob("success", "24-bit int", "", 2*time.Second)
	m.RecordJob("failed", "24-bit int", "input", time.Second)
	m.RecordJob("failed", "16-bit int", "timeout", time.Minute)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Jobs.WithLabelValues("success", "24-bit int")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Jobs.WithLabelValues("failed", "16-bit int")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.JobErrors.WithLabelValues("timeout")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.JobErrors))
	assert.Equal(t, 1, testutil.CollectAndCount(m.JobDuration))
}

func TestRecordHTTPRequest(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.RecordHTTPRequest("POST", "/api/runs", "202", 0.01)
	m.RecordExcluded("filtered")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("POST", "/api/runs", "202")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FilesExcluded.WithLabelValues("filtered")))
}

func TestSeparateRegistries(t *testing.T) {
	// Registering twice on the same registry panics; separate ones do not.
	assert.NotPanics(t, func() {
		NewMetrics(prometheus.NewRegistry())
		NewMetrics(prometheus.NewRegistry())
	})
	reg := prometheus.NewRegistry()
	NewMetrics(reg)
	assert.Panics(t, func() { NewMetrics(reg) })
}
