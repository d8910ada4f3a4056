package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UNO-CSCI4830/project4-logbook/internal/models"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)

	pr.ObserveSweepDuration(150 * time.Millisecond)
	pr.IncSweepRun(RunCompleted)
	pr.IncApplianceOutcome(models.OutcomeNotified)
	pr.IncApplianceOutcome(models.OutcomeNotified)
	pr.IncApplianceOutcome(models.OutcomeOrphaned)
	pr.ObserveNotifyDuration(20*time.Millisecond, true)
	pr.SetLastSweep(time.Unix(1710061200, 0))

	assert.Equal(t, 2.0, testutil.ToFloat64(pr.applianceResults.WithLabelValues("notified")))
	assert.Equal(t, 1.0, testutil.ToFloat64(pr.applianceResults.WithLabelValues("orphaned")))
	assert.Equal(t, 1.0, testutil.ToFloat64(pr.sweepRuns.WithLabelValues("completed")))
	assert.Equal(t, 1710061200.0, testutil.ToFloat64(pr.lastSweep))

	mfs, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, mfs)
}

func TestPrometheusRecorder_NilSafe(t *testing.T) {
	var pr *PrometheusRecorder
	assert.NotPanics(t, func() {
		pr.ObserveSweepDuration(time.Second)
		pr.IncSweepRun(RunFailed)
		pr.IncApplianceOutcome(models.OutcomeFailed)
		pr.ObserveNotifyDuration(time.Second, false)
		pr.SetLastSweep(time.Now())
	})
}

func TestHTTPHandler(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.IncSweepRun(RunInProgress)

	rec := httptest.NewRecorder()
	HTTPHandler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `logbook_sweep_runs_total{result="in_progress"} 1`)
}

var _ Recorder = NoopRecorder{}
var _ Recorder = (*PrometheusRecorder)(nil)
