package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/UNO-CSCI4830/project4-logbook/internal/models"

	prom "github.com/prometheus/client_golang/prometheus"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "logbook"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once             sync.Once
	sweepDuration    prom.Histogram
	sweepRuns        *prom.CounterVec
	applianceResults *prom.CounterVec
	notifyDuration   *prom.HistogramVec
	lastSweep        prom.Gauge
}

// NewPrometheusRecorder constructs and registers the sweep metrics.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.sweepDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "sweep_duration_seconds",
			Help:      "Duration of alert sweeps",
			Buckets:   prom.DefBuckets,
		})
		pr.sweepRuns = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "sweep_runs_total",
			Help:      "Alert sweep runs by result",
		}, []string{"result"})
		pr.applianceResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "sweep_appliance_outcomes_total",
			Help:      "Per-appliance sweep outcomes",
		}, []string{"outcome"})
		pr.notifyDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "notify_duration_seconds",
			Help:      "Duration of maintenance alert deliveries",
			Buckets:   prom.DefBuckets,
		}, []string{"result"})
		pr.lastSweep = prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "last_sweep_timestamp_seconds",
			Help:      "Unix time of the last completed sweep",
		})
		reg.MustRegister(pr.sweepDuration, pr.sweepRuns, pr.applianceResults, pr.notifyDuration, pr.lastSweep)
	})
	return pr
}

func (p *PrometheusRecorder) ObserveSweepDuration(d time.Duration) {
	if p == nil || p.sweepDuration == nil {
		return
	}
	p.sweepDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncSweepRun(result RunLabel) {
	if p == nil || p.sweepRuns == nil {
		return
	}
	p.sweepRuns.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) IncApplianceOutcome(outcome models.SweepOutcome) {
	if p == nil || p.applianceResults == nil {
		return
	}
	p.applianceResults.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) ObserveNotifyDuration(d time.Duration, success bool) {
	if p == nil || p.notifyDuration == nil {
		return
	}
	res := "failed"
	if success {
		res = "success"
	}
	p.notifyDuration.WithLabelValues(res).Observe(d.Seconds())
}

func (p *PrometheusRecorder) SetLastSweep(t time.Time) {
	if p == nil || p.lastSweep == nil {
		return
	}
	p.lastSweep.Set(float64(t.Unix()))
}

// HTTPHandler returns an http.Handler that serves Prometheus metrics for the provided registry.
func HTTPHandler(reg *prom.Registry) http.Handler {
	if reg == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
