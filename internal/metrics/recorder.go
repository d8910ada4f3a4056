package metrics

import (
	"time"

	"github.com/UNO-CSCI4830/project4-logbook/internal/models"
)

// RunLabel enumerates how a sweep run ended.
type RunLabel string

const (
	RunCompleted  RunLabel = "completed"
	RunFailed     RunLabel = "failed"
	RunInProgress RunLabel = "in_progress"
)

// Recorder defines observability hooks for the alert sweep. Implementations may
// forward to Prometheus; NoopRecorder is used when metrics are not configured.
type Recorder interface {
	ObserveSweepDuration(d time.Duration)
	IncSweepRun(result RunLabel)
	IncApplianceOutcome(outcome models.SweepOutcome)
	ObserveNotifyDuration(d time.Duration, success bool)
	SetLastSweep(t time.Time)
}

// NoopRecorder is a Recorder that does nothing.
type NoopRecorder struct{}

func (NoopRecorder) ObserveSweepDuration(time.Duration)        {}
func (NoopRecorder) IncSweepRun(RunLabel)                      {}
func (NoopRecorder) IncApplianceOutcome(models.SweepOutcome)   {}
func (NoopRecorder) ObserveNotifyDuration(time.Duration, bool) {}
func (NoopRecorder) SetLastSweep(time.Time)                    {}
