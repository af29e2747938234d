package health

import (
	"runtime"
)

// NewRunTracker returns a tracker in the starting phase.
func NewRunTracker() *RunTracker {
	t := &RunTracker{}
	t.phase.Store(PhaseStarting)
	t.round.Store(-1)
	return t
}

// SetPhase moves the run to phase p.
func (t *RunTracker) SetPhase(p Phase) {
	t.phase.Store(p)
}

// Fail moves the run to the failed phase and keeps the cause.
func (t *RunTracker) Fail(err error) {
	if err != nil {
		t.cause.Store(err.Error())
	}
	t.phase.Store(PhaseFailed)
}

// Phase returns the current phase.
func (t *RunTracker) Phase() Phase {
	return t.phase.Load().(Phase)
}

// ObserveRound records the latest completed round.
func (t *RunTracker) ObserveRound(round int, active int64) {
	t.round.Store(int64(round))
	t.active.Store(active)
}

func (t *RunTracker) details() map[string]any {
	return map[string]any{
		"phase":  t.Phase(),
		"round":  t.round.Load(),
		"active": t.active.Load(),
	}
}

// LivenessCheck is unhealthy once the run has failed.
func (t *RunTracker) LivenessCheck() CheckFunc {
	return func() Check {
		check := Check{Details: t.details()}
		if t.Phase() == PhaseFailed {
			check.Status = StatusUnhealthy
			check.Message, _ = t.cause.Load().(string)
			return check
		}
		check.Status = StatusHealthy
		return check
	}
}

// ReadinessCheck is healthy once the graph is loaded and the run has not
// failed. A run still loading its input reports degraded.
func (t *RunTracker) ReadinessCheck() CheckFunc {
	return func() Check {
		check := Check{Details: t.details()}
		switch t.Phase() {
		case PhasePropagating, PhaseStoring, PhaseDone:
			check.Status = StatusHealthy
		case PhaseFailed:
			check.Status = StatusUnhealthy
			check.Message, _ = t.cause.Load().(string)
		default:
			check.Status = StatusDegraded
			check.Message = "graph not loaded"
		}
		return check
	}
}

// RuntimeMemory reports the Go heap allocation and the memory obtained
// from the OS.
func RuntimeMemory() (alloc, sys uint64) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return m.Alloc, m.Sys
}

// MemoryCheck creates a health check for memory usage
func MemoryCheck(getUsage func() (alloc, sys uint64)) CheckFunc {
	return func() Check {
		check := Check{
			Details: make(map[string]any),
		}

		alloc, sys := getUsage()

		check.Details["alloc_bytes"] = alloc
		check.Details["sys_bytes"] = sys

		usagePercent := 0.0
		if sys > 0 {
			usagePercent = float64(alloc) / float64(sys) * 100
		}

		if usagePercent > 90 {
			check.Status = StatusDegraded
			check.Message = "High memory usage"
		} else {
			check.Status = StatusHealthy
			check.Message = "Memory usage normal"
		}

		return check
	}
}
