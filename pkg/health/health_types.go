package health

import (
	"sync"
	"sync/atomic"
	"time"
)

// Status represents the health status of a component
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// Check is the result of one named health check
type Check struct {
	Name        string         `json:"name"`
	Status      Status         `json:"status"`
	Message     string         `json:"message,omitempty"`
	Details     map[string]any `json:"details,omitempty"`
	LastChecked time.Time      `json:"last_checked"`
	Duration    time.Duration  `json:"duration_ms"`
}

// CheckFunc performs a health check
type CheckFunc func() Check

// Probe selects which set of checks runs.
type Probe int

const (
	ProbeHealth Probe = iota
	ProbeReadiness
	ProbeLiveness
	probeCount
)

// Checker holds the checks behind the health, readiness and liveness
// endpoints.
type Checker struct {
	mu      sync.RWMutex
	probes  [probeCount]map[string]CheckFunc
	started time.Time
}

// Response represents the overall health response
type Response struct {
	Status    Status           `json:"status"`
	Timestamp time.Time        `json:"timestamp"`
	Checks    map[string]Check `json:"checks"`
	Uptime    float64          `json:"uptime_seconds"`
}

// Phase is the stage a run has reached.
type Phase string

const (
	PhaseStarting    Phase = "starting"
	PhaseLoading     Phase = "loading"
	PhasePropagating Phase = "propagating"
	PhaseStoring     Phase = "storing"
	PhaseDone        Phase = "done"
	PhaseFailed      Phase = "failed"
)

// RunTracker records the phase and round progress of a run. It is safe for
// concurrent use.
type RunTracker struct {
	phase  atomic.Value // Phase
	round  atomic.Int64
	active atomic.Int64
	cause  atomic.Value // string
}
