package health

import (
	"slices"
	"time"
)

// NewChecker creates a checker with no checks registered
func NewChecker() *Checker {
	hc := &Checker{started: time.Now()}
	for p := range hc.probes {
		hc.probes[p] = make(map[string]CheckFunc)
	}
	return hc
}

// Add registers check under name for probe p, replacing any check already
// registered with that name.
func (hc *Checker) Add(p Probe, name string, check CheckFunc) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	hc.probes[p][name] = check
}

// String returns the probe name.
func (p Probe) String() string {
	switch p {
	case ProbeHealth:
		return "health"
	case ProbeReadiness:
		return "readiness"
	case ProbeLiveness:
		return "liveness"
	default:
		return "unknown"
	}
}

// Run executes the checks of probe p in name order. The worst status wins.
func (hc *Checker) Run(p Probe) Response {
	hc.mu.RLock()
	defer hc.mu.RUnlock()

	checks := hc.probes[p]
	response := Response{
		Status:    StatusHealthy,
		Timestamp: time.Now(),
		Checks:    make(map[string]Check, len(checks)),
		Uptime:    time.Since(hc.started).Seconds(),
	}

	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		start := time.Now()
		check := checks[name]()
		check.Name = name
		check.Duration = time.Since(start)
		check.LastChecked = start
		response.Checks[name] = check
		response.Status = worse(response.Status, check.Status)
	}
	return response
}

func worse(a, b Status) Status {
	if a == StatusUnhealthy || b == StatusUnhealthy {
		return StatusUnhealthy
	}
	if a == StatusDegraded || b == StatusDegraded {
		return StatusDegraded
	}
	return StatusHealthy
}
