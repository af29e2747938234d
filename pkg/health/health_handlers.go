package health

import (
	"encoding/json"
	"net/http"
)

// Handler serves the checks of probe p as JSON. The health probe answers 200
// while degraded; readiness and liveness answer 200 only when healthy.
func (hc *Checker) Handler(p Probe) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response := hc.Run(p)

		ok := response.Status == StatusHealthy
		if p == ProbeHealth {
			ok = response.Status != StatusUnhealthy
		}

		w.Header().Set("Content-Type", "application/json")
		if ok {
			w.WriteHeader(http.StatusOK)
		} else {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(response)
	}
}

// Register mounts the probes on mux at /health, /readyz and /healthz.
func (hc *Checker) Register(mux *http.ServeMux) {
	mux.Handle("/health", hc.Handler(ProbeHealth))
	mux.Handle("/readyz", hc.Handler(ProbeReadiness))
	mux.Handle("/healthz", hc.Handler(ProbeLiveness))
}
