package handler

import (
	"context"
	"net/http"
	"sort"
	"time"
)

// Healthz handles GET /healthz. It reports process liveness only.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, HealthResponse{
		Status: "healthy",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}

// Readyz handles GET /readyz. Every registered check must pass.
func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	names := make([]string, 0, len(h.cfg.Checks))
	for name := range h.cfg.Checks {
		names = append(names, name)
	}
	sort.Strings(names)

	checks := make(map[string]string, len(names))
	ready := true
	for _, name := range names {
		ctx, cancel := context.WithTimeout(r.Context(), h.cfg.CheckTimeout)
		err := h.cfg.Checks[name](ctx)
		cancel()
		if err != nil {
			ready = false
			checks[name] = err.Error()
			h.logger.Warn("readiness check failed", "check", name, "error", err)
			continue
		}
		checks[name] = "ok"
	}

	resp := HealthResponse{
		Status: "ready",
		Time:   time.Now().UTC().Format(time.RFC3339),
		Checks: checks,
	}
	if !ready {
		resp.Status = "not_ready"
		h.writeError(w, r, http.StatusServiceUnavailable, "ZTE-SYS-5030", "not ready", resp)
		return
	}
	h.writeJSON(w, r, http.StatusOK, resp)
}
