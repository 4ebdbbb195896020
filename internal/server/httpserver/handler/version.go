package handler

import (
	"net/http"

	"github.com/rob-jonesdevlab/ods-signage/internal/infra/buildinfo"
)

// Version handles GET /version.
func (h *Handler) Version(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, VersionResponse{
		Info:              buildinfo.Get(),
		DriftLimitMs:      h.cfg.DriftLimit.Milliseconds(),
		RegistrationTTLMs: h.cfg.RegistrationTTL.Milliseconds(),
	})
}
