// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/pomorank/pomorank/internal/domain/period"
)

// AdminHandler handles the administrative surface: manual sync, manual
// reset, and status.
type AdminHandler struct {
	deps Dependencies
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(deps Dependencies) *AdminHandler {
	return &AdminHandler{deps: deps}
}

// HandleSync handles POST /admin/sync requests: one reconciliation cycle
// runs synchronously and its stats are returned.
func (h *AdminHandler) HandleSync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	stats, err := h.deps.SyncNow(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// HandleReset handles POST /admin/reset/{period} requests. Only daily,
// weekly, and monthly may be reset manually; yearly is rejected with 400.
func (h *AdminHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	name := strings.TrimPrefix(r.URL.Path, "/admin/reset/")
	if name == "" || strings.Contains(name, "/") {
		writeError(w, http.StatusBadRequest, "validation_error", fmt.Errorf("%w: missing period", ErrBadRequest))
		return
	}
	p, err := period.Parse(name)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if err := h.deps.ManualReset(r.Context(), p); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset", "period": p.String()})
}

// HandleStatus handles GET /admin/status requests.
func (h *AdminHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, h.deps.Status(r.Context()))
}
