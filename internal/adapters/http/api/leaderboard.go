// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/pomorank/pomorank/internal/domain/period"
)

const defaultLimit = 10

// LeaderboardHandler handles ranked-list requests.
type LeaderboardHandler struct {
	deps Dependencies
}

// NewLeaderboardHandler creates a new leaderboard handler.
func NewLeaderboardHandler(deps Dependencies) *LeaderboardHandler {
	return &LeaderboardHandler{deps: deps}
}

// HandleGetLeaderboard handles GET /leaderboard/{period}?limit=N requests.
func (h *LeaderboardHandler) HandleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	name := strings.TrimPrefix(r.URL.Path, "/leaderboard/")
	if name == "" || strings.Contains(name, "/") {
		writeError(w, http.StatusBadRequest, "validation_error", fmt.Errorf("%w: missing period", ErrBadRequest))
		return
	}
	p, err := period.Parse(name)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	limit := defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "validation_error", fmt.Errorf("%w: limit must be an integer", ErrBadRequest))
			return
		}
	}

	rows, err := h.deps.Leaderboard(r.Context(), p, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}
