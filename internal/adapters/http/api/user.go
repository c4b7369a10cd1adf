// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/pomorank/pomorank/internal/domain/period"
)

const defaultWindow = 5

// UserHandler handles per-user rank and neighborhood requests.
type UserHandler struct {
	deps Dependencies
}

// NewUserHandler creates a new user handler.
func NewUserHandler(deps Dependencies) *UserHandler {
	return &UserHandler{deps: deps}
}

// HandleUser dispatches GET /leaderboard/user/{user_id}/rank/{period} and
// GET /leaderboard/user/{user_id}/around/{period}?window=N requests.
func (h *UserHandler) HandleUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/leaderboard/user/")
	parts := strings.Split(rest, "/")
	if len(parts) != 3 || parts[0] == "" {
		writeError(w, http.StatusBadRequest, "validation_error",
			fmt.Errorf("%w: expected /leaderboard/user/{user_id}/rank/{period}", ErrBadRequest))
		return
	}
	userID := parts[0]
	p, err := period.Parse(parts[2])
	if err != nil {
		writeServiceError(w, err)
		return
	}

	switch parts[1] {
	case "rank":
		res, err := h.deps.UserRank(r.Context(), p, userID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	case "around":
		window := defaultWindow
		if raw := r.URL.Query().Get("window"); raw != "" {
			window, err = strconv.Atoi(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "validation_error", fmt.Errorf("%w: window must be an integer", ErrBadRequest))
				return
			}
		}
		rows, err := h.deps.Neighbors(r.Context(), p, userID, window)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rows)
	default:
		http.NotFound(w, r)
	}
}
