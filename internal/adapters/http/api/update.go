// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// updateRequest mirrors the wire schema for POST /leaderboard/update.
type updateRequest struct {
	UserID string `json:"user_id"`
	Count  int64  `json:"count"`
}

func (u updateRequest) validate() error {
	if strings.TrimSpace(u.UserID) == "" {
		return fmt.Errorf("%w: missing user_id", ErrBadRequest)
	}
	return nil
}

// UpdateHandler handles score update requests.
type UpdateHandler struct {
	deps Dependencies
}

// NewUpdateHandler creates a new update handler.
func NewUpdateHandler(deps Dependencies) *UpdateHandler {
	return &UpdateHandler{deps: deps}
}

// HandleUpdate handles POST /leaderboard/update requests and responds with
// the user's updated four-counter snapshot.
func (h *UpdateHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", fmt.Errorf("%w: invalid json", ErrBadRequest))
		return
	}
	if err := req.validate(); err != nil {
		writeServiceError(w, err)
		return
	}
	snap, err := h.deps.IncrementScore(r.Context(), req.UserID, req.Count)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}
