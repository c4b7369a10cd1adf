// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/pomorank/pomorank/internal/domain/model"
	"github.com/pomorank/pomorank/internal/domain/period"
	"github.com/pomorank/pomorank/internal/domain/types"
	"github.com/pomorank/pomorank/internal/recon"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the service implementation.
type Dependencies interface {
	// Foreground leaderboard operations.
	IncrementScore(ctx context.Context, userID string, delta int64) (model.Snapshot, error)
	Leaderboard(ctx context.Context, p period.Period, limit int) ([]types.Row, error)
	UserRank(ctx context.Context, p period.Period, userID string) (types.RankResult, error)
	Neighbors(ctx context.Context, p period.Period, userID string, window int) ([]types.Row, error)

	// Administrative operations.
	SyncNow(ctx context.Context) (recon.Stats, error)
	ManualReset(ctx context.Context, p period.Period) error
	Status(ctx context.Context) types.Status
}

// Server wires HTTP routes for the leaderboard API.
type Server struct {
	updateHandler      *UpdateHandler
	leaderboardHandler *LeaderboardHandler
	userHandler        *UserHandler
	adminHandler       *AdminHandler
	healthHandler      *HealthHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	return &Server{
		updateHandler:      NewUpdateHandler(deps),
		leaderboardHandler: NewLeaderboardHandler(deps),
		userHandler:        NewUserHandler(deps),
		adminHandler:       NewAdminHandler(deps),
		healthHandler:      NewHealthHandler(),
	}
}

// Register attaches all HTTP routes to mux. Specific paths are registered
// before their prefixes so ServeMux picks the longer pattern.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", withMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/leaderboard/update", withMiddleware(s.updateHandler.HandleUpdate, "update"))
	mux.HandleFunc("/leaderboard/user/", withMiddleware(s.userHandler.HandleUser, "user"))
	mux.HandleFunc("/leaderboard/", withMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))
	mux.HandleFunc("/admin/sync", withMiddleware(s.adminHandler.HandleSync, "admin_sync"))
	mux.HandleFunc("/admin/reset/", withMiddleware(s.adminHandler.HandleReset, "admin_reset"))
	mux.HandleFunc("/admin/status", withMiddleware(s.adminHandler.HandleStatus, "admin_status"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeServiceError maps a service error onto the HTTP taxonomy.
func writeServiceError(w http.ResponseWriter, err error) {
	writeError(w, statusFor(err), codeFor(err), err)
}
