// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/elo/internal/adapters/repository"
	service "github.com/okian/elo/internal/app"
	"github.com/okian/elo/internal/domain/model"
	"github.com/okian/elo/internal/domain/rating"
	"github.com/okian/elo/internal/domain/types"
	"github.com/okian/elo/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	CompetitorDependencies
	BoutDependencies
	ExpectedDependencies
	LeaderboardDependencies
	RankDependencies
}

// Entry mirrors the read shape returned by leaderboard queries.
type Entry = types.Entry

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	competitorsHandler *CompetitorsHandler
	boutsHandler       *BoutsHandler
	expectedHandler    *ExpectedHandler
	leaderboardHandler *LeaderboardHandler
	rankHandler        *RankHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxLeaderboardLimit int) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		competitorsHandler: NewCompetitorsHandler(deps),
		boutsHandler:       NewBoutsHandler(deps),
		expectedHandler:    NewExpectedHandler(deps),
		leaderboardHandler: NewLeaderboardHandler(deps, maxLeaderboardLimit),
		rankHandler:        NewRankHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.Handle("GET /metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("POST /competitors", MetricsMiddleware(s.competitorsHandler.HandleCreate, "competitors"))
	mux.HandleFunc("GET /competitors/{id}", MetricsMiddleware(s.competitorsHandler.HandleGet, "competitor"))
	mux.HandleFunc("POST /bouts", MetricsMiddleware(s.boutsHandler.HandlePostBout, "bouts"))
	mux.HandleFunc("GET /expected", MetricsMiddleware(s.expectedHandler.HandleExpected, "expected"))
	mux.HandleFunc("GET /leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))
	mux.HandleFunc("GET /rank/{id}", MetricsMiddleware(s.rankHandler.HandleGetRank, "rank"))
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

// writeError maps err onto a status code and a stable error code.
func writeError(w http.ResponseWriter, err error) {
	status, code := classify(err)
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, repository.ErrExists):
		return http.StatusConflict, "already_exists"
	case errors.Is(err, ErrBackpressure), errors.Is(err, service.ErrBackpressure):
		return http.StatusTooManyRequests, "backpressure"
	case errors.Is(err, rating.ErrIncompatibleCompetitor), errors.Is(err, rating.ErrBaseRatingMismatch):
		return http.StatusUnprocessableEntity, "incompatible_competitors"
	case errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, "unavailable"
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, service.ErrInvalidID),
		errors.Is(err, service.ErrInvalidRating),
		errors.Is(err, repository.ErrInvalidLimit),
		errors.Is(err, repository.ErrSameCompetitor),
		errors.Is(err, model.ErrMissingBoutID),
		errors.Is(err, model.ErrMissingCompetitor),
		errors.Is(err, model.ErrSelfBout),
		errors.Is(err, model.ErrUnknownOutcome):
		return http.StatusBadRequest, "bad_request"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
