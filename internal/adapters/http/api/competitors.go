package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/elo/internal/domain/types"
)

// CompetitorDependencies defines the interface for competitor operations.
type CompetitorDependencies interface {
	Register(ctx context.Context, id string, initialRating *float64) (types.Competitor, error)
	Competitor(ctx context.Context, id string) (types.Competitor, error)
}

// competitorRequest mirrors the OpenAPI schema for POST /competitors.
type competitorRequest struct {
	ID            string   `json:"id"`
	InitialRating *float64 `json:"initial_rating,omitempty"`
}

// CompetitorsHandler handles competitor requests.
type CompetitorsHandler struct {
	deps CompetitorDependencies
}

// NewCompetitorsHandler creates a new competitors handler.
func NewCompetitorsHandler(deps CompetitorDependencies) *CompetitorsHandler {
	return &CompetitorsHandler{deps: deps}
}

// HandleCreate handles POST /competitors requests.
func (h *CompetitorsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_competitor"
	var req competitorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	c, err := h.deps.Register(r.Context(), req.ID, req.InitialRating)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// HandleGet handles GET /competitors/{id} requests.
func (h *CompetitorsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_competitor"
	c, err := h.deps.Competitor(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, c)
}
