package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	service "github.com/okian/elo/internal/app"
	"github.com/okian/elo/internal/domain/model"
	"github.com/okian/elo/internal/domain/types"
)

// BoutDependencies defines the interface for bout submission.
type BoutDependencies interface {
	// SubmitBout enqueues a bout for async rating.
	SubmitBout(ctx context.Context, b model.Bout) (duplicate bool, err error)
	// ApplyBout rates a bout before returning.
	ApplyBout(ctx context.Context, b model.Bout) (types.BoutResult, error)
}

// boutRequest mirrors the OpenAPI schema for POST /bouts. For a win,
// competitor_a is the winner.
type boutRequest struct {
	BoutID      string `json:"bout_id"`
	CompetitorA string `json:"competitor_a"`
	CompetitorB string `json:"competitor_b"`
	Outcome     string `json:"outcome"`
	TS          string `json:"ts,omitempty"`
}

func (b boutRequest) toModel() (model.Bout, error) {
	outcome, err := model.ParseOutcome(b.Outcome)
	if err != nil {
		return model.Bout{}, err
	}
	bout := model.Bout{
		BoutID:      strings.TrimSpace(b.BoutID),
		CompetitorA: strings.TrimSpace(b.CompetitorA),
		CompetitorB: strings.TrimSpace(b.CompetitorB),
		Outcome:     outcome,
	}
	if b.TS != "" {
		ts, err := time.Parse(time.RFC3339, b.TS)
		if err != nil {
			return model.Bout{}, errors.New("invalid ts; must be RFC3339")
		}
		bout.TS = ts
	}
	if err := bout.Validate(); err != nil {
		return model.Bout{}, err
	}
	return bout, nil
}

type ackResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

type appliedResponse struct {
	Status string `json:"status"`
	types.BoutResult
}

// BoutsHandler handles bout requests.
type BoutsHandler struct {
	deps BoutDependencies
}

// NewBoutsHandler creates a new bouts handler.
func NewBoutsHandler(deps BoutDependencies) *BoutsHandler {
	return &BoutsHandler{deps: deps}
}

// HandlePostBout handles POST /bouts requests. With ?sync=true the bout is
// rated before the response and the new ratings are returned.
func (h *BoutsHandler) HandlePostBout(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_bout"
	var req boutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	bout, err := req.toModel()
	if err != nil {
		writeError(w, WrapKind(op, ErrBadRequest, err))
		return
	}

	if sync, _ := strconv.ParseBool(r.URL.Query().Get("sync")); sync {
		res, err := h.deps.ApplyBout(r.Context(), bout)
		switch {
		case errors.Is(err, service.ErrDuplicateBout):
			writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", Duplicate: true})
		case err != nil:
			writeError(w, Wrap(op, err))
		default:
			writeJSON(w, http.StatusOK, appliedResponse{Status: "applied", BoutResult: res})
		}
		return
	}

	duplicate, err := h.deps.SubmitBout(r.Context(), bout)
	switch {
	case errors.Is(err, service.ErrBackpressure):
		writeError(w, WrapKind(op, ErrBackpressure, err))
	case err != nil:
		writeError(w, Wrap(op, err))
	case duplicate:
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", Duplicate: true})
	default:
		writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted"})
	}
}
