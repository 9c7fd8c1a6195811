package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/okian/elo/internal/domain/types"
)

// ExpectedDependencies defines the interface for win-probability queries.
type ExpectedDependencies interface {
	Expected(ctx context.Context, aID, bID string) (types.Expectation, error)
}

// ExpectedHandler handles expected-score requests.
type ExpectedHandler struct {
	deps ExpectedDependencies
}

// NewExpectedHandler creates a new expected-score handler.
func NewExpectedHandler(deps ExpectedDependencies) *ExpectedHandler {
	return &ExpectedHandler{deps: deps}
}

// HandleExpected handles GET /expected?a=ID&b=ID requests.
func (h *ExpectedHandler) HandleExpected(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_expected"
	q := r.URL.Query()
	a, b := q.Get("a"), q.Get("b")
	if a == "" || b == "" {
		writeError(w, WrapKind(op, ErrBadRequest, errors.New("both a and b are required")))
		return
	}
	exp, err := h.deps.Expected(r.Context(), a, b)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, exp)
}
