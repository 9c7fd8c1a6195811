package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/okian/elo/internal/adapters/http/api"
	"github.com/okian/elo/internal/adapters/repository"
	service "github.com/okian/elo/internal/app"
	"github.com/okian/elo/internal/domain/model"
	"github.com/okian/elo/internal/domain/rating"
	"github.com/okian/elo/internal/domain/types"
	"github.com/okian/elo/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// mockDependencies implements api.Dependencies.
type mockDependencies struct {
	submitted   []model.Bout
	duplicate   bool
	submitErr   error
	applyResult types.BoutResult
	applyErr    error
	registerErr error
	competitor  types.Competitor
	lookupErr   error
	expectation types.Expectation
	expectedErr error
	topN        []types.Entry
	topNErr     error
	rank        types.Entry
	rankErr     error
	lastLimit   int
}

func (m *mockDependencies) Register(_ context.Context, id string, initial *float64) (types.Competitor, error) {
	if m.registerErr != nil {
		return types.Competitor{}, m.registerErr
	}
	r := 400.0
	if initial != nil {
		r = *initial
	}
	return types.Competitor{ID: id, Rank: 1, Rating: r}, nil
}

func (m *mockDependencies) Competitor(context.Context, string) (types.Competitor, error) {
	return m.competitor, m.lookupErr
}

func (m *mockDependencies) SubmitBout(_ context.Context, b model.Bout) (bool, error) {
	if m.submitErr != nil {
		return false, m.submitErr
	}
	m.submitted = append(m.submitted, b)
	return m.duplicate, nil
}

func (m *mockDependencies) ApplyBout(context.Context, model.Bout) (types.BoutResult, error) {
	return m.applyResult, m.applyErr
}

func (m *mockDependencies) Expected(context.Context, string, string) (types.Expectation, error) {
	return m.expectation, m.expectedErr
}

func (m *mockDependencies) TopN(_ context.Context, n int) ([]types.Entry, error) {
	m.lastLimit = n
	if m.topNErr != nil {
		return nil, m.topNErr
	}
	if n > len(m.topN) {
		return m.topN, nil
	}
	return m.topN[:n], nil
}

func (m *mockDependencies) Rank(context.Context, string) (types.Entry, error) {
	return m.rank, m.rankErr
}

type mockStatsProvider struct {
	stats map[string]any
}

func (m *mockStatsProvider) GetStats() map[string]any { return m.stats }

func newMux(deps api.Dependencies, stats api.StatsProvider) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(deps, stats, 100).Register(context.Background(), mux)
	return mux
}

func do(mux http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, http.NoBody)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func errorCode(w *httptest.ResponseRecorder) string {
	var body struct {
		Code string `json:"code"`
	}
	_ = json.NewDecoder(w.Body).Decode(&body)
	return body.Code
}

func TestServer_Register(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		deps := &mockDependencies{}
		mux := newMux(deps, &mockStatsProvider{stats: map[string]any{"started": true}})

		Convey("Health responds with ok", func() {
			w := do(mux, http.MethodGet, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"ok"`)
		})

		Convey("Metrics are exposed in Prometheus format", func() {
			_ = do(mux, http.MethodGet, "/healthz", "")
			w := do(mux, http.MethodGet, "/metrics", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "elo_")
		})

		Convey("Stats are returned as JSON", func() {
			w := do(mux, http.MethodGet, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Header().Get("Content-Type"), ShouldEqual, "application/json; charset=utf-8")
			So(w.Body.String(), ShouldContainSubstring, `"started":true`)
		})

		Convey("Wrong methods are refused", func() {
			w := do(mux, http.MethodGet, "/bouts", "")
			So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})
}

func TestCompetitorsHandler(t *testing.T) {
	Convey("Given a competitors endpoint", t, func() {
		deps := &mockDependencies{}
		mux := newMux(deps, &mockStatsProvider{})

		Convey("Creating with an initial rating returns 201", func() {
			w := do(mux, http.MethodPost, "/competitors", `{"id":"alice","initial_rating":1500}`)
			So(w.Code, ShouldEqual, http.StatusCreated)
			var c types.Competitor
			So(json.NewDecoder(w.Body).Decode(&c), ShouldBeNil)
			So(c.ID, ShouldEqual, "alice")
			So(c.Rating, ShouldEqual, 1500)
		})

		Convey("Creating an existing competitor returns 409", func() {
			deps.registerErr = repository.ErrExists
			w := do(mux, http.MethodPost, "/competitors", `{"id":"alice"}`)
			So(w.Code, ShouldEqual, http.StatusConflict)
			So(errorCode(w), ShouldEqual, "already_exists")
		})

		Convey("Malformed JSON returns 400", func() {
			w := do(mux, http.MethodPost, "/competitors", `{"id":`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("Missing ids are rejected by the service as 400", func() {
			deps.registerErr = service.ErrInvalidID
			w := do(mux, http.MethodPost, "/competitors", `{}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("Fetching returns the exported state", func() {
			deps.competitor = types.Competitor{
				ID: "alice", Rank: 2, Rating: 416,
				State: rating.NewEloCompetitor(rating.WithInitialRating(416)).ExportState(),
			}
			w := do(mux, http.MethodGet, "/competitors/alice", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"initial_rating":416`)
			So(w.Body.String(), ShouldContainSubstring, `"class_vars":{"k_factor":32,"base_rating":400}`)
		})

		Convey("Fetching an unknown competitor returns 404", func() {
			deps.lookupErr = repository.ErrNotFound
			w := do(mux, http.MethodGet, "/competitors/ghost", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestBoutsHandler(t *testing.T) {
	Convey("Given a bouts endpoint", t, func() {
		deps := &mockDependencies{}
		mux := newMux(deps, &mockStatsProvider{})

		Convey("A valid bout is accepted", func() {
			w := do(mux, http.MethodPost, "/bouts",
				`{"bout_id":"b1","competitor_a":"alice","competitor_b":"bob","outcome":"win","ts":"2025-01-02T15:04:05Z"}`)
			So(w.Code, ShouldEqual, http.StatusAccepted)
			So(deps.submitted, ShouldHaveLength, 1)
			So(deps.submitted[0].Outcome, ShouldEqual, model.OutcomeWin)
			So(deps.submitted[0].TS.Equal(time.Date(2025, 1, 2, 15, 4, 5, 0, time.UTC)), ShouldBeTrue)
		})

		Convey("A draw is accepted as a tie", func() {
			w := do(mux, http.MethodPost, "/bouts", `{"bout_id":"b1","competitor_a":"alice","competitor_b":"bob","outcome":"draw"}`)
			So(w.Code, ShouldEqual, http.StatusAccepted)
			So(deps.submitted[0].Outcome, ShouldEqual, model.OutcomeTie)
		})

		Convey("A duplicate is acknowledged with 200", func() {
			deps.duplicate = true
			w := do(mux, http.MethodPost, "/bouts", `{"bout_id":"b1","competitor_a":"alice","competitor_b":"bob","outcome":"win"}`)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"duplicate":true`)
		})

		Convey("Invalid bouts return 400", func() {
			for _, body := range []string{
				`{"bout_id":"b1","competitor_a":"alice","competitor_b":"alice","outcome":"win"}`,
				`{"bout_id":"b1","competitor_a":"alice","competitor_b":"bob","outcome":"loss"}`,
				`{"bout_id":"","competitor_a":"alice","competitor_b":"bob","outcome":"win"}`,
				`{"bout_id":"b1","competitor_a":"alice","competitor_b":"bob","outcome":"win","ts":"yesterday"}`,
				`not json`,
			} {
				w := do(mux, http.MethodPost, "/bouts", body)
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			}
			So(deps.submitted, ShouldBeEmpty)
		})

		Convey("Backpressure returns 429", func() {
			deps.submitErr = service.ErrBackpressure
			w := do(mux, http.MethodPost, "/bouts", `{"bout_id":"b1","competitor_a":"alice","competitor_b":"bob","outcome":"win"}`)
			So(w.Code, ShouldEqual, http.StatusTooManyRequests)
			So(errorCode(w), ShouldEqual, "backpressure")
		})

		Convey("A stopped service returns 503", func() {
			deps.submitErr = service.ErrNotStarted
			w := do(mux, http.MethodPost, "/bouts", `{"bout_id":"b1","competitor_a":"alice","competitor_b":"bob","outcome":"win"}`)
			So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
		})

		Convey("A synchronous bout returns the new ratings", func() {
			deps.applyResult = types.BoutResult{BoutID: "b1", RatingA: 416, RatingB: 384, DeltaA: 16, DeltaB: -16}
			w := do(mux, http.MethodPost, "/bouts?sync=true", `{"bout_id":"b1","competitor_a":"alice","competitor_b":"bob","outcome":"win"}`)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"status":"applied"`)
			So(w.Body.String(), ShouldContainSubstring, `"rating_a":416`)
		})

		Convey("A synchronous bout between incompatible competitors returns 422", func() {
			deps.applyErr = rating.ErrBaseRatingMismatch
			w := do(mux, http.MethodPost, "/bouts?sync=true", `{"bout_id":"b1","competitor_a":"alice","competitor_b":"bob","outcome":"tie"}`)
			So(w.Code, ShouldEqual, http.StatusUnprocessableEntity)
		})

		Convey("A synchronous duplicate is acknowledged", func() {
			deps.applyErr = service.ErrDuplicateBout
			w := do(mux, http.MethodPost, "/bouts?sync=1", `{"bout_id":"b1","competitor_a":"alice","competitor_b":"bob","outcome":"tie"}`)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"duplicate":true`)
		})
	})
}

func TestExpectedHandler(t *testing.T) {
	Convey("Given an expected-score endpoint", t, func() {
		deps := &mockDependencies{expectation: types.Expectation{A: "alice", B: "bob", ExpectedA: 0.75, ExpectedB: 0.25}}
		mux := newMux(deps, &mockStatsProvider{})

		Convey("Both expectations are returned", func() {
			w := do(mux, http.MethodGet, "/expected?a=alice&b=bob", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			var exp types.Expectation
			So(json.NewDecoder(w.Body).Decode(&exp), ShouldBeNil)
			So(exp.ExpectedA, ShouldEqual, 0.75)
		})

		Convey("Missing parameters return 400", func() {
			w := do(mux, http.MethodGet, "/expected?a=alice", "")
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("Unknown competitors return 404", func() {
			deps.expectedErr = errors.Join(repository.ErrNotFound)
			w := do(mux, http.MethodGet, "/expected?a=alice&b=ghost", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestLeaderboardHandler(t *testing.T) {
	Convey("Given a leaderboard endpoint", t, func() {
		deps := &mockDependencies{topN: []types.Entry{
			{Rank: 1, CompetitorID: "alice", Rating: 416},
			{Rank: 2, CompetitorID: "bob", Rating: 384},
		}}
		mux := newMux(deps, &mockStatsProvider{})

		Convey("The top entries are returned", func() {
			w := do(mux, http.MethodGet, "/leaderboard?limit=1", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			var entries []types.Entry
			So(json.NewDecoder(w.Body).Decode(&entries), ShouldBeNil)
			So(entries, ShouldHaveLength, 1)
			So(entries[0].CompetitorID, ShouldEqual, "alice")
		})

		Convey("The limit defaults to 10", func() {
			w := do(mux, http.MethodGet, "/leaderboard", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(deps.lastLimit, ShouldEqual, 10)
		})

		Convey("Invalid and excessive limits return 400", func() {
			So(do(mux, http.MethodGet, "/leaderboard?limit=0", "").Code, ShouldEqual, http.StatusBadRequest)
			So(do(mux, http.MethodGet, "/leaderboard?limit=abc", "").Code, ShouldEqual, http.StatusBadRequest)
			So(do(mux, http.MethodGet, "/leaderboard?limit=101", "").Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("Store failures return 500", func() {
			deps.topNErr = errors.New("boom")
			w := do(mux, http.MethodGet, "/leaderboard?limit=5", "")
			So(w.Code, ShouldEqual, http.StatusInternalServerError)
			So(errorCode(w), ShouldEqual, "internal_error")
		})
	})
}

func TestRankHandler(t *testing.T) {
	Convey("Given a rank endpoint", t, func() {
		deps := &mockDependencies{rank: types.Entry{Rank: 3, CompetitorID: "carol", Rating: 390}}
		mux := newMux(deps, &mockStatsProvider{})

		Convey("The rank is returned", func() {
			w := do(mux, http.MethodGet, "/rank/carol", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"rank":3`)
		})

		Convey("Unknown competitors return 404", func() {
			deps.rankErr = repository.ErrNotFound
			So(do(mux, http.MethodGet, "/rank/ghost", "").Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestError(t *testing.T) {
	Convey("Given API errors", t, func() {
		cause := errors.New("cause")

		Convey("WrapKind matches both kind and cause", func() {
			err := api.WrapKind("op", api.ErrBadRequest, cause)
			So(errors.Is(err, api.ErrBadRequest), ShouldBeTrue)
			So(errors.Is(err, cause), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "op: bad request: cause")
		})

		Convey("NewKind and Wrap carry a single error", func() {
			So(api.NewKind("op", api.ErrNotFound).Error(), ShouldEqual, "op: not found")
			So(errors.Is(api.Wrap("op", cause), cause), ShouldBeTrue)
			So(api.Wrap("op", nil), ShouldBeNil)
		})
	})
}

func TestServer_EndToEnd(t *testing.T) {
	Convey("Given the API over a running service", t, func() {
		ctx := context.Background()
		svc := service.New(service.WithWorkerCount(1), service.WithAutoRegister(false))
		So(svc.Start(ctx), ShouldBeNil)
		Reset(func() { _ = svc.Stop(ctx) })
		mux := newMux(svc, svc)

		So(do(mux, http.MethodPost, "/competitors", `{"id":"alice"}`).Code, ShouldEqual, http.StatusCreated)
		So(do(mux, http.MethodPost, "/competitors", `{"id":"bob"}`).Code, ShouldEqual, http.StatusCreated)

		Convey("A synchronous win updates the leaderboard", func() {
			w := do(mux, http.MethodPost, "/bouts?sync=true", `{"bout_id":"b1","competitor_a":"bob","competitor_b":"alice","outcome":"win"}`)
			So(w.Code, ShouldEqual, http.StatusOK)

			w = do(mux, http.MethodGet, "/leaderboard?limit=2", "")
			var entries []types.Entry
			So(json.NewDecoder(w.Body).Decode(&entries), ShouldBeNil)
			So(entries, ShouldHaveLength, 2)
			So(entries[0].CompetitorID, ShouldEqual, "bob")
			So(entries[0].Rating, ShouldEqual, 416)
			So(entries[1].Rank, ShouldEqual, 2)

			w = do(mux, http.MethodGet, "/expected?a=bob&b=alice", "")
			var exp types.Expectation
			So(json.NewDecoder(w.Body).Decode(&exp), ShouldBeNil)
			So(exp.ExpectedA, ShouldBeGreaterThan, 0.5)
			So(exp.ExpectedA+exp.ExpectedB, ShouldAlmostEqual, 1, 1e-12)
		})

		Convey("An async bout with an unknown competitor returns 404", func() {
			w := do(mux, http.MethodPost, "/bouts", `{"bout_id":"b2","competitor_a":"alice","competitor_b":"ghost","outcome":"win"}`)
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}
