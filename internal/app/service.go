// Package service wires the rating store, bout queue and worker pool into
// the operations the HTTP API exposes.
package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"strings"
	"sync"
	"time"

	boutqueue "github.com/okian/elo/internal/adapters/mq/queue"
	workerpool "github.com/okian/elo/internal/adapters/mq/worker"
	"github.com/okian/elo/internal/adapters/repository"
	"github.com/okian/elo/internal/domain/dedupe"
	"github.com/okian/elo/internal/domain/model"
	"github.com/okian/elo/internal/domain/rating"
	"github.com/okian/elo/internal/domain/types"
	"github.com/okian/elo/pkg/logger"
	"github.com/okian/elo/pkg/metrics"
)

const defaultSnapshotInterval = 30 * time.Second

// Service implements the API dependencies for the rating system.
type Service struct {
	mu sync.RWMutex

	// Core components
	store      repository.Store
	deduper    dedupe.Deduper
	boutQueue  boutqueue.Queue
	workerPool *workerpool.Pool
	snapshots  Snapshotter

	// Configuration
	workerCount      int
	queueSize        int
	dedupeSize       int
	ratingOpts       []rating.Option
	autoRegister     bool
	snapshotInterval time.Duration

	// State
	started bool
	stopCh  chan struct{}
	wg      sync.WaitGroup

	logger logger.Logger
}

// New constructs a new Service. Competitors may be registered immediately
// and survive Start; bouts and snapshots need a started service.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:      runtime.NumCPU() * 2,
		queueSize:        100_000,
		dedupeSize:       50_000,
		autoRegister:     true,
		snapshotInterval: defaultSnapshotInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.store = repository.NewTreapStore()
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	return s
}

// Start restores persisted state, then starts the queue and workers.
// Competitors registered before Start are kept; a persisted competitor with
// the same id replaces the pre-start registration.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.logger.Info(ctx, "starting rating service...")

	if s.snapshots != nil {
		states, err := s.snapshots.Load(ctx)
		if err != nil {
			return fmt.Errorf("load snapshot: %w", err)
		}
		merged, replaced := mergeStates(s.store.Snapshot(ctx), states)
		if err := s.store.Restore(ctx, merged); err != nil {
			return fmt.Errorf("restore snapshot: %w", err)
		}
		if replaced > 0 {
			s.logger.Warn(ctx, "persisted ratings replaced pre-start registrations", logger.Int("competitors", replaced))
		}
		s.logger.Info(ctx, "restored ratings",
			logger.Int("competitors", len(states)),
			logger.Int("total", len(merged)),
		)
	}

	s.boutQueue = boutqueue.NewInMemoryQueue(boutqueue.WithCapacity(s.queueSize))
	s.workerPool = workerpool.NewPool(s.workerCount, s.boutQueue, s.store,
		workerpool.WithFailureHook(s.onBoutFailure),
	)
	// Workers outlive the start request; Stop drains them.
	s.workerPool.Start(context.WithoutCancel(ctx))

	s.stopCh = make(chan struct{})
	if s.snapshots != nil {
		s.wg.Add(1)
		go s.snapshotLoop(context.WithoutCancel(ctx))
	}

	s.started = true
	s.logger.Info(ctx, "rating service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Bool("autoRegister", s.autoRegister),
		logger.Bool("snapshots", s.snapshots != nil),
	)
	return nil
}

// Stop drains queued bouts, stops background work and writes a final
// snapshot when persistence is enabled.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping rating service...")

	var errs []error
	if err := s.workerPool.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}

	close(s.stopCh)
	s.wg.Wait()

	if s.snapshots != nil {
		if err := s.saveSnapshot(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	s.started = false
	s.logger.Info(ctx, "rating service stopped")
	return errors.Join(errs...)
}

// Register creates a competitor with the service defaults. A non-nil
// initialRating overrides the default starting rating.
func (s *Service) Register(ctx context.Context, id string, initialRating *float64) (types.Competitor, error) {
	if strings.TrimSpace(id) == "" {
		return types.Competitor{}, ErrInvalidID
	}

	opts := s.ratingOpts
	if initialRating != nil {
		if math.IsNaN(*initialRating) || math.IsInf(*initialRating, 0) {
			return types.Competitor{}, ErrInvalidRating
		}
		opts = append(append([]rating.Option(nil), s.ratingOpts...), rating.WithInitialRating(*initialRating))
	}

	// Start swaps the store contents under the write lock.
	s.mu.RLock()
	err := s.store.Create(ctx, id, rating.NewEloCompetitor(opts...))
	s.mu.RUnlock()
	if err != nil {
		return types.Competitor{}, err
	}
	s.logger.Debug(ctx, "competitor registered", logger.String("id", id))
	return s.Competitor(ctx, id)
}

// Competitor returns the current rank and exported state of a competitor.
func (s *Service) Competitor(ctx context.Context, id string) (types.Competitor, error) {
	entry, err := s.store.Rank(ctx, id)
	if err != nil {
		return types.Competitor{}, err
	}
	return types.Competitor{
		ID:     entry.CompetitorID,
		Rank:   entry.Rank,
		Rating: entry.Rating,
		State:  entry.State,
	}, nil
}

// SubmitBout validates, deduplicates and enqueues a bout for asynchronous
// rating. It reports duplicate=true when the bout id was already accepted.
//
// A full queue is reported before unknown competitors are auto-registered.
// If the queue fills between that check and the enqueue, the bout is still
// refused with ErrBackpressure but the competitors it registered remain.
func (s *Service) SubmitBout(ctx context.Context, b model.Bout) (duplicate bool, err error) { //nolint:gocritic // hugeParam: Bout is passed by value across the queue
	if err := b.Validate(); err != nil {
		metrics.RecordBoutRejected("invalid")
		return false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return false, ErrNotStarted
	}

	if s.SeenAndRecord(ctx, b.BoutID) {
		return true, nil
	}
	if s.boutQueue.Len(ctx) >= s.boutQueue.Capacity() {
		s.Unrecord(ctx, b.BoutID)
		metrics.RecordBoutRejected("backpressure")
		return false, ErrBackpressure
	}
	if err := s.ensureCompetitors(ctx, b); err != nil {
		s.Unrecord(ctx, b.BoutID)
		metrics.RecordBoutRejected("not_found")
		return false, err
	}
	if b.TS.IsZero() {
		b.TS = time.Now().UTC()
	}
	if !s.boutQueue.Enqueue(ctx, b) {
		s.Unrecord(ctx, b.BoutID)
		metrics.RecordBoutRejected("backpressure")
		return false, ErrBackpressure
	}

	metrics.RecordBoutAccepted()
	return false, nil
}

// ApplyBout rates a bout synchronously, bypassing the queue. Bout ids share
// the deduplication window with SubmitBout. Competitors auto-registered for
// a bout that then fails to rate are kept.
func (s *Service) ApplyBout(ctx context.Context, b model.Bout) (types.BoutResult, error) { //nolint:gocritic // hugeParam: Bout is passed by value across the queue
	if err := b.Validate(); err != nil {
		metrics.RecordBoutRejected("invalid")
		return types.BoutResult{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return types.BoutResult{}, ErrNotStarted
	}
	if s.SeenAndRecord(ctx, b.BoutID) {
		return types.BoutResult{}, ErrDuplicateBout
	}
	if err := s.ensureCompetitors(ctx, b); err != nil {
		s.Unrecord(ctx, b.BoutID)
		metrics.RecordBoutRejected("not_found")
		return types.BoutResult{}, err
	}

	res, err := workerpool.Settle(ctx, s.store, b)
	if err != nil {
		s.Unrecord(ctx, b.BoutID)
		return types.BoutResult{}, err
	}
	metrics.RecordBoutAccepted()
	return res, nil
}

// Expected returns the expected score of each side of a pairing.
func (s *Service) Expected(ctx context.Context, aID, bID string) (types.Expectation, error) {
	a, err := s.store.Get(ctx, aID)
	if err != nil {
		return types.Expectation{}, fmt.Errorf("%s: %w", aID, err)
	}
	b, err := s.store.Get(ctx, bID)
	if err != nil {
		return types.Expectation{}, fmt.Errorf("%s: %w", bID, err)
	}

	ea, err := rating.ExpectedScore(a, b)
	if err != nil {
		return types.Expectation{}, err
	}
	eb, err := rating.ExpectedScore(b, a)
	if err != nil {
		return types.Expectation{}, err
	}
	return types.Expectation{A: aID, B: bID, ExpectedA: ea, ExpectedB: eb}, nil
}

// TopN returns the top N leaderboard entries.
func (s *Service) TopN(ctx context.Context, n int) ([]types.Entry, error) {
	entries, err := s.store.TopN(ctx, n)
	if err != nil {
		return nil, err
	}

	out := make([]types.Entry, len(entries))
	for i, e := range entries {
		out[i] = types.Entry{Rank: e.Rank, CompetitorID: e.CompetitorID, Rating: e.Rating}
	}
	return out, nil
}

// Rank returns the rank and rating for a given competitor id.
func (s *Service) Rank(ctx context.Context, id string) (types.Entry, error) {
	e, err := s.store.Rank(ctx, id)
	if err != nil {
		return types.Entry{}, err
	}
	return types.Entry{Rank: e.Rank, CompetitorID: e.CompetitorID, Rating: e.Rating}, nil
}

// Snapshot writes the current ratings to the configured Snapshotter. Before
// Start the persisted ratings have not been loaded, so saving would
// overwrite them; ErrNotStarted is returned instead.
func (s *Service) Snapshot(ctx context.Context) error {
	if s.snapshots == nil {
		return ErrNoSnapshotting
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return ErrNotStarted
	}
	return s.saveSnapshot(ctx)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]any{
		"started":          s.started,
		"workerCount":      s.workerCount,
		"queueSize":        s.queueSize,
		"dedupeSize":       s.dedupeSize,
		"dedupeEntries":    s.Size(),
		"autoRegister":     s.autoRegister,
		"snapshotsEnabled": s.snapshots != nil,
		"totalCompetitors": s.store.Count(ctx),
	}
	if s.started {
		stats["queueLength"] = s.boutQueue.Len(ctx)
	}
	return stats
}

// SeenAndRecord atomically checks if a bout id was seen and records it if not.
func (s *Service) SeenAndRecord(ctx context.Context, id string) bool {
	seen := s.deduper.SeenAndRecord(ctx, id)
	if seen {
		metrics.RecordBoutDuplicate()
	}
	return seen
}

// Unrecord removes a bout id from the seen list, allowing it to be retried.
func (s *Service) Unrecord(ctx context.Context, id string) {
	s.deduper.Unrecord(ctx, id)
}

// Size returns the current number of entries in the deduper.
func (s *Service) Size() int64 {
	return s.deduper.Size()
}

// ensureCompetitors registers unknown competitors when auto-registration is
// on and otherwise reports the first missing one.
func (s *Service) ensureCompetitors(ctx context.Context, b model.Bout) error { //nolint:gocritic // hugeParam: Bout is passed by value across the queue
	for _, id := range [...]string{b.CompetitorA, b.CompetitorB} {
		if s.autoRegister {
			err := s.store.Create(ctx, id, rating.NewEloCompetitor(s.ratingOpts...))
			if err != nil && !errors.Is(err, repository.ErrExists) {
				return err
			}
			continue
		}
		if _, err := s.store.Get(ctx, id); err != nil {
			return fmt.Errorf("%s: %w", id, err)
		}
	}
	return nil
}

// onBoutFailure releases the bout id so the client can resubmit.
func (s *Service) onBoutFailure(ctx context.Context, b model.Bout, _ error) { //nolint:gocritic // hugeParam: Bout is passed by value across the queue
	s.Unrecord(ctx, b.BoutID)
}

func (s *Service) snapshotLoop(ctx context.Context) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.snapshotInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			if err := s.saveSnapshot(ctx); err != nil {
				s.logger.Error(ctx, "periodic snapshot failed", logger.Error(err))
			}
		}
	}
}

func (s *Service) saveSnapshot(ctx context.Context) error {
	states := s.store.Snapshot(ctx)
	if err := s.snapshots.Save(ctx, states); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	s.logger.Debug(ctx, "snapshot saved", logger.Int("competitors", len(states)))
	return nil
}

// mergeStates overlays persisted states on the live ones and reports how
// many live competitors were replaced.
func mergeStates(live, persisted map[string]rating.State) (merged map[string]rating.State, replaced int) {
	merged = make(map[string]rating.State, len(live)+len(persisted))
	for id, st := range live {
		merged[id] = st
	}
	for id, st := range persisted {
		if _, ok := merged[id]; ok {
			replaced++
		}
		merged[id] = st
	}
	return merged, replaced
}
