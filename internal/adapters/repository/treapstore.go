package repository

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/okian/elo/internal/domain/rating"
	"github.com/okian/elo/pkg/metrics"
)

// Treap-based, in-memory Store implementation.
//
// Ordering: rating DESC, then competitor id ASC (deterministic).
// "less" means ranks earlier, so in-order traversal yields the
// leaderboard from best to worst. Subtree sizes make rank lookups
// O(log n) expected.

// record is the stored state of a single competitor. mu serializes
// transactions touching the competitor; comp is only written while both
// mu and the store lock are held.
type record struct {
	mu   sync.Mutex
	comp rating.EloCompetitor
}

// treap node
type node struct {
	id     string
	rating float64
	prio   uint64
	left   *node
	right  *node
	size   int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

// less returns true if (aRating, aID) should appear before (bRating, bID).
func less(aRating float64, aID string, bRating float64, bID string) bool {
	if aRating != bRating {
		return aRating > bRating
	}
	return aID < bID
}

func rotateRight(y *node) *node {
	x := y.left
	y.left = x.right
	x.right = y
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	x.right = y.left
	y.left = x
	fix(x)
	fix(y)
	return y
}

func insert(n *node, id string, r float64, prio uint64) *node {
	if n == nil {
		return &node{id: id, rating: r, prio: prio, size: 1}
	}
	if less(r, id, n.rating, n.id) {
		n.left = insert(n.left, id, r, prio)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, id, r, prio)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, id string, r float64) *node {
	if n == nil {
		return nil
	}
	switch {
	case r == n.rating && id == n.id:
		// Rotate the higher-priority child up until the node is a leaf.
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, id, r)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, id, r)
		}
	case less(r, id, n.rating, n.id):
		n.left = deleteNode(n.left, id, r)
	default:
		n.right = deleteNode(n.right, id, r)
	}
	fix(n)
	return n
}

// countAbove returns how many nodes carry a rating strictly greater than r.
func countAbove(n *node, r float64) int {
	count := 0
	for n != nil {
		if n.rating > r {
			count += 1 + nsize(n.left)
			n = n.right
		} else {
			n = n.left
		}
	}
	return count
}

// collectTopN appends up to limit nodes in rank order.
func collectTopN(n *node, limit int, out *[]*node) {
	if n == nil || len(*out) >= limit {
		return
	}
	collectTopN(n.left, limit, out)
	if len(*out) < limit {
		*out = append(*out, n)
	}
	if len(*out) < limit {
		collectTopN(n.right, limit, out)
	}
}

// TreapStore is an in-memory Store ordered by rating.
type TreapStore struct {
	mu   sync.RWMutex
	root *node
	byID map[string]*record
	rng  *rand.Rand
}

var _ Store = (*TreapStore)(nil)

// NewTreapStore constructs a treap store with configuration options.
func NewTreapStore(opts ...Option) *TreapStore {
	s := &TreapStore{
		byID: make(map[string]*record),
		rng:  rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create implements Store.Create.
func (s *TreapStore) Create(_ context.Context, id string, c *rating.EloCompetitor) error {
	s.mu.Lock()
	if _, ok := s.byID[id]; ok {
		s.mu.Unlock()
		return ErrExists
	}
	s.byID[id] = &record{comp: *c}
	s.root = insert(s.root, id, c.Rating(), s.rng.Uint64())
	count := len(s.byID)
	s.mu.Unlock()

	metrics.UpdateCompetitorsTotal(count)
	return nil
}

// Get implements Store.Get.
func (s *TreapStore) Get(_ context.Context, id string) (*rating.EloCompetitor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := rec.comp
	return &c, nil
}

// Apply implements Store.Apply. Competitor locks are taken in id order so
// concurrent transactions over overlapping pairs cannot deadlock.
func (s *TreapStore) Apply(_ context.Context, aID, bID string, fn ApplyFunc) error {
	if aID == bID {
		return ErrSameCompetitor
	}

	start := time.Now()
	defer func() {
		metrics.RecordRatingUpdateLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	s.mu.RLock()
	recA, okA := s.byID[aID]
	recB, okB := s.byID[bID]
	s.mu.RUnlock()
	if !okA || !okB {
		metrics.RecordErrorByComponent("repository", "not_found")
		return ErrNotFound
	}

	first, second := recA, recB
	if bID < aID {
		first, second = recB, recA
	}
	first.mu.Lock()
	defer first.mu.Unlock()
	second.mu.Lock()
	defer second.mu.Unlock()

	a, b := recA.comp, recB.comp
	if err := fn(&a, &b); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.byID[aID] != recA || s.byID[bID] != recB {
		return ErrConflict
	}
	s.root = deleteNode(s.root, aID, recA.comp.Rating())
	s.root = deleteNode(s.root, bID, recB.comp.Rating())
	recA.comp, recB.comp = a, b
	s.root = insert(s.root, aID, a.Rating(), s.rng.Uint64())
	s.root = insert(s.root, bID, b.Rating(), s.rng.Uint64())
	return nil
}

// Rank implements Store.Rank with competition ranking: equal ratings share
// a rank and the following rank is skipped ("1, 1, 3").
func (s *TreapStore) Rank(_ context.Context, id string) (Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.byID[id]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return Entry{}, ErrNotFound
	}
	r := rec.comp.Rating()
	return Entry{
		Rank:         countAbove(s.root, r) + 1,
		CompetitorID: id,
		Rating:       r,
		State:        rec.comp.ExportState(),
	}, nil
}

// TopN implements Store.TopN.
func (s *TreapStore) TopN(_ context.Context, n int) ([]Entry, error) {
	if n < 1 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, ErrInvalidLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	nodes := make([]*node, 0, min(n, len(s.byID)))
	collectTopN(s.root, n, &nodes)

	out := make([]Entry, len(nodes))
	for i, nd := range nodes {
		rank := i + 1
		if i > 0 && nd.rating == nodes[i-1].rating {
			rank = out[i-1].Rank
		}
		out[i] = Entry{
			Rank:         rank,
			CompetitorID: nd.id,
			Rating:       nd.rating,
			State:        s.byID[nd.id].comp.ExportState(),
		}
	}
	return out, nil
}

// Count implements Store.Count.
func (s *TreapStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// Snapshot implements Store.Snapshot.
func (s *TreapStore) Snapshot(_ context.Context) map[string]rating.State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]rating.State, len(s.byID))
	for id, rec := range s.byID {
		out[id] = rec.comp.ExportState()
	}
	return out
}

// Restore implements Store.Restore. Every state is validated before the
// store is touched.
func (s *TreapStore) Restore(_ context.Context, states map[string]rating.State) error {
	byID := make(map[string]*record, len(states))
	for id, st := range states {
		c, err := rating.FromState(st)
		if err != nil {
			return fmt.Errorf("restore %s: %w", id, err)
		}
		byID[id] = &record{comp: *c}
	}

	s.mu.Lock()
	s.byID = byID
	s.root = nil
	for id, rec := range byID {
		s.root = insert(s.root, id, rec.comp.Rating(), s.rng.Uint64())
	}
	s.mu.Unlock()

	metrics.UpdateCompetitorsTotal(len(byID))
	return nil
}
