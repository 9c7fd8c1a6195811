package service

import (
	"context"
	"time"

	"github.com/okian/elo/internal/domain/rating"
	"github.com/okian/elo/pkg/logger"
)

// Snapshotter persists and restores exported competitor states.
type Snapshotter interface {
	Save(ctx context.Context, states map[string]rating.State) error
	Load(ctx context.Context) (map[string]rating.State, error)
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the bout queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the deduplication cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRatingOptions sets the defaults applied to every new competitor.
func WithRatingOptions(opts ...rating.Option) Option {
	return func(s *Service) {
		s.ratingOpts = append([]rating.Option(nil), opts...)
	}
}

// WithAutoRegister creates unknown competitors named by submitted bouts.
func WithAutoRegister(enabled bool) Option {
	return func(s *Service) {
		s.autoRegister = enabled
	}
}

// WithSnapshots enables persistence. State is restored on Start, saved
// every interval and once more on Stop.
func WithSnapshots(snap Snapshotter, interval time.Duration) Option {
	return func(s *Service) {
		s.snapshots = snap
		if interval > 0 {
			s.snapshotInterval = interval
		}
	}
}
