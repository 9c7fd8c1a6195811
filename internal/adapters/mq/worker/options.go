package worker

import (
	"context"

	"github.com/okian/elo/internal/domain/model"
	"github.com/okian/elo/pkg/logger"
)

// FailureHook is called for every bout that could not be applied.
type FailureHook func(ctx context.Context, b model.Bout, err error)

// Option applies a configuration option to the InMemoryWorker.
type Option func(*InMemoryWorker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *InMemoryWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(logger logger.Logger) Option {
	return func(w *InMemoryWorker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithFailureHook registers a callback for bouts that failed to apply.
func WithFailureHook(hook FailureHook) Option {
	return func(w *InMemoryWorker) {
		w.onFailure = hook
	}
}
