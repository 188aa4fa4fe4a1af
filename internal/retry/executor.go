package retry

import (
	"context"
	"time"

	"github.com/vvka-141/pgreap/pkg/pgreap"
)

// RetryCallback is invoked before each retry with the zero-indexed attempt,
// the error that triggered it and the delay about to be waited.
type RetryCallback func(attempt int, err error, delay time.Duration)

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithOnRetry installs a callback invoked before every retry.
func WithOnRetry(callback RetryCallback) ExecutorOption {
	return func(e *Executor) {
		e.onRetry = callback
	}
}

// Executor runs an operation until it succeeds, fails fatally, or the
// backoff strategy runs out of attempts. It holds no mutable state and is
// safe for concurrent use.
type Executor struct {
	classifier pgreap.ErrorClassifier
	strategy   pgreap.BackoffStrategy
	onRetry    RetryCallback
}

// NewExecutor creates a new retry executor.
// Panics if classifier or strategy is nil.
func NewExecutor(classifier pgreap.ErrorClassifier, strategy pgreap.BackoffStrategy, opts ...ExecutorOption) *Executor {
	if classifier == nil {
		panic("retry: classifier cannot be nil")
	}
	if strategy == nil {
		panic("retry: strategy cannot be nil")
	}

	e := &Executor{
		classifier: classifier,
		strategy:   strategy,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs operation with retry logic and returns the last error seen.
// A negative MaxAttempts retries until ctx is done.
func (e *Executor) Execute(ctx context.Context, operation func(ctx context.Context) error) error {
	err := operation(ctx)
	maxAttempts := e.strategy.MaxAttempts()

	for attempt := 0; err != nil && e.classifier.IsTransient(err); attempt++ {
		if maxAttempts >= 0 && attempt >= maxAttempts {
			break
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		delay := e.strategy.NextDelay(attempt)
		if e.onRetry != nil {
			e.onRetry(attempt, err, delay)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		err = operation(ctx)
	}

	return err
}
