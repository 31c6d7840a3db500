package wave

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Executor is the small "submit, await-all" seam spec.md §9's redesign
// notes call for: the optimization pipeline is pure per-method, so once a
// wave's methods are known, parallelism is trivial and swappable behind
// this interface.
type Executor interface {
	// Run executes every task, returning the first error that should abort
	// the wave. Implementations decide how much concurrency to allow.
	Run(ctx context.Context, tasks []func(context.Context) error) error
}

// ErrgroupExecutor runs a wave's tasks concurrently via errgroup.WithContext
// (grounded on bufbuild/protocompile, moby/moby, tektoncd/chains, and
// XTLS/Xray-core's shared use of errgroup for bounded parallel fan-out with
// first-error cancellation). Only a fatal diagnostic should cancel sibling
// workers (spec.md §4.5); a per-method TypeCheckFailure must not, so task
// functions are expected to handle recoverable failures themselves
// (degrading the method, as optimize.Run already does) and only return an
// error for the errors.InvariantViolation/ConfigurationError class that
// must abort the whole wave.
type ErrgroupExecutor struct {
	// Limit bounds concurrent tasks; 0 means unbounded (errgroup's default).
	Limit int
}

func (e ErrgroupExecutor) Run(ctx context.Context, tasks []func(context.Context) error) error {
	g, gctx := errgroup.WithContext(ctx)
	if e.Limit > 0 {
		g.SetLimit(e.Limit)
	}
	for _, task := range tasks {
		task := task
		g.Go(func() error { return task(gctx) })
	}
	return g.Wait()
}

// SyncExecutor runs tasks one at a time in slice order. Used by tests that
// assert on wave-processing side effects deterministically, without relying
// on goroutine scheduling to exercise the scheduler's own wave-boundary
// logic.
type SyncExecutor struct{}

func (SyncExecutor) Run(ctx context.Context, tasks []func(context.Context) error) error {
	for _, task := range tasks {
		if err := task(ctx); err != nil {
			return err
		}
	}
	return nil
}
