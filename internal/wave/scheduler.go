package wave

import (
	"context"
	"fmt"
	"sync"

	"github.com/corvid-dex/core/internal/classdef"
)

// Scheduler drives a Partition's waves in order: each wave's methods are
// handed to the Executor in parallel via a caller-supplied processor, the
// FeedbackBuffer is drained once every worker returns, and only then do
// that wave's registered wave-done callbacks run single-threaded on the
// driver (spec.md §4.5 "post-wave actions").
type Scheduler struct {
	Executor Executor
	Feedback *FeedbackBuffer

	mu            sync.Mutex
	waveActive    bool
	doneCallbacks []func()
}

func NewScheduler(executor Executor) *Scheduler {
	return &Scheduler{Executor: executor, Feedback: NewFeedbackBuffer()}
}

// RegisterWaveDoneCallback queues fn to run once the active wave's workers
// have all finished and its feedback has drained. Calling this outside an
// active wave is a programming error (spec.md §4.5): panics immediately,
// matching the pipeline's own habit of asserting rather than threading an
// error return through every caller for a contract violation that can only
// come from a bug in this package's own driver code.
func (s *Scheduler) RegisterWaveDoneCallback(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.waveActive {
		panic("wave: RegisterWaveDoneCallback called outside an active wave")
	}
	s.doneCallbacks = append(s.doneCallbacks, fn)
}

// Process runs every wave in order: wave k+1 never starts until wave k's
// feedback has drained and its wave-done callbacks have run (spec.md §4.5
// "wave k+1 begins only after every buffer from wave k has been drained").
// process is expected to record any optimization-info facts it derives
// through s.Feedback rather than writing to method/field OptimizationInfo
// directly (spec.md §5).
func (s *Scheduler) Process(ctx context.Context, waves [][]*classdef.EncodedMethod, process func(context.Context, *classdef.EncodedMethod) error) error {
	for i, methods := range waves {
		s.mu.Lock()
		s.waveActive = true
		s.doneCallbacks = nil
		s.mu.Unlock()

		tasks := make([]func(context.Context) error, len(methods))
		for idx, m := range methods {
			m := m
			tasks[idx] = func(taskCtx context.Context) error { return process(taskCtx, m) }
		}

		runErr := s.Executor.Run(ctx, tasks)

		s.Feedback.Drain()

		s.mu.Lock()
		callbacks := s.doneCallbacks
		s.waveActive = false
		s.mu.Unlock()
		for _, cb := range callbacks {
			cb()
		}

		if runErr != nil {
			return fmt.Errorf("wave %d: %w", i, runErr)
		}
	}
	return nil
}
