package wave_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corvid-dex/core/internal/classdef"
	"github.com/corvid-dex/core/internal/wave"
)

func method(name string) *classdef.EncodedMethod {
	return &classdef.EncodedMethod{}
}

func waveIndexOf(waves [][]*classdef.EncodedMethod, m *classdef.EncodedMethod) int {
	for i, w := range waves {
		for _, wm := range w {
			if wm == m {
				return i
			}
		}
	}
	return -1
}

func TestPartitionOrdersLeavesBeforeCallers(t *testing.T) {
	leaf := method("B.g")
	caller := method("A.f")

	g := wave.NewCallGraph()
	g.AddEdge(caller, leaf)

	waves, broken := wave.Partition([]*classdef.EncodedMethod{caller, leaf}, g)

	assert.Empty(t, broken)
	require.Len(t, waves, 2)
	assert.Less(t, waveIndexOf(waves, leaf), waveIndexOf(waves, caller))
}

func TestPartitionBreaksCyclesIntoOneWave(t *testing.T) {
	a := method("A.f")
	b := method("B.g")

	g := wave.NewCallGraph()
	g.AddEdge(a, b)
	g.AddEdge(b, a)

	waves, broken := wave.Partition([]*classdef.EncodedMethod{a, b}, g)

	require.Len(t, broken, 2) // both directions of the mutual cycle recorded
	require.Len(t, waves, 1)
	assert.ElementsMatch(t, []*classdef.EncodedMethod{a, b}, waves[0])
}

func TestPartitionHandlesSelfCall(t *testing.T) {
	recursive := method("A.f")
	g := wave.NewCallGraph()
	g.AddEdge(recursive, recursive)

	waves, broken := wave.Partition([]*classdef.EncodedMethod{recursive}, g)

	require.Len(t, broken, 1)
	require.Len(t, waves, 1)
	assert.Equal(t, []*classdef.EncodedMethod{recursive}, waves[0])
}

func TestSchedulerDrainsFeedbackBetweenWaves(t *testing.T) {
	leaf := method("B.g")
	caller := method("A.f")
	g := wave.NewCallGraph()
	g.AddEdge(caller, leaf)
	waves, _ := wave.Partition([]*classdef.EncodedMethod{caller, leaf}, g)

	sched := wave.NewScheduler(wave.SyncExecutor{})
	var sawLeafPinnedWhenProcessingCaller bool

	err := sched.Process(context.Background(), waves, func(_ context.Context, m *classdef.EncodedMethod) error {
		if m == leaf {
			sched.Feedback.RecordMethod(leaf, func(info *classdef.MethodOptimizationInfo) { info.Pinned = true })
		}
		if m == caller {
			sawLeafPinnedWhenProcessingCaller = leaf.OptimizationInfo.Pinned
		}
		return nil
	})

	require.NoError(t, err)
	assert.True(t, sawLeafPinnedWhenProcessingCaller, "leaf's feedback must be drained before the next wave starts")
	assert.True(t, leaf.OptimizationInfo.Pinned)
	assert.True(t, leaf.IsProcessed())
}

func TestRegisterWaveDoneCallbackOutsideWavePanics(t *testing.T) {
	sched := wave.NewScheduler(wave.SyncExecutor{})
	assert.Panics(t, func() { sched.RegisterWaveDoneCallback(func() {}) })
}

func TestWaveDoneCallbacksRunAfterFeedbackDrains(t *testing.T) {
	leaf := method("B.g")
	waves := [][]*classdef.EncodedMethod{{leaf}}

	sched := wave.NewScheduler(wave.SyncExecutor{})
	var sawPinnedInCallback bool

	err := sched.Process(context.Background(), waves, func(_ context.Context, m *classdef.EncodedMethod) error {
		sched.Feedback.RecordMethod(m, func(info *classdef.MethodOptimizationInfo) { info.Pinned = true })
		sched.RegisterWaveDoneCallback(func() { sawPinnedInCallback = leaf.OptimizationInfo.Pinned })
		return nil
	})

	require.NoError(t, err)
	assert.True(t, sawPinnedInCallback)
}
