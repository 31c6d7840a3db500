package wave

import (
	"sync"

	"github.com/corvid-dex/core/internal/classdef"
)

// FeedbackBuffer is the delayed-feedback structure spec.md §5 names: a
// concurrent map keyed by method/field identity holding pending
// optimization-info updates. Nothing a worker records here is visible to
// any other worker, or to the method/field's own OptimizationInfo, until
// Drain runs single-threaded between waves (spec.md §4.5's
// updateVisibleOptimizationInfo). This is the only permitted way to record
// optimization info about a method or field while its wave is in flight.
type FeedbackBuffer struct {
	mu            sync.Mutex
	methodUpdates map[*classdef.EncodedMethod]func(*classdef.MethodOptimizationInfo)
	fieldUpdates  map[*classdef.EncodedField]func(*classdef.FieldOptimizationInfo)
}

func NewFeedbackBuffer() *FeedbackBuffer {
	return &FeedbackBuffer{
		methodUpdates: map[*classdef.EncodedMethod]func(*classdef.MethodOptimizationInfo){},
		fieldUpdates:  map[*classdef.EncodedField]func(*classdef.FieldOptimizationInfo){},
	}
}

// RecordMethod queues apply to run against m's OptimizationInfo at the next
// Drain. A second call for the same method within a wave composes after the
// first rather than replacing it, so two passes recording distinct facts
// about the same method don't clobber each other.
func (b *FeedbackBuffer) RecordMethod(m *classdef.EncodedMethod, apply func(*classdef.MethodOptimizationInfo)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if prev := b.methodUpdates[m]; prev != nil {
		b.methodUpdates[m] = func(info *classdef.MethodOptimizationInfo) { prev(info); apply(info) }
		return
	}
	b.methodUpdates[m] = apply
}

// RecordField is RecordMethod's field-info counterpart.
func (b *FeedbackBuffer) RecordField(f *classdef.EncodedField, apply func(*classdef.FieldOptimizationInfo)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if prev := b.fieldUpdates[f]; prev != nil {
		b.fieldUpdates[f] = func(info *classdef.FieldOptimizationInfo) { prev(info); apply(info) }
		return
	}
	b.fieldUpdates[f] = apply
}

// Drain applies every queued update, marks every updated method processed,
// and clears the buffer for the next wave. Must only run once a wave's
// workers have all returned.
func (b *FeedbackBuffer) Drain() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for m, apply := range b.methodUpdates {
		apply(&m.OptimizationInfo)
		m.MarkProcessed()
	}
	for f, apply := range b.fieldUpdates {
		apply(&f.OptimizationInfo)
	}
	b.methodUpdates = map[*classdef.EncodedMethod]func(*classdef.MethodOptimizationInfo){}
	b.fieldUpdates = map[*classdef.EncodedField]func(*classdef.FieldOptimizationInfo){}
}
