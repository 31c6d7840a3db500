// Package liveness models the externally supplied fact bundle spec.md §2
// calls "Liveness Facts": an immutable bundle of reachable types, called
// methods, pinned entities, field read/write sets, and allocation info.
// It is produced by the (out-of-scope, spec.md §1) shrinker/tree-pruner and
// only ever queried by the core.
package liveness

import (
	"maps"

	"github.com/corvid-dex/core/internal/item"
)

// Info is the immutable fact bundle. Zero value means "nothing is known
// reachable" and should only be used in tests; a real compilation always
// receives an Info built by the external liveness computation.
type Info struct {
	reachableTypes map[*item.DexType]bool
	calledMethods  map[*item.DexMethod]bool
	pinnedMethods  map[*item.DexMethod]bool
	pinnedTypes    map[*item.DexType]bool
	fieldReads     map[*item.DexField]bool
	fieldWrites    map[*item.DexField]bool
	instantiated   map[*item.DexType]bool
}

// Builder accumulates facts before freezing them into an Info. Kept
// separate from Info itself so Info can stay a read-only value once built,
// matching spec.md §3's "Liveness Facts: immutable fact bundle".
type Builder struct {
	info Info
}

func NewBuilder() *Builder {
	return &Builder{info: Info{
		reachableTypes: map[*item.DexType]bool{},
		calledMethods:  map[*item.DexMethod]bool{},
		pinnedMethods:  map[*item.DexMethod]bool{},
		pinnedTypes:    map[*item.DexType]bool{},
		fieldReads:     map[*item.DexField]bool{},
		fieldWrites:    map[*item.DexField]bool{},
		instantiated:   map[*item.DexType]bool{},
	}}
}

func (b *Builder) MarkReachable(t *item.DexType) *Builder    { b.info.reachableTypes[t] = true; return b }
func (b *Builder) MarkCalled(m *item.DexMethod) *Builder     { b.info.calledMethods[m] = true; return b }
func (b *Builder) MarkPinnedMethod(m *item.DexMethod) *Builder {
	b.info.pinnedMethods[m] = true
	return b
}
func (b *Builder) MarkPinnedType(t *item.DexType) *Builder { b.info.pinnedTypes[t] = true; return b }
func (b *Builder) MarkFieldRead(f *item.DexField) *Builder { b.info.fieldReads[f] = true; return b }
func (b *Builder) MarkFieldWritten(f *item.DexField) *Builder {
	b.info.fieldWrites[f] = true
	return b
}
func (b *Builder) MarkInstantiated(t *item.DexType) *Builder {
	b.info.instantiated[t] = true
	return b
}

// Build freezes the accumulated facts. The returned Info shares no mutable
// state with the Builder going forward.
func (b *Builder) Build() Info {
	return Info{maps.Clone(b.info.reachableTypes), maps.Clone(b.info.calledMethods), maps.Clone(b.info.pinnedMethods),
		maps.Clone(b.info.pinnedTypes), maps.Clone(b.info.fieldReads), maps.Clone(b.info.fieldWrites), maps.Clone(b.info.instantiated)}
}

func (i Info) IsReachable(t *item.DexType) bool       { return i.reachableTypes[t] }
func (i Info) IsCalled(m *item.DexMethod) bool        { return i.calledMethods[m] }
func (i Info) IsPinnedMethod(m *item.DexMethod) bool  { return i.pinnedMethods[m] }
func (i Info) IsPinnedType(t *item.DexType) bool      { return i.pinnedTypes[t] }
func (i Info) IsFieldRead(f *item.DexField) bool      { return i.fieldReads[f] }
func (i Info) IsFieldWritten(f *item.DexField) bool   { return i.fieldWrites[f] }
func (i Info) IsInstantiated(t *item.DexType) bool    { return i.instantiated[t] }
