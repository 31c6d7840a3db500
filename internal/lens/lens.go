// Package lens implements the Graph Lens named in spec.md §4.6: a monotone
// renaming map from old item references to new ones, composed across
// optimization waves so a later wave can still resolve a reference that was
// valid before an earlier wave rewrote its target. Grounded on the teacher's
// parent-linked scope chain (`Compiler.scopes []map[string]int` in `ir.go`)
// generalized from name->slot lookup to oldRef->newRef lookup.
package lens

import "github.com/corvid-dex/core/internal/item"

// Lens maps old method/field/type references to their current replacement.
// A Lens is immutable once built; NewBuilder layers a new Lens on top of an
// existing one rather than mutating it, so a pass holding a reference to an older lens
// keeps working correctly (spec.md §4.6 "previously computed lenses remain
// valid views").
type Lens struct {
	parent  *Lens
	methods map[*item.DexMethod]*item.DexMethod
	fields  map[*item.DexField]*item.DexField
	types   map[*item.DexType]*item.DexType
}

// Identity is the sentinel empty lens: every lookup is a no-op pass-through.
func Identity() *Lens { return &Lens{} }

// NewBuilder starts a fresh lens layered on top of base (nil means layer
// on Identity).
func NewBuilder(base *Lens) *Builder {
	if base == nil {
		base = Identity()
	}
	return &Builder{
		parent:  base,
		methods: map[*item.DexMethod]*item.DexMethod{},
		fields:  map[*item.DexField]*item.DexField{},
		types:   map[*item.DexType]*item.DexType{},
	}
}

// Builder accumulates renames for one wave before being frozen into a Lens.
type Builder struct {
	parent  *Lens
	methods map[*item.DexMethod]*item.DexMethod
	fields  map[*item.DexField]*item.DexField
	types   map[*item.DexType]*item.DexType
}

func (b *Builder) RenameMethod(from, to *item.DexMethod) { b.methods[from] = to }
func (b *Builder) RenameField(from, to *item.DexField)   { b.fields[from] = to }
func (b *Builder) RenameType(from, to *item.DexType)     { b.types[from] = to }

// Build freezes the accumulated renames into an immutable Lens layered on
// the builder's parent.
func (b *Builder) Build() *Lens {
	return &Lens{parent: b.parent, methods: b.methods, fields: b.fields, types: b.types}
}

// LookupMethod resolves ref through this lens and every parent lens,
// innermost first, returning ref itself if no layer renamed it — the
// idempotent-lookup property spec.md §4.6 requires ("looking up an
// already-current reference returns it unchanged").
func (l *Lens) LookupMethod(ref *item.DexMethod) *item.DexMethod {
	for cur := l; cur != nil; cur = cur.parent {
		if to, ok := cur.methods[ref]; ok {
			return to
		}
	}
	return ref
}

func (l *Lens) LookupField(ref *item.DexField) *item.DexField {
	for cur := l; cur != nil; cur = cur.parent {
		if to, ok := cur.fields[ref]; ok {
			return to
		}
	}
	return ref
}

func (l *Lens) LookupType(ref *item.DexType) *item.DexType {
	for cur := l; cur != nil; cur = cur.parent {
		if to, ok := cur.types[ref]; ok {
			return to
		}
	}
	return ref
}

// Depth returns how many layers this lens has composed, counting the
// Identity base; Flatten uses it to size its layer list (spec.md §4.6 "implementations may periodically flatten the chain for
// lookup-cost reasons without changing observable behavior").
func (l *Lens) Depth() int {
	n := 0
	for cur := l; cur != nil; cur = cur.parent {
		n++
	}
	return n
}

// Flatten collapses the whole chain into a single-layer Lens with identical
// lookup results, trading lookup latency for a one-time O(depth) rebuild.
func (l *Lens) Flatten() *Lens {
	flat := NewBuilder(nil)
	layers := make([]*Lens, 0, l.Depth())
	for cur := l; cur != nil && cur.parent != nil; cur = cur.parent {
		layers = append(layers, cur)
	}
	// Apply oldest layer first so newer renames correctly shadow older ones.
	for i := len(layers) - 1; i >= 0; i-- {
		for from, to := range layers[i].methods {
			flat.RenameMethod(from, to)
		}
		for from, to := range layers[i].fields {
			flat.RenameField(from, to)
		}
		for from, to := range layers[i].types {
			flat.RenameType(from, to)
		}
	}
	return flat.Build()
}
