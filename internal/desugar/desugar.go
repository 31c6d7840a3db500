// Package desugar implements the Desugaring Collection named in spec.md
// §4.4: an ordered set of IR-level transformations rewriting modern
// language constructs (default/static/private interface methods, lambdas,
// try-with-resources, covariant-return bridges, library APIs absent from
// older runtimes) to equivalents an older Android runtime can run, some of
// which synthesize whole new classes. Grounded on the teacher's pass-list
// composition style in internal/optimize (one file per transformation,
// composed by a fixed-order driver) generalized from "rewrite in place" to
// "rewrite plus optionally emit a brand new class".
package desugar

import (
	"github.com/corvid-dex/core/internal/classdef"
)

// EventConsumer receives a class synthesized by a transformation so the
// wave scheduler's driver can enqueue its methods for processing in a later
// wave (spec.md §4.4 "event consumers receive synthesized methods").
type EventConsumer func(synth *classdef.Class)

// Transformation is one member of the collection. NeedsDesugaring is a fast
// registry scan of code references (spec.md §4.4): it must be cheap enough
// to call for every method in a wave even when it returns false.
type Transformation interface {
	Name() string
	NeedsDesugaring(ctx *Context) bool
	Desugar(ctx *Context, emit EventConsumer) error
}

// Collection composes every transformation the core ships. Methods with no
// applicable transformation pay only the cost of each NeedsDesugaring scan.
type Collection struct {
	transformations []Transformation
}

// NewCollection returns the collection with every transformation listed in
// spec.md §4.4 wired in (interface-method bridge synthesis was already
// split out as optimize's call-site rewrite, pass 20; this package supplies
// the companion-class bodies that rewrite resolves against).
func NewCollection() *Collection {
	return &Collection{
		transformations: []Transformation{
			InterfaceCompanionSynthesis{},
			LambdaDesugaring{},
			TryResourceCloseSynthesis{},
			CovariantReturnBridgeSynthesis{},
			LibraryWrapperSynthesis{},
		},
	}
}

// NeedsDesugaring reports whether any transformation applies to ctx.Method,
// matching spec.md §4.4's exposed `needsDesugaring(method) -> bool`.
func (c *Collection) NeedsDesugaring(ctx *Context) bool {
	for _, t := range c.transformations {
		if t.NeedsDesugaring(ctx) {
			return true
		}
	}
	return false
}

// Desugar runs every applicable transformation over ctx.Method in turn,
// matching spec.md §4.4's exposed `desugar(method, context, eventConsumer)`.
// A transformation's own NeedsDesugaring gate is re-checked so an earlier
// transformation's rewrite can't accidentally trigger a later one meant for
// a different method shape.
func (c *Collection) Desugar(ctx *Context, emit EventConsumer) error {
	for _, t := range c.transformations {
		if !t.NeedsDesugaring(ctx) {
			continue
		}
		if err := t.Desugar(ctx, emit); err != nil {
			return err
		}
	}
	return nil
}
