package desugar

import (
	"github.com/corvid-dex/core/internal/classdef"
	"github.com/corvid-dex/core/internal/ir"
	"github.com/corvid-dex/core/internal/item"
	"github.com/corvid-dex/core/internal/lens"
)

// Context carries everything a transformation needs: the method being
// desugared, its IR, the owning class and graph for resolution, the pool
// for interning synthesized references, the lens builder synthesized
// renames/companions get recorded into, and the naming sequence that keeps
// synthetic-class names deterministic across a full re-run (spec.md §8
// round-trip property; §9 supplemented "synthetic class naming scheme").
type Context struct {
	Pool    *item.Pool
	Graph   *classdef.Graph
	Builder *lens.Builder
	Names   *NameGenerator
	Bodies  *BodyRegistry
	Owner   *classdef.Class
	Method  *classdef.EncodedMethod
	Code    *ir.IRCode
}
