package build

import (
	"github.com/corvid-dex/core/internal/classdef"
	"github.com/corvid-dex/core/internal/ir"
	"github.com/corvid-dex/core/internal/item"
)

// Build converts m's Code payload into SSA IR, dispatching on which concrete
// form m carries (spec.md §4.2: "build(method) -> IRCode" over either DEX or
// class-file input). Returns nil, nil for a method with no body (abstract,
// native, or a classpath/library method per spec.md §3 invariant).
func Build(pool *item.Pool, resolver ir.ClassHierarchyResolver, m *classdef.EncodedMethod) (*ir.IRCode, error) {
	if !m.HasBody() {
		return nil, nil
	}
	params := m.Ref.Proto.Params
	if !m.Access.IsStatic() {
		params = append([]*item.DexType{m.Ref.Holder}, params...)
	}
	switch m.Code.Kind {
	case classdef.CodeKindDex:
		return FromDex(pool, resolver, m.Ref, m.Code.Dex, params, m.Access.IsStatic())
	case classdef.CodeKindCf:
		return FromCf(pool, resolver, m.Ref, m.Code.Cf, params, m.Access.IsStatic())
	default:
		return nil, &MalformedInputCode{Reason: "method code has neither dex nor class-file form"}
	}
}
