package optimize

import "github.com/corvid-dex/core/internal/classdef"
import "github.com/corvid-dex/core/internal/item"

// fieldInfo resolves f to the EncodedField carrying its current
// optimization facts, or nil if f's holder isn't in the graph (classpath/
// library field, or a program field not found — both cases mean "nothing
// known").
func (ctx *Context) fieldInfo(f *item.DexField) *classdef.FieldOptimizationInfo {
	owner := ctx.Graph.DefinitionFor(f.Holder)
	if owner == nil {
		return nil
	}
	ef := owner.LookupField(f)
	if ef == nil {
		return nil
	}
	return &ef.OptimizationInfo
}

// methodInfo resolves m the same way fieldInfo resolves a field.
func (ctx *Context) methodInfo(m *item.DexMethod) *classdef.MethodOptimizationInfo {
	owner := ctx.Graph.DefinitionFor(m.Holder)
	if owner == nil {
		return nil
	}
	em := owner.LookupMethod(m)
	if em == nil {
		return nil
	}
	return &em.OptimizationInfo
}

// resolveMethod resolves m to its EncodedMethod definition, or nil.
func (ctx *Context) resolveMethod(m *item.DexMethod) *classdef.EncodedMethod {
	owner := ctx.Graph.DefinitionFor(m.Holder)
	if owner == nil {
		return nil
	}
	return owner.LookupMethod(m)
}
