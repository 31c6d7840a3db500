package desugar

import (
	"github.com/corvid-dex/core/internal/classdef"
	"github.com/corvid-dex/core/internal/ir"
	"github.com/corvid-dex/core/internal/item"
)

// CovariantReturnBridgeSynthesis adds a bridge method when an override
// narrows its return type from the supertype method it overrides (spec.md
// §4.4 "covariant-return-type annotation expansion"): runtimes resolving
// virtual dispatch by erased signature need an additional method matching
// the supertype's exact descriptor that forwards to the narrowed override,
// the same bridge-method convention javac emits for covariant overrides.
type CovariantReturnBridgeSynthesis struct{}

func (CovariantReturnBridgeSynthesis) Name() string { return "covariant-return-bridge-synthesis" }

func (CovariantReturnBridgeSynthesis) NeedsDesugaring(ctx *Context) bool {
	return ctx.Owner != nil && ctx.Owner.Kind == classdef.KindProgram && overriddenReturnType(ctx) != nil
}

func (CovariantReturnBridgeSynthesis) Desugar(ctx *Context, emit EventConsumer) error {
	superReturn := overriddenReturnType(ctx)
	if superReturn == nil {
		return nil
	}
	bridgeProto := ctx.Pool.InternProto(superReturn, ctx.Method.Ref.Proto.Params)
	bridgeRef := ctx.Pool.InternMethod(ctx.Owner.Type, bridgeProto, ctx.Method.Ref.Name.String())
	if ctx.Owner.LookupMethod(bridgeRef) != nil {
		return nil // bridge already present (e.g. a second wave reprocessing this method)
	}

	bridge := &classdef.EncodedMethod{
		Ref:    bridgeRef,
		Access: ctx.Method.Access | classdef.AccBridge | classdef.AccSynthetic,
	}
	ctx.Owner.VirtualMethods = append(ctx.Owner.VirtualMethods, bridge)
	ctx.Bodies.Store(bridgeRef, buildBridgeBody(ctx))
	emit(ctx.Owner) // new method on an existing class; driver must enqueue it for a later wave too
	return nil
}

// overriddenReturnType reports the return type a directly-overridden
// supertype method declares, if it differs from ctx.Method's own (narrower)
// return type; nil when there is no such covariant override. Walks only the
// immediate superclass chain, matching javac's own single-level bridge
// emission (a method narrowing across two levels gets a bridge per level).
func overriddenReturnType(ctx *Context) *item.DexType {
	if ctx.Owner.SuperType == nil {
		return nil
	}
	super := ctx.Graph.DefinitionFor(ctx.Owner.SuperType)
	if super == nil {
		return nil
	}
	for _, m := range super.VirtualMethods {
		if m.Ref.Name.String() != ctx.Method.Ref.Name.String() {
			continue
		}
		if !sameParams(m.Ref.Proto.Params, ctx.Method.Ref.Proto.Params) {
			continue
		}
		if m.Ref.Proto.ReturnType == ctx.Method.Ref.Proto.ReturnType {
			continue
		}
		if ctx.Graph.IsAssignable(ctx.Method.Ref.Proto.ReturnType, m.Ref.Proto.ReturnType) {
			return m.Ref.Proto.ReturnType
		}
	}
	return nil
}

func sameParams(a, b []*item.DexType) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// buildBridgeBody synthesizes `return (SuperReturn) this.realMethod(args)`:
// load this and every parameter, invoke the narrowed override virtually,
// and return its result (implicitly widened — the bridge's own descriptor
// already carries the wider static return type).
func buildBridgeBody(ctx *Context) *ir.IRCode {
	code := ir.NewIRCode(&ir.MethodContext{})
	entry := code.NewBlock()
	code.Entry = entry

	this := code.NewArgument(ir.ReferenceType(ctx.Owner.Type, false))
	args := []*ir.Value{this}
	for _, pt := range ctx.Method.Ref.Proto.Params {
		args = append(args, code.NewArgument(elementTypeFor(pt)))
	}

	callInst := &ir.Instruction{Opcode: ir.OpInvokeVirtual, Method: ctx.Method.Ref, Inputs: args}
	if ctx.Method.Ref.Proto.ReturnType.IsVoid() {
		code.NewInstruction(entry, callInst, nil)
		entry.AppendInstruction(&ir.Instruction{Opcode: ir.OpReturnVoid})
		return code
	}
	result := code.NewInstruction(entry, callInst, ptr(elementTypeFor(ctx.Method.Ref.Proto.ReturnType)))
	entry.AppendInstruction(&ir.Instruction{Opcode: ir.OpReturn, Inputs: []*ir.Value{result}})
	return code
}
