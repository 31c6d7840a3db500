package desugar

import (
	"github.com/corvid-dex/core/internal/classdef"
	"github.com/corvid-dex/core/internal/ir"
	"github.com/corvid-dex/core/internal/item"
)

// LibraryWrapperSynthesis handles the desugared-library calls whose backport
// doesn't share the original API's exact static shape: rather than retarget
// the call site directly (optimize.DesugaredLibraryRetargetingPass, pass 19,
// covers the cases where it does), this synthesizes a thin per-caller-class
// static wrapper that adapts argument order/shape before forwarding, the
// same "adapter method" idiom the desugared-library runtime itself uses
// when a backport class can't be a drop-in replacement (spec.md §4.4
// "desugared-library API wrappers").
type LibraryWrapperSynthesis struct{}

func (LibraryWrapperSynthesis) Name() string { return "library-wrapper-synthesis" }

func (LibraryWrapperSynthesis) NeedsDesugaring(ctx *Context) bool {
	for _, b := range ctx.Code.Blocks {
		for _, inst := range b.Instructions {
			if wrapperFor(inst) != nil {
				return true
			}
		}
	}
	return false
}

func (t LibraryWrapperSynthesis) Desugar(ctx *Context, emit EventConsumer) error {
	wrapperType := ctx.Pool.InternType(ctx.Names.LibraryWrapperDescriptor(ctx.Method.Ref.Holder))
	var wrapper *classdef.Class
	justCreated := false

	for _, b := range ctx.Code.Blocks {
		for _, inst := range b.Instructions {
			adapted := wrapperFor(inst)
			if adapted == nil {
				continue
			}
			if wrapper == nil {
				wrapper = ctx.Graph.DefinitionFor(wrapperType)
				if wrapper == nil {
					wrapper = classdef.NewProgramClass(classdef.Class{
						Type:      wrapperType,
						Access:    classdef.AccPublic | classdef.AccFinal | classdef.AccSynthetic,
						SuperType: ctx.Pool.InternType("Ljava/lang/Object;"),
					}, classdef.ProgramClassExtra{SynthesizedFrom: []*item.DexType{ctx.Method.Ref.Holder}})
					ctx.Graph.Add(wrapper)
					justCreated = true
				}
			}
			wrapperRef := t.ensureWrapperMethod(ctx, wrapper, inst.Method, *adapted)
			inst.Method = wrapperRef
			inst.Opcode = ir.OpInvokeStatic
		}
	}
	if justCreated {
		emit(wrapper)
	}
	return nil
}

// adaptedCall names a reordered-argument call to a backport method: the
// original method's holder keeps its name and proto, but the underlying
// call target (Target) takes its receiver last instead of first, the shape
// used by a handful of desugared-library static equivalents of instance
// APIs (e.g. "default method on an interface" backports).
type adaptedCall struct {
	Target *item.DexMethod
}

// reorderedRetargets lists desugared-library instance APIs whose backport
// equivalent is a static method taking the receiver *last* instead of
// first (spec.md §4.4; a real build loads this from the desugared-library
// configuration the way optimize.retargetedMethods documents itself as
// doing — kept as a package var here for the same testability reason).
var reorderedRetargets = map[string]*item.DexMethod{}

// RegisterReorderedRetarget lets the (out-of-scope) desugared-library
// configuration loader populate reorderedRetargets without this package
// depending on internal/config.
func RegisterReorderedRetarget(pool *item.Pool, qualifiedName, backportHolder, backportName string, backportParams []*item.DexType, backportReturn *item.DexType) {
	holder := pool.InternType(backportHolder)
	proto := pool.InternProto(backportReturn, backportParams)
	reorderedRetargets[qualifiedName] = pool.InternMethod(holder, proto, backportName)
}

// wrapperFor reports the adaptation needed for inst, or nil if none
// applies. Looked up by qualified name in reorderedRetargets, a table
// separate from the one optimize.DesugaredLibraryRetargetingPass consults;
// the backport proto is not compared with the call site's own.
func wrapperFor(inst *ir.Instruction) *adaptedCall {
	if inst.Opcode != ir.OpInvokeVirtual && inst.Opcode != ir.OpInvokeInterface {
		return nil
	}
	if inst.Method == nil {
		return nil
	}
	target, ok := reorderedRetargets[inst.Method.QualifiedName()]
	if !ok {
		return nil
	}
	return &adaptedCall{Target: target}
}

func (LibraryWrapperSynthesis) ensureWrapperMethod(ctx *Context, wrapper *classdef.Class, original *item.DexMethod, adapted adaptedCall) *item.DexMethod {
	params := prependReceiverType(original.Holder, original.Proto.Params)
	wrapperProto := ctx.Pool.InternProto(original.Proto.ReturnType, params)
	wrapperRef := ctx.Pool.InternMethod(wrapper.Type, wrapperProto, original.Name.String())
	if wrapper.LookupMethod(wrapperRef) != nil {
		return wrapperRef
	}
	method := &classdef.EncodedMethod{
		Ref:    wrapperRef,
		Access: classdef.AccPublic | classdef.AccStatic | classdef.AccSynthetic,
	}
	wrapper.DirectMethods = append(wrapper.DirectMethods, method)
	ctx.Bodies.Store(wrapperRef, buildWrapperBody(ctx.Pool, wrapperRef, adapted.Target))
	return wrapperRef
}

// buildWrapperBody synthesizes `return Target(arg1, ..., argN, receiver)`:
// the receiver-last calling convention a handful of backport statics use in
// place of the original instance-method's receiver-first shape.
func buildWrapperBody(pool *item.Pool, wrapperRef, target *item.DexMethod) *ir.IRCode {
	code := ir.NewIRCode(&ir.MethodContext{})
	entry := code.NewBlock()
	code.Entry = entry

	params := wrapperRef.Proto.Params
	receiver := code.NewArgument(elementTypeFor(params[0]))
	rest := make([]*ir.Value, 0, len(params)-1)
	for _, pt := range params[1:] {
		rest = append(rest, code.NewArgument(elementTypeFor(pt)))
	}
	callInputs := append(rest, receiver)

	callInst := &ir.Instruction{Opcode: ir.OpInvokeStatic, Method: target, Inputs: callInputs}
	if target.Proto.ReturnType.IsVoid() {
		code.NewInstruction(entry, callInst, nil)
		entry.AppendInstruction(&ir.Instruction{Opcode: ir.OpReturnVoid})
		return code
	}
	result := code.NewInstruction(entry, callInst, ptr(elementTypeFor(target.Proto.ReturnType)))
	entry.AppendInstruction(&ir.Instruction{Opcode: ir.OpReturn, Inputs: []*ir.Value{result}})
	return code
}
