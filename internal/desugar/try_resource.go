package desugar

import (
	"github.com/corvid-dex/core/internal/classdef"
	"github.com/corvid-dex/core/internal/ir"
	"github.com/corvid-dex/core/internal/item"
)

// TryResourceCloseSynthesis recognizes a try-with-resources suppressed-
// exception pattern (a `close()` invoke sitting in a block that holds a
// move-exception, the shape javac's own try-with-resources desugaring
// produces) and rewrites the close call to go
// through a synthesized static helper that adds the primary exception as a
// suppressed exception before rethrowing, matching the pre-exception-
// chaining-aware runtime contract older Android API levels need (spec.md
// §4.4 "try-resource-close helper synthesis"). This is a companion to, not
// a replacement for, optimize.TryWithResourcesDesugaringPass's narrower
// non-null refinement of the resource value within the same body.
type TryResourceCloseSynthesis struct{}

func (TryResourceCloseSynthesis) Name() string { return "try-resource-close-synthesis" }

func (TryResourceCloseSynthesis) NeedsDesugaring(ctx *Context) bool {
	for _, b := range ctx.Code.Blocks {
		if closeCallInCatchBlock(b) != nil {
			return true
		}
	}
	return false
}

func (t TryResourceCloseSynthesis) Desugar(ctx *Context, emit EventConsumer) error {
	helperType, helperRef, justCreated := t.ensureHelperClass(ctx)
	if justCreated {
		emit(ctx.Graph.DefinitionFor(helperType))
	}

	for _, b := range ctx.Code.Blocks {
		closeCall := closeCallInCatchBlock(b)
		if closeCall == nil {
			continue
		}
		exc := catchException(b)
		if exc == nil {
			continue
		}
		closeCall.Opcode = ir.OpInvokeStatic
		closeCall.Method = helperRef
		closeCall.Inputs = append([]*ir.Value{exc}, closeCall.Inputs...)
	}
	return nil
}

// ensureHelperClass returns the shared `$-EH` suppressed-close helper,
// creating it once per compilation and reusing it on every later call
// (the helper method is stateless, so one instance serves every method).
func (t TryResourceCloseSynthesis) ensureHelperClass(ctx *Context) (helperType *item.DexType, helperRef *item.DexMethod, justCreated bool) {
	helperType = ctx.Pool.InternType("Lcorvid/runtime/CloseResources$-EH;")
	helper := ctx.Graph.DefinitionFor(helperType)
	if helper != nil {
		return helperType, helper.DirectMethods[0].Ref, false
	}

	throwableType := ctx.Pool.InternType("Ljava/lang/Throwable;")
	closeableType := ctx.Pool.InternType("Ljava/lang/AutoCloseable;")
	helperProto := ctx.Pool.InternProto(ctx.Pool.InternType("V"), []*item.DexType{throwableType, closeableType})
	ref := ctx.Pool.InternMethod(helperType, helperProto, "closeResource")

	helper = classdef.NewProgramClass(classdef.Class{
		Type:          helperType,
		Access:        classdef.AccPublic | classdef.AccFinal | classdef.AccSynthetic,
		SuperType:     ctx.Pool.InternType("Ljava/lang/Object;"),
		DirectMethods: []*classdef.EncodedMethod{{Ref: ref, Access: classdef.AccPublic | classdef.AccStatic | classdef.AccSynthetic}},
	}, classdef.ProgramClassExtra{})
	ctx.Graph.Add(helper)
	ctx.Bodies.Store(ref, buildCloseResourceBody(ctx.Pool, throwableType, closeableType))
	return helperType, ref, true
}

// buildCloseResourceBody synthesizes: if resource == null, return. Otherwise
// close() it; if that throws, add the failure as a suppressed exception on
// primary when primary is non-null, or rethrow it when there was no primary
// exception to attach to.
func buildCloseResourceBody(pool *item.Pool, throwableType, closeableType *item.DexType) *ir.IRCode {
	code := ir.NewIRCode(&ir.MethodContext{})
	entry := code.NewBlock()
	code.Entry = entry
	closeBlock := code.NewBlock()
	catchBlock := code.NewBlock()
	suppressBlock := code.NewBlock()
	rethrow := code.NewBlock()
	ret := code.NewBlock()

	primary := code.NewArgument(ir.ReferenceType(throwableType, true))
	resource := code.NewArgument(ir.ReferenceType(closeableType, true))

	nullConst := code.NewInstruction(entry, &ir.Instruction{Opcode: ir.OpConstNull}, ptr(ir.NullType()))
	ir.AddEdge(entry, closeBlock)
	ir.AddEdge(entry, ret)
	entry.AppendInstruction(&ir.Instruction{Opcode: ir.OpIf, Inputs: []*ir.Value{resource, nullConst}, IfTarget: ret, FallthroughTarget: closeBlock})

	closeProto := pool.InternProto(pool.InternType("V"), nil)
	closeRef := pool.InternMethod(closeableType, closeProto, "close")
	closeBlock.CatchHandlers = []ir.CatchHandler{{ExceptionType: nil, Handler: catchBlock}}
	closeBlock.AppendInstruction(&ir.Instruction{Opcode: ir.OpInvokeInterface, Method: closeRef, Inputs: []*ir.Value{resource}})
	ir.AddEdge(closeBlock, ret)
	closeBlock.AppendInstruction(&ir.Instruction{Opcode: ir.OpGoto, GotoTarget: ret})

	caught := code.NewInstruction(catchBlock, &ir.Instruction{Opcode: ir.OpMoveException}, ptr(ir.ReferenceType(throwableType, false)))
	ir.AddEdge(catchBlock, rethrow)
	ir.AddEdge(catchBlock, suppressBlock)
	catchBlock.AppendInstruction(&ir.Instruction{Opcode: ir.OpIf, Inputs: []*ir.Value{primary, nullConst}, IfTarget: rethrow, FallthroughTarget: suppressBlock})

	addSuppressedProto := pool.InternProto(pool.InternType("V"), []*item.DexType{throwableType})
	addSuppressedRef := pool.InternMethod(throwableType, addSuppressedProto, "addSuppressed")
	suppressBlock.AppendInstruction(&ir.Instruction{Opcode: ir.OpInvokeVirtual, Method: addSuppressedRef, Inputs: []*ir.Value{primary, caught}})
	ir.AddEdge(suppressBlock, ret)
	suppressBlock.AppendInstruction(&ir.Instruction{Opcode: ir.OpGoto, GotoTarget: ret})

	rethrow.AppendInstruction(&ir.Instruction{Opcode: ir.OpThrow, Inputs: []*ir.Value{caught}})

	ret.AppendInstruction(&ir.Instruction{Opcode: ir.OpReturnVoid})
	return code
}

// closeCallInCatchBlock returns the first invoke-virtual, invoke-interface
// or invoke-direct named "close" (whatever its arguments) within a block
// that holds a move-exception, or nil.
func closeCallInCatchBlock(b *ir.BasicBlock) *ir.Instruction {
	if !isCatchBlock(b) {
		return nil
	}
	for _, inst := range b.Instructions {
		if isInvokeNamed(inst, "close") {
			return inst
		}
	}
	return nil
}

func isCatchBlock(b *ir.BasicBlock) bool {
	for _, inst := range b.Instructions {
		if inst.Opcode == ir.OpMoveException {
			return true
		}
	}
	return false
}

func catchException(b *ir.BasicBlock) *ir.Value {
	for _, inst := range b.Instructions {
		if inst.Opcode == ir.OpMoveException {
			return inst.Output
		}
	}
	return nil
}

func isInvokeNamed(inst *ir.Instruction, name string) bool {
	if inst.Method == nil {
		return false
	}
	switch inst.Opcode {
	case ir.OpInvokeVirtual, ir.OpInvokeInterface, ir.OpInvokeDirect:
	default:
		return false
	}
	return inst.Method.Name.String() == name
}
