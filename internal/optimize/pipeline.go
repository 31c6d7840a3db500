// Package optimize implements the optimization pipeline (spec.md §4.3): an
// ordered sequence of passes that each take IR with a fixed set of
// invariants and return IR with the same invariants, threading a Lens
// builder through the whole run so later passes (and later waves) can
// resolve references renamed by an earlier one. Grounded on the teacher's
// dce.go mark-and-sweep worklist style and size_analysis.go's per-function
// accounting pass shape.
package optimize

import (
	"go.uber.org/zap"

	"github.com/corvid-dex/core/internal/classdef"
	"github.com/corvid-dex/core/internal/ir"
	"github.com/corvid-dex/core/internal/item"
	"github.com/corvid-dex/core/internal/lens"
)

// Context carries everything a pass needs: the method being processed, its
// IR, the class graph for resolution queries, the pool for interning new
// references a pass synthesizes, and the lens builder the whole pipeline run
// accumulates renames into.
type Context struct {
	Pool    *item.Pool
	Graph   *classdef.Graph
	Lens    *lens.Lens // renames visible to this pass, composed from prior waves
	Builder *lens.Builder
	Owner   *classdef.Class
	Method  *classdef.EncodedMethod
	Code    *ir.IRCode

	// Outlines is the outline-candidate registry pass 22 records into; nil
	// disables outline identification. internal/pipeline's driver leaves it
	// nil, so pass 22 records candidates only for callers that set it.
	Outlines *OutlineRegistry

	// Log receives a warning whenever a pass fails and the method is
	// degraded to an always-throwing stub. Nil disables logging (unit
	// tests constructing a bare Context don't need a logger wired up).
	Log *zap.Logger
}

// Pass is one optimization step (spec.md §4.3). Run mutates ctx.Code (and
// may record renames via ctx.Builder) in place; a returned error aborts only
// this method's remaining passes, triggering failure-degradation, not the
// whole compilation (spec.md §4.3 "a pass failure on one method must not
// abort the run").
type Pass interface {
	Name() string
	Run(ctx *Context) error
}

// Ordered returns the 24 passes in the fixed sequence spec.md §4.3 mandates.
func Ordered() []Pass {
	return []Pass{
		&LensRewritePass{},
		&AssumeInsertionPass{},
		&MemberValuePropagationPass{},
		&InliningPass{},
		&ReflectionStringSimplificationPass{},
		&DevirtualizationPass{},
		&CheckCastRemovalPass{},
		&ConstantEnumRewritingPass{},
		&ArraySimplificationPass{},
		&MoveResultRewritingPass{},
		&RangeInvokeSplittingPass{},
		&SparseConditionalConstantPropagationPass{},
		&AlwaysThrowingPass{},
		&ControlFlowSimplificationPass{},
		&RedundantFieldLoadEliminationPass{},
		&ClassInitializerDefaultsPass{},
		&DeadCodeRemovalPass{},
		&TryWithResourcesDesugaringPass{},
		&DesugaredLibraryRetargetingPass{},
		&InterfaceMethodRewritingPass{},
		&ClassInliningPass{},
		&OutlineIdentificationPass{},
		&ConstantCanonicalizationPass{},
		&IdempotentCallCanonicalizationPass{},
	}
}

// Run executes every pass in order against ctx.Code, verifying invariants
// after each mutation (spec.md §4.3 "verify after every pass in debug
// builds"; here unconditional, matching the teacher's habit of cheap
// assertions run always rather than gated behind a build tag). A pass error
// degrades the method to an always-throwing body instead of propagating,
// per finalizeEmptyThrowingCode semantics, and processing continues with the
// next method rather than aborting the run.
func Run(ctx *Context) error {
	for _, p := range Ordered() {
		if err := p.Run(ctx); err != nil {
			ctx.warnDegraded(p.Name(), err)
			finalizeEmptyThrowingCode(ctx)
			return nil
		}
		if err := ir.Verify(ctx.Code); err != nil {
			ctx.warnDegraded(p.Name(), err)
			finalizeEmptyThrowingCode(ctx)
			return nil
		}
	}
	return nil
}

func (ctx *Context) warnDegraded(pass string, err error) {
	if ctx.Log == nil {
		return
	}
	name := "<unknown>"
	if ctx.Method != nil && ctx.Method.Ref != nil {
		name = ctx.Method.Ref.QualifiedName()
	}
	ctx.Log.Warn("method degraded to always-throwing stub",
		zap.String("pass", pass), zap.String("method", name), zap.Error(err))
}

// finalizeEmptyThrowingCode replaces a method body that a pass could not
// safely keep with a single block raising AssertionError, the pipeline's
// failure-degradation fallback (spec.md §4.3, §7): broken optimized code
// must never reach the output, and an always-throwing stub is always valid
// regardless of what invariant the original body violated. The body is
// replaced inside the existing *ir.IRCode (its arguments are kept), so every
// holder of ctx.Code sees the stub.
func finalizeEmptyThrowingCode(ctx *Context) {
	code := ctx.Code
	code.Blocks = nil
	entry := code.NewBlock()
	code.Entry = entry
	errType := ctx.Pool.InternType("Ljava/lang/AssertionError;")
	excType := ir.ReferenceType(errType, false)
	exc := code.NewInstruction(entry, &ir.Instruction{Opcode: ir.OpNewInstance, Type: errType}, &excType)
	initRef := ctx.Pool.InternMethod(errType, ctx.Pool.InternProto(ctx.Pool.InternType("V"), nil), "<init>")
	entry.AppendInstruction(&ir.Instruction{Opcode: ir.OpInvokeDirect, Method: initRef, Inputs: []*ir.Value{exc}})
	entry.AppendInstruction(&ir.Instruction{Opcode: ir.OpThrow, Inputs: []*ir.Value{exc}})
}
