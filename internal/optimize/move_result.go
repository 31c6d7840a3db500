package optimize

import "github.com/corvid-dex/core/internal/ir"

// MoveResultRewritingPass is pass 10: the DEX frontend already collapses the
// invoke/move-result two-instruction idiom into a single IR instruction at
// build time (its output value directly carries the result), so by the time
// IR reaches this pipeline that idiom has nothing left to rewrite, and Run
// makes no change. The bytecode lowerer emits a move-result after every
// invoke that has an Output and none after a void invoke (Output == nil),
// without any marker from this pass.
type MoveResultRewritingPass struct{}

func (MoveResultRewritingPass) Name() string { return "move-result-rewriting" }

func (MoveResultRewritingPass) Run(ctx *Context) error {
	return nil
}

func isInvoke(op ir.Opcode) bool {
	switch op {
	case ir.OpInvokeVirtual, ir.OpInvokeSuper, ir.OpInvokeDirect, ir.OpInvokeStatic,
		ir.OpInvokeInterface, ir.OpInvokePolymorphic, ir.OpInvokeDynamic:
		return true
	default:
		return false
	}
}
