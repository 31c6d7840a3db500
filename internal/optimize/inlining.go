package optimize

import "github.com/corvid-dex/core/internal/ir"

// InliningPass is pass 4: a direct or static invoke whose callee's
// optimization info records ReturnsConstantValue is replaced at the call
// site by that constant (or removed, when the invoke has no output value).
// NeverInline callees are left alone, and so are callees whose recorded
// InstructionCount exceeds trivialBodyInstructionLimit unless ForceInline is
// set. No callee body is copied into the caller: getters, setters and
// argument-returning methods are not inlined, and a ForceInline callee
// without a constant-return fact stays a call.
type InliningPass struct{}

func (InliningPass) Name() string { return "inlining" }

func (InliningPass) Run(ctx *Context) error {
	for _, b := range ctx.Code.Blocks {
		for i := 0; i < len(b.Instructions); i++ {
			inst := b.Instructions[i]
			if !isDirectInvoke(inst.Opcode) || inst.Method == nil {
				continue
			}
			callee := ctx.resolveMethod(inst.Method)
			if callee == nil || !callee.HasBody() {
				continue
			}
			if callee.OptimizationInfo.NeverInline {
				continue
			}
			if !callee.OptimizationInfo.ForceInline && callee.OptimizationInfo.InstructionCount > trivialBodyInstructionLimit {
				continue
			}
			if !callee.OptimizationInfo.ReturnsConstantValue {
				continue
			}
			replacement := constantInstructionFor(callee.OptimizationInfo.ReturnedConstant, typeOrInt(inst))
			if replacement == nil {
				continue
			}
			if inst.Output == nil {
				b.RemoveInstruction(inst)
				i--
				continue
			}
			outType := inst.Output.Type
			const_ := ctx.Code.NewInstructionBefore(b, i, replacement, &outType)
			ir.ReplaceAllUsesWith(inst.Output, const_)
			b.RemoveInstruction(inst)
			i--
		}
	}
	return nil
}

func isDirectInvoke(op ir.Opcode) bool {
	return op == ir.OpInvokeDirect || op == ir.OpInvokeStatic
}

// trivialBodyInstructionLimit bounds how large a non-ForceInline callee's
// body may be before this pass leaves the call site alone; the substitution
// only ever fires when ReturnsConstantValue also holds, so this limit exists
// purely to keep the pass from reaching into large bodies on the strength
// of a constant-return fact alone.
const trivialBodyInstructionLimit = 8

func typeOrInt(inst *ir.Instruction) ir.TypeElement {
	if inst.Output != nil {
		return inst.Output.Type
	}
	return ir.PrimitiveType(nil)
}
