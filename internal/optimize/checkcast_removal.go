package optimize

import "github.com/corvid-dex/core/internal/ir"

// CheckCastRemovalPass is pass 7: a check-cast whose operand's SSA type is
// already assignable to the target type is redundant (the runtime check can
// never fail) and is removed, replacing its output with its input directly.
// This relies on the class hierarchy resolver rather than the raw descriptor
// comparison so casts to a supertype or implemented interface are caught,
// not just exact-type casts.
type CheckCastRemovalPass struct{}

func (CheckCastRemovalPass) Name() string { return "check-cast-removal" }

func (CheckCastRemovalPass) Run(ctx *Context) error {
	for _, b := range ctx.Code.Blocks {
		for i := 0; i < len(b.Instructions); i++ {
			inst := b.Instructions[i]
			if inst.Opcode != ir.OpCheckCast || len(inst.Inputs) == 0 || inst.Type == nil {
				continue
			}
			operand := inst.Inputs[0]
			if ctx.Graph == nil {
				continue
			}
			// A null operand always passes check-cast; otherwise the operand
			// must already be statically assignable to the cast's target type.
			if !operand.Type.IsNullType() &&
				(operand.Type.ClassType == nil || !ctx.Graph.IsAssignable(operand.Type.ClassType, inst.Type)) {
				continue
			}
			if inst.Output != nil {
				ir.ReplaceAllUsesWith(inst.Output, operand)
			}
			b.RemoveInstruction(inst)
			i--
		}
	}
	return nil
}
