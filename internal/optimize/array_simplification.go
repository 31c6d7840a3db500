package optimize

import "github.com/corvid-dex/core/internal/ir"

// ArraySimplificationPass is pass 9: an array-length read on a value whose
// defining instruction is a new-array with a constant size operand is
// replaced by that constant directly, and an array-get/array-put whose index
// operand is a constant outside [0, knownLength) on such a value is left for
// the verifier rather than folded, since an out-of-bounds access still must
// throw at runtime — this pass only removes the provably-redundant length
// read, not the bounds check itself.
type ArraySimplificationPass struct{}

func (ArraySimplificationPass) Name() string { return "array-simplification" }

func (ArraySimplificationPass) Run(ctx *Context) error {
	for _, b := range ctx.Code.Blocks {
		for i := 0; i < len(b.Instructions); i++ {
			inst := b.Instructions[i]
			if inst.Opcode != ir.OpArrayLength || len(inst.Inputs) == 0 || inst.Output == nil {
				continue
			}
			def := inst.Inputs[0].Def()
			if def == nil || def.Opcode != ir.OpNewArray || len(def.Inputs) == 0 {
				continue
			}
			sizeDef := def.Inputs[0].Def()
			if sizeDef == nil || sizeDef.Opcode != ir.OpConstNumber {
				continue
			}
			outType := inst.Output.Type
			replacement := &ir.Instruction{Opcode: ir.OpConstNumber, ConstNumber: sizeDef.ConstNumber}
			const_ := ctx.Code.NewInstructionBefore(b, i, replacement, &outType)
			ir.ReplaceAllUsesWith(inst.Output, const_)
			b.RemoveInstruction(inst)
			i--
		}
	}
	return nil
}
