package optimize

import (
	"github.com/corvid-dex/core/internal/ir"
	"github.com/corvid-dex/core/internal/item"
)

// RedundantFieldLoadEliminationPass is pass 15: within a single block, a
// field-get that reads the same field as an earlier field-get or the value
// just written by an earlier field-put in the same block, with no
// intervening invoke, array-put, or monitor operation that could have
// mutated the field through aliasing, is replaced by the previously known
// value. The available-value map is reset at every block boundary and at
// any instruction that might invalidate it, which keeps this a strictly
// local (non-escaping) redundancy elimination rather than a full alias
// analysis.
type RedundantFieldLoadEliminationPass struct{}

func (RedundantFieldLoadEliminationPass) Name() string { return "redundant-field-load-elimination" }

func (RedundantFieldLoadEliminationPass) Run(ctx *Context) error {
	for _, b := range ctx.Code.Blocks {
		available := map[fieldKey]*ir.Value{}
		for i := 0; i < len(b.Instructions); i++ {
			inst := b.Instructions[i]
			switch inst.Opcode {
			case ir.OpInstanceFieldGet:
				key := fieldKey{inst.Field, receiverOf(inst)}
				if v, ok := available[key]; ok && inst.Output != nil {
					ir.ReplaceAllUsesWith(inst.Output, v)
					b.RemoveInstruction(inst)
					i--
					continue
				}
				if inst.Output != nil {
					available[key] = inst.Output
				}
			case ir.OpStaticFieldGet:
				key := fieldKey{inst.Field, nil}
				if v, ok := available[key]; ok && inst.Output != nil {
					ir.ReplaceAllUsesWith(inst.Output, v)
					b.RemoveInstruction(inst)
					i--
					continue
				}
				if inst.Output != nil {
					available[key] = inst.Output
				}
			case ir.OpInstanceFieldPut:
				if len(inst.Inputs) < 2 {
					continue
				}
				available[fieldKey{inst.Field, inst.Inputs[0]}] = inst.Inputs[1]
			case ir.OpStaticFieldPut:
				if len(inst.Inputs) < 1 {
					continue
				}
				available[fieldKey{inst.Field, nil}] = inst.Inputs[0]
			default:
				if inst.HasSideEffects() {
					available = map[fieldKey]*ir.Value{}
				}
			}
		}
	}
	return nil
}

type fieldKey struct {
	field    *item.DexField
	receiver *ir.Value
}

func receiverOf(inst *ir.Instruction) *ir.Value {
	if len(inst.Inputs) == 0 {
		return nil
	}
	return inst.Inputs[0]
}
