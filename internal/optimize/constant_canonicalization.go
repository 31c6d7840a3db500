package optimize

import "github.com/corvid-dex/core/internal/ir"

// ConstantCanonicalizationPass is pass 23 (DEX target only): every distinct
// constant-number/constant-string/constant-class/constant-null value
// materialized more than once within a block is canonicalized to its first
// materialization in that block: later duplicates are replaced by it and
// removed. The surviving instruction stays where it is; this pass does not
// move a constant closer to its first use. It operates per block rather than
// per method, so equal constants in different blocks are left alone.
type ConstantCanonicalizationPass struct{}

func (ConstantCanonicalizationPass) Name() string { return "constant-canonicalization" }

func (ConstantCanonicalizationPass) Run(ctx *Context) error {
	for _, b := range ctx.Code.Blocks {
		seen := map[constKey]*ir.Value{}
		for i := 0; i < len(b.Instructions); i++ {
			inst := b.Instructions[i]
			key, ok := constKeyOf(inst)
			if !ok || inst.Output == nil {
				continue
			}
			if canonical, dup := seen[key]; dup {
				ir.ReplaceAllUsesWith(inst.Output, canonical)
				b.RemoveInstruction(inst)
				i--
				continue
			}
			seen[key] = inst.Output
		}
	}
	return nil
}

type constKey struct {
	opcode ir.Opcode
	num    int64
	str    string
}

func constKeyOf(inst *ir.Instruction) (constKey, bool) {
	switch inst.Opcode {
	case ir.OpConstNumber:
		return constKey{opcode: inst.Opcode, num: inst.ConstNumber}, true
	case ir.OpConstString:
		if inst.ConstString == nil {
			return constKey{}, false
		}
		return constKey{opcode: inst.Opcode, str: inst.ConstString.String()}, true
	case ir.OpConstClass, ir.OpConstNull:
		if inst.Type == nil {
			return constKey{opcode: inst.Opcode}, true
		}
		return constKey{opcode: inst.Opcode, str: inst.Type.Descriptor()}, true
	default:
		return constKey{}, false
	}
}
