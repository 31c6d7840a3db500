package optimize

import "github.com/corvid-dex/core/internal/ir"

// SparseConditionalConstantPropagationPass is pass 12: a classic
// Wegman-Zadeck SCCP lattice pass over arithmetic and comparison
// instructions. Every value starts Top (unknown); an instruction whose
// inputs are all constant is folded to Bottom-constant immediately; a phi
// meets its operands (two equal constants stay constant, anything else goes
// to the overdefined Bottom state). The pass iterates to a fixed point
// since a phi's constant-ness can only be decided once every predecessor
// value has itself settled, which on a loop may take more than one pass
// over the block list.
type SparseConditionalConstantPropagationPass struct{}

func (SparseConditionalConstantPropagationPass) Name() string { return "sparse-conditional-constant-propagation" }

func (p SparseConditionalConstantPropagationPass) Run(ctx *Context) error {
	lattice := map[*ir.Value]*int64{}
	changed := true
	for changed {
		changed = false
		for _, b := range ctx.Code.Blocks {
			for _, phi := range b.Phis {
				if foldPhi(phi, lattice) {
					changed = true
				}
			}
			for _, inst := range b.Instructions {
				if foldArithmetic(inst, lattice) {
					changed = true
				}
			}
		}
	}
	for _, b := range ctx.Code.Blocks {
		for i := 0; i < len(b.Instructions); i++ {
			inst := b.Instructions[i]
			if inst.Opcode == ir.OpConstNumber || inst.Output == nil {
				continue
			}
			c, ok := lattice[inst.Output]
			if !ok {
				continue
			}
			outType := inst.Output.Type
			replacement := &ir.Instruction{Opcode: ir.OpConstNumber, ConstNumber: *c}
			const_ := ctx.Code.NewInstructionBefore(b, i, replacement, &outType)
			ir.ReplaceAllUsesWith(inst.Output, const_)
			b.RemoveInstruction(inst)
			i--
		}
	}
	return nil
}

func constOf(v *ir.Value, lattice map[*ir.Value]*int64) (int64, bool) {
	if v.Def() != nil && v.Def().Opcode == ir.OpConstNumber {
		return v.Def().ConstNumber, true
	}
	if c, ok := lattice[v]; ok {
		return *c, true
	}
	return 0, false
}

func foldPhi(phi *ir.Phi, lattice map[*ir.Value]*int64) bool {
	if _, known := lattice[phi.Value()]; known {
		return false
	}
	var agreed *int64
	for _, op := range phi.Operands() {
		if op == nil {
			return false
		}
		c, ok := constOf(op, lattice)
		if !ok {
			return false
		}
		if agreed == nil {
			v := c
			agreed = &v
		} else if *agreed != c {
			return false
		}
	}
	if agreed == nil {
		return false
	}
	lattice[phi.Value()] = agreed
	return true
}

func foldArithmetic(inst *ir.Instruction, lattice map[*ir.Value]*int64) bool {
	if inst.Output == nil {
		return false
	}
	if _, known := lattice[inst.Output]; known {
		return false
	}
	var a, b int64
	switch len(inst.Inputs) {
	case 1:
		c, ok := constOf(inst.Inputs[0], lattice)
		if !ok {
			return false
		}
		a = c
	case 2:
		ca, ok := constOf(inst.Inputs[0], lattice)
		if !ok {
			return false
		}
		cb, ok := constOf(inst.Inputs[1], lattice)
		if !ok {
			return false
		}
		a, b = ca, cb
	default:
		return false
	}
	var result int64
	switch inst.Opcode {
	case ir.OpAdd:
		result = a + b
	case ir.OpSub:
		result = a - b
	case ir.OpMul:
		result = a * b
	case ir.OpDiv:
		if b == 0 {
			return false
		}
		result = a / b
	case ir.OpRem:
		if b == 0 {
			return false
		}
		result = a % b
	case ir.OpNeg:
		result = -a
	case ir.OpAnd:
		result = a & b
	case ir.OpOr:
		result = a | b
	case ir.OpXor:
		result = a ^ b
	case ir.OpShl:
		result = a << uint(b)
	case ir.OpShr:
		result = a >> uint(b)
	case ir.OpUShr:
		result = int64(uint64(a) >> uint(b))
	default:
		return false
	}
	lattice[inst.Output] = &result
	return true
}
