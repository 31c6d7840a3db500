package optimize

import "github.com/corvid-dex/core/internal/ir"

// MemberValuePropagationPass is pass 3: a static or instance field read
// whose whole-program optimization info (classdef.FieldOptimizationInfo,
// populated by the wave scheduler's cross-method analysis) proves every
// write assigns the same constant is replaced by that constant directly,
// letting later passes treat it like any other constant.
type MemberValuePropagationPass struct{}

func (MemberValuePropagationPass) Name() string { return "member-value-propagation" }

func (p MemberValuePropagationPass) Run(ctx *Context) error {
	for _, b := range ctx.Code.Blocks {
		for _, inst := range b.Instructions {
			if inst.Opcode != ir.OpInstanceFieldGet && inst.Opcode != ir.OpStaticFieldGet {
				continue
			}
			if inst.Output == nil || inst.Field == nil {
				continue
			}
			info := ctx.fieldInfo(inst.Field)
			if info == nil || info.AbstractValue == nil {
				continue
			}
			replacement := constantInstructionFor(info.AbstractValue, inst.Output.Type)
			if replacement == nil {
				continue
			}
			const_ := ctx.Code.NewInstructionBefore(b, indexOf(b, inst), replacement, &inst.Output.Type)
			ir.ReplaceAllUsesWith(inst.Output, const_)
			b.RemoveInstruction(inst)
		}
	}
	return nil
}

func constantInstructionFor(v interface{}, t ir.TypeElement) *ir.Instruction {
	switch val := v.(type) {
	case int64:
		return &ir.Instruction{Opcode: ir.OpConstNumber, ConstNumber: val}
	case int32:
		return &ir.Instruction{Opcode: ir.OpConstNumber, ConstNumber: int64(val)}
	case int:
		return &ir.Instruction{Opcode: ir.OpConstNumber, ConstNumber: int64(val)}
	case bool:
		if val {
			return &ir.Instruction{Opcode: ir.OpConstNumber, ConstNumber: 1}
		}
		return &ir.Instruction{Opcode: ir.OpConstNumber, ConstNumber: 0}
	default:
		return nil
	}
}

func indexOf(b *ir.BasicBlock, inst *ir.Instruction) int {
	for i, cur := range b.Instructions {
		if cur == inst {
			return i
		}
	}
	return len(b.Instructions)
}
