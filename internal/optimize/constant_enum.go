package optimize

import "github.com/corvid-dex/core/internal/ir"

// ConstantEnumRewritingPass is pass 8: an enum-valued static field read whose
// FieldOptimizationInfo carries an AbstractValue proves to be one specific
// enum constant (the whole-program analysis feeding the feedback buffer has
// seen only one write, as in member-value propagation) is replaced by a read
// of that ordinal as a plain int, and the enclosing ifs/switches that
// dispatch on Enum.ordinal()/equals() over such a value fold accordingly in
// later constant-propagation passes. This pass only performs the field-read
// substitution; sparse-conditional constant propagation (pass 12) does the
// downstream folding.
type ConstantEnumRewritingPass struct{}

func (ConstantEnumRewritingPass) Name() string { return "constant-enum-rewriting" }

func (ConstantEnumRewritingPass) Run(ctx *Context) error {
	for _, b := range ctx.Code.Blocks {
		for i := 0; i < len(b.Instructions); i++ {
			inst := b.Instructions[i]
			if inst.Opcode != ir.OpStaticFieldGet || inst.Field == nil || inst.Output == nil {
				continue
			}
			info := ctx.fieldInfo(inst.Field)
			if info == nil {
				continue
			}
			ordinal, ok := info.AbstractValue.(enumOrdinal)
			if !ok {
				continue
			}
			outType := ir.PrimitiveType(ctx.Pool.InternType("I"))
			replacement := &ir.Instruction{Opcode: ir.OpConstNumber, ConstNumber: int64(ordinal)}
			const_ := ctx.Code.NewInstructionBefore(b, i, replacement, &outType)
			ir.ReplaceAllUsesWith(inst.Output, const_)
			b.RemoveInstruction(inst)
			i--
		}
	}
	return nil
}

// enumOrdinal tags an AbstractValue as "this field always holds the enum
// constant with this ordinal", distinguishing it from a plain numeric
// constant so this pass (and no other) treats it as an int substitution.
type enumOrdinal int
