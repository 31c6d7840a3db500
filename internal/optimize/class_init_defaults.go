package optimize

import "github.com/corvid-dex/core/internal/ir"

// ClassInitializerDefaultsPass is pass 16: a static field put inside
// <clinit> whose value is the same compile-time constant the field's
// encoded default initializer already assigns is redundant (the class
// loader applies the encoded static value before <clinit> runs) and is
// removed, matching the marker MethodOptimizationInfo.ClassInitializerMerge
// sets for methods worth scanning this way.
type ClassInitializerDefaultsPass struct{}

func (ClassInitializerDefaultsPass) Name() string { return "class-initializer-defaults" }

func (ClassInitializerDefaultsPass) Run(ctx *Context) error {
	if ctx.Owner == nil || ctx.Method.Ref.Name.String() != "<clinit>" {
		return nil
	}
	for _, b := range ctx.Code.Blocks {
		for i := 0; i < len(b.Instructions); i++ {
			inst := b.Instructions[i]
			if inst.Opcode != ir.OpStaticFieldPut || inst.Field == nil || len(inst.Inputs) == 0 {
				continue
			}
			ef := ctx.Owner.LookupField(inst.Field)
			if ef == nil || ef.StaticValue == nil {
				continue
			}
			valueDef := inst.Inputs[0].Def()
			if valueDef == nil || valueDef.Opcode != ir.OpConstNumber {
				continue
			}
			encoded, ok := ef.StaticValue.(int64)
			if !ok || encoded != valueDef.ConstNumber {
				continue
			}
			b.RemoveInstruction(inst)
			i--
		}
	}
	return nil
}
