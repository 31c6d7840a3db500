package optimize

import (
	"strings"

	"github.com/corvid-dex/core/internal/ir"
	"github.com/corvid-dex/core/internal/item"
)

// ReflectionStringSimplificationPass is pass 5: Class.getName()/getSimpleName()
// invoked directly on a const-class instruction is resolved to the literal
// string at compile time, since the class is statically known and can never
// be renamed further after this wave's lens rewrite already ran (pass 1).
type ReflectionStringSimplificationPass struct{}

func (ReflectionStringSimplificationPass) Name() string { return "reflection-string-simplification" }

func (p ReflectionStringSimplificationPass) Run(ctx *Context) error {
	for _, b := range ctx.Code.Blocks {
		for i := 0; i < len(b.Instructions); i++ {
			inst := b.Instructions[i]
			if inst.Opcode != ir.OpInvokeVirtual || inst.Method == nil || len(inst.Inputs) == 0 {
				continue
			}
			if inst.Output == nil {
				continue
			}
			name := inst.Method.Name.String()
			if name != "getName" && name != "getSimpleName" {
				continue
			}
			receiver := inst.Inputs[0].Def()
			if receiver == nil || receiver.Opcode != ir.OpConstClass || receiver.Type == nil {
				continue
			}
			literal := classLiteralString(receiver.Type, name == "getSimpleName")
			strRef := ctx.Pool.InternString(literal)
			replacement := &ir.Instruction{Opcode: ir.OpConstString, ConstString: strRef}
			outType := inst.Output.Type
			const_ := ctx.Code.NewInstructionBefore(b, i, replacement, &outType)
			ir.ReplaceAllUsesWith(inst.Output, const_)
			b.RemoveInstruction(inst)
			i--
		}
	}
	return nil
}

// classLiteralString renders t the way java.lang.Class.getName/getSimpleName
// would at runtime: dot-separated package qualification for getName, bare
// class name for getSimpleName. Arrays and primitives fall back to their raw
// descriptor ("I", "[Ljava/lang/String;"), which is not what Class.getName
// returns for primitives ("int") or for object arrays (dot-separated).
func classLiteralString(t *item.DexType, simple bool) string {
	if simple {
		return t.SimpleName()
	}
	if !t.IsClass() {
		return t.Descriptor()
	}
	inner := strings.TrimSuffix(strings.TrimPrefix(t.Descriptor(), "L"), ";")
	return strings.ReplaceAll(inner, "/", ".")
}
