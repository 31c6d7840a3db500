package optimize

import "github.com/corvid-dex/core/internal/ir"

// AssumeInsertionPass is pass 2: a handful of instructions produce a value
// the verifier can prove non-null on every path (a freshly allocated object,
// a freshly allocated array, an interned string, a loaded class literal).
// Splitting that knowledge into an explicit OpAssumeNonNull lets every later
// pass read Type.Nullable off the assume's output instead of re-deriving it,
// and lowering drops the assume again if nothing downstream used the
// narrowed type.
type AssumeInsertionPass struct{}

func (AssumeInsertionPass) Name() string { return "assume-insertion" }

func (AssumeInsertionPass) Run(ctx *Context) error {
	for _, b := range ctx.Code.Blocks {
		for i := 0; i < len(b.Instructions); i++ {
			inst := b.Instructions[i]
			if !producesNonNull(inst) || inst.Output == nil || !inst.Output.Type.Nullable {
				continue
			}
			original := inst.Output
			narrowedType := original.Type
			narrowedType.Nullable = false
			assume := &ir.Instruction{Opcode: ir.OpAssumeNonNull, Inputs: []*ir.Value{original}}
			narrowed := ctx.Code.NewInstructionBefore(b, i+1, assume, &narrowedType)
			ir.ReplaceUsesExcept(original, narrowed, assume)
			i++ // skip over the assume we just inserted
		}
	}
	return nil
}

// producesNonNull reports whether inst's result is statically non-null
// regardless of what Type.Nullable currently says (the builder conservatively
// marks every reference-producing instruction nullable; this pass is what
// narrows the handful that provably aren't).
func producesNonNull(inst *ir.Instruction) bool {
	switch inst.Opcode {
	case ir.OpNewInstance, ir.OpNewArray, ir.OpConstString, ir.OpConstClass:
		return true
	default:
		return false
	}
}
