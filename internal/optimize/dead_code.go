package optimize

import "github.com/corvid-dex/core/internal/ir"

// DeadCodeRemovalPass is pass 17: classic mark-and-sweep dead-instruction
// elimination, grounded on the teacher's eliminateDeadFunctions worklist
// shape (dce.go) but reseeded every fixed-point round instead of running
// once, since removing one dead instruction can make an instruction that
// fed only it dead in turn. An instruction with side effects (per
// HasSideEffects) is always kept; everything else is kept only while some
// remaining instruction still reads its output.
type DeadCodeRemovalPass struct{}

func (DeadCodeRemovalPass) Name() string { return "dead-code-removal" }

func (DeadCodeRemovalPass) Run(ctx *Context) error {
	changed := true
	for changed {
		changed = false
		for _, b := range ctx.Code.Blocks {
			for i := 0; i < len(b.Instructions); i++ {
				inst := b.Instructions[i]
				if inst.HasSideEffects() || inst.IsTerminator() {
					continue
				}
				if inst.Output != nil && inst.Output.HasUsers() {
					continue
				}
				b.RemoveInstruction(inst)
				i--
				changed = true
			}
		}
		changed = changed || removeDeadPhis(ctx.Code)
	}
	return nil
}

// removeDeadPhis drops a phi with no remaining value users, also clearing
// it from its operands' user accounting indirectly (phi operands aren't
// tracked via Instruction user lists, only via p.Operands() membership, so
// dropping the phi from Phis is sufficient — spec.md §3 invariant checked
// by ir.Verify covers only Instruction operands, not phi liveness).
func removeDeadPhis(code *ir.IRCode) bool {
	changed := false
	for _, b := range code.Blocks {
		kept := b.Phis[:0]
		for _, p := range b.Phis {
			if p.Value().HasUsers() {
				kept = append(kept, p)
			} else {
				changed = true
			}
		}
		b.Phis = kept
	}
	return changed
}
