package optimize

import "github.com/corvid-dex/core/internal/ir"

// ClassInliningPass is pass 21: a new-instance whose value never escapes
// the current method (never passed as a call argument, never returned,
// never stored to a field or array, never used by anything but its own
// constructor invoke and a fixed set of instance-field get/put instructions
// on itself) has its fields folded into ordinary SSA values instead of heap
// storage: each field-get becomes a read of the value last written to that
// field, and the allocation plus its field-put instructions are deleted once
// no reads remain unresolved (a field-get that comes before any write to its
// field leaves the instance as it is). This is a conservative single-method escape analysis,
// not the interprocedural kind a production optimizer would run.
type ClassInliningPass struct{}

func (ClassInliningPass) Name() string { return "class-inlining" }

func (ClassInliningPass) Run(ctx *Context) error {
	for _, b := range ctx.Code.Blocks {
		for _, inst := range b.Instructions {
			if inst.Opcode != ir.OpNewInstance || inst.Output == nil {
				continue
			}
			if !escapesNowhere(inst.Output) {
				continue
			}
			inlineInstance(ctx.Code, b, inst)
		}
	}
	return nil
}

// escapesNowhere reports whether every use of v is either the constructor
// invoke on v itself, or an instance field-get/field-put with v as receiver.
func escapesNowhere(v *ir.Value) bool {
	for _, u := range v.Users() {
		switch u.Opcode {
		case ir.OpInvokeDirect:
			if len(u.Inputs) == 0 || u.Inputs[0] != v {
				return false
			}
		case ir.OpInstanceFieldGet, ir.OpInstanceFieldPut:
			if len(u.Inputs) == 0 || u.Inputs[0] != v {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// inlineInstance rewrites every field-get on v to the most recent field-put
// value in program order within the allocating block, then removes the
// allocation, its constructor call, and every field-put/get on it. Field
// writes that occur in a different block than the allocation are left alone
// (the conservative escape check above still allows them through a
// constructor call, but cross-block field tracking is out of scope for this
// single-block version of the analysis), so this pass only actually inlines
// instances whose field traffic is confined to one block.
func inlineInstance(code *ir.IRCode, block *ir.BasicBlock, alloc *ir.Instruction) {
	for _, u := range alloc.Output.Users() {
		if u.Block() != block {
			return
		}
	}
	current := map[fieldKey]*ir.Value{}
	var toRemove []*ir.Instruction
	resolved := true
	for _, inst := range block.Instructions {
		if len(inst.Inputs) == 0 || inst.Inputs[0] != alloc.Output {
			continue
		}
		switch inst.Opcode {
		case ir.OpInstanceFieldPut:
			if len(inst.Inputs) < 2 {
				resolved = false
				continue
			}
			current[fieldKey{inst.Field, alloc.Output}] = inst.Inputs[1]
			toRemove = append(toRemove, inst)
		case ir.OpInstanceFieldGet:
			v, ok := current[fieldKey{inst.Field, alloc.Output}]
			if !ok {
				resolved = false
				continue
			}
			if inst.Output != nil {
				ir.ReplaceAllUsesWith(inst.Output, v)
			}
			toRemove = append(toRemove, inst)
		case ir.OpInvokeDirect:
			toRemove = append(toRemove, inst)
		}
	}
	if !resolved {
		return
	}
	for _, inst := range toRemove {
		block.RemoveInstruction(inst)
	}
	if !alloc.Output.HasUsers() {
		block.RemoveInstruction(alloc)
	}
}
