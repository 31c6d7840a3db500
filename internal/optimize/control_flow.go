package optimize

import "github.com/corvid-dex/core/internal/ir"

// ControlFlowSimplificationPass is pass 14: two structural cleanups applied
// to a fixed point — an OpIf whose condition input is a known constant is
// replaced by an unconditional OpGoto to the statically-determined target,
// and a block with exactly one successor that itself has exactly one
// predecessor is merged into it, removing the now-redundant edge. Both
// rewrites can cascade (folding a branch can make its target block mergeable,
// merging can expose a now-foldable branch further down), hence the
// fixed-point loop rather than one pass over the block list.
type ControlFlowSimplificationPass struct{}

func (ControlFlowSimplificationPass) Name() string { return "control-flow-simplification" }

func (ControlFlowSimplificationPass) Run(ctx *Context) error {
	changed := true
	for changed {
		changed = false
		if foldConstantBranches(ctx.Code) {
			changed = true
		}
		if mergeStraightLineBlocks(ctx.Code) {
			changed = true
		}
	}
	return nil
}

func foldConstantBranches(code *ir.IRCode) bool {
	changed := false
	for _, b := range code.Blocks {
		if len(b.Instructions) == 0 {
			continue
		}
		term := b.Instructions[len(b.Instructions)-1]
		if term.Opcode != ir.OpIf || len(term.Inputs) == 0 {
			continue
		}
		cond := term.Inputs[0].Def()
		if cond == nil || cond.Opcode != ir.OpConstNumber {
			continue
		}
		taken, dropped := term.IfTarget, term.FallthroughTarget
		if cond.ConstNumber == 0 {
			taken, dropped = dropped, taken
		}
		term.Opcode = ir.OpGoto
		term.GotoTarget = taken
		term.IfTarget, term.FallthroughTarget = nil, nil
		removeEdge(b, dropped)
		changed = true
	}
	return changed
}

func removeEdge(b, succ *ir.BasicBlock) {
	out := b.Successors[:0]
	for _, s := range b.Successors {
		if s != succ {
			out = append(out, s)
		}
	}
	b.Successors = out
	in := succ.Predecessors[:0]
	for _, p := range succ.Predecessors {
		if p != b {
			in = append(in, p)
		}
	}
	succ.Predecessors = in
}

func mergeStraightLineBlocks(code *ir.IRCode) bool {
	changed := false
	for _, b := range append([]*ir.BasicBlock(nil), code.Blocks...) {
		if len(b.Successors) != 1 {
			continue
		}
		succ := b.Successors[0]
		if succ == b || len(succ.Predecessors) != 1 || len(succ.Phis) != 0 {
			continue
		}
		if len(b.Instructions) == 0 {
			continue
		}
		term := b.Instructions[len(b.Instructions)-1]
		if term.Opcode != ir.OpGoto {
			continue
		}
		b.RemoveInstruction(term)
		b.AbsorbInstructionsFrom(succ)
		b.Successors = succ.Successors
		for _, s := range succ.Successors {
			for i, p := range s.Predecessors {
				if p == succ {
					s.Predecessors[i] = b
				}
			}
		}
		code.RemoveBlock(succ)
		changed = true
	}
	return changed
}
