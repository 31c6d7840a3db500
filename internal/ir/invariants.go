package ir

import "fmt"

// InvariantError reports a broken SSA invariant (spec.md §7
// InvariantViolation: "fatal assertion; never silently recovered"). Never
// returned as a recoverable error — every caller should treat it as fatal.
type InvariantError struct {
	Msg string
}

func (e *InvariantError) Error() string { return "ir invariant violated: " + e.Msg }

// Verify checks every invariant named in spec.md §3/§4.2/§8:
//   - every non-argument, non-phi value has exactly one definition
//   - every operand appears in its producer's user list
//   - every phi operand list length equals its block's predecessor count
//   - block predecessor/successor links are bidirectionally consistent
//
// Passes call this after every mutation (spec.md §4.3: "input IR with
// invariants → output IR with the same invariants").
func Verify(code *IRCode) error {
	blockSet := map[*BasicBlock]bool{}
	for _, b := range code.Blocks {
		blockSet[b] = true
	}

	for _, b := range code.Blocks {
		if err := verifyEdges(b, blockSet); err != nil {
			return err
		}
		if err := verifyPhis(b); err != nil {
			return err
		}
		if err := verifyInstructions(b); err != nil {
			return err
		}
	}
	return nil
}

func verifyEdges(b *BasicBlock, blockSet map[*BasicBlock]bool) error {
	for _, s := range b.Successors {
		if !blockSet[s] {
			return &InvariantError{Msg: fmt.Sprintf("block %d has successor not in code", b.ID)}
		}
		found := false
		for _, p := range s.Predecessors {
			if p == b {
				found = true
				break
			}
		}
		if !found {
			return &InvariantError{Msg: fmt.Sprintf("block %d -> %d successor link not mirrored by predecessor", b.ID, s.ID)}
		}
	}
	for _, p := range b.Predecessors {
		found := false
		for _, s := range p.Successors {
			if s == b {
				found = true
				break
			}
		}
		if !found {
			return &InvariantError{Msg: fmt.Sprintf("block %d predecessor %d does not list it as successor", b.ID, p.ID)}
		}
	}
	return nil
}

func verifyPhis(b *BasicBlock) error {
	for _, p := range b.Phis {
		if len(p.operands) != len(b.Predecessors) {
			return &InvariantError{Msg: fmt.Sprintf("block %d phi v%d has %d operands, want %d predecessors",
				b.ID, p.value.Number, len(p.operands), len(b.Predecessors))}
		}
		for _, op := range p.operands {
			if op == nil {
				return &InvariantError{Msg: fmt.Sprintf("block %d phi v%d has a nil operand", b.ID, p.value.Number)}
			}
		}
	}
	return nil
}

func verifyInstructions(b *BasicBlock) error {
	for _, inst := range b.Instructions {
		if inst.block != b {
			return &InvariantError{Msg: "instruction block back-pointer mismatch"}
		}
		for _, in := range inst.Inputs {
			if in == nil {
				return &InvariantError{Msg: "instruction has a nil input"}
			}
			if !valueHasUser(in, inst) {
				return &InvariantError{Msg: fmt.Sprintf("value v%d is used by an instruction not in its user list", in.Number)}
			}
		}
		if out := inst.Output; out != nil {
			if out.def != inst {
				return &InvariantError{Msg: fmt.Sprintf("value v%d's Def does not point back to its defining instruction", out.Number)}
			}
		}
	}
	return nil
}

func valueHasUser(v *Value, inst *Instruction) bool {
	for _, u := range v.users {
		if u == inst {
			return true
		}
	}
	return false
}
