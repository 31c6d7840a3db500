package ir

import "github.com/corvid-dex/core/internal/item"

// Phi merges values at a control-flow join; operand i corresponds to the
// block's i-th predecessor (spec.md §3 invariant).
type Phi struct {
	value    *Value
	block    *BasicBlock
	operands []*Value
}

func (p *Phi) Value() *Value       { return p.value }
func (p *Phi) Block() *BasicBlock  { return p.block }
func (p *Phi) Operands() []*Value  { return p.operands }

// SetOperand rewrites operand i. Phi operands are not recorded in any
// value's user list, so no user list changes.
func (p *Phi) SetOperand(i int, v *Value) {
	if old := p.operands[i]; old != nil {
		// Phis don't live in an Instruction's Inputs list, so there is no
		// Instruction user to remove here; phi-use tracking is by operand
		// slot membership in p.operands itself, which Verify walks.
		_ = old
	}
	p.operands[i] = v
}

// CatchHandler pairs one exception type (nil means catch-all) with the
// block that handles it.
type CatchHandler struct {
	ExceptionType *item.DexType
	Handler       *BasicBlock
}

// BlockID is a dense arena handle (spec.md §9 redesign note: "cyclic graphs
// ... model as arena allocation plus dense integer handles").
type BlockID int

// BasicBlock holds an ordered instruction list, predecessor/successor
// lists, and an optional catch-handler list (spec.md §3).
type BasicBlock struct {
	ID            BlockID
	Instructions  []*Instruction
	Phis          []*Phi
	Predecessors  []*BasicBlock
	Successors    []*BasicBlock
	CatchHandlers []CatchHandler

	code *IRCode
}

func (b *BasicBlock) Code() *IRCode { return b.code }

// AppendInstruction adds inst at the end of the block, registering it as a
// user of each of its Inputs and wiring the new instruction's block back-
// pointer (spec.md §3 invariant: "every operand appears in its producer's
// user list").
func (b *BasicBlock) AppendInstruction(inst *Instruction) {
	inst.block = b
	for _, in := range inst.Inputs {
		in.addUser(inst)
	}
	b.Instructions = append(b.Instructions, inst)
}

// InsertInstructionBefore inserts inst immediately before the instruction
// at index pos.
func (b *BasicBlock) InsertInstructionBefore(pos int, inst *Instruction) {
	inst.block = b
	for _, in := range inst.Inputs {
		in.addUser(inst)
	}
	b.Instructions = append(b.Instructions, nil)
	copy(b.Instructions[pos+1:], b.Instructions[pos:])
	b.Instructions[pos] = inst
}

// RemoveInstruction deletes inst from the block and unregisters it from
// every operand's user list. Callers must ensure inst's Output (if any) has
// no remaining users first, or dangling references would violate the SSA
// invariant (spec.md §8 "every use appears in its definer's user set").
func (b *BasicBlock) RemoveInstruction(inst *Instruction) {
	for i, cur := range b.Instructions {
		if cur == inst {
			b.Instructions = append(b.Instructions[:i], b.Instructions[i+1:]...)
			break
		}
	}
	for _, in := range inst.Inputs {
		in.removeUser(inst)
	}
}

// ReplaceInstruction swaps oldInst for newInst in place, rewiring operand
// user lists; newInst's Output, if present, inherits none of oldInst's
// users automatically — callers that keep the same output value must pass
// the same *Value in newInst.Output and call ReplaceAllUsesWith separately
// if the defining instruction (not the value) actually changes.
func (b *BasicBlock) ReplaceInstruction(oldInst, newInst *Instruction) {
	newInst.block = b
	for i, cur := range b.Instructions {
		if cur == oldInst {
			b.Instructions[i] = newInst
			break
		}
	}
	for _, in := range oldInst.Inputs {
		in.removeUser(oldInst)
	}
	for _, in := range newInst.Inputs {
		in.addUser(newInst)
	}
}

// AddPhi creates and attaches a new phi to the block with initial operand
// count equal to len(Predecessors) (all nil, to be filled by the builder).
func (b *BasicBlock) AddPhi(number int, t TypeElement) *Phi {
	v := &Value{Number: number, Type: t}
	p := &Phi{value: v, block: b, operands: make([]*Value, len(b.Predecessors))}
	v.phi = p
	b.Phis = append(b.Phis, p)
	return p
}

// AbsorbInstructionsFrom moves succ's instructions onto the end of b
// in place (reassigning their block back-pointer) without touching user
// lists, since the instructions' operands don't change — only which block
// they physically live in. Used by control-flow simplification (pass 14)
// when merging a block into its sole predecessor.
func (b *BasicBlock) AbsorbInstructionsFrom(succ *BasicBlock) {
	for _, inst := range succ.Instructions {
		inst.block = b
	}
	b.Instructions = append(b.Instructions, succ.Instructions...)
	succ.Instructions = nil
}

// ReplaceAllUsesWith rewrites every instruction operand that currently reads
// from, to instead read repl. Phi operands are not rewritten (phis are not in
// from's user list); IRCode.ReplaceAllUsesWith also rewrites those.
func ReplaceAllUsesWith(from, repl *Value) {
	ReplaceUsesExcept(from, repl, nil)
}

// ReplaceUsesExcept is ReplaceAllUsesWith but leaves except's operand(s)
// reading from unchanged — needed when repl's own defining instruction
// still legitimately reads from (e.g. an OpAssumeNonNull narrowing from in
// place), so rewriting every use indiscriminately would make it read its
// own output.
func ReplaceUsesExcept(from, repl *Value, except *Instruction) {
	for _, inst := range append([]*Instruction(nil), from.users...) {
		if inst == except {
			continue
		}
		for i, in := range inst.Inputs {
			if in == from {
				inst.Inputs[i] = repl
				repl.addUser(inst)
			}
		}
		from.removeUser(inst)
	}
}
