package ir

import "github.com/corvid-dex/core/internal/item"

// MethodContext carries the per-method processing state threaded through
// the pipeline: a unique-name generator for synthesized locals/classes
// (spec.md §4.5 "per-method processing context supplying unique-name
// generation") and the method identity being compiled.
type MethodContext struct {
	Method *item.DexMethod
	seq    int
}

// NextSyntheticName returns a deterministic, monotonically increasing name
// for this method's processing — deterministic so that re-running the
// pipeline on its own output reproduces identical names (spec.md §8
// round-trip property).
func (c *MethodContext) NextSyntheticName(prefix string) string {
	c.seq++
	return prefix + "$" + itoa(c.seq)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

// IRCode is the per-method SSA program graph: entry block, ordered block
// list, value-number generator, and method context (spec.md §3).
type IRCode struct {
	Entry   *BasicBlock
	Blocks  []*BasicBlock
	Context *MethodContext
	Args    []*Value

	nextBlockID   BlockID
	nextValueNum  int
}

// NewIRCode creates an empty IRCode ready for a builder to populate.
func NewIRCode(ctx *MethodContext) *IRCode {
	return &IRCode{Context: ctx}
}

// NewBlock allocates and registers a fresh BasicBlock.
func (c *IRCode) NewBlock() *BasicBlock {
	b := &BasicBlock{ID: c.nextBlockID, code: c}
	c.nextBlockID++
	c.Blocks = append(c.Blocks, b)
	return b
}

// NewValueNumber hands out the next SSA value number.
func (c *IRCode) NewValueNumber() int {
	n := c.nextValueNum
	c.nextValueNum++
	return n
}

// NewArgument creates and registers an argument value (Def is nil,
// IsArgument is true per spec.md §3).
func (c *IRCode) NewArgument(t TypeElement) *Value {
	v := &Value{Number: c.NewValueNumber(), Type: t, isArgument: true}
	c.Args = append(c.Args, v)
	return v
}

// NewInstruction allocates a fresh value number for inst's Output (if
// outputType is non-nil) and appends inst to block.
func (c *IRCode) NewInstruction(block *BasicBlock, inst *Instruction, outputType *TypeElement) *Value {
	if outputType != nil {
		v := &Value{Number: c.NewValueNumber(), Type: *outputType, def: inst}
		inst.Output = v
	}
	block.AppendInstruction(inst)
	return inst.Output
}

// NewInstructionBefore allocates a fresh output value for inst (like
// NewInstruction) and splices inst into block immediately before the
// instruction currently at pos, instead of appending at the end — used by
// passes that insert a narrowing or bookkeeping instruction right after an
// existing one without disturbing the block's terminator.
func (c *IRCode) NewInstructionBefore(block *BasicBlock, pos int, inst *Instruction, outputType *TypeElement) *Value {
	if outputType != nil {
		v := &Value{Number: c.NewValueNumber(), Type: *outputType, def: inst}
		inst.Output = v
	}
	block.InsertInstructionBefore(pos, inst)
	return inst.Output
}

// AddEdge links pred -> succ, appending to both sides' neighbor lists
// (spec.md §3 invariant: "block predecessor/successor links are
// bidirectionally consistent").
func AddEdge(pred, succ *BasicBlock) {
	pred.Successors = append(pred.Successors, succ)
	succ.Predecessors = append(succ.Predecessors, pred)
}

// ReplaceAllUsesWith rewrites every instruction operand and phi operand
// across the whole method that currently reads from, to instead read repl.
func (c *IRCode) ReplaceAllUsesWith(from, repl *Value) {
	ReplaceAllUsesWith(from, repl)
	for _, b := range c.Blocks {
		for _, p := range b.Phis {
			for i, op := range p.operands {
				if op == from {
					p.operands[i] = repl
				}
			}
		}
	}
}

// RemoveBlock deletes b from the code and unlinks it from its neighbors'
// predecessor/successor lists. Callers are responsible for first removing
// any phi operands on successors that referenced values defined in b.
func (c *IRCode) RemoveBlock(b *BasicBlock) {
	for _, p := range b.Predecessors {
		p.Successors = removeBlock(p.Successors, b)
	}
	for _, s := range b.Successors {
		s.Predecessors = removeBlock(s.Predecessors, b)
	}
	for i, cur := range c.Blocks {
		if cur == b {
			c.Blocks = append(c.Blocks[:i], c.Blocks[i+1:]...)
			break
		}
	}
}

func removeBlock(list []*BasicBlock, b *BasicBlock) []*BasicBlock {
	out := list[:0]
	for _, x := range list {
		if x != b {
			out = append(out, x)
		}
	}
	return out
}
