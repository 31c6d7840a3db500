// Package lower implements bytecode lowering (spec.md §4.8): turning a
// finalized ir.IRCode into a concrete classdef.DexCode — register
// allocation, DEX instruction format selection (e.g. "22b", "31t"),
// jumbo-string selection against internal/index's table, try/handler
// emission, and a debug-info event stream.
package lower

import "github.com/corvid-dex/core/internal/ir"

// RegisterAllocation assigns every SSA value its own DEX register (wide
// values take two consecutive slots), with argument values placed in the
// final contiguous "ins" block per the DEX calling convention. This is a
// one-value-one-register allocator with no coalescing — package optimize's
// RangeInvokeSplittingPass comment notes register allocation is "not
// modeled in this package", leaving it to lowering, so this is that pass.
type RegisterAllocation struct {
	reg     map[*ir.Value]int
	insSize int
	total   int
}

// AllocateRegisters walks every block's phis and instruction outputs in
// order, handing out registers 0..N-1, then appends the method's incoming
// arguments as the trailing "ins" block.
func AllocateRegisters(code *ir.IRCode) *RegisterAllocation {
	ra := &RegisterAllocation{reg: map[*ir.Value]int{}}
	next := 0
	assign := func(v *ir.Value) {
		if v == nil {
			return
		}
		if _, ok := ra.reg[v]; ok {
			return
		}
		ra.reg[v] = next
		if v.Type.IsWide() {
			next += 2
		} else {
			next++
		}
	}
	for _, b := range code.Blocks {
		for _, p := range b.Phis {
			assign(p.Value())
		}
		for _, inst := range b.Instructions {
			assign(inst.Output)
		}
	}
	insStart := next
	for _, arg := range code.Args {
		ra.reg[arg] = next
		if arg.Type.IsWide() {
			next += 2
		} else {
			next++
		}
	}
	ra.insSize = next - insStart
	ra.total = next
	return ra
}

// Register returns v's assigned register. Values not produced by
// AllocateRegisters's own code (e.g. a stray value from another method)
// return 0, which callers must never rely on — only call this with values
// belonging to the IRCode the allocation was built from.
func (ra *RegisterAllocation) Register(v *ir.Value) int { return ra.reg[v] }

// InsSize is the number of trailing registers reserved for incoming
// arguments (classdef.DexCode.InsSize).
func (ra *RegisterAllocation) InsSize() int { return ra.insSize }

// RegisterCount is the method's total register window (classdef.DexCode.RegisterCount).
func (ra *RegisterAllocation) RegisterCount() int { return ra.total }
