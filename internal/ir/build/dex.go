package build

import (
	"sort"

	"github.com/corvid-dex/core/internal/classdef"
	"github.com/corvid-dex/core/internal/ir"
	"github.com/corvid-dex/core/internal/item"
)

// resultSlot is the reserved pseudo-register the DEX frontend uses to carry
// an invoke's result to the following move-result instruction, mirroring
// the DEX bytecode's own two-instruction invoke+move-result idiom; the
// builder resolves the move-result against this slot itself, so the
// invoke's output is the one SSA value for the result.
const resultSlot = -1

// FromDex builds an SSA IRCode from an already-decoded DexCode (spec.md
// §4.2). code's instructions must already carry resolved item references
// (DexInstruction.*Ref fields); see classdef.DexInstruction's doc comment.
func FromDex(pool *item.Pool, resolver ir.ClassHierarchyResolver, method *item.DexMethod, code *classdef.DexCode, paramTypes []*item.DexType, isStatic bool) (*ir.IRCode, error) {
	if len(code.Instructions) == 0 {
		return nil, &MalformedInputCode{Reason: "method body has no instructions"}
	}

	leaders := findLeaders(code)
	blocks, offsetToBlock, blockOf := partitionBlocks(code, leaders)
	irc := ir.NewIRCode(&ir.MethodContext{Method: method})
	irBlocks := make([]*ir.BasicBlock, len(blocks))
	for i := range blocks {
		irBlocks[i] = irc.NewBlock()
	}
	irc.Entry = irBlocks[0]

	wireEdges(code, blocks, blockOf, irBlocks, offsetToBlock)
	wireCatchHandlers(code, blocks, irBlocks)

	vars := newSSAVars(irc)
	firstArgReg := code.RegisterCount - code.InsSize
	if firstArgReg < 0 {
		return nil, &MalformedInputCode{Reason: "InsSize exceeds RegisterCount"}
	}
	argReg := firstArgReg
	if !isStatic {
		argReg++ // register 0 slot reserved for `this`, handled by caller via paramTypes[0] convention
	}
	for i, pt := range paramTypes {
		_ = i
		v := irc.NewArgument(typeElementOf(pt))
		vars.writeVariable(irc.Entry, firstArgReg, v)
		firstArgReg += pt.RegisterWidth()
	}
	_ = argReg

	db := &dexBuilder{
		pool:          pool,
		resolver:      resolver,
		irc:           irc,
		vars:          vars,
		irBlocks:      irBlocks,
		blockOf:       blockOf,
		offsetToBlock: offsetToBlock,
	}
	for bi, blk := range blocks {
		if err := db.buildBlock(code, blk, irBlocks[bi], bi); err != nil {
			return nil, err
		}
	}

	if err := ir.Verify(irc); err != nil {
		return nil, err
	}
	return irc, nil
}

// blockRange is a half-open [Start, End) range of instruction indices.
type blockRange struct {
	Start, End int
}

func findLeaders(code *classdef.DexCode) []int {
	leaderSet := map[int]bool{0: true}
	for i, inst := range code.Instructions {
		if inst.BranchOffset != 0 || inst.Format == "31t" || inst.Format == "22t" || inst.Format == "21t" || inst.Format == "10t" {
			leaderSet[int(inst.BranchOffset)] = true
		}
		for _, t := range inst.SwitchTargets {
			leaderSet[t] = true
		}
		if isTerminatorOpcode(inst.Opcode) && i+1 < len(code.Instructions) {
			leaderSet[i+1] = true
		}
	}
	for _, try := range code.Tries {
		leaderSet[int(try.StartAddr)] = true
		leaderSet[int(try.StartAddr)+int(try.InsnCount)] = true
	}
	for _, h := range code.Handlers {
		for _, p := range h.Pairs {
			leaderSet[int(p.HandlerAddr)] = true
		}
		if h.CatchAllAddr >= 0 {
			leaderSet[int(h.CatchAllAddr)] = true
		}
	}
	leaders := make([]int, 0, len(leaderSet))
	for l := range leaderSet {
		if l >= 0 && l < len(code.Instructions) {
			leaders = append(leaders, l)
		}
	}
	sort.Ints(leaders)
	return leaders
}

func isTerminatorOpcode(op byte) bool {
	switch op {
	case classdef.OpGoto, classdef.OpGoto16, classdef.OpGoto32,
		classdef.OpPackedSwitch, classdef.OpSparseSwitch,
		classdef.OpReturn, classdef.OpReturnWide, classdef.OpReturnObject, classdef.OpReturnVoid,
		classdef.OpThrow:
		return true
	}
	return classdef.IsConditionalBranch(op)
}

func partitionBlocks(code *classdef.DexCode, leaders []int) ([]blockRange, map[int]int, func(int) int) {
	blocks := make([]blockRange, len(leaders))
	offsetToBlock := make(map[int]int, len(leaders))
	for i, l := range leaders {
		end := len(code.Instructions)
		if i+1 < len(leaders) {
			end = leaders[i+1]
		}
		blocks[i] = blockRange{Start: l, End: end}
		offsetToBlock[l] = i
	}
	blockOf := func(instrIdx int) int {
		lo, hi := 0, len(blocks)-1
		for lo <= hi {
			mid := (lo + hi) / 2
			if instrIdx < blocks[mid].Start {
				hi = mid - 1
			} else if instrIdx >= blocks[mid].End {
				lo = mid + 1
			} else {
				return mid
			}
		}
		return -1
	}
	return blocks, offsetToBlock, blockOf
}

func wireEdges(code *classdef.DexCode, blocks []blockRange, blockOf func(int) int, irBlocks []*ir.BasicBlock, offsetToBlock map[int]int) {
	for bi, blk := range blocks {
		last := code.Instructions[blk.End-1]
		switch {
		case classdef.IsConditionalBranch(last.Opcode):
			ir.AddEdge(irBlocks[bi], irBlocks[offsetToBlock[int(last.BranchOffset)]])
			if blk.End < len(code.Instructions) {
				ir.AddEdge(irBlocks[bi], irBlocks[blockOf(blk.End)])
			}
		case last.Opcode == classdef.OpGoto || last.Opcode == classdef.OpGoto16 || last.Opcode == classdef.OpGoto32:
			ir.AddEdge(irBlocks[bi], irBlocks[offsetToBlock[int(last.BranchOffset)]])
		case last.Opcode == classdef.OpPackedSwitch || last.Opcode == classdef.OpSparseSwitch:
			for _, t := range last.SwitchTargets {
				ir.AddEdge(irBlocks[bi], irBlocks[offsetToBlock[t]])
			}
			if blk.End < len(code.Instructions) {
				ir.AddEdge(irBlocks[bi], irBlocks[blockOf(blk.End)])
			}
		case classdef.IsReturn(last.Opcode) || last.Opcode == classdef.OpThrow:
			// terminal, no fallthrough
		default:
			if blk.End < len(code.Instructions) {
				ir.AddEdge(irBlocks[bi], irBlocks[blockOf(blk.End)])
			}
		}
	}
}

func wireCatchHandlers(code *classdef.DexCode, blocks []blockRange, irBlocks []*ir.BasicBlock) {
	for _, try := range code.Tries {
		if int(try.HandlerIdx) >= len(code.Handlers) || try.HandlerIdx < 0 {
			continue
		}
		handler := code.Handlers[try.HandlerIdx]
		var entries []ir.CatchHandler
		for _, p := range handler.Pairs {
			entries = append(entries, ir.CatchHandler{ExceptionType: p.ExceptionType, Handler: findBlockByAddr(blocks, irBlocks, int(p.HandlerAddr))})
		}
		if handler.CatchAllAddr >= 0 {
			entries = append(entries, ir.CatchHandler{ExceptionType: nil, Handler: findBlockByAddr(blocks, irBlocks, int(handler.CatchAllAddr))})
		}
		for bi, blk := range blocks {
			if blk.Start >= int(try.StartAddr) && blk.Start < int(try.StartAddr)+int(try.InsnCount) {
				irBlocks[bi].CatchHandlers = append(irBlocks[bi].CatchHandlers, entries...)
				for _, e := range entries {
					ir.AddEdge(irBlocks[bi], e.Handler)
				}
			}
		}
	}
}

func findBlockByAddr(blocks []blockRange, irBlocks []*ir.BasicBlock, addr int) *ir.BasicBlock {
	for i, b := range blocks {
		if b.Start == addr {
			return irBlocks[i]
		}
	}
	return nil
}

// typeElementOf converts a pool-interned type to the TypeElement lattice
// element a fresh SSA value of that type should carry. References start
// nullable — devirtualization and assume-insertion (pass 2, pass 6) are
// what narrow this later, not the builder.
func typeElementOf(t *item.DexType) ir.TypeElement {
	if t == nil {
		return ir.NullType()
	}
	if t.IsPrimitive() {
		return ir.PrimitiveType(t)
	}
	return ir.ReferenceType(t, true)
}
