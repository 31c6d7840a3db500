package build

import (
	"github.com/corvid-dex/core/internal/classdef"
	"github.com/corvid-dex/core/internal/ir"
	"github.com/corvid-dex/core/internal/item"
)

// Class-file opcodes this frontend understands. CfInstruction keeps the
// opcode+operand pair opaque (classdef.CfCode's doc comment); this frontend
// is the one place that gives those bytes meaning, mirroring the curated
// subset classdef/opcodes.go defines for the DEX side.
const (
	cfNop            = 0x00
	cfIConst         = 0x03 // operand: literal value
	cfLoad           = 0x15 // operand: local slot
	cfStore          = 0x36 // operand: local slot
	cfPop            = 0x57
	cfGetField       = 0xb4 // operand: FieldRefs index into CfCode-external table; here carried directly
	cfPutField       = 0xb5
	cfGetStatic      = 0xb2
	cfPutStatic      = 0xb3
	cfInvokeVirtual  = 0xb6
	cfInvokeSpecial  = 0xb7
	cfInvokeStatic   = 0xb8
	cfInvokeInterface = 0xb9
	cfNew            = 0xbb
	cfCheckCast      = 0xc0
	cfInstanceOf     = 0xc1
	cfIfEq           = 0x99 // operand: target instruction index
	cfGoto           = 0xa7 // operand: target instruction index
	cfAthrow         = 0xbf
	cfReturn         = 0xb1
	cfIReturn        = 0xac
	cfAReturn        = 0xb0
)

// stackSlot maps an operand-stack position at a given instruction to an
// ssaVars variable id, disjoint from local-variable slots (spec.md §4.2:
// "tracks stack height at each instruction" to convert push/pop sequences
// to SSA values).
func stackSlot(depth int) int { return -1000 - depth }

// FromCf builds an SSA IRCode from a class-file CfCode by abstractly
// interpreting the operand stack (spec.md §4.2). This is the secondary,
// lower-fidelity frontend: real constant-pool/field/method resolution is the
// (out-of-scope) class-file reader's job, and this frontend attaches no item
// references of its own: field, invoke, new and check-cast instructions are
// built without a Field/Method/Type reference.
func FromCf(pool *item.Pool, resolver ir.ClassHierarchyResolver, method *item.DexMethod, code *classdef.CfCode, paramTypes []*item.DexType, isStatic bool) (*ir.IRCode, error) {
	if len(code.Instr) == 0 {
		return nil, &MalformedInputCode{Reason: "method body has no instructions"}
	}

	leaders := cfFindLeaders(code)
	blocks, offsetToBlock, blockOf := cfPartitionBlocks(code, leaders)
	irc := ir.NewIRCode(&ir.MethodContext{Method: method})
	irBlocks := make([]*ir.BasicBlock, len(blocks))
	for i := range blocks {
		irBlocks[i] = irc.NewBlock()
	}
	irc.Entry = irBlocks[0]

	cfWireEdges(code, blocks, blockOf, irBlocks, offsetToBlock)
	cfWireCatchHandlers(code, blocks, irBlocks)

	vars := newSSAVars(irc)
	// For an instance method the caller passes the receiver as paramTypes[0],
	// so `this` lands in local 0 like every other argument lands in its slot.
	slot := 0
	for _, pt := range paramTypes {
		v := irc.NewArgument(typeElementOf(pt))
		vars.writeVariable(irc.Entry, slot, v)
		slot += pt.RegisterWidth()
	}

	cb := &cfBuilder{
		pool:          pool,
		resolver:      resolver,
		irc:           irc,
		vars:          vars,
		irBlocks:      irBlocks,
		blockOf:       blockOf,
		offsetToBlock: offsetToBlock,
	}
	for bi, blk := range blocks {
		if err := cb.buildBlock(code, blk, irBlocks[bi], bi); err != nil {
			return nil, err
		}
	}

	if err := ir.Verify(irc); err != nil {
		return nil, err
	}
	return irc, nil
}

func cfFindLeaders(code *classdef.CfCode) []int {
	leaderSet := map[int]bool{0: true}
	for i, inst := range code.Instr {
		switch inst.Opcode {
		case cfGoto, cfIfEq:
			leaderSet[int(inst.Operands[0])] = true
			if i+1 < len(code.Instr) {
				leaderSet[i+1] = true
			}
		case cfAthrow, cfReturn, cfIReturn, cfAReturn:
			if i+1 < len(code.Instr) {
				leaderSet[i+1] = true
			}
		}
	}
	for _, tc := range code.TryCatches {
		leaderSet[tc.StartPC] = true
		leaderSet[tc.EndPC] = true
		leaderSet[tc.HandlerPC] = true
	}
	leaders := make([]int, 0, len(leaderSet))
	for l := range leaderSet {
		if l >= 0 && l < len(code.Instr) {
			leaders = append(leaders, l)
		}
	}
	sortInts(leaders)
	return leaders
}

func sortInts(xs []int) {
	for i := 1; i < len(xs); i++ {
		for j := i; j > 0 && xs[j-1] > xs[j]; j-- {
			xs[j-1], xs[j] = xs[j], xs[j-1]
		}
	}
}

func cfPartitionBlocks(code *classdef.CfCode, leaders []int) ([]blockRange, map[int]int, func(int) int) {
	blocks := make([]blockRange, len(leaders))
	offsetToBlock := make(map[int]int, len(leaders))
	for i, l := range leaders {
		end := len(code.Instr)
		if i+1 < len(leaders) {
			end = leaders[i+1]
		}
		blocks[i] = blockRange{Start: l, End: end}
		offsetToBlock[l] = i
	}
	blockOf := func(instrIdx int) int {
		for i, b := range blocks {
			if instrIdx >= b.Start && instrIdx < b.End {
				return i
			}
		}
		return -1
	}
	return blocks, offsetToBlock, blockOf
}

func cfWireEdges(code *classdef.CfCode, blocks []blockRange, blockOf func(int) int, irBlocks []*ir.BasicBlock, offsetToBlock map[int]int) {
	for bi, blk := range blocks {
		last := code.Instr[blk.End-1]
		switch last.Opcode {
		case cfIfEq:
			ir.AddEdge(irBlocks[bi], irBlocks[offsetToBlock[int(last.Operands[0])]])
			if blk.End < len(code.Instr) {
				ir.AddEdge(irBlocks[bi], irBlocks[blockOf(blk.End)])
			}
		case cfGoto:
			ir.AddEdge(irBlocks[bi], irBlocks[offsetToBlock[int(last.Operands[0])]])
		case cfAthrow, cfReturn, cfIReturn, cfAReturn:
			// terminal
		default:
			if blk.End < len(code.Instr) {
				ir.AddEdge(irBlocks[bi], irBlocks[blockOf(blk.End)])
			}
		}
	}
}

func cfWireCatchHandlers(code *classdef.CfCode, blocks []blockRange, irBlocks []*ir.BasicBlock) {
	for _, tc := range code.TryCatches {
		handler := findBlockByAddr(blocks, irBlocks, tc.HandlerPC)
		if handler == nil {
			continue
		}
		entry := ir.CatchHandler{ExceptionType: tc.CatchType, Handler: handler}
		for bi, blk := range blocks {
			if blk.Start >= tc.StartPC && blk.Start < tc.EndPC {
				irBlocks[bi].CatchHandlers = append(irBlocks[bi].CatchHandlers, entry)
				ir.AddEdge(irBlocks[bi], handler)
			}
		}
	}
}

type cfBuilder struct {
	pool          *item.Pool
	resolver      ir.ClassHierarchyResolver
	irc           *ir.IRCode
	vars          *ssaVars
	irBlocks      []*ir.BasicBlock
	blockOf       func(int) int
	offsetToBlock map[int]int
}

func (cb *cfBuilder) intType() ir.TypeElement {
	return ir.PrimitiveType(cb.pool.InternType("I"))
}

// buildBlock interprets blk's instructions against an operand stack
// represented as ssaVars slots (spec.md §4.2). depth tracks the number of
// live stack values entering each instruction.
func (cb *cfBuilder) buildBlock(code *classdef.CfCode, blk blockRange, b *ir.BasicBlock, bi int) error {
	depth := 0
	push := func(v *ir.Value) {
		cb.vars.writeVariable(b, stackSlot(depth), v)
		depth++
	}
	pop := func() *ir.Value {
		depth--
		return cb.vars.readVariable(b, stackSlot(depth))
	}

	for idx := blk.Start; idx < blk.End; idx++ {
		inst := &code.Instr[idx]
		switch inst.Opcode {
		case cfNop:
		case cfIConst:
			ci := &ir.Instruction{Opcode: ir.OpConstNumber, ConstNumber: int64(inst.Operands[0])}
			t := cb.intType()
			push(cb.irc.NewInstruction(b, ci, &t))
		case cfLoad:
			push(cb.vars.readVariable(b, int(inst.Operands[0])))
		case cfStore:
			cb.vars.writeVariable(b, int(inst.Operands[0]), pop())
		case cfPop:
			pop()
		case cfNew:
			ci := &ir.Instruction{Opcode: ir.OpNewInstance}
			t := ir.ReferenceType(nil, false)
			push(cb.irc.NewInstruction(b, ci, &t))
		case cfCheckCast:
			v := pop()
			ci := &ir.Instruction{Opcode: ir.OpCheckCast, Inputs: []*ir.Value{v}}
			t := ir.ReferenceType(nil, v.Type.Nullable)
			push(cb.irc.NewInstruction(b, ci, &t))
		case cfInstanceOf:
			v := pop()
			ci := &ir.Instruction{Opcode: ir.OpInstanceOf, Inputs: []*ir.Value{v}}
			t := cb.intType()
			push(cb.irc.NewInstruction(b, ci, &t))
		case cfGetField:
			obj := pop()
			ci := &ir.Instruction{Opcode: ir.OpInstanceFieldGet, Inputs: []*ir.Value{obj}}
			t := cb.intType()
			push(cb.irc.NewInstruction(b, ci, &t))
		case cfPutField:
			value, obj := pop(), pop()
			cb.irc.NewInstruction(b, &ir.Instruction{Opcode: ir.OpInstanceFieldPut, Inputs: []*ir.Value{obj, value}}, nil)
		case cfGetStatic:
			ci := &ir.Instruction{Opcode: ir.OpStaticFieldGet}
			t := cb.intType()
			push(cb.irc.NewInstruction(b, ci, &t))
		case cfPutStatic:
			value := pop()
			cb.irc.NewInstruction(b, &ir.Instruction{Opcode: ir.OpStaticFieldPut, Inputs: []*ir.Value{value}}, nil)
		case cfInvokeVirtual, cfInvokeSpecial, cfInvokeStatic, cfInvokeInterface:
			argc := int(inst.Operands[0])
			args := make([]*ir.Value, argc)
			for i := argc - 1; i >= 0; i-- {
				args[i] = pop()
			}
			op := cfInvokeIROpcode(inst.Opcode)
			ci := &ir.Instruction{Opcode: op, Inputs: args}
			hasResult := len(inst.Operands) > 1 && inst.Operands[1] != 0
			if hasResult {
				t := cb.intType()
				push(cb.irc.NewInstruction(b, ci, &t))
			} else {
				cb.irc.NewInstruction(b, ci, nil)
			}
		case cfIfEq:
			v := pop()
			ifTarget := cb.irBlocks[cb.offsetToBlock[int(inst.Operands[0])]]
			var fallTarget *ir.BasicBlock
			if fi := cb.blockOf(idx + 1); fi >= 0 {
				fallTarget = cb.irBlocks[fi]
			}
			cb.irc.NewInstruction(b, &ir.Instruction{Opcode: ir.OpIf, Inputs: []*ir.Value{v}, IfTarget: ifTarget, FallthroughTarget: fallTarget}, nil)
		case cfGoto:
			target := cb.irBlocks[cb.offsetToBlock[int(inst.Operands[0])]]
			cb.irc.NewInstruction(b, &ir.Instruction{Opcode: ir.OpGoto, GotoTarget: target}, nil)
		case cfAthrow:
			v := pop()
			cb.irc.NewInstruction(b, &ir.Instruction{Opcode: ir.OpThrow, Inputs: []*ir.Value{v}}, nil)
		case cfReturn:
			cb.irc.NewInstruction(b, &ir.Instruction{Opcode: ir.OpReturnVoid}, nil)
		case cfIReturn, cfAReturn:
			v := pop()
			cb.irc.NewInstruction(b, &ir.Instruction{Opcode: ir.OpReturn, Inputs: []*ir.Value{v}}, nil)
		default:
			return &MalformedInputCode{Reason: "unsupported class-file opcode in input code"}
		}
	}
	return nil
}

func cfInvokeIROpcode(op byte) ir.Opcode {
	switch op {
	case cfInvokeStatic:
		return ir.OpInvokeStatic
	case cfInvokeSpecial:
		return ir.OpInvokeDirect
	case cfInvokeInterface:
		return ir.OpInvokeInterface
	default:
		return ir.OpInvokeVirtual
	}
}
