package build

import (
	"github.com/corvid-dex/core/internal/classdef"
	"github.com/corvid-dex/core/internal/ir"
	"github.com/corvid-dex/core/internal/item"
)

// dexBuilder carries the state threaded through one method's DEX-to-IR
// conversion: the pool of already-built blocks, the address-to-block index
// needed to resolve branch/switch targets to *ir.BasicBlock, and the SSA
// variable tracker.
type dexBuilder struct {
	pool          *item.Pool
	resolver      ir.ClassHierarchyResolver
	irc           *ir.IRCode
	vars          *ssaVars
	irBlocks      []*ir.BasicBlock
	blockOf       func(int) int
	offsetToBlock map[int]int
}

// intType returns the interned "I" descriptor, the default primitive type
// for opcodes that operate on generically-typed 32-bit values (const,
// arithmetic, instance-of, array-length) without enough local information to
// distinguish int from float; pass 23's constant canonicalization and any
// later type-directed pass refine this where precision is needed.
func (db *dexBuilder) intType() ir.TypeElement {
	return ir.PrimitiveType(db.pool.InternType("I"))
}

func (db *dexBuilder) stringType() ir.TypeElement {
	return ir.ReferenceType(db.pool.InternType("Ljava/lang/String;"), false)
}

func (db *dexBuilder) classType() ir.TypeElement {
	return ir.ReferenceType(db.pool.InternType("Ljava/lang/Class;"), false)
}

// buildBlock decodes every instruction in blk, in order, against b,
// consulting vars to read/write DEX registers as SSA values (spec.md §4.2:
// "abstract interpretation over register states").
func (db *dexBuilder) buildBlock(code *classdef.DexCode, blk blockRange, b *ir.BasicBlock, bi int) error {
	hasPendingResult := false
	for idx := blk.Start; idx < blk.End; idx++ {
		inst := &code.Instructions[idx]
		if err := db.buildInstruction(code, inst, idx, b, hasPendingResult); err != nil {
			return err
		}
		switch {
		case classdef.IsInvoke(inst.Opcode):
			hasPendingResult = true
		case inst.Opcode != classdef.OpMoveResult && inst.Opcode != classdef.OpMoveResultWide && inst.Opcode != classdef.OpMoveResultObj:
			hasPendingResult = false
		}
	}
	return nil
}

func (db *dexBuilder) buildInstruction(code *classdef.DexCode, inst *classdef.DexInstruction, idx int, b *ir.BasicBlock, hasPendingResult bool) error {
	switch {
	case inst.Opcode == classdef.OpConst4 || inst.Opcode == classdef.OpConst16 || inst.Opcode == classdef.OpConst ||
		inst.Opcode == classdef.OpConstWide16 || inst.Opcode == classdef.OpConstWide32 || inst.Opcode == classdef.OpConstWide:
		return db.buildConstNumber(inst, b)

	case inst.Opcode == classdef.OpConstString || inst.Opcode == classdef.OpConstStringJumbo:
		ci := &ir.Instruction{Opcode: ir.OpConstString, ConstString: inst.StringRef}
		t := db.stringType()
		v := db.irc.NewInstruction(b, ci, &t)
		db.vars.writeVariable(b, inst.Registers[0], v)
		return nil

	case inst.Opcode == classdef.OpConstClass:
		ci := &ir.Instruction{Opcode: ir.OpConstClass, Type: inst.TypeRef}
		t := db.classType()
		v := db.irc.NewInstruction(b, ci, &t)
		db.vars.writeVariable(b, inst.Registers[0], v)
		return nil

	case inst.Opcode == classdef.OpMoveResult || inst.Opcode == classdef.OpMoveResultWide || inst.Opcode == classdef.OpMoveResultObj:
		if !hasPendingResult {
			return &MalformedInputCode{Reason: "move-result with no preceding invoke"}
		}
		v := db.vars.readVariable(b, resultSlot)
		db.vars.writeVariable(b, inst.Registers[0], v)
		return nil

	case inst.Opcode == classdef.OpMoveException:
		// move-exception is the definition of the caught value, not a read of
		// a prior one: the incoming exception has no SSA producer until this
		// instruction names it.
		ci := &ir.Instruction{Opcode: ir.OpMoveException}
		t := ir.ReferenceType(db.pool.InternType("Ljava/lang/Throwable;"), false)
		v := db.irc.NewInstruction(b, ci, &t)
		db.vars.writeVariable(b, inst.Registers[0], v)
		return nil

	case inst.Opcode == classdef.OpCheckCast:
		operand := db.vars.readVariable(b, inst.Registers[0])
		ci := &ir.Instruction{Opcode: ir.OpCheckCast, Inputs: []*ir.Value{operand}, Type: inst.TypeRef}
		t := ir.ReferenceType(inst.TypeRef, operand.Type.Nullable)
		v := db.irc.NewInstruction(b, ci, &t)
		db.vars.writeVariable(b, inst.Registers[0], v)
		return nil

	case inst.Opcode == classdef.OpInstanceOf:
		operand := db.vars.readVariable(b, inst.Registers[1])
		ci := &ir.Instruction{Opcode: ir.OpInstanceOf, Inputs: []*ir.Value{operand}, Type: inst.TypeRef}
		t := db.intType()
		v := db.irc.NewInstruction(b, ci, &t)
		db.vars.writeVariable(b, inst.Registers[0], v)
		return nil

	case inst.Opcode == classdef.OpArrayLength:
		operand := db.vars.readVariable(b, inst.Registers[1])
		ci := &ir.Instruction{Opcode: ir.OpArrayLength, Inputs: []*ir.Value{operand}}
		t := db.intType()
		v := db.irc.NewInstruction(b, ci, &t)
		db.vars.writeVariable(b, inst.Registers[0], v)
		return nil

	case inst.Opcode == classdef.OpNewInstance:
		ci := &ir.Instruction{Opcode: ir.OpNewInstance, Type: inst.TypeRef}
		t := ir.ReferenceType(inst.TypeRef, false)
		v := db.irc.NewInstruction(b, ci, &t)
		db.vars.writeVariable(b, inst.Registers[0], v)
		return nil

	case inst.Opcode == classdef.OpNewArray:
		size := db.vars.readVariable(b, inst.Registers[1])
		ci := &ir.Instruction{Opcode: ir.OpNewArray, Inputs: []*ir.Value{size}, Type: inst.TypeRef}
		t := ir.ReferenceType(inst.TypeRef, false)
		v := db.irc.NewInstruction(b, ci, &t)
		db.vars.writeVariable(b, inst.Registers[0], v)
		return nil

	case inst.Opcode == classdef.OpMonitorEnter:
		operand := db.vars.readVariable(b, inst.Registers[0])
		db.irc.NewInstruction(b, &ir.Instruction{Opcode: ir.OpMonitorEnter, Inputs: []*ir.Value{operand}}, nil)
		return nil

	case inst.Opcode == classdef.OpMonitorExit:
		operand := db.vars.readVariable(b, inst.Registers[0])
		db.irc.NewInstruction(b, &ir.Instruction{Opcode: ir.OpMonitorExit, Inputs: []*ir.Value{operand}}, nil)
		return nil

	case inst.Opcode == classdef.OpAget:
		return db.buildArrayGet(inst, b)
	case inst.Opcode == classdef.OpAput:
		return db.buildArrayPut(inst, b)

	case inst.Opcode == classdef.OpIget:
		return db.buildInstanceFieldGet(inst, b)
	case inst.Opcode == classdef.OpIput:
		return db.buildInstanceFieldPut(inst, b)

	case inst.Opcode == classdef.OpSget:
		return db.buildStaticFieldGet(inst, b)
	case inst.Opcode == classdef.OpSput:
		return db.buildStaticFieldPut(inst, b)

	case classdef.IsInvoke(inst.Opcode):
		return db.buildInvoke(inst, b)

	case isArithmeticOpcode(inst.Opcode):
		return db.buildArithmetic(inst, b)

	case inst.Opcode == classdef.OpGoto || inst.Opcode == classdef.OpGoto16 || inst.Opcode == classdef.OpGoto32:
		target := db.irBlocks[db.offsetToBlock[int(inst.BranchOffset)]]
		db.irc.NewInstruction(b, &ir.Instruction{Opcode: ir.OpGoto, GotoTarget: target}, nil)
		return nil

	case classdef.IsConditionalBranch(inst.Opcode):
		return db.buildConditionalBranch(code, inst, idx, b)

	case inst.Opcode == classdef.OpPackedSwitch || inst.Opcode == classdef.OpSparseSwitch:
		return db.buildSwitch(inst, b)

	case inst.Opcode == classdef.OpThrow:
		operand := db.vars.readVariable(b, inst.Registers[0])
		db.irc.NewInstruction(b, &ir.Instruction{Opcode: ir.OpThrow, Inputs: []*ir.Value{operand}}, nil)
		return nil

	case inst.Opcode == classdef.OpReturnVoid:
		db.irc.NewInstruction(b, &ir.Instruction{Opcode: ir.OpReturnVoid}, nil)
		return nil

	case inst.Opcode == classdef.OpReturn || inst.Opcode == classdef.OpReturnWide || inst.Opcode == classdef.OpReturnObject:
		operand := db.vars.readVariable(b, inst.Registers[0])
		db.irc.NewInstruction(b, &ir.Instruction{Opcode: ir.OpReturn, Inputs: []*ir.Value{operand}}, nil)
		return nil

	default:
		return &MalformedInputCode{Reason: "unsupported opcode in input code"}
	}
}

func (db *dexBuilder) buildConstNumber(inst *classdef.DexInstruction, b *ir.BasicBlock) error {
	ci := &ir.Instruction{Opcode: ir.OpConstNumber, ConstNumber: inst.ConstValue}
	t := db.intType()
	v := db.irc.NewInstruction(b, ci, &t)
	db.vars.writeVariable(b, inst.Registers[0], v)
	return nil
}

func (db *dexBuilder) buildArrayGet(inst *classdef.DexInstruction, b *ir.BasicBlock) error {
	array := db.vars.readVariable(b, inst.Registers[1])
	index := db.vars.readVariable(b, inst.Registers[2])
	ci := &ir.Instruction{Opcode: ir.OpArrayGet, Inputs: []*ir.Value{array, index}}
	t := db.intType()
	v := db.irc.NewInstruction(b, ci, &t)
	db.vars.writeVariable(b, inst.Registers[0], v)
	return nil
}

func (db *dexBuilder) buildArrayPut(inst *classdef.DexInstruction, b *ir.BasicBlock) error {
	value := db.vars.readVariable(b, inst.Registers[0])
	array := db.vars.readVariable(b, inst.Registers[1])
	index := db.vars.readVariable(b, inst.Registers[2])
	db.irc.NewInstruction(b, &ir.Instruction{Opcode: ir.OpArrayPut, Inputs: []*ir.Value{array, index, value}}, nil)
	return nil
}

func (db *dexBuilder) buildInstanceFieldGet(inst *classdef.DexInstruction, b *ir.BasicBlock) error {
	obj := db.vars.readVariable(b, inst.Registers[1])
	ci := &ir.Instruction{Opcode: ir.OpInstanceFieldGet, Inputs: []*ir.Value{obj}, Field: inst.FieldRef}
	t := db.fieldTypeElement(inst.FieldRef)
	v := db.irc.NewInstruction(b, ci, &t)
	db.vars.writeVariable(b, inst.Registers[0], v)
	return nil
}

func (db *dexBuilder) buildInstanceFieldPut(inst *classdef.DexInstruction, b *ir.BasicBlock) error {
	value := db.vars.readVariable(b, inst.Registers[0])
	obj := db.vars.readVariable(b, inst.Registers[1])
	db.irc.NewInstruction(b, &ir.Instruction{Opcode: ir.OpInstanceFieldPut, Inputs: []*ir.Value{obj, value}, Field: inst.FieldRef}, nil)
	return nil
}

func (db *dexBuilder) buildStaticFieldGet(inst *classdef.DexInstruction, b *ir.BasicBlock) error {
	ci := &ir.Instruction{Opcode: ir.OpStaticFieldGet, Field: inst.FieldRef}
	t := db.fieldTypeElement(inst.FieldRef)
	v := db.irc.NewInstruction(b, ci, &t)
	db.vars.writeVariable(b, inst.Registers[0], v)
	return nil
}

func (db *dexBuilder) buildStaticFieldPut(inst *classdef.DexInstruction, b *ir.BasicBlock) error {
	value := db.vars.readVariable(b, inst.Registers[0])
	db.irc.NewInstruction(b, &ir.Instruction{Opcode: ir.OpStaticFieldPut, Inputs: []*ir.Value{value}, Field: inst.FieldRef}, nil)
	return nil
}

func (db *dexBuilder) fieldTypeElement(f *item.DexField) ir.TypeElement {
	if f == nil {
		return db.intType()
	}
	return typeElementOf(f.Type)
}

// invokeOpcode maps a DEX invoke-* (or invoke-*/range) opcode to its IR
// equivalent; range forms carry identical semantics (pass 11 only changes
// how operands are encoded on the way back out).
func invokeOpcode(op byte) ir.Opcode {
	switch op {
	case classdef.OpInvokeVirtual, classdef.OpInvokeVirtualRange:
		return ir.OpInvokeVirtual
	case classdef.OpInvokeSuper, classdef.OpInvokeSuperRange:
		return ir.OpInvokeSuper
	case classdef.OpInvokeDirect, classdef.OpInvokeDirectRange:
		return ir.OpInvokeDirect
	case classdef.OpInvokeStatic, classdef.OpInvokeStaticRange:
		return ir.OpInvokeStatic
	default:
		return ir.OpInvokeInterface
	}
}

func (db *dexBuilder) buildInvoke(inst *classdef.DexInstruction, b *ir.BasicBlock) error {
	args := make([]*ir.Value, 0, len(inst.Registers))
	for _, r := range inst.Registers {
		args = append(args, db.vars.readVariable(b, r))
	}
	ci := &ir.Instruction{Opcode: invokeOpcode(inst.Opcode), Inputs: args, Method: inst.MethodRef}
	var t ir.TypeElement
	if inst.MethodRef != nil && inst.MethodRef.Proto != nil {
		t = typeElementOf(inst.MethodRef.Proto.ReturnType)
	}
	v := db.irc.NewInstruction(b, ci, &t)
	db.vars.writeVariable(b, resultSlot, v)
	return nil
}

func isArithmeticOpcode(op byte) bool {
	switch op {
	case classdef.OpAddInt, classdef.OpSubInt, classdef.OpMulInt, classdef.OpDivInt, classdef.OpRemInt,
		classdef.OpAndInt, classdef.OpOrInt, classdef.OpXorInt, classdef.OpShlInt, classdef.OpShrInt, classdef.OpUshrInt:
		return true
	}
	return false
}

func arithmeticIROpcode(op byte) ir.Opcode {
	switch op {
	case classdef.OpAddInt:
		return ir.OpAdd
	case classdef.OpSubInt:
		return ir.OpSub
	case classdef.OpMulInt:
		return ir.OpMul
	case classdef.OpDivInt:
		return ir.OpDiv
	case classdef.OpRemInt:
		return ir.OpRem
	case classdef.OpAndInt:
		return ir.OpAnd
	case classdef.OpOrInt:
		return ir.OpOr
	case classdef.OpXorInt:
		return ir.OpXor
	case classdef.OpShlInt:
		return ir.OpShl
	case classdef.OpShrInt:
		return ir.OpShr
	default:
		return ir.OpUShr
	}
}

func (db *dexBuilder) buildArithmetic(inst *classdef.DexInstruction, b *ir.BasicBlock) error {
	lhs := db.vars.readVariable(b, inst.Registers[1])
	rhs := db.vars.readVariable(b, inst.Registers[2])
	ci := &ir.Instruction{Opcode: arithmeticIROpcode(inst.Opcode), Inputs: []*ir.Value{lhs, rhs}}
	t := db.intType()
	v := db.irc.NewInstruction(b, ci, &t)
	db.vars.writeVariable(b, inst.Registers[0], v)
	return nil
}

func (db *dexBuilder) buildConditionalBranch(code *classdef.DexCode, inst *classdef.DexInstruction, idx int, b *ir.BasicBlock) error {
	var inputs []*ir.Value
	switch len(inst.Registers) {
	case 1:
		inputs = []*ir.Value{db.vars.readVariable(b, inst.Registers[0])}
	default:
		inputs = []*ir.Value{db.vars.readVariable(b, inst.Registers[0]), db.vars.readVariable(b, inst.Registers[1])}
	}
	ifTarget := db.irBlocks[db.offsetToBlock[int(inst.BranchOffset)]]
	fallIdx := db.blockOf(idx + 1)
	var fallTarget *ir.BasicBlock
	if fallIdx >= 0 {
		fallTarget = db.irBlocks[fallIdx]
	}
	db.irc.NewInstruction(b, &ir.Instruction{Opcode: ir.OpIf, Inputs: inputs, IfTarget: ifTarget, FallthroughTarget: fallTarget}, nil)
	return nil
}

func (db *dexBuilder) buildSwitch(inst *classdef.DexInstruction, b *ir.BasicBlock) error {
	key := db.vars.readVariable(b, inst.Registers[0])
	targets := make([]*ir.BasicBlock, len(inst.SwitchTargets))
	for i, t := range inst.SwitchTargets {
		targets[i] = db.irBlocks[db.offsetToBlock[t]]
	}
	db.irc.NewInstruction(b, &ir.Instruction{Opcode: ir.OpSwitch, Inputs: []*ir.Value{key}, SwitchKeys: inst.SwitchKeys, SwitchTargets: targets}, nil)
	return nil
}
