package lower

import (
	"github.com/corvid-dex/core/internal/classdef"
	"github.com/corvid-dex/core/internal/index"
	"github.com/corvid-dex/core/internal/ir"
	"github.com/corvid-dex/core/internal/item"
)

// Lower turns code into a concrete classdef.DexCode: register allocation,
// per-instruction format/opcode selection, try/handler emission, and a
// debug-info stream (spec.md §4.8). tables may be nil when lowering ahead
// of final index assembly (e.g. in isolation tests); in that case every
// *Index field and jumbo-string selection defaults to zero/non-jumbo, which
// a caller assembling a real DEX file must never do — the pipeline driver
// always lowers after Assemble succeeds. pool is the same interning Pool
// the method's references were built from, needed to intern debug-info
// local-variable names into *item.DexString.
func Lower(code *ir.IRCode, tables *index.Tables, pool *item.Pool) *classdef.DexCode {
	ra := AllocateRegisters(code)
	l := &lowerer{ra: ra, tables: tables, blockStart: map[ir.BlockID]int{}}
	for _, b := range code.Blocks {
		l.blockStart[b.ID] = len(l.out)
		for _, inst := range b.Instructions {
			l.lowerInstruction(inst)
		}
	}
	l.resolveBranches()
	tries, handlers := lowerTryTable(code, l.blockStart)
	return &classdef.DexCode{
		RegisterCount: ra.RegisterCount(),
		InsSize:       ra.InsSize(),
		OutsSize:      l.maxOuts,
		Instructions:  l.out,
		Tries:         tries,
		Handlers:      handlers,
		Debug:         lowerDebugInfo(code, ra, pool),
	}
}

type lowerer struct {
	ra         *RegisterAllocation
	tables     *index.Tables
	out        []classdef.DexInstruction
	blockStart map[ir.BlockID]int
	fixups     []branchFixup
	maxOuts    int
}

type branchFixup struct {
	instIndex int
	kind      fixupKind
	targets   []*ir.BasicBlock // len 1 for goto/if, len N for switch
}

type fixupKind int

const (
	fixupGoto fixupKind = iota
	fixupIf
	fixupSwitch
)

func (l *lowerer) reg(v *ir.Value) int { return l.ra.Register(v) }

func (l *lowerer) emit(di classdef.DexInstruction) int {
	l.fillIndices(&di)
	l.out = append(l.out, di)
	return len(l.out) - 1
}

func (l *lowerer) fillIndices(di *classdef.DexInstruction) {
	if l.tables == nil {
		return
	}
	if di.StringRef != nil {
		di.StringIndex = l.tables.StringIndex(di.StringRef)
	}
	if di.TypeRef != nil {
		di.TypeIndex = l.tables.TypeIndex(di.TypeRef)
	}
	if di.FieldRef != nil {
		di.FieldIndex = l.tables.FieldIndex(di.FieldRef)
	}
	if di.MethodRef != nil {
		di.MethodIndex = l.tables.MethodIndex(di.MethodRef)
	}
	if di.ProtoRef != nil {
		di.ProtoIndex = l.tables.ProtoIndex(di.ProtoRef)
	}
	if di.CallSiteRef != nil {
		di.CallSiteIdx = l.tables.CallSiteIndex(di.CallSiteRef)
	}
}

var binaryOpcode = map[ir.Opcode]byte{
	ir.OpAdd:  classdef.OpAddInt,
	ir.OpSub:  classdef.OpSubInt,
	ir.OpMul:  classdef.OpMulInt,
	ir.OpDiv:  classdef.OpDivInt,
	ir.OpRem:  classdef.OpRemInt,
	ir.OpAnd:  classdef.OpAndInt,
	ir.OpOr:   classdef.OpOrInt,
	ir.OpXor:  classdef.OpXorInt,
	ir.OpShl:  classdef.OpShlInt,
	ir.OpShr:  classdef.OpShrInt,
	ir.OpUShr: classdef.OpUshrInt,
}

var invokeOpcode = map[ir.Opcode][2]byte{
	ir.OpInvokeVirtual:   {classdef.OpInvokeVirtual, classdef.OpInvokeVirtualRange},
	ir.OpInvokeSuper:     {classdef.OpInvokeSuper, classdef.OpInvokeSuperRange},
	ir.OpInvokeDirect:    {classdef.OpInvokeDirect, classdef.OpInvokeDirectRange},
	ir.OpInvokeStatic:    {classdef.OpInvokeStatic, classdef.OpInvokeStaticRange},
	ir.OpInvokeInterface: {classdef.OpInvokeInterface, classdef.OpInvokeInterfaceRange},
}

func (l *lowerer) lowerInstruction(inst *ir.Instruction) {
	switch inst.Opcode {
	case ir.OpArgument:
		// Carries no code of its own; it only occupies a register.
	case ir.OpConstNumber:
		l.lowerConstNumber(inst)
	case ir.OpConstString:
		l.lowerConstString(inst)
	case ir.OpConstClass:
		l.emit(classdef.DexInstruction{Format: "21c", Opcode: classdef.OpConstClass, Registers: []int{l.reg(inst.Output)}, TypeRef: inst.Type})
	case ir.OpConstNull:
		l.emit(classdef.DexInstruction{Format: "11n", Opcode: classdef.OpConst4, Registers: []int{l.reg(inst.Output)}})
	case ir.OpAdd, ir.OpSub, ir.OpMul, ir.OpDiv, ir.OpRem, ir.OpAnd, ir.OpOr, ir.OpXor, ir.OpShl, ir.OpShr, ir.OpUShr:
		l.lowerBinaryArith(inst)
	case ir.OpIf:
		l.lowerIf(inst)
	case ir.OpGoto:
		l.lowerGoto(inst)
	case ir.OpSwitch:
		l.lowerSwitch(inst)
	case ir.OpReturn:
		l.emit(classdef.DexInstruction{Format: "11x", Opcode: classdef.OpReturn, Registers: []int{l.reg(inst.Inputs[0])}})
	case ir.OpReturnVoid:
		l.emit(classdef.DexInstruction{Format: "10x", Opcode: classdef.OpReturnVoid})
	case ir.OpThrow:
		l.emit(classdef.DexInstruction{Format: "11x", Opcode: classdef.OpThrow, Registers: []int{l.reg(inst.Inputs[0])}})
	case ir.OpUnreachable:
		// Degraded/proven-unreachable body: nothing executes past here.
	case ir.OpInvokeVirtual, ir.OpInvokeSuper, ir.OpInvokeDirect, ir.OpInvokeStatic, ir.OpInvokeInterface:
		l.lowerInvoke(inst)
	case ir.OpInstanceFieldGet:
		l.emit(classdef.DexInstruction{Format: "22c", Opcode: classdef.OpIget, Registers: []int{l.reg(inst.Output), l.reg(inst.Inputs[0])}, FieldRef: inst.Field})
	case ir.OpInstanceFieldPut:
		l.emit(classdef.DexInstruction{Format: "22c", Opcode: classdef.OpIput, Registers: []int{l.reg(inst.Inputs[1]), l.reg(inst.Inputs[0])}, FieldRef: inst.Field})
	case ir.OpStaticFieldGet:
		l.emit(classdef.DexInstruction{Format: "21c", Opcode: classdef.OpSget, Registers: []int{l.reg(inst.Output)}, FieldRef: inst.Field})
	case ir.OpStaticFieldPut:
		l.emit(classdef.DexInstruction{Format: "21c", Opcode: classdef.OpSput, Registers: []int{l.reg(inst.Inputs[0])}, FieldRef: inst.Field})
	case ir.OpNewInstance:
		l.emit(classdef.DexInstruction{Format: "21c", Opcode: classdef.OpNewInstance, Registers: []int{l.reg(inst.Output)}, TypeRef: inst.Type})
	case ir.OpNewArray:
		l.emit(classdef.DexInstruction{Format: "22c", Opcode: classdef.OpNewArray, Registers: []int{l.reg(inst.Output), l.reg(inst.Inputs[0])}, TypeRef: inst.Type})
	case ir.OpArrayLength:
		l.emit(classdef.DexInstruction{Format: "12x", Opcode: classdef.OpArrayLength, Registers: []int{l.reg(inst.Output), l.reg(inst.Inputs[0])}})
	case ir.OpArrayGet:
		l.emit(classdef.DexInstruction{Format: "23x", Opcode: classdef.OpAget, Registers: []int{l.reg(inst.Output), l.reg(inst.Inputs[0]), l.reg(inst.Inputs[1])}})
	case ir.OpArrayPut:
		l.emit(classdef.DexInstruction{Format: "23x", Opcode: classdef.OpAput, Registers: []int{l.reg(inst.Inputs[2]), l.reg(inst.Inputs[0]), l.reg(inst.Inputs[1])}})
	case ir.OpCheckCast:
		l.emit(classdef.DexInstruction{Format: "21c", Opcode: classdef.OpCheckCast, Registers: []int{l.reg(inst.Inputs[0])}, TypeRef: inst.Type})
	case ir.OpInstanceOf:
		l.emit(classdef.DexInstruction{Format: "22c", Opcode: classdef.OpInstanceOf, Registers: []int{l.reg(inst.Output), l.reg(inst.Inputs[0])}, TypeRef: inst.Type})
	case ir.OpMonitorEnter:
		l.emit(classdef.DexInstruction{Format: "11x", Opcode: classdef.OpMonitorEnter, Registers: []int{l.reg(inst.Inputs[0])}})
	case ir.OpMonitorExit:
		l.emit(classdef.DexInstruction{Format: "11x", Opcode: classdef.OpMonitorExit, Registers: []int{l.reg(inst.Inputs[0])}})
	case ir.OpMoveException:
		l.emit(classdef.DexInstruction{Format: "11x", Opcode: classdef.OpMoveException, Registers: []int{l.reg(inst.Output)}})
	case ir.OpAssumeNonNull, ir.OpAssumeDynType, ir.OpAssumeConstRange, ir.OpOutlineCandidate, ir.OpInvokeDynamic:
		// Pure compile-time bookkeeping: assume-* pseudo-values are rewritten
		// away wherever used before lowering (spec.md §4.3); invokedynamic
		// is eliminated by desugaring before any method reaches this
		// package (spec.md §4.4). Reaching here for one of these would be a
		// pipeline invariant violation, not a case lowering degrades for.
	case ir.OpInvokePolymorphic:
		// No builder path in this core ever constructs one (MethodHandle/
		// VarHandle call sites are out of scope); left unhandled rather
		// than given a speculative encoding no caller can exercise.
	}
}

// constOperand reports whether v is a materialized integer constant so a
// binary arithmetic instruction can fold it into the lit8 ("22b") form
// instead of spending a register on it. The OpConstNumber instruction that
// defined v is still lowered on its own when the loop reaches it; if this
// was its only use, that leaves one dead const instruction in the output,
// which writes a register nothing reads — harmless, just not maximally
// compact.
func constOperand(v *ir.Value) (int64, bool) {
	if d := v.Def(); d != nil && d.Opcode == ir.OpConstNumber {
		return d.ConstNumber, true
	}
	return 0, false
}

func (l *lowerer) lowerBinaryArith(inst *ir.Instruction) {
	op := binaryOpcode[inst.Opcode]
	lhs, rhs := inst.Inputs[0], inst.Inputs[1]
	if c, ok := constOperand(rhs); ok && fitsInt8(c) {
		l.emit(classdef.DexInstruction{
			Format:     "22b",
			Opcode:     op,
			Registers:  []int{l.reg(inst.Output), l.reg(lhs)},
			ConstValue: c,
		})
		return
	}
	l.emit(classdef.DexInstruction{
		Format:    "23x",
		Opcode:    op,
		Registers: []int{l.reg(inst.Output), l.reg(lhs), l.reg(rhs)},
	})
}

func (l *lowerer) lowerConstNumber(inst *ir.Instruction) {
	wide := inst.Output.Type.IsWide()
	format := constFormat(inst.ConstNumber, wide)
	l.emit(classdef.DexInstruction{
		Format:     format,
		Opcode:     constOpcodeFor(format, wide),
		Registers:  []int{l.reg(inst.Output)},
		ConstValue: inst.ConstNumber,
	})
}

func constOpcodeFor(format string, wide bool) byte {
	if !wide {
		switch format {
		case "11n":
			return classdef.OpConst4
		case "21s":
			return classdef.OpConst16
		default:
			return classdef.OpConst
		}
	}
	switch format {
	case "21s":
		return classdef.OpConstWide16
	case "31i":
		return classdef.OpConstWide32
	default:
		return classdef.OpConstWide
	}
}

func (l *lowerer) lowerConstString(inst *ir.Instruction) {
	jumbo := l.tables != nil && l.tables.IsJumboString(inst.ConstString)
	format, opcode := "21c", byte(classdef.OpConstString)
	if jumbo {
		format, opcode = "31c", classdef.OpConstStringJumbo
	}
	l.emit(classdef.DexInstruction{
		Format:    format,
		Opcode:    opcode,
		Registers: []int{l.reg(inst.Output)},
		StringRef: inst.ConstString,
		Jumbo:     jumbo,
	})
}

// lowerInvoke emits the invoke itself and, when its result is consumed, a
// following move-result instruction — the IR builder had already collapsed
// that real-DEX two-instruction idiom into one IR instruction (see
// optimize.MoveResultRewritingPass's doc comment); lowering is where it is
// re-expanded.
func (l *lowerer) lowerInvoke(inst *ir.Instruction) {
	opcodes := invokeOpcode[inst.Opcode]
	regs := make([]int, len(inst.Inputs))
	width := 0
	for i, in := range inst.Inputs {
		regs[i] = l.reg(in)
		width++
		if in.Type.IsWide() {
			width++
		}
	}
	if width > l.maxOuts {
		l.maxOuts = width
	}
	format, op := "35c", opcodes[0]
	if inst.NeedsRange {
		format, op = "3rc", opcodes[1]
	}
	l.emit(classdef.DexInstruction{
		Format:    format,
		Opcode:    op,
		Registers: regs,
		MethodRef: inst.Method,
	})
	if inst.Output != nil {
		mr := classdef.OpMoveResult
		switch {
		case inst.Output.Type.IsWide():
			mr = classdef.OpMoveResultWide
		case inst.Output.Type.IsReference():
			mr = classdef.OpMoveResultObj
		}
		l.emit(classdef.DexInstruction{Format: "11x", Opcode: mr, Registers: []int{l.reg(inst.Output)}})
	}
}

func (l *lowerer) lowerIf(inst *ir.Instruction) {
	regs := make([]int, len(inst.Inputs))
	for i, in := range inst.Inputs {
		regs[i] = l.reg(in)
	}
	idx := l.emit(classdef.DexInstruction{
		Format:    ifFormat(len(inst.Inputs) == 2),
		Opcode:    classdef.OpIfEq, // condition-specific opcode selection is out of scope here; see DESIGN.md
		Registers: regs,
	})
	l.fixups = append(l.fixups, branchFixup{instIndex: idx, kind: fixupIf, targets: []*ir.BasicBlock{inst.IfTarget}})
}

func (l *lowerer) lowerGoto(inst *ir.Instruction) {
	idx := l.emit(classdef.DexInstruction{Format: "10t", Opcode: classdef.OpGoto})
	l.fixups = append(l.fixups, branchFixup{instIndex: idx, kind: fixupGoto, targets: []*ir.BasicBlock{inst.GotoTarget}})
}

func (l *lowerer) lowerSwitch(inst *ir.Instruction) {
	idx := l.emit(classdef.DexInstruction{
		Format:     "31t",
		Opcode:     classdef.OpPackedSwitch,
		Registers:  []int{l.reg(inst.Inputs[0])},
		SwitchKeys: append([]int64(nil), inst.SwitchKeys...),
	})
	l.fixups = append(l.fixups, branchFixup{instIndex: idx, kind: fixupSwitch, targets: inst.SwitchTargets})
}

// resolveBranches fills in every forward- or backward-referencing branch
// target now that every block's flat start index is known. Branch
// distances and switch targets are expressed as target instruction
// indices, not raw byte offsets (classdef.DexInstruction's own doc comment:
// byte-offset resolution is the out-of-scope reader/writer's job), so the
// goto format (and with it the goto, goto/16 or goto/32 opcode) chosen
// during the first pass is re-derived here against the real distance rather
// than guessed ahead of time. if-* instructions keep their first-pass format.
func (l *lowerer) resolveBranches() {
	for _, fx := range l.fixups {
		switch fx.kind {
		case fixupGoto:
			target := l.blockStart[fx.targets[0].ID]
			di := &l.out[fx.instIndex]
			di.BranchOffset = int32(target)
			di.Format = gotoFormat(target - fx.instIndex)
			switch di.Format {
			case "20t":
				di.Opcode = classdef.OpGoto16
			case "30t":
				di.Opcode = classdef.OpGoto32
			}
		case fixupIf:
			target := l.blockStart[fx.targets[0].ID]
			l.out[fx.instIndex].BranchOffset = int32(target)
		case fixupSwitch:
			di := &l.out[fx.instIndex]
			di.SwitchTargets = make([]int, len(fx.targets))
			for i, b := range fx.targets {
				di.SwitchTargets[i] = l.blockStart[b.ID]
			}
		}
	}
}
