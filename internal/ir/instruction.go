package ir

import "github.com/corvid-dex/core/internal/item"

// Opcode enumerates the IR-level operations the optimization pipeline and
// bytecode lowerer reason about. This is not a 1:1 mirror of DEX opcodes —
// it is the SSA vocabulary instructions are expressed in before lowering
// (spec.md §4.8 is what turns these into concrete DEX forms).
type Opcode int

const (
	OpArgument Opcode = iota
	OpConstNumber
	OpConstString
	OpConstClass
	OpConstNull

	OpAdd
	OpSub
	OpMul
	OpDiv
	OpRem
	OpNeg
	OpAnd
	OpOr
	OpXor
	OpShl
	OpShr
	OpUShr

	OpIf // conditional branch on a comparison of Inputs[0] (and Inputs[1] if binary)
	OpGoto
	OpSwitch
	OpReturn
	OpReturnVoid
	OpThrow
	OpUnreachable // replaces a body proven to always throw (pass 13) or degraded code (§4.3 failure semantics)

	OpInvokeVirtual
	OpInvokeSuper
	OpInvokeDirect
	OpInvokeStatic
	OpInvokeInterface
	OpInvokePolymorphic
	OpInvokeDynamic // lambda/method-reference call site, eliminated by desugaring (spec.md §4.4) before lowering

	OpInstanceFieldGet
	OpInstanceFieldPut
	OpStaticFieldGet
	OpStaticFieldPut

	OpNewInstance
	OpNewArray
	OpArrayLength
	OpArrayGet
	OpArrayPut

	OpCheckCast
	OpInstanceOf

	OpMonitorEnter
	OpMonitorExit

	OpMoveException
	OpAssumeNonNull  // assume-insertion pseudo-value (pass 2)
	OpAssumeDynType  // assume-insertion: refined dynamic type
	OpAssumeConstRange

	OpOutlineCandidate // marker left by pass 22; not lowered, consumed by a later outliner
)

// Instruction is one IR operation: an opcode, its operand values, at most
// one defined output value, and opcode-specific payload fields.
type Instruction struct {
	Opcode Opcode
	Inputs []*Value
	Output *Value // nil for instructions with no result (e.g. goto, field-put, return)

	Method      *item.DexMethod
	Field       *item.DexField
	Type        *item.DexType
	ConstNumber int64
	ConstString *item.DexString
	// CallSite is non-nil only for OpInvokeDynamic, naming the bootstrap
	// method and captured-argument shape lambda desugaring needs to
	// synthesize a companion class for (spec.md §4.4).
	CallSite *item.DexCallSite

	// SwitchTargets/SwitchKeys align by index for OpSwitch.
	SwitchKeys    []int64
	SwitchTargets []*BasicBlock
	// IfTarget/FallthroughTarget are the two successors of OpIf (true/false).
	IfTarget, FallthroughTarget *BasicBlock
	GotoTarget                  *BasicBlock

	// NeedsRange marks an invoke whose argument count exceeds what the
	// non-range invoke forms can encode (5 registers), set by the
	// range-invoke splitting pass (§4.3 pass 11) and read by the bytecode
	// lowerer when choosing between an invoke-* and invoke-*/range form.
	NeedsRange bool

	block *BasicBlock
}

func (i *Instruction) Block() *BasicBlock { return i.block }

// HasSideEffects reports whether removing this instruction (when its
// output, if any, is unused) could change observable behavior — invokes,
// field/array writes, throws, and monitor ops always do; pure arithmetic
// and field/array reads do not.
func (i *Instruction) HasSideEffects() bool {
	switch i.Opcode {
	case OpInvokeVirtual, OpInvokeSuper, OpInvokeDirect, OpInvokeStatic,
		OpInvokeInterface, OpInvokePolymorphic, OpInvokeDynamic,
		OpInstanceFieldPut, OpStaticFieldPut, OpArrayPut,
		OpThrow, OpReturn, OpReturnVoid, OpMonitorEnter, OpMonitorExit,
		OpNewInstance, OpNewArray, OpUnreachable, OpCheckCast:
		return true
	default:
		return false
	}
}

// IsTerminator reports whether this instruction ends a basic block.
func (i *Instruction) IsTerminator() bool {
	switch i.Opcode {
	case OpIf, OpGoto, OpSwitch, OpReturn, OpReturnVoid, OpThrow, OpUnreachable:
		return true
	default:
		return false
	}
}
