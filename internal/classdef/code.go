package classdef

import "github.com/corvid-dex/core/internal/item"

// DexInstruction is one DEX instruction: a format descriptor (spec.md §4.8,
// e.g. "22b", "31t") plus whichever operand fields that format uses.
//
// The *Ref fields hold pool-interned references and are what the IR builder
// (§4.2) reads when decoding existing DEX input — by the time a Code value
// reaches the core, the (out-of-scope) reader has already interned every
// reference it touched. The *Index fields hold the final numeric table
// indices and are populated only by internal/lower when encoding new output
// from register-allocated IR (§4.7, §4.8); they are meaningless on
// freshly-decoded input and must not be read before lowering.
type DexInstruction struct {
	Format     string
	Opcode     byte
	Registers  []int
	ConstValue int64

	StringRef   *item.DexString
	TypeRef     *item.DexType
	FieldRef    *item.DexField
	MethodRef   *item.DexMethod
	ProtoRef    *item.DexProto
	CallSiteRef *item.DexCallSite

	StringIndex int
	TypeIndex   int
	FieldIndex  int
	MethodIndex int
	ProtoIndex  int
	CallSiteIdx int

	// BranchOffset and SwitchTargets are expressed as target instruction
	// indices within the owning DexCode.Instructions slice, not raw DEX
	// code-unit byte offsets — byte-offset resolution is the (out-of-scope,
	// spec.md §1) reader's and writer's job; the core only needs to know
	// which instruction a branch reaches.
	BranchOffset  int32
	SwitchKeys    []int64
	SwitchTargets []int
	Jumbo         bool // references a string index beyond the 16-bit range
}

// TryItem is an (start address, instruction count, handler index) triple
// (spec.md §4.8).
type TryItem struct {
	StartAddr  uint32
	InsnCount  uint16
	HandlerIdx int
}

// TypeAddrPair is one (exception type, handler address) entry.
type TypeAddrPair struct {
	ExceptionType *item.DexType
	HandlerAddr   uint32
}

// EncodedCatchHandler is a handler's (type → address pair list, optional
// catch-all address). CatchAllAddr is -1 when there is no catch-all.
type EncodedCatchHandler struct {
	Pairs        []TypeAddrPair
	CatchAllAddr int64
}

// DebugEvent is one event in the compact debug-info bytecode stream:
// advance-PC, advance-line, start-local, end-local, set-file (spec.md §4.8).
type DebugEventKind int

const (
	DebugAdvancePC DebugEventKind = iota
	DebugAdvanceLine
	DebugStartLocal
	DebugEndLocal
	DebugSetFile
	DebugEndSequence
)

type DebugEvent struct {
	Kind        DebugEventKind
	AddrDelta   uint32
	LineDelta   int32
	RegisterNum int
	LocalName   *item.DexString
	LocalType   *item.DexType
	FileName    *item.DexString
}

type DebugInfo struct {
	LineStart   int
	ParamNames  []*item.DexString
	Events      []DebugEvent
}

// DexCode = (register count, incoming-register count, outgoing-register
// count, instruction array, try range array, try-handler array, optional
// debug info) — spec.md §3. Try ranges reference handlers by offset at read
// time and are rewritten to index form before emission (the HandlerIdx
// field above is that rewritten form).
type DexCode struct {
	RegisterCount int
	InsSize       int // incoming register count
	OutsSize      int // outgoing register count
	Instructions  []DexInstruction
	Tries         []TryItem
	Handlers      []EncodedCatchHandler
	Debug         *DebugInfo
}

// CfInstruction is one class-file-format bytecode instruction, kept as an
// opaque opcode+operand pair; the class-file writer (out of scope) re-derives
// concrete encodings from this.
type CfInstruction struct {
	Opcode   byte
	Operands []int32
}

type CfTryCatch struct {
	StartPC, EndPC, HandlerPC int
	CatchType                 *item.DexType // nil for finally
}

type LocalVariableEntry struct {
	StartPC, Length int
	Name            *item.DexString
	Type            *item.DexType
	Slot            int
}

// CfCode = (max-stack, max-locals, instruction list, try-catch ranges,
// local-variable table) — spec.md §3.
type CfCode struct {
	MaxStack   int
	MaxLocals  int
	Instr      []CfInstruction
	TryCatches []CfTryCatch
	LocalVars  []LocalVariableEntry
}

// CodeKind tags which concrete form a Code payload carries.
type CodeKind int

const (
	CodeKindDex CodeKind = iota
	CodeKindCf
)

// Code is the tagged-variant payload named in spec.md §3: "either DEX or
// class-file form". Exactly one of Dex/Cf is non-nil, matching Kind. A Code
// value is immutable once attached to a finalized EncodedMethod — callers
// must build a new Code rather than mutate Dex/Cf fields in place once that
// happens.
type Code struct {
	Kind CodeKind
	Dex  *DexCode
	Cf   *CfCode
}

func NewDexCode(c *DexCode) *Code { return &Code{Kind: CodeKindDex, Dex: c} }
func NewCfCode(c *CfCode) *Code   { return &Code{Kind: CodeKindCf, Cf: c} }

// IsEmptyVoidMethod reports whether this DEX code is a method body whose
// last instruction is a bare return-void with nothing before it (spec.md §8
// boundary behavior "isEmptyVoidMethod()").
func (c *Code) IsEmptyVoidMethod() bool {
	if c == nil || c.Kind != CodeKindDex || c.Dex == nil {
		return false
	}
	instrs := c.Dex.Instructions
	return len(instrs) == 1 && instrs[0].Format == "10x" && instrs[0].Opcode == OpReturnVoid
}

// OpReturnVoid is the DEX return-void opcode (0x0e), named here so
// IsEmptyVoidMethod does not need to import internal/lower.
const OpReturnVoid byte = 0x0e
