package lower_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corvid-dex/core/internal/classdef"
	"github.com/corvid-dex/core/internal/ir"
	"github.com/corvid-dex/core/internal/item"
	"github.com/corvid-dex/core/internal/lower"
)

// buildAddConstMethod builds `int f(int a) { return a + 3; }` — enough to
// exercise constant folding into the 22b lit8 form and a plain return.
func buildAddConstMethod(p *item.Pool) *ir.IRCode {
	intT := ir.PrimitiveType(p.InternType("I"))
	code := ir.NewIRCode(&ir.MethodContext{})
	entry := code.NewBlock()
	code.Entry = entry

	a := code.NewArgument(intT)
	three := code.NewInstruction(entry, &ir.Instruction{Opcode: ir.OpConstNumber, ConstNumber: 3}, &intT)
	sum := code.NewInstruction(entry, &ir.Instruction{Opcode: ir.OpAdd, Inputs: []*ir.Value{a, three}}, &intT)
	code.NewInstruction(entry, &ir.Instruction{Opcode: ir.OpReturn, Inputs: []*ir.Value{sum}}, nil)

	return code
}

func TestLowerFoldsSmallConstantIntoLit8Form(t *testing.T) {
	p := item.NewPool()
	code := buildAddConstMethod(p)

	dex := lower.Lower(code, nil, p)
	require.NotEmpty(t, dex.Instructions)

	var sawLit8 bool
	for _, inst := range dex.Instructions {
		if inst.Format == "22b" {
			sawLit8 = true
			assert.Equal(t, int64(3), inst.ConstValue)
		}
	}
	assert.True(t, sawLit8, "expected the int+3 addition to fold into a 22b lit8 instruction")

	last := dex.Instructions[len(dex.Instructions)-1]
	assert.Equal(t, classdef.OpReturn, last.Opcode)
}

// buildLoopMethod builds a trivial backward-branching loop so goto lowering
// and block-start resolution both exercise a real multi-block method.
func buildLoopMethod(p *item.Pool) *ir.IRCode {
	intT := ir.PrimitiveType(p.InternType("I"))
	code := ir.NewIRCode(&ir.MethodContext{})
	head := code.NewBlock()
	body := code.NewBlock()
	exit := code.NewBlock()
	code.Entry = head

	ir.AddEdge(head, body)
	ir.AddEdge(body, head)
	ir.AddEdge(head, exit)

	cond := code.NewArgument(intT)
	code.NewInstruction(head, &ir.Instruction{Opcode: ir.OpIf, Inputs: []*ir.Value{cond}, IfTarget: body, FallthroughTarget: exit}, nil)
	code.NewInstruction(body, &ir.Instruction{Opcode: ir.OpGoto, GotoTarget: head}, nil)
	code.NewInstruction(exit, &ir.Instruction{Opcode: ir.OpReturnVoid}, nil)

	return code
}

func TestLowerResolvesBackwardGoto(t *testing.T) {
	p := item.NewPool()
	code := buildLoopMethod(p)

	dex := lower.Lower(code, nil, p)

	var gotoInsn *classdef.DexInstruction
	for i := range dex.Instructions {
		if dex.Instructions[i].Opcode == classdef.OpGoto {
			gotoInsn = &dex.Instructions[i]
		}
	}
	require.NotNil(t, gotoInsn)
	assert.Equal(t, int32(0), gotoInsn.BranchOffset, "goto must resolve back to the head block's start index")
}

func TestLowerEmitsTryHandlerForCatchBlock(t *testing.T) {
	p := item.NewPool()
	objT := p.InternType("Ljava/lang/Exception;")
	code := ir.NewIRCode(&ir.MethodContext{})
	entry := code.NewBlock()
	handler := code.NewBlock()
	code.Entry = entry
	entry.CatchHandlers = []ir.CatchHandler{{ExceptionType: objT, Handler: handler}}

	code.NewInstruction(entry, &ir.Instruction{Opcode: ir.OpReturnVoid}, nil)
	exVal := code.NewInstruction(handler, &ir.Instruction{Opcode: ir.OpMoveException}, &ir.TypeElement{})
	_ = exVal
	code.NewInstruction(handler, &ir.Instruction{Opcode: ir.OpThrow, Inputs: []*ir.Value{exVal}}, nil)

	dex := lower.Lower(code, nil, p)

	require.Len(t, dex.Tries, 1)
	require.Len(t, dex.Handlers, 1)
	require.Len(t, dex.Handlers[0].Pairs, 1)
	assert.Equal(t, objT, dex.Handlers[0].Pairs[0].ExceptionType)
	assert.Equal(t, int64(-1), dex.Handlers[0].CatchAllAddr)
}

// dexStringContent/dexTypeDescriptor let go-cmp compare interned references
// by content rather than pointer identity, since two independently built
// IRCodes (as in TestLowerIsDeterministicAcrossEquivalentInputs) never share
// a Pool and so never share pointers even when structurally identical.
var lowerCmpOpts = cmp.Options{
	cmp.Comparer(func(a, b *item.DexString) bool {
		if a == nil || b == nil {
			return a == b
		}
		return a.String() == b.String()
	}),
	cmp.Comparer(func(a, b *item.DexType) bool {
		if a == nil || b == nil {
			return a == b
		}
		return a.Descriptor() == b.Descriptor()
	}),
}

// TestLowerIsDeterministicAcrossEquivalentInputs exercises spec.md §8's
// round-trip/determinism property at the lowering boundary: building and
// lowering the same method shape from two unrelated Pools must produce
// structurally equal classdef.DexCode, not merely "the same shape up to
// pointer identity".
func TestLowerIsDeterministicAcrossEquivalentInputs(t *testing.T) {
	poolA, poolB := item.NewPool(), item.NewPool()
	dexA := lower.Lower(buildLoopMethod(poolA), nil, poolA)
	dexB := lower.Lower(buildLoopMethod(poolB), nil, poolB)

	if diff := cmp.Diff(dexA, dexB, lowerCmpOpts); diff != "" {
		t.Errorf("lowering the same method shape from independent pools diverged (-A +B):\n%s", diff)
	}
}
