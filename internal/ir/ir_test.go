package ir_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corvid-dex/core/internal/ir"
	"github.com/corvid-dex/core/internal/item"
)

func buildSimpleAddMethod(p *item.Pool) *ir.IRCode {
	intT := ir.PrimitiveType(p.InternType("I"))
	code := ir.NewIRCode(&ir.MethodContext{})
	entry := code.NewBlock()
	code.Entry = entry

	a := code.NewArgument(intT)
	b := code.NewArgument(intT)

	addInst := &ir.Instruction{Opcode: ir.OpAdd, Inputs: []*ir.Value{a, b}}
	sum := code.NewInstruction(entry, addInst, &intT)

	retInst := &ir.Instruction{Opcode: ir.OpReturn, Inputs: []*ir.Value{sum}}
	code.NewInstruction(entry, retInst, nil)

	return code
}

func TestVerifyPassesOnWellFormedIR(t *testing.T) {
	p := item.NewPool()
	code := buildSimpleAddMethod(p)
	assert.NoError(t, ir.Verify(code))
}

func TestUserListTracksOperands(t *testing.T) {
	p := item.NewPool()
	code := buildSimpleAddMethod(p)
	a := code.Args[0]
	require.Len(t, a.Users(), 1)
	assert.Equal(t, ir.OpAdd, a.Users()[0].Opcode)
}

func TestVerifyCatchesBrokenSuccessorLink(t *testing.T) {
	code := ir.NewIRCode(&ir.MethodContext{})
	a := code.NewBlock()
	b := code.NewBlock()
	code.Entry = a
	a.Successors = append(a.Successors, b) // deliberately not mirrored on b.Predecessors
	a.AppendInstruction(&ir.Instruction{Opcode: ir.OpGoto, GotoTarget: b})

	err := ir.Verify(code)
	require.Error(t, err)
	var invErr *ir.InvariantError
	assert.ErrorAs(t, err, &invErr)
}

func TestVerifyCatchesMissingPhiOperand(t *testing.T) {
	code := ir.NewIRCode(&ir.MethodContext{})
	pred1 := code.NewBlock()
	pred2 := code.NewBlock()
	join := code.NewBlock()
	ir.AddEdge(pred1, join)
	ir.AddEdge(pred2, join)

	phi := join.AddPhi(code.NewValueNumber(), ir.PrimitiveType(nil))
	// Only fill one of the two required operands.
	phi.SetOperand(0, code.NewArgument(ir.PrimitiveType(nil)))

	err := ir.Verify(code)
	require.Error(t, err)
}

func TestReplaceAllUsesWith(t *testing.T) {
	p := item.NewPool()
	intT := ir.PrimitiveType(p.InternType("I"))
	code := ir.NewIRCode(&ir.MethodContext{})
	entry := code.NewBlock()
	code.Entry = entry

	a := code.NewArgument(intT)
	constInst := &ir.Instruction{Opcode: ir.OpConstNumber, ConstNumber: 42}
	c := code.NewInstruction(entry, constInst, &intT)

	useInst := &ir.Instruction{Opcode: ir.OpAdd, Inputs: []*ir.Value{a, a}}
	code.NewInstruction(entry, useInst, &intT)

	code.ReplaceAllUsesWith(a, c)
	assert.False(t, a.HasUsers())
	assert.Equal(t, []*ir.Value{c, c}, useInst.Inputs)
}
