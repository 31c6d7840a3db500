package optimize_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corvid-dex/core/internal/classdef"
	"github.com/corvid-dex/core/internal/ir"
	"github.com/corvid-dex/core/internal/item"
	"github.com/corvid-dex/core/internal/optimize"
)

func intMethod(p *item.Pool, holder, name string) *item.DexMethod {
	t := p.InternType(holder)
	proto := p.InternProto(p.InternType("I"), nil)
	return p.InternMethod(t, proto, name)
}

func newContext(p *item.Pool, code *ir.IRCode) *optimize.Context {
	g := classdef.NewGraph()
	return &optimize.Context{
		Pool:   p,
		Graph:  g,
		Method: &classdef.EncodedMethod{Ref: intMethod(p, "Lfoo/Bar;", "m")},
		Code:   code,
	}
}

func TestAssumeInsertionNarrowsNewInstanceOutput(t *testing.T) {
	p := item.NewPool()
	objT := ir.ReferenceType(p.InternType("Lfoo/Obj;"), true)
	code := ir.NewIRCode(&ir.MethodContext{})
	entry := code.NewBlock()
	code.Entry = entry

	allocInst := &ir.Instruction{Opcode: ir.OpNewInstance, Type: p.InternType("Lfoo/Obj;")}
	alloc := code.NewInstruction(entry, allocInst, &objT)
	useInst := &ir.Instruction{Opcode: ir.OpMonitorEnter, Inputs: []*ir.Value{alloc}}
	code.NewInstruction(entry, useInst, nil)
	entry.AppendInstruction(&ir.Instruction{Opcode: ir.OpReturnVoid})

	ctx := newContext(p, code)
	require.NoError(t, optimize.AssumeInsertionPass{}.Run(ctx))
	require.NoError(t, ir.Verify(ctx.Code))

	require.Len(t, entry.Instructions, 4)
	assumeInst := entry.Instructions[1]
	assert.Equal(t, ir.OpAssumeNonNull, assumeInst.Opcode)
	assert.False(t, assumeInst.Output.Type.Nullable)
	assert.Equal(t, assumeInst.Output, useInst.Inputs[0])
	assert.True(t, alloc.HasUsers()) // the assume itself still reads the original
}

func TestSparseConditionalConstantPropagationFoldsArithmetic(t *testing.T) {
	p := item.NewPool()
	intT := ir.PrimitiveType(p.InternType("I"))
	code := ir.NewIRCode(&ir.MethodContext{})
	entry := code.NewBlock()
	code.Entry = entry

	c1 := code.NewInstruction(entry, &ir.Instruction{Opcode: ir.OpConstNumber, ConstNumber: 2}, &intT)
	c2 := code.NewInstruction(entry, &ir.Instruction{Opcode: ir.OpConstNumber, ConstNumber: 3}, &intT)
	sumInst := &ir.Instruction{Opcode: ir.OpAdd, Inputs: []*ir.Value{c1, c2}}
	sum := code.NewInstruction(entry, sumInst, &intT)
	retInst := &ir.Instruction{Opcode: ir.OpReturn, Inputs: []*ir.Value{sum}}
	code.NewInstruction(entry, retInst, nil)

	ctx := newContext(p, code)
	require.NoError(t, optimize.SparseConditionalConstantPropagationPass{}.Run(ctx))
	require.NoError(t, ir.Verify(ctx.Code))

	ret := entry.Instructions[len(entry.Instructions)-1]
	require.Equal(t, ir.OpReturn, ret.Opcode)
	foldedDef := ret.Inputs[0].Def()
	require.NotNil(t, foldedDef)
	assert.Equal(t, ir.OpConstNumber, foldedDef.Opcode)
	assert.Equal(t, int64(5), foldedDef.ConstNumber)
}

func TestDeadCodeRemovalDropsUnusedPureInstruction(t *testing.T) {
	p := item.NewPool()
	intT := ir.PrimitiveType(p.InternType("I"))
	code := ir.NewIRCode(&ir.MethodContext{})
	entry := code.NewBlock()
	code.Entry = entry

	code.NewInstruction(entry, &ir.Instruction{Opcode: ir.OpConstNumber, ConstNumber: 7}, &intT)
	entry.AppendInstruction(&ir.Instruction{Opcode: ir.OpReturnVoid})

	ctx := newContext(p, code)
	require.NoError(t, optimize.DeadCodeRemovalPass{}.Run(ctx))
	require.Len(t, entry.Instructions, 1)
	assert.Equal(t, ir.OpReturnVoid, entry.Instructions[0].Opcode)
}

func TestAlwaysThrowingPassDetectsThrowOnlyBody(t *testing.T) {
	p := item.NewPool()
	code := ir.NewIRCode(&ir.MethodContext{})
	entry := code.NewBlock()
	code.Entry = entry
	excT := ir.ReferenceType(p.InternType("Ljava/lang/RuntimeException;"), false)
	exc := code.NewInstruction(entry, &ir.Instruction{Opcode: ir.OpNewInstance, Type: p.InternType("Ljava/lang/RuntimeException;")}, &excT)
	entry.AppendInstruction(&ir.Instruction{Opcode: ir.OpThrow, Inputs: []*ir.Value{exc}})

	ctx := newContext(p, code)
	require.NoError(t, optimize.AlwaysThrowingPass{}.Run(ctx))
	assert.True(t, ctx.Method.OptimizationInfo.AlwaysThrows)
}

func TestConstantCanonicalizationDedupesRepeatedConstant(t *testing.T) {
	p := item.NewPool()
	intT := ir.PrimitiveType(p.InternType("I"))
	code := ir.NewIRCode(&ir.MethodContext{})
	entry := code.NewBlock()
	code.Entry = entry

	first := code.NewInstruction(entry, &ir.Instruction{Opcode: ir.OpConstNumber, ConstNumber: 9}, &intT)
	second := code.NewInstruction(entry, &ir.Instruction{Opcode: ir.OpConstNumber, ConstNumber: 9}, &intT)
	useInst := &ir.Instruction{Opcode: ir.OpAdd, Inputs: []*ir.Value{first, second}}
	code.NewInstruction(entry, useInst, &intT)
	entry.AppendInstruction(&ir.Instruction{Opcode: ir.OpReturnVoid})

	ctx := newContext(p, code)
	require.NoError(t, optimize.ConstantCanonicalizationPass{}.Run(ctx))
	require.NoError(t, ir.Verify(ctx.Code))
	assert.Equal(t, useInst.Inputs[0], useInst.Inputs[1])
}
