package desugar_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corvid-dex/core/internal/classdef"
	"github.com/corvid-dex/core/internal/desugar"
	"github.com/corvid-dex/core/internal/ir"
	"github.com/corvid-dex/core/internal/item"
	"github.com/corvid-dex/core/internal/lens"
)

func emptyVoidCode() *ir.IRCode {
	code := ir.NewIRCode(&ir.MethodContext{})
	entry := code.NewBlock()
	code.Entry = entry
	entry.AppendInstruction(&ir.Instruction{Opcode: ir.OpReturnVoid})
	return code
}

func TestInterfaceCompanionSynthesisMovesDefaultMethodBody(t *testing.T) {
	pool := item.NewPool()
	graph := classdef.NewGraph()

	ifaceType := pool.InternType("Lfoo/Iface;")
	proto := pool.InternProto(pool.InternType("V"), nil)
	methodRef := pool.InternMethod(ifaceType, proto, "greet")
	encodedMethod := &classdef.EncodedMethod{Ref: methodRef, Access: classdef.AccPublic}
	owner := classdef.NewProgramClass(classdef.Class{
		Type:          ifaceType,
		Access:        classdef.AccInterface | classdef.AccPublic | classdef.AccAbstract,
		DirectMethods: []*classdef.EncodedMethod{encodedMethod},
	}, classdef.ProgramClassExtra{})
	graph.Add(owner)

	code := emptyVoidCode()
	ctx := &desugar.Context{
		Pool: pool, Graph: graph, Builder: lens.NewBuilder(nil),
		Names: desugar.NewNameGenerator(), Bodies: desugar.NewBodyRegistry(),
		Owner: owner, Method: encodedMethod, Code: code,
	}

	tr := desugar.InterfaceCompanionSynthesis{}
	require.True(t, tr.NeedsDesugaring(ctx))

	var emitted *classdef.Class
	require.NoError(t, tr.Desugar(ctx, func(c *classdef.Class) { emitted = c }))

	require.NotNil(t, emitted)
	assert.Equal(t, "Lfoo/Iface$-CC;", emitted.Type.Descriptor())
	require.Len(t, emitted.DirectMethods, 1)
	companionRef := emitted.DirectMethods[0].Ref
	assert.True(t, emitted.DirectMethods[0].Access.IsStatic())
	assert.Equal(t, "greet", companionRef.Name.String())

	body, ok := ctx.Bodies.Take(companionRef)
	require.True(t, ok)
	assert.Same(t, code, body)

	renamed := ctx.Builder.Build().LookupMethod(methodRef)
	assert.Equal(t, companionRef, renamed)
}

func TestCovariantReturnBridgeSynthesisAddsBridgeMethod(t *testing.T) {
	pool := item.NewPool()
	graph := classdef.NewGraph()

	objectType := pool.InternType("Ljava/lang/Object;")
	narrowType := pool.InternType("Lfoo/Narrow;")
	graph.Add(classdef.NewProgramClass(classdef.Class{Type: narrowType, SuperType: objectType}, classdef.ProgramClassExtra{}))

	baseType := pool.InternType("Lfoo/Base;")
	baseProto := pool.InternProto(objectType, nil)
	baseMethod := pool.InternMethod(baseType, baseProto, "get")
	baseClass := classdef.NewProgramClass(classdef.Class{
		Type:           baseType,
		SuperType:      objectType,
		VirtualMethods: []*classdef.EncodedMethod{{Ref: baseMethod, Access: classdef.AccPublic}},
	}, classdef.ProgramClassExtra{})
	graph.Add(baseClass)

	subType := pool.InternType("Lfoo/Sub;")
	subProto := pool.InternProto(narrowType, nil)
	subMethod := pool.InternMethod(subType, subProto, "get")
	subEncoded := &classdef.EncodedMethod{Ref: subMethod, Access: classdef.AccPublic}
	subClass := classdef.NewProgramClass(classdef.Class{
		Type:           subType,
		SuperType:      baseType,
		VirtualMethods: []*classdef.EncodedMethod{subEncoded},
	}, classdef.ProgramClassExtra{})
	graph.Add(subClass)

	code := emptyVoidCode()
	ctx := &desugar.Context{
		Pool: pool, Graph: graph, Builder: lens.NewBuilder(nil),
		Names: desugar.NewNameGenerator(), Bodies: desugar.NewBodyRegistry(),
		Owner: subClass, Method: subEncoded, Code: code,
	}

	tr := desugar.CovariantReturnBridgeSynthesis{}
	require.True(t, tr.NeedsDesugaring(ctx))
	require.NoError(t, tr.Desugar(ctx, func(*classdef.Class) {}))

	require.Len(t, subClass.VirtualMethods, 2)
	bridge := subClass.VirtualMethods[1]
	assert.True(t, bridge.Access.Has(classdef.AccBridge))
	assert.Equal(t, objectType, bridge.Ref.Proto.ReturnType)
	assert.Equal(t, "get", bridge.Ref.Name.String())

	_, ok := ctx.Bodies.Take(bridge.Ref)
	assert.True(t, ok)
}

func TestLambdaDesugaringEliminatesInvokeDynamicSite(t *testing.T) {
	pool := item.NewPool()
	graph := classdef.NewGraph()

	enclosingType := pool.InternType("Lfoo/Bar;")
	ifaceType := pool.InternType("Ljava/lang/Runnable;")
	enclosing := classdef.NewProgramClass(classdef.Class{Type: enclosingType, SuperType: pool.InternType("Ljava/lang/Object;")}, classdef.ProgramClassExtra{})
	graph.Add(enclosing)

	voidProto := pool.InternProto(pool.InternType("V"), nil)
	implMethod := pool.InternMethod(enclosingType, voidProto, "lambda$main$0")
	handle := &item.DexMethodHandle{Kind: item.MethodHandleInvokeStatic, FieldOrRef: implMethod}
	site := &item.DexCallSite{
		MethodName:   pool.InternString("run"),
		MethodProto:  voidProto,
		BootstrapRef: handle,
	}

	code := ir.NewIRCode(&ir.MethodContext{})
	entry := code.NewBlock()
	code.Entry = entry
	dynInst := &ir.Instruction{Opcode: ir.OpInvokeDynamic, CallSite: site, Type: ifaceType}
	lambdaVal := code.NewInstruction(entry, dynInst, func() *ir.TypeElement { e := ir.ReferenceType(ifaceType, false); return &e }())
	useInst := &ir.Instruction{Opcode: ir.OpMonitorEnter, Inputs: []*ir.Value{lambdaVal}}
	code.NewInstruction(entry, useInst, nil)
	entry.AppendInstruction(&ir.Instruction{Opcode: ir.OpReturnVoid})

	method := &classdef.EncodedMethod{Ref: pool.InternMethod(enclosingType, voidProto, "main")}
	ctx := &desugar.Context{
		Pool: pool, Graph: graph, Builder: lens.NewBuilder(nil),
		Names: desugar.NewNameGenerator(), Bodies: desugar.NewBodyRegistry(),
		Owner: enclosing, Method: method, Code: code,
	}

	tr := desugar.LambdaDesugaring{}
	require.True(t, tr.NeedsDesugaring(ctx))

	var emitted *classdef.Class
	require.NoError(t, tr.Desugar(ctx, func(c *classdef.Class) { emitted = c }))

	require.NotNil(t, emitted)
	assert.Contains(t, emitted.Type.Descriptor(), "$$Lambda$")
	require.Len(t, emitted.DirectMethods, 2)
	assert.Contains(t, emitted.Interfaces, ifaceType)

	for _, b := range code.Blocks {
		for _, inst := range b.Instructions {
			assert.NotEqual(t, ir.OpInvokeDynamic, inst.Opcode)
		}
	}
	assert.Equal(t, ir.OpNewInstance, useInst.Inputs[0].Def().Opcode)
}
