package classdef_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corvid-dex/core/internal/classdef"
	"github.com/corvid-dex/core/internal/item"
)

func TestClassKindCapabilities(t *testing.T) {
	p := item.NewPool()
	objType := p.InternType("Ljava/lang/Object;")

	lib := classdef.NewLibraryClass(classdef.Class{Type: objType})
	assert.False(t, lib.IsProgramClass())
	assert.False(t, lib.HasBodies())
	assert.False(t, lib.EmitsToDex())

	prog := classdef.NewProgramClass(classdef.Class{Type: p.InternType("LFoo;")}, classdef.ProgramClassExtra{})
	assert.True(t, prog.IsProgramClass())
	assert.True(t, prog.HasBodies())
	assert.True(t, prog.EmitsToDex())
}

func TestLibraryClassStripsStaticInitializers(t *testing.T) {
	p := item.NewPool()
	intT := p.InternType("I")
	fieldRef := p.InternField(p.InternType("LC;"), intT, "x")
	field := &classdef.EncodedField{Ref: fieldRef, StaticValue: int32(42)}

	lib := classdef.NewLibraryClass(classdef.Class{
		Type:         p.InternType("LC;"),
		StaticFields: []*classdef.EncodedField{field},
	})
	require.Len(t, lib.StaticFields, 1)
	assert.Nil(t, lib.StaticFields[0].StaticValue)
}

func TestInheritanceDepth(t *testing.T) {
	p := item.NewPool()
	g := classdef.NewGraph()

	objType := p.InternType("Ljava/lang/Object;")
	aType := p.InternType("LA;")
	bType := p.InternType("LB;")

	g.Add(classdef.NewProgramClass(classdef.Class{Type: objType}, classdef.ProgramClassExtra{}))
	g.Add(classdef.NewProgramClass(classdef.Class{Type: aType, SuperType: objType}, classdef.ProgramClassExtra{}))
	g.Add(classdef.NewProgramClass(classdef.Class{Type: bType, SuperType: aType}, classdef.ProgramClassExtra{}))

	assert.Equal(t, 0, g.InheritanceDepth(objType))
	assert.Equal(t, 1, g.InheritanceDepth(aType))
	assert.Equal(t, 2, g.InheritanceDepth(bType))
}

func TestIsEmptyVoidMethod(t *testing.T) {
	code := classdef.NewDexCode(&classdef.DexCode{
		Instructions: []classdef.DexInstruction{{Format: "10x", Opcode: classdef.OpReturnVoid}},
	})
	m := &classdef.EncodedMethod{Code: code}
	assert.True(t, m.IsEmptyVoidMethod())

	code2 := classdef.NewDexCode(&classdef.DexCode{
		Instructions: []classdef.DexInstruction{
			{Format: "11x", Opcode: 0x01},
			{Format: "10x", Opcode: classdef.OpReturnVoid},
		},
	})
	m2 := &classdef.EncodedMethod{Code: code2}
	assert.False(t, m2.IsEmptyVoidMethod())
}
