package index_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corvid-dex/core/internal/classdef"
	"github.com/corvid-dex/core/internal/diag"
	"github.com/corvid-dex/core/internal/index"
	"github.com/corvid-dex/core/internal/item"
)

func newProgramClass(pool *item.Pool, name string) *classdef.Class {
	ty := pool.InternType("L" + name + ";")
	return classdef.NewProgramClass(classdef.Class{
		Type:      ty,
		SuperType: pool.InternType("Ljava/lang/Object;"),
	}, classdef.ProgramClassExtra{})
}

func addField(pool *item.Pool, cls *classdef.Class, name string) {
	f := pool.InternField(cls.Type, pool.InternType("I"), name)
	cls.StaticFields = append(cls.StaticFields, &classdef.EncodedField{Ref: f})
}

func TestAssembleOrdersStringsLexicographically(t *testing.T) {
	pool := item.NewPool()
	graph := classdef.NewGraph()
	cls := newProgramClass(pool, "Widget")
	addField(pool, cls, "zebra")
	addField(pool, cls, "apple")
	graph.Add(cls)

	tbl, d := index.Assemble(pool, graph)
	require.Nil(t, d)

	var names []string
	for _, s := range tbl.Strings {
		names = append(names, s.String())
	}
	for i := 1; i < len(names); i++ {
		assert.LessOrEqual(t, names[i-1], names[i])
	}
}

func TestAssembleOrdersProgramClassesByInheritanceDepth(t *testing.T) {
	pool := item.NewPool()
	graph := classdef.NewGraph()

	base := newProgramClass(pool, "Base")
	graph.Add(base)

	derived := classdef.NewProgramClass(classdef.Class{
		Type:      pool.InternType("LDerived;"),
		SuperType: base.Type,
	}, classdef.ProgramClassExtra{})
	graph.Add(derived)

	tbl, d := index.Assemble(pool, graph)
	require.Nil(t, d)
	require.Len(t, tbl.Classes, 2)
	assert.Equal(t, base.Type, tbl.Classes[0].Type)
	assert.Equal(t, derived.Type, tbl.Classes[1].Type)
}

// TestAssembleDetectsFieldTableOverflow is the mandatory scenario 3 from
// spec.md §4.7: a field table past the uint16 ceiling fails with
// KindIndexOverflow naming the table, and no partial index is returned.
func TestAssembleDetectsFieldTableOverflow(t *testing.T) {
	pool := item.NewPool()
	graph := classdef.NewGraph()
	cls := newProgramClass(pool, "Overflow")
	for i := 0; i < 70000; i++ {
		addField(pool, cls, fmt.Sprintf("f%d", i))
	}
	graph.Add(cls)

	tbl, d := index.Assemble(pool, graph)
	require.Nil(t, tbl)
	require.NotNil(t, d)
	assert.Equal(t, diag.KindIndexOverflow, d.Kind)
	assert.Contains(t, d.Message, "field table")
}

// TestAssembleMarksJumboStringThreshold is the mandatory scenario 4 from
// spec.md §4.7: 65,540 distinct strings referenced only from code (so the
// field/method/type tables stay far under the 2^16 ceiling that would
// otherwise trip first) — every string at or past index 65536 must report
// IsJumboString, and const-string instructions referencing one must be
// encodable only in jumbo form.
func TestAssembleMarksJumboStringThreshold(t *testing.T) {
	pool := item.NewPool()
	graph := classdef.NewGraph()
	cls := newProgramClass(pool, "Jumbo")

	var instrs []classdef.DexInstruction
	for i := 0; i < 65540; i++ {
		s := pool.InternString(fmt.Sprintf("literal-%06d", i))
		instrs = append(instrs, classdef.DexInstruction{Format: "21c", StringRef: s})
	}
	m := &classdef.EncodedMethod{
		Ref:  pool.InternMethod(cls.Type, pool.InternProto(pool.InternType("V"), nil), "run"),
		Code: classdef.NewDexCode(&classdef.DexCode{Instructions: instrs}),
	}
	cls.DirectMethods = append(cls.DirectMethods, m)
	graph.Add(cls)

	tbl, d := index.Assemble(pool, graph)
	require.Nil(t, d)
	require.Equal(t, index.MaxTableSize, tbl.FirstJumboString)

	last := tbl.Strings[len(tbl.Strings)-1]
	assert.True(t, tbl.IsJumboString(last))
	first := tbl.Strings[0]
	assert.False(t, tbl.IsJumboString(first))
}
