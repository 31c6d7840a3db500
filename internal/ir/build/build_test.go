package build_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corvid-dex/core/internal/classdef"
	"github.com/corvid-dex/core/internal/ir"
	"github.com/corvid-dex/core/internal/ir/build"
	"github.com/corvid-dex/core/internal/item"
)

func testMethod(p *item.Pool, name string, ret *item.DexType, params []*item.DexType) *item.DexMethod {
	holder := p.InternType("LTest;")
	proto := p.InternProto(ret, params)
	return p.InternMethod(holder, proto, name)
}

func TestFromDexStraightLineAdd(t *testing.T) {
	p := item.NewPool()
	intT := p.InternType("I")
	method := testMethod(p, "add", intT, []*item.DexType{intT, intT})

	code := &classdef.DexCode{
		RegisterCount: 2,
		InsSize:       2,
		Instructions: []classdef.DexInstruction{
			{Format: "23x", Opcode: classdef.OpAddInt, Registers: []int{0, 0, 1}},
			{Format: "11x", Opcode: classdef.OpReturn, Registers: []int{0}},
		},
	}

	irc, err := build.FromDex(p, nil, method, code, []*item.DexType{intT, intT}, true)
	require.NoError(t, err)
	require.NoError(t, ir.Verify(irc))
	assert.Len(t, irc.Blocks, 1)

	var retInst *ir.Instruction
	for _, inst := range irc.Entry.Instructions {
		if inst.Opcode == ir.OpReturn {
			retInst = inst
		}
	}
	require.NotNil(t, retInst)
	require.Len(t, retInst.Inputs, 1)
	assert.Equal(t, ir.OpAdd, retInst.Inputs[0].Def().Opcode)
}

// TestFromDexLoopInsertsPhis builds:
//
//	int f(int n) {
//	  int sum = 0, one = 1;
//	  while (n > 0) { sum = sum + n; n = n - one; }
//	  return sum;
//	}
//
// exercising the loop-carried-value path of the SSA construction algorithm:
// both n and sum need a phi at the loop header, one created while reading
// the condition's operand, the other lazily when the loop body reads sum.
// n is placed in the last register (v2) to match the DEX convention that
// incoming parameters occupy the final InsSize registers.
func TestFromDexLoopInsertsPhis(t *testing.T) {
	p := item.NewPool()
	intT := p.InternType("I")
	method := testMethod(p, "f", intT, []*item.DexType{intT})

	code := &classdef.DexCode{
		RegisterCount: 3, // v0=sum, v1=one, v2=n (incoming)
		InsSize:       1,
		Instructions: []classdef.DexInstruction{
			{Format: "11n", Opcode: classdef.OpConst4, Registers: []int{0}, ConstValue: 0},  // 0: sum = 0
			{Format: "11n", Opcode: classdef.OpConst4, Registers: []int{1}, ConstValue: 1},  // 1: one = 1
			{Format: "21t", Opcode: classdef.OpIfLez, Registers: []int{2}, BranchOffset: 6}, // 2: if n <= 0 goto 6
			{Format: "23x", Opcode: classdef.OpAddInt, Registers: []int{0, 0, 2}},           // 3: sum = sum + n
			{Format: "23x", Opcode: classdef.OpSubInt, Registers: []int{2, 2, 1}},           // 4: n = n - one
			{Format: "10t", Opcode: classdef.OpGoto, BranchOffset: 2},                       // 5: goto 2
			{Format: "11x", Opcode: classdef.OpReturn, Registers: []int{0}},                 // 6: return sum
		},
	}

	irc, err := build.FromDex(p, nil, method, code, []*item.DexType{intT}, true)
	require.NoError(t, err)
	require.NoError(t, ir.Verify(irc))
	assert.Len(t, irc.Blocks, 4)

	var headerPhis int
	for _, b := range irc.Blocks {
		if len(b.Predecessors) == 2 {
			headerPhis = len(b.Phis)
		}
	}
	assert.Equal(t, 2, headerPhis, "loop header should carry phis for both n and sum")
}

func TestFromDexRejectsEmptyBody(t *testing.T) {
	p := item.NewPool()
	intT := p.InternType("I")
	method := testMethod(p, "empty", intT, nil)
	code := &classdef.DexCode{RegisterCount: 0}

	_, err := build.FromDex(p, nil, method, code, nil, true)
	require.Error(t, err)
	var malformed *build.MalformedInputCode
	assert.ErrorAs(t, err, &malformed)
}
