package item_test

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/corvid-dex/core/internal/item"
)

func TestCompareLexSortsStrings(t *testing.T) {
	p := item.NewPool()
	raw := []string{"zebra", "apple", "mango", "apple2"}
	strs := make([]*item.DexString, len(raw))
	for i, s := range raw {
		strs[i] = p.InternString(s)
	}
	sort.Slice(strs, func(i, j int) bool { return item.CompareLex(strs[i], strs[j]) < 0 })
	got := make([]string, len(strs))
	for i, s := range strs {
		got[i] = s.String()
	}
	assert.Equal(t, []string{"apple", "apple2", "mango", "zebra"}, got)
}

func TestCompareProtoUsesTypeThenStringIndex(t *testing.T) {
	p := item.NewPool()
	intT := p.InternType("I")
	longT := p.InternType("J")
	voidT := p.InternType("V")

	// Fake index assignment: assume types sorted already as [V, I, J].
	typeIdx := map[*item.DexType]int{voidT: 0, intT: 1, longT: 2}
	stringIdx := map[*item.DexString]int{}

	p1 := p.InternProto(voidT, []*item.DexType{intT})
	p2 := p.InternProto(voidT, []*item.DexType{longT})
	stringIdx[p1.Shorty] = 0
	stringIdx[p2.Shorty] = 1

	cmp := item.CompareProto(
		func(s *item.DexString) int { return stringIdx[s] },
		func(ty *item.DexType) int { return typeIdx[ty] },
	)
	assert.Negative(t, cmp(p1, p2))
	assert.Positive(t, cmp(p2, p1))
	assert.Zero(t, cmp(p1, p1))
}

func TestThenShortCircuits(t *testing.T) {
	calls := 0
	first := item.Comparator[int](func(a, b int) int { calls++; return a - b })
	second := item.Comparator[int](func(a, b int) int { calls++; return 0 })
	chained := item.Then(first, second)
	assert.Equal(t, -1, chained(1, 2))
	assert.Equal(t, 1, calls)
}
