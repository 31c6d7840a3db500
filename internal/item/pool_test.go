package item_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corvid-dex/core/internal/item"
)

func TestInternStringIdentity(t *testing.T) {
	p := item.NewPool()
	a := p.InternString("hi")
	b := p.InternString("hi")
	assert.Same(t, a, b)
	assert.Equal(t, "hi", a.String())
	assert.Equal(t, 2, a.Len())
}

func TestInternStringConcurrent(t *testing.T) {
	p := item.NewPool()
	const n = 64
	results := make([]*item.DexString, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		i := i
		go func() {
			defer wg.Done()
			results[i] = p.InternString("shared")
		}()
	}
	wg.Wait()
	for i := 1; i < n; i++ {
		assert.Same(t, results[0], results[i])
	}
}

func TestTypePredicates(t *testing.T) {
	p := item.NewPool()
	str := p.InternType("Ljava/lang/String;")
	require.True(t, str.IsClass())
	require.True(t, str.IsReference())
	assert.False(t, str.IsPrimitive())
	assert.Equal(t, "java/lang", str.Package())
	assert.Equal(t, "String", str.SimpleName())

	arr := p.InternType("[I")
	assert.True(t, arr.IsArray())
	assert.Equal(t, 1, arr.ArrayDimensions())
	assert.Equal(t, "I", arr.BaseType())

	long := p.InternType("J")
	assert.True(t, long.IsPrimitive())
	assert.True(t, long.IsWide())
	assert.Equal(t, 2, long.RegisterWidth())

	void := p.InternType("V")
	assert.True(t, void.IsVoid())
}

func TestInternProtoShorty(t *testing.T) {
	p := item.NewPool()
	intT := p.InternType("I")
	strT := p.InternType("Ljava/lang/String;")
	voidT := p.InternType("V")

	proto := p.InternProto(voidT, []*item.DexType{intT, strT})
	assert.Equal(t, "VIL", proto.Shorty.String())

	again := p.InternProto(voidT, []*item.DexType{intT, strT})
	assert.Same(t, proto, again)
}

func TestInternMethodAndField(t *testing.T) {
	p := item.NewPool()
	holder := p.InternType("LFoo;")
	voidT := p.InternType("V")
	proto := p.InternProto(voidT, nil)

	m1 := p.InternMethod(holder, proto, "bar")
	m2 := p.InternMethod(holder, proto, "bar")
	assert.Same(t, m1, m2)
	assert.Equal(t, "LFoo;->bar", m1.QualifiedName())

	f1 := p.InternField(holder, voidT, "x")
	f2 := p.InternField(holder, voidT, "x")
	assert.Same(t, f1, f2)
}
