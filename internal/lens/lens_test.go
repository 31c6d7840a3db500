package lens_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/corvid-dex/core/internal/item"
	"github.com/corvid-dex/core/internal/lens"
)

func twoMethods(p *item.Pool) (*item.DexMethod, *item.DexMethod) {
	holder := p.InternType("LA;")
	proto := p.InternProto(p.InternType("V"), nil)
	return p.InternMethod(holder, proto, "a"), p.InternMethod(holder, proto, "b")
}

func TestIdentityLensIsPassThrough(t *testing.T) {
	p := item.NewPool()
	m, _ := twoMethods(p)
	assert.Same(t, m, lens.Identity().LookupMethod(m))
}

func TestLensRenamesAndFallsThrough(t *testing.T) {
	p := item.NewPool()
	m, renamed := twoMethods(p)
	other := p.InternMethod(p.InternType("LB;"), p.InternProto(p.InternType("V"), nil), "c")

	b := lens.NewBuilder(nil)
	b.RenameMethod(m, renamed)
	l := b.Build()

	assert.Same(t, renamed, l.LookupMethod(m))
	assert.Same(t, other, l.LookupMethod(other), "unrenamed refs pass through unchanged")
}

func TestComposedLensChecksInnermostFirst(t *testing.T) {
	p := item.NewPool()
	a, b := twoMethods(p)
	holder := p.InternType("LC;")
	proto := p.InternProto(p.InternType("V"), nil)
	c := p.InternMethod(holder, proto, "c")

	base := lens.NewBuilder(nil)
	base.RenameMethod(a, b)
	wave1 := base.Build()

	next := lens.NewBuilder(wave1)
	next.RenameMethod(b, c)
	wave2 := next.Build()

	assert.Same(t, c, wave2.LookupMethod(b), "the most recent wave's rename wins")
	assert.Same(t, b, wave2.LookupMethod(a), "a query for an older reference still resolves through the outer layer")
}

func TestFlattenPreservesLookupResults(t *testing.T) {
	p := item.NewPool()
	a, b := twoMethods(p)

	base := lens.NewBuilder(nil)
	base.RenameMethod(a, b)
	wave1 := base.Build()

	flat := wave1.Flatten()
	assert.Equal(t, wave1.Depth(), flat.Depth())
	assert.Same(t, wave1.LookupMethod(a), flat.LookupMethod(a))
}
