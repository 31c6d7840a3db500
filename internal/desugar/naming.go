package desugar

import (
	"strconv"
	"sync"

	"github.com/corvid-dex/core/internal/item"
)

// NameGenerator hands out deterministic synthetic type/member names keyed
// off an enclosing type, so re-running the whole pipeline on its own output
// reproduces identical names (spec.md §8 round-trip property) and so
// concurrent wave workers synthesizing companions for different enclosing
// types never collide (spec.md §5 "workers process a wave in parallel").
// Grounded on item.Pool's per-kind RWMutex-guarded map shape, generalized
// from "intern and return" to "allocate and increment".
type NameGenerator struct {
	mu  sync.Mutex
	seq map[string]int
}

// NewNameGenerator returns an empty generator. One instance is shared by
// every worker across the whole compilation (spec.md §9: counter keyed off
// the enclosing class, monotonically increasing).
func NewNameGenerator() *NameGenerator {
	return &NameGenerator{seq: make(map[string]int)}
}

// Next returns the next deterministic suffix for enclosing, starting at 0.
func (g *NameGenerator) Next(enclosing *item.DexType) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	key := enclosing.Descriptor()
	n := g.seq[key]
	g.seq[key] = n + 1
	return n
}

// CompanionDescriptor names the `$-CC` default/static/private-method
// companion class for an interface (spec.md §9).
func CompanionDescriptor(iface *item.DexType) string {
	return trimSemicolon(iface.Descriptor()) + "$-CC;"
}

// LambdaDescriptor names the synthetic class backing one invoke-dynamic
// lambda/method-reference call site (spec.md §9 "$$Lambda$" suffix scheme).
func (g *NameGenerator) LambdaDescriptor(enclosing *item.DexType) string {
	return trimSemicolon(enclosing.Descriptor()) + "$$Lambda$" + strconv.Itoa(g.Next(enclosing)) + ";"
}

// CovariantBridgeName names a covariant-return bridge method, suffixed so
// it never collides with a user-declared overload of the same descriptor.
func CovariantBridgeName(original string) string {
	return original + "$bridge"
}

// LibraryWrapperDescriptor names the synthetic holder class for a
// desugared-library API wrapper (spec.md §4.4), keyed off the original
// call site's enclosing type so two unrelated classes calling the same
// retargeted API don't share one wrapper class.
func (g *NameGenerator) LibraryWrapperDescriptor(enclosing *item.DexType) string {
	return trimSemicolon(enclosing.Descriptor()) + "$-EL;"
}

func trimSemicolon(descriptor string) string {
	if len(descriptor) > 0 && descriptor[len(descriptor)-1] == ';' {
		return descriptor[:len(descriptor)-1]
	}
	return descriptor
}
