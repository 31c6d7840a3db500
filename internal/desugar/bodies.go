package desugar

import (
	"sync"

	"github.com/corvid-dex/core/internal/ir"
	"github.com/corvid-dex/core/internal/item"
)

// BodyRegistry hands a synthesized method's IR body back to the wave
// scheduler's driver, since classdef.EncodedMethod only carries a
// post-lowering Code payload (spec.md §3) and has no slot for an in-flight
// ir.IRCode. The driver looks a synthesized method's body up here when
// enqueueing it for a later wave (spec.md §4.4 "event consumers receive
// synthesized methods... enqueue them for processing in later waves").
// Grounded on optimize.OutlineRegistry's mutex-guarded per-run map shape.
type BodyRegistry struct {
	mu     sync.Mutex
	bodies map[*item.DexMethod]*ir.IRCode
}

func NewBodyRegistry() *BodyRegistry {
	return &BodyRegistry{bodies: make(map[*item.DexMethod]*ir.IRCode)}
}

// Store records code as the body of a freshly synthesized method.
func (r *BodyRegistry) Store(method *item.DexMethod, code *ir.IRCode) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bodies[method] = code
}

// Take removes and returns the stored body for method, if any. Removing on
// read keeps the registry from growing unbounded across a long-running
// compilation with many waves.
func (r *BodyRegistry) Take(method *item.DexMethod) (*ir.IRCode, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	code, ok := r.bodies[method]
	delete(r.bodies, method)
	return code, ok
}
