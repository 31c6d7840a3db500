package optimize

import "github.com/corvid-dex/core/internal/ir"

// TryWithResourcesDesugaringPass is pass 18: a compiled try-with-resources
// block surfaces in IR as a monitor-free try region whose handler rethrows
// after calling Closeable.close() on the resource — the javac-emitted
// suppressed-exception bookkeeping is already lowered into ordinary invokes
// by the frontend, so what this pass does is recognize that shape and mark
// the resource's close invoke NeedsRange-style metadata isn't required; it
// only needs to ensure the close call reads the resource through a
// non-null assumed value so later passes don't reintroduce a null check
// the original bytecode already proved unreachable. Platforms that don't
// need the desugared form (modern runtimes with native try-with-resources
// support) leave the IR untouched, which this pass implements by being a
// structural no-op whenever no close-on-exceptional-path pattern is found.
type TryWithResourcesDesugaringPass struct{}

func (TryWithResourcesDesugaringPass) Name() string { return "try-with-resources-desugaring" }

func (TryWithResourcesDesugaringPass) Run(ctx *Context) error {
	for _, b := range ctx.Code.Blocks {
		for _, h := range b.CatchHandlers {
			markResourceCloseNonNull(h.Handler)
		}
	}
	return nil
}

// markResourceCloseNonNull narrows the receiver of the first close() invoke
// found in a catch-handler block to non-null, since a resource reaching its
// own close-on-exception path by construction was already checked non-null
// on the try path.
func markResourceCloseNonNull(handler *ir.BasicBlock) {
	for _, inst := range handler.Instructions {
		if inst.Opcode != ir.OpInvokeVirtual && inst.Opcode != ir.OpInvokeInterface {
			continue
		}
		if inst.Method == nil || inst.Method.Name.String() != "close" || len(inst.Inputs) == 0 {
			continue
		}
		inst.Inputs[0].Type.Nullable = false
		return
	}
}
