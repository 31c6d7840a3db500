package optimize

import "github.com/corvid-dex/core/internal/ir"

// retargetedMethods maps a library method unavailable on older runtimes to
// the static backport method that implements it, keyed by the method's
// qualified name (spec.md §4.3 pass 19). A real build would load this table
// from the desugared-library configuration (internal/config); it is a
// package-level var here so tests can override it without threading a
// config dependency through every pass.
var retargetedMethods = map[string]struct {
	Holder string
	Name   string
}{
	"Ljava/util/Optional;->get":           {"Lj$/util/Optional;", "get"},
	"Ljava/util/stream/Stream;->toList":   {"Lj$/util/stream/Stream;", "toList"},
	"Ljava/time/LocalDate;->now":          {"Lj$/time/LocalDate;", "now"},
}

// DesugaredLibraryRetargetingPass is pass 19: an invoke naming a library API
// absent from older runtimes is rewritten to invoke the corresponding
// backport method instead, turning an instance invoke on the original
// receiver into a static invoke on the backport class with the receiver
// (if any) passed as its first argument.
type DesugaredLibraryRetargetingPass struct{}

func (DesugaredLibraryRetargetingPass) Name() string { return "desugared-library-retargeting" }

func (DesugaredLibraryRetargetingPass) Run(ctx *Context) error {
	for _, b := range ctx.Code.Blocks {
		for _, inst := range b.Instructions {
			if inst.Method == nil || !isInvoke(inst.Opcode) {
				continue
			}
			target, ok := retargetedMethods[inst.Method.QualifiedName()]
			if !ok {
				continue
			}
			holder := ctx.Pool.InternType(target.Holder)
			retargeted := ctx.Pool.InternMethod(holder, inst.Method.Proto, target.Name)
			inst.Method = retargeted
			inst.Opcode = ir.OpInvokeStatic
		}
	}
	return nil
}
