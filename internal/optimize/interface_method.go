package optimize

import (
	"strings"

	"github.com/corvid-dex/core/internal/ir"
	"github.com/corvid-dex/core/internal/item"
)

// companionSuffix names the synthetic class interface default/static/private
// methods are relocated into (spec.md §4.3 pass 20, §9 synthetic naming).
const companionSuffix = "$-CC;"

// InterfaceMethodRewritingPass is pass 20: an invoke-interface targeting a
// default or private interface method is rewritten to an invoke-static on
// that interface's synthetic companion class, passing the original receiver
// as the method's new first argument — the same relocation javac-less DEX
// runtimes need because only invoke-super, not invoke-interface, may target
// a default method pre-API-24. Building the companion class body itself is
// the desugar package's job (spec.md §4.4); this pass only rewrites call
// sites and records the companion's expected method reference in ctx.Lens
// via the lens builder so desugaring's synthesis step knows which
// signatures to emit a body for.
type InterfaceMethodRewritingPass struct{}

func (InterfaceMethodRewritingPass) Name() string { return "interface-method-rewriting" }

func (InterfaceMethodRewritingPass) Run(ctx *Context) error {
	for _, b := range ctx.Code.Blocks {
		for _, inst := range b.Instructions {
			if inst.Opcode != ir.OpInvokeInterface || inst.Method == nil {
				continue
			}
			owner := ctx.Graph.DefinitionFor(inst.Method.Holder)
			if owner == nil || !owner.Access.IsInterface() {
				continue
			}
			target := owner.LookupMethod(inst.Method)
			if target == nil || target.Access.IsAbstract() {
				continue // a true abstract interface method keeps normal virtual dispatch
			}
			companionType := ctx.Pool.InternType(companionDescriptor(inst.Method.Holder.Descriptor()))
			companionProto := ctx.Pool.InternProto(inst.Method.Proto.ReturnType, prependReceiverType(inst.Method.Holder, inst.Method.Proto.Params))
			companionMethod := ctx.Pool.InternMethod(companionType, companionProto, inst.Method.Name.String())
			if ctx.Builder != nil {
				ctx.Builder.RenameMethod(inst.Method, companionMethod)
			}
			inst.Method = companionMethod
			inst.Opcode = ir.OpInvokeStatic
		}
	}
	return nil
}

// companionDescriptor derives the synthetic companion class descriptor for
// an interface descriptor, e.g. "Lfoo/Bar;" -> "Lfoo/Bar$-CC;".
func companionDescriptor(ifaceDescriptor string) string {
	return strings.TrimSuffix(ifaceDescriptor, ";") + companionSuffix
}

// prependReceiverType builds the companion static method's parameter list:
// the original receiver type followed by the instance method's own params.
// invoke-interface's Inputs[0] already holds the receiver, and invoke-static
// has no implicit receiver slot, so Inputs itself needs no change — only the
// proto's declared parameter types need the receiver type prepended to stay
// consistent with it now occupying an explicit argument position.
func prependReceiverType(receiver *item.DexType, params []*item.DexType) []*item.DexType {
	out := make([]*item.DexType, 0, len(params)+1)
	out = append(out, receiver)
	out = append(out, params...)
	return out
}
