package optimize

import (
	"github.com/corvid-dex/core/internal/classdef"
	"github.com/corvid-dex/core/internal/ir"
)

// DevirtualizationPass is pass 6: an invoke-virtual/invoke-interface whose
// resolved target class is final, or whose target method is itself final or
// private, can never dispatch anywhere but the one resolved implementation,
// so it is rewritten to invoke-direct — letting later inlining treat it like
// any other statically-bound call.
type DevirtualizationPass struct{}

func (DevirtualizationPass) Name() string { return "devirtualization" }

func (DevirtualizationPass) Run(ctx *Context) error {
	for _, b := range ctx.Code.Blocks {
		for _, inst := range b.Instructions {
			if inst.Opcode != ir.OpInvokeVirtual && inst.Opcode != ir.OpInvokeInterface {
				continue
			}
			if inst.Method == nil {
				continue
			}
			owner := ctx.Graph.DefinitionFor(inst.Method.Holder)
			if owner == nil {
				continue
			}
			target := owner.LookupMethod(inst.Method)
			if target == nil {
				continue
			}
			if owner.Access.Has(classdef.AccFinal) || target.Access.Has(classdef.AccFinal) || target.Access.IsPrivate() {
				inst.Opcode = ir.OpInvokeDirect
			}
		}
	}
	return nil
}
