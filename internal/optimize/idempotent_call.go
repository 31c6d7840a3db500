package optimize

import (
	"strconv"

	"github.com/corvid-dex/core/internal/ir"
	"github.com/corvid-dex/core/internal/item"
)

// IdempotentCallCanonicalizationPass is pass 24: within a single block, a
// call to a method MethodOptimizationInfo marks as having no side effects
// (!MayHaveSideEffects), invoked again later in the same block with
// identical argument values and no intervening instruction that could have
// changed the callee's observable inputs (any side-effecting instruction at
// all, conservatively, since this analysis has no alias model), is folded
// to reuse the first call's result instead of calling a second time.
type IdempotentCallCanonicalizationPass struct{}

func (IdempotentCallCanonicalizationPass) Name() string { return "idempotent-call-canonicalization" }

func (IdempotentCallCanonicalizationPass) Run(ctx *Context) error {
	for _, b := range ctx.Code.Blocks {
		available := map[callKey]*ir.Value{}
		for i := 0; i < len(b.Instructions); i++ {
			inst := b.Instructions[i]
			if !isInvoke(inst.Opcode) {
				if inst.HasSideEffects() {
					available = map[callKey]*ir.Value{}
				}
				continue
			}
			if inst.Method == nil {
				available = map[callKey]*ir.Value{}
				continue
			}
			info := ctx.methodInfo(inst.Method)
			if info == nil || info.MayHaveSideEffects {
				available = map[callKey]*ir.Value{}
				continue
			}
			key := callKeyOf(inst)
			if prior, ok := available[key]; ok && inst.Output != nil {
				ir.ReplaceAllUsesWith(inst.Output, prior)
				b.RemoveInstruction(inst)
				i--
				continue
			}
			if inst.Output != nil {
				available[key] = inst.Output
			}
		}
	}
	return nil
}

// callKey identifies a call by callee plus the exact SSA values passed as
// arguments: two invokes of the same pure method with the same argument
// values (by SSA identity, via their stable value numbers) are guaranteed
// to produce the same result.
type callKey struct {
	method *item.DexMethod
	args   string
}

func callKeyOf(inst *ir.Instruction) callKey {
	buf := make([]byte, 0, len(inst.Inputs)*4)
	for _, in := range inst.Inputs {
		buf = strconv.AppendInt(buf, int64(in.Number), 10)
		buf = append(buf, ',')
	}
	return callKey{method: inst.Method, args: string(buf)}
}
