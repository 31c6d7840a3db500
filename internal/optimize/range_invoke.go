package optimize

// rangeInvokeArgLimit is the largest argument count DEX's non-range invoke
// forms (invoke-virtual, invoke-direct, etc.) can encode: they pack up to
// five argument registers into the instruction itself, versus invoke-*/range
// which spends a full 16-bit register-count field and addresses a
// contiguous run instead.
const rangeInvokeArgLimit = 5

// RangeInvokeSplittingPass is pass 11: any invoke whose argument count
// exceeds what the compact invoke-* forms can encode is marked NeedsRange so
// the bytecode lowerer emits the invoke-*/range form. Register allocation
// (not modeled in this package) does not read NeedsRange, and this pass adds
// no moves, so nothing places the arguments in a contiguous register run.
type RangeInvokeSplittingPass struct{}

func (RangeInvokeSplittingPass) Name() string { return "range-invoke-splitting" }

func (RangeInvokeSplittingPass) Run(ctx *Context) error {
	for _, b := range ctx.Code.Blocks {
		for _, inst := range b.Instructions {
			if !isInvoke(inst.Opcode) {
				continue
			}
			width := 0
			for _, in := range inst.Inputs {
				width++
				if in.Type.IsWide() {
					width++
				}
			}
			if width > rangeInvokeArgLimit {
				inst.NeedsRange = true
			}
		}
	}
	return nil
}
