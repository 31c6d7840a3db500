package optimize

import "github.com/corvid-dex/core/internal/ir"

// AlwaysThrowingPass is pass 13: a method whose entry block (and every block
// reachable from it without passing through a catch handler) ends only in
// OpThrow or OpUnreachable, with no reachable OpReturn/OpReturnVoid, raises
// an exception on every path. MethodOptimizationInfo.AlwaysThrows is set so
// later waves calling this method can truncate their own call sites at the
// call instead of modeling a return value that never materializes (spec.md
// §4.3 pass 13's cross-method consumer).
type AlwaysThrowingPass struct{}

func (AlwaysThrowingPass) Name() string { return "always-throwing" }

func (AlwaysThrowingPass) Run(ctx *Context) error {
	if ctx.Code.Entry == nil {
		return nil
	}
	visited := map[*ir.BasicBlock]bool{}
	if reachesNormalReturn(ctx.Code.Entry, visited) {
		ctx.Method.OptimizationInfo.AlwaysThrows = false
		return nil
	}
	ctx.Method.OptimizationInfo.AlwaysThrows = true
	return nil
}

func reachesNormalReturn(b *ir.BasicBlock, visited map[*ir.BasicBlock]bool) bool {
	if visited[b] {
		return false
	}
	visited[b] = true
	for _, inst := range b.Instructions {
		if inst.Opcode == ir.OpReturn || inst.Opcode == ir.OpReturnVoid {
			return true
		}
	}
	for _, s := range b.Successors {
		if reachesNormalReturn(s, visited) {
			return true
		}
	}
	return false
}
