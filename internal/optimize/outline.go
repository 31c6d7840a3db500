package optimize

import (
	"sync"

	"github.com/corvid-dex/core/internal/ir"
)

// outlineMinInstructions is the smallest instruction-sequence length worth
// recording as an outline candidate; shorter sequences cost more in the
// outlined call's own invoke overhead than they save in code size.
const outlineMinInstructions = 4

// OutlineRegistry accumulates outline candidates across every method a wave
// processes concurrently (spec.md §4.3 pass 22: "record candidates for
// later outlining (not performed this wave)"). Multiple workers append to
// it in parallel, so every method is guarded by a mutex rather than each
// worker keeping a private copy that would need merging afterward.
type OutlineRegistry struct {
	mu         sync.Mutex
	candidates map[string]int
}

// NewOutlineRegistry creates an empty registry that any number of
// OutlineIdentificationPass invocations can share through Context.Outlines.
// internal/pipeline's driver does not create one.
func NewOutlineRegistry() *OutlineRegistry {
	return &OutlineRegistry{candidates: map[string]int{}}
}

// Record increments the occurrence count for an instruction-sequence
// fingerprint, returning the updated count.
func (r *OutlineRegistry) Record(fingerprint string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.candidates[fingerprint]++
	return r.candidates[fingerprint]
}

// Candidates returns a snapshot of every recorded fingerprint and its
// occurrence count, for a later (out-of-scope) outlining wave to act on.
func (r *OutlineRegistry) Candidates() map[string]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]int, len(r.candidates))
	for k, v := range r.candidates {
		out[k] = v
	}
	return out
}

// OutlineIdentificationPass is pass 22: every maximal side-effect-free run
// of instructions at least outlineMinInstructions long within a block is
// fingerprinted by its opcode sequence and recorded in ctx.Outlines, the one
// OutlineRegistry shared by every method across every wave of the run; this
// wave performs no outlining itself, only bookkeeping a later wave consumes.
type OutlineIdentificationPass struct{}

func (OutlineIdentificationPass) Name() string { return "outline-identification" }

func (OutlineIdentificationPass) Run(ctx *Context) error {
	if ctx.Outlines == nil {
		return nil
	}
	for _, b := range ctx.Code.Blocks {
		runStart := 0
		for i := 0; i <= len(b.Instructions); i++ {
			boundary := i == len(b.Instructions) || b.Instructions[i].HasSideEffects()
			if boundary {
				if i-runStart >= outlineMinInstructions {
					fp := fingerprint(b.Instructions[runStart:i])
					ctx.Outlines.Record(fp)
				}
				runStart = i + 1
			}
		}
	}
	return nil
}

func fingerprint(run []*ir.Instruction) string {
	buf := make([]byte, 0, len(run)*2)
	for _, inst := range run {
		buf = append(buf, byte(inst.Opcode), ',')
	}
	return string(buf)
}
