package wave

import "github.com/corvid-dex/core/internal/classdef"

// Partition computes the bottom-up wave sequence spec.md §4.5 requires: a
// wave consists of the leaves of the current call graph, leaves are
// removed, and the next wave is formed from the new leaves. Cycles are
// pre-broken by removing every edge internal to a multi-method strongly
// connected component, collapsing it into a single scheduling unit that is
// itself treated as one leaf once nothing else in the set still calls it.
//
// Returns the waves in processing order and the edges removed to break
// cycles, for the caller to log or feed to a post-processor.
func Partition(methods []*classdef.EncodedMethod, g *CallGraph) (waves [][]*classdef.EncodedMethod, broken []BrokenEdge) {
	sccs := tarjanSCC(methods, g)

	component := make(map[*classdef.EncodedMethod]int, len(methods))
	for i, scc := range sccs {
		for _, m := range scc {
			component[m] = i
		}
	}

	for _, scc := range sccs {
		if len(scc) < 2 {
			continue // a lone method can still self-call; handled below
		}
		inSCC := make(map[*classdef.EncodedMethod]bool, len(scc))
		for _, m := range scc {
			inSCC[m] = true
		}
		for _, caller := range scc {
			for _, callee := range g.Callees(caller) {
				if inSCC[callee] {
					broken = append(broken, BrokenEdge{Caller: caller, Callee: callee})
				}
			}
		}
	}
	for _, m := range methods {
		for _, callee := range g.Callees(m) {
			if callee == m {
				broken = append(broken, BrokenEdge{Caller: m, Callee: m})
			}
		}
	}

	waveOf := make([]int, len(sccs))
	for i, scc := range sccs {
		max := -1
		for _, caller := range scc {
			for _, callee := range g.Callees(caller) {
				j, ok := component[callee]
				if !ok || j == i {
					continue // either outside the partitioned set or the broken intra-SCC edge
				}
				if waveOf[j] > max {
					max = waveOf[j]
				}
			}
		}
		waveOf[i] = max + 1
	}

	waveCount := 0
	for _, w := range waveOf {
		if w+1 > waveCount {
			waveCount = w + 1
		}
	}
	waves = make([][]*classdef.EncodedMethod, waveCount)
	for i, scc := range sccs {
		waves[waveOf[i]] = append(waves[waveOf[i]], scc...)
	}
	return waves, broken
}
