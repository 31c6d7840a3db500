// Package wave implements the bottom-up wave scheduler (spec.md §4.5): it
// partitions a program's methods into waves from a call graph, drives each
// wave's methods through a caller-supplied processor in parallel via an
// Executor, and merges per-wave results through a FeedbackBuffer at wave
// boundaries before running any registered wave-done callbacks. Cycle
// breaking is grounded on the teacher's CompileModule package-ordering step
// (frontend.go's topologicalSort/mod.Order), generalized from a DFS
// post-order over acyclic package imports to a Tarjan SCC condensation over
// a call graph that can genuinely recurse.
package wave

import "github.com/corvid-dex/core/internal/classdef"

// CallGraph records, for each method processed this run, the set of other
// processed methods it calls whose result matters for inlining (spec.md
// §4.5). Edges are directed caller -> callee.
type CallGraph struct {
	callees map[*classdef.EncodedMethod][]*classdef.EncodedMethod
}

func NewCallGraph() *CallGraph {
	return &CallGraph{callees: map[*classdef.EncodedMethod][]*classdef.EncodedMethod{}}
}

// AddEdge records that caller calls callee. Callers should add edges in a
// deterministic order (e.g. walking classes/methods in the class graph's
// own canonical order) so Partition's output is reproducible.
func (g *CallGraph) AddEdge(caller, callee *classdef.EncodedMethod) {
	g.callees[caller] = append(g.callees[caller], callee)
}

// Callees returns the methods caller calls, in the order they were added.
func (g *CallGraph) Callees(caller *classdef.EncodedMethod) []*classdef.EncodedMethod {
	return g.callees[caller]
}

// BrokenEdge names a call-graph edge removed to break a cycle so the
// condensation step can produce a DAG, recorded for the post-processor
// (spec.md §4.5 "records the removal for the post-processor").
type BrokenEdge struct {
	Caller, Callee *classdef.EncodedMethod
}

// tarjanSCC returns the strongly connected components of graph restricted
// to methods, in Tarjan's emission order. That order already has the
// property this package needs: a component is emitted only after every
// component reachable from it has been emitted, so the first component
// emitted calls nothing else in the set (a true call-graph leaf) and every
// later component's cross-component callees have strictly earlier indices.
func tarjanSCC(methods []*classdef.EncodedMethod, g *CallGraph) [][]*classdef.EncodedMethod {
	index := 0
	indices := map[*classdef.EncodedMethod]int{}
	lowlink := map[*classdef.EncodedMethod]int{}
	onStack := map[*classdef.EncodedMethod]bool{}
	var stack []*classdef.EncodedMethod
	var sccs [][]*classdef.EncodedMethod

	var strongconnect func(v *classdef.EncodedMethod)
	strongconnect = func(v *classdef.EncodedMethod) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range g.Callees(v) {
			if _, ok := indices[w]; !ok {
				strongconnect(w)
				if lowlink[w] < lowlink[v] {
					lowlink[v] = lowlink[w]
				}
			} else if onStack[w] {
				if indices[w] < lowlink[v] {
					lowlink[v] = indices[w]
				}
			}
		}

		if lowlink[v] == indices[v] {
			var scc []*classdef.EncodedMethod
			for {
				n := len(stack) - 1
				w := stack[n]
				stack = stack[:n]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for _, m := range methods {
		if _, ok := indices[m]; !ok {
			strongconnect(m)
		}
	}
	return sccs
}
