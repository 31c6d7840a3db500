package classdef

import "github.com/corvid-dex/core/internal/item"

// Graph is the Class Graph named in spec.md §2: a mapping from type
// identity to class definition, partitioned into program (mutable, emitted),
// classpath (referenced, not emitted), and library (assumed present at
// runtime).
type Graph struct {
	classes map[*item.DexType]*Class
}

func NewGraph() *Graph { return &Graph{classes: make(map[*item.DexType]*Class)} }

// Add registers a class, keyed by its own type. Re-adding a type overwrites
// the previous definition — callers resolving "duplicate class across
// inputs with unreconciled conflict" (spec.md §6 fatal diagnostic) must
// check DefinitionFor before calling Add a second time.
func (g *Graph) Add(c *Class) { g.classes[c.Type] = c }

// DefinitionFor looks up a class by type identity. Returns nil if unknown.
func (g *Graph) DefinitionFor(t *item.DexType) *Class { return g.classes[t] }

// ProgramClasses returns every class in the program partition, in
// insertion order is not guaranteed — callers needing determinism must sort
// by the index assembly's type-table order (spec.md §4.7 step 3).
func (g *Graph) ProgramClasses() []*Class {
	var out []*Class
	for _, c := range g.classes {
		if c.Kind == KindProgram {
			out = append(out, c)
		}
	}
	return out
}

// InheritanceDepth computes "1 + max(super-class depth, interface depths)"
// per spec.md §4.7 step 3, used to order program classes so a class's
// supertypes appear earlier in the DEX class list. java.lang.Object (no
// super type) has depth 0. Unresolvable supertypes (present only because
// the classpath/library partition didn't have them) are treated as depth 0
// so a ResolutionFailure there degrades to a warning rather than blocking
// ordering, per spec.md §7 ("recoverable; placeholders emitted").
func (g *Graph) InheritanceDepth(t *item.DexType) int {
	memo := make(map[*item.DexType]int)
	var depth func(*item.DexType) int
	depth = func(ty *item.DexType) int {
		if d, ok := memo[ty]; ok {
			return d
		}
		memo[ty] = 0 // break cycles defensively; valid inputs are acyclic
		c := g.DefinitionFor(ty)
		if c == nil {
			memo[ty] = 0
			return 0
		}
		if c.SuperType == nil && len(c.Interfaces) == 0 {
			memo[ty] = 0
			return 0
		}
		max := 0
		if c.SuperType != nil {
			if d := depth(c.SuperType); d > max {
				max = d
			}
		}
		for _, iface := range c.Interfaces {
			if d := depth(iface); d > max {
				max = d
			}
		}
		memo[ty] = max + 1
		return max + 1
	}
	return depth(t)
}

// ancestors returns t and every super type/interface reachable from it,
// root first. Used by IsAssignable and LeastCommonAncestor; unresolvable
// supertypes terminate the walk rather than erroring, matching
// InheritanceDepth's treatment of classpath gaps.
func (g *Graph) ancestors(t *item.DexType) []*item.DexType {
	var chain []*item.DexType
	seen := map[*item.DexType]bool{}
	for cur := t; cur != nil && !seen[cur]; {
		seen[cur] = true
		chain = append(chain, cur)
		c := g.DefinitionFor(cur)
		if c == nil {
			break
		}
		cur = c.SuperType
	}
	return chain
}

// IsAssignable reports whether a value of type sub can be used where super
// is expected: sub equals super, or super appears in sub's superclass chain
// or implemented-interface set. Satisfies ir.ClassHierarchyResolver.
func (g *Graph) IsAssignable(sub, super *item.DexType) bool {
	if sub == super {
		return true
	}
	if sub == nil || super == nil {
		return false
	}
	for _, a := range g.ancestors(sub) {
		if a == super {
			return true
		}
		if c := g.DefinitionFor(a); c != nil {
			for _, iface := range c.Interfaces {
				if iface == super || g.IsAssignable(iface, super) {
					return true
				}
			}
		}
	}
	return false
}

// LeastCommonAncestor returns the most specific type assignable from both a
// and b, used by the phi type-lattice meet (ir.Meet) when two SSA values of
// different reference types join. Falls back to nil (meaning
// java.lang.Object, left for the caller to substitute) when no better
// common ancestor is known from the resolved superclass chains.
func (g *Graph) LeastCommonAncestor(a, b *item.DexType) *item.DexType {
	if a == b {
		return a
	}
	if a == nil || b == nil {
		return nil
	}
	bAncestors := map[*item.DexType]bool{}
	for _, t := range g.ancestors(b) {
		bAncestors[t] = true
	}
	for _, t := range g.ancestors(a) {
		if bAncestors[t] {
			return t
		}
	}
	return nil
}
