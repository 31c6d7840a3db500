package index

import "github.com/tidwall/btree"

// sortedTable totally orders the distinct values in items by less, returning
// them in ascending order alongside a lookup from value to assigned index.
// Backed by a github.com/tidwall/btree ordered tree instead of a
// sort.Slice-then-linear-scan pass, matching bufbuild/protocompile's own use
// of tidwall/btree for its symbol tables: every table this package assembles
// is built once and then read by index lookup for the rest of the run, which
// is exactly the ordered-container shape btree.BTreeG targets.
func sortedTable[T comparable](items []T, less func(a, b T) bool) ([]T, map[T]int) {
	tr := btree.NewBTreeG(less)
	for _, it := range items {
		tr.Set(it)
	}
	out := make([]T, 0, tr.Len())
	tr.Scan(func(it T) bool {
		out = append(out, it)
		return true
	})
	idx := make(map[T]int, len(out))
	for i, it := range out {
		idx[it] = i
	}
	return out, idx
}
