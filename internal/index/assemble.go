package index

import (
	"fmt"
	"sort"

	"github.com/corvid-dex/core/internal/classdef"
	"github.com/corvid-dex/core/internal/diag"
	"github.com/corvid-dex/core/internal/item"
)

// Assemble runs the spec.md §4.7 index-and-offset assembly: gather every
// reference reachable from the program partition, then fix a total order
// over each table in strict dependency sequence (strings first, since every
// later table's comparator needs string indices already assigned; types
// next, since protos/methods/fields need type indices; then protos, then
// methods/fields/method-handles/call-sites). Any non-string table exceeding
// MaxTableSize fails with a KindIndexOverflow diagnostic naming the
// offending table and its entry count; the diagnostic does not name any
// individual entry of the table — the caller must shard
// the input across multiple DEX files rather than emit a partial one
// (spec.md §4.7, mandatory scenario: "70,000 distinct field references").
func Assemble(pool *item.Pool, graph *classdef.Graph) (*Tables, *diag.Diagnostic) {
	refs := Collect(pool, graph)
	t := &Tables{}

	// Step 1: strings, lexicographic byte order. Frozen before anything
	// else sorts, per the Open Question decision recorded in DESIGN.md.
	t.Strings, t.stringIdx = sortedTable(refs.Strings, func(a, b *item.DexString) bool {
		return item.CompareLex(a, b) < 0
	})
	t.FirstJumboString = -1
	if len(t.Strings) > MaxTableSize {
		t.FirstJumboString = MaxTableSize
	}

	// Step 2: types, ordered by the string-table index of their descriptor
	// (type indices don't exist yet, so step 2 can't use them).
	t.Types, t.typeIdx = sortedTable(refs.Types, func(a, b *item.DexType) bool {
		return item.CompareTypeByStringIndex(t.StringIndex)(a, b) < 0
	})
	if err := checkOverflow("type", len(t.Types)); err != nil {
		return nil, err
	}

	// Step 3: program classes, ordered by (inheritance depth, type index) so
	// a class's supertypes are always emitted before it.
	t.Classes = append([]*classdef.Class{}, refs.Classes...)
	sort.Slice(t.Classes, func(i, j int) bool {
		ci, cj := t.Classes[i], t.Classes[j]
		di, dj := graph.InheritanceDepth(ci.Type), graph.InheritanceDepth(cj.Type)
		if di != dj {
			return di < dj
		}
		return t.TypeIndex(ci.Type) < t.TypeIndex(cj.Type)
	})

	// Step 4: protos, ordered by (return type, params, shorty) using the
	// now-complete type and string tables.
	t.Protos, t.protoIdx = sortedTable(refs.Protos, func(a, b *item.DexProto) bool {
		return item.CompareProto(t.StringIndex, t.TypeIndex)(a, b) < 0
	})
	if err := checkOverflow("proto", len(t.Protos)); err != nil {
		return nil, err
	}

	// Step 5: methods and fields, ordered by (holder type, name, proto/type)
	// using the now-complete string/type/proto tables.
	t.Methods, t.methodIdx = sortedTable(refs.Methods, func(a, b *item.DexMethod) bool {
		return item.CompareMethod(t.StringIndex, t.TypeIndex, t.ProtoIndex)(a, b) < 0
	})
	if err := checkOverflow("method", len(t.Methods)); err != nil {
		return nil, err
	}

	t.Fields, t.fieldIdx = sortedTable(refs.Fields, func(a, b *item.DexField) bool {
		return item.CompareField(t.StringIndex, t.TypeIndex)(a, b) < 0
	})
	if err := checkOverflow("field", len(t.Fields)); err != nil {
		return nil, err
	}

	// Method-handles before call-sites: a call-site's bootstrap reference is
	// a method-handle, so the handle table must already be indexed.
	t.MethodHandles, t.handleIdx = sortedTable(refs.MethodHandles, compareMethodHandle(t.MethodIndex, t.FieldIndex))
	if err := checkOverflow("method handle", len(t.MethodHandles)); err != nil {
		return nil, err
	}

	t.CallSites, t.siteIdx = sortedTable(refs.CallSites, compareCallSite(t.StringIndex, t.ProtoIndex, t.MethodHandleIndex))
	if err := checkOverflow("call site", len(t.CallSites)); err != nil {
		return nil, err
	}

	return t, nil
}

func checkOverflow(table string, n int) *diag.Diagnostic {
	if n <= MaxTableSize {
		return nil
	}
	return diag.New(diag.KindIndexOverflow,
		fmt.Sprintf("%s table has %d entries, exceeding the %d-entry DEX index limit; shard the input across multiple DEX files", table, n, MaxTableSize),
		nil)
}
