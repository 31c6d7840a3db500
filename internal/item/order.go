package item

import "strings"

// Comparator compares two values the way strings.Compare does: negative if
// a precedes b, zero if equal, positive otherwise.
type Comparator[T any] func(a, b T) int

// Then chains comparators left to right, returning the first non-zero
// result — the "compare visitor traverses two mappings in lock-step and
// returns the first non-zero component difference" behavior of spec.md §4.1.
func Then[T any](stages ...Comparator[T]) Comparator[T] {
	return func(a, b T) int {
		for _, stage := range stages {
			if r := stage(a, b); r != 0 {
				return r
			}
		}
		return 0
	}
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// CompareLex is visitor (1): strings compared by byte value. Used once, to
// establish the string table's own total order (spec.md §4.7 step 1).
func CompareLex(a, b *DexString) int { return strings.Compare(a.content, b.content) }

// StringIndexFn looks up a string's already-assigned table index.
type StringIndexFn func(*DexString) int

// TypeIndexFn looks up a type's already-assigned table index.
type TypeIndexFn func(*DexType) int

// CompareByStringIndex is visitor (2): compares strings by assigned index,
// smaller index precedes larger. Requires the string table to be complete.
func CompareByStringIndex(indexOf StringIndexFn) Comparator[*DexString] {
	return func(a, b *DexString) int { return compareInt(indexOf(a), indexOf(b)) }
}

// CompareTypeByStringIndex compares two types by the string-table index of
// their descriptor — used while the type table itself is being sorted,
// since type indices do not exist yet (spec.md §4.7 step 2).
func CompareTypeByStringIndex(indexOf StringIndexFn) Comparator[*DexType] {
	return func(a, b *DexType) int { return compareInt(indexOf(a.descriptor), indexOf(b.descriptor)) }
}

// CompareByTypeIndex is visitor (3): compares types by their assigned
// index. Requires the type table to be complete.
func CompareByTypeIndex(indexOf TypeIndexFn) Comparator[*DexType] {
	return func(a, b *DexType) int { return compareInt(indexOf(a), indexOf(b)) }
}

// CompareTypeSlice lifts an element comparator to (shorter-prefix-first,
// then first differing element) order over parameter-type lists.
func CompareTypeSlice(cmp Comparator[*DexType]) Comparator[[]*DexType] {
	return func(a, b []*DexType) int {
		n := len(a)
		if len(b) < n {
			n = len(b)
		}
		for i := 0; i < n; i++ {
			if r := cmp(a[i], b[i]); r != 0 {
				return r
			}
		}
		return compareInt(len(a), len(b))
	}
}

// CompareProto is visitor (3) applied to protos: (return type, parameter
// list, shorty) per spec.md §4.7 step 4. Shorty is a string field and is
// ordered using the already-complete string table (stringsIdx), while
// return/param types use the already-complete type table (typesIdx).
func CompareProto(stringsIdx StringIndexFn, typesIdx TypeIndexFn) Comparator[*DexProto] {
	cmpType := CompareByTypeIndex(typesIdx)
	cmpParams := CompareTypeSlice(cmpType)
	cmpShorty := CompareByStringIndex(stringsIdx)
	return func(a, b *DexProto) int {
		if r := cmpType(a.ReturnType, b.ReturnType); r != 0 {
			return r
		}
		if r := cmpParams(a.Params, b.Params); r != 0 {
			return r
		}
		return cmpShorty(a.Shorty, b.Shorty)
	}
}

// ProtoIndexFn looks up a proto's already-assigned table index.
type ProtoIndexFn func(*DexProto) int

// CompareMethod orders (holder type, name, proto) — spec.md §4.7 step 5.
func CompareMethod(stringsIdx StringIndexFn, typesIdx TypeIndexFn, protosIdx ProtoIndexFn) Comparator[*DexMethod] {
	cmpType := CompareByTypeIndex(typesIdx)
	cmpName := CompareByStringIndex(stringsIdx)
	return func(a, b *DexMethod) int {
		if r := cmpType(a.Holder, b.Holder); r != 0 {
			return r
		}
		if r := cmpName(a.Name, b.Name); r != 0 {
			return r
		}
		return compareInt(protosIdx(a.Proto), protosIdx(b.Proto))
	}
}

// CompareField orders (holder type, name, field type) — spec.md §4.7 step 5.
func CompareField(stringsIdx StringIndexFn, typesIdx TypeIndexFn) Comparator[*DexField] {
	cmpType := CompareByTypeIndex(typesIdx)
	cmpName := CompareByStringIndex(stringsIdx)
	return func(a, b *DexField) int {
		if r := cmpType(a.Holder, b.Holder); r != 0 {
			return r
		}
		if r := cmpName(a.Name, b.Name); r != 0 {
			return r
		}
		return cmpType(a.Type, b.Type)
	}
}
