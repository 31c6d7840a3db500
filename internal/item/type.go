package item

import "strings"

// DexType wraps one interned descriptor string and exposes the predicates
// and transformations spec.md §3 names: primitive, array, class, wide,
// reference, base-type, package, simple-name. There is no array-of
// transformation on DexType.
type DexType struct {
	descriptor *DexString
}

// Descriptor returns the raw type descriptor, e.g. "Ljava/lang/String;", "I", "[I".
func (t *DexType) Descriptor() string { return t.descriptor.String() }

func (t *DexType) IsPrimitive() bool {
	switch t.Descriptor()[0] {
	case 'V', 'Z', 'B', 'S', 'C', 'I', 'J', 'F', 'D':
		return len(t.Descriptor()) == 1
	}
	return false
}

func (t *DexType) IsArray() bool { return strings.HasPrefix(t.Descriptor(), "[") }

func (t *DexType) IsClass() bool { return strings.HasPrefix(t.Descriptor(), "L") }

func (t *DexType) IsVoid() bool { return t.Descriptor() == "V" }

// IsWide reports whether a value of this type occupies two register slots
// (long/double) per the DEX register model.
func (t *DexType) IsWide() bool {
	d := t.Descriptor()
	return d == "J" || d == "D"
}

func (t *DexType) IsReference() bool { return t.IsArray() || t.IsClass() }

// BaseType strips array dimensions, returning the element descriptor.
func (t *DexType) BaseType() string { return strings.TrimLeft(t.Descriptor(), "[") }

// ArrayDimensions returns the number of leading '[' characters.
func (t *DexType) ArrayDimensions() int {
	d := t.Descriptor()
	n := 0
	for n < len(d) && d[n] == '[' {
		n++
	}
	return n
}

// Package returns the '/'-separated package portion of a class descriptor,
// e.g. "java/lang" for "Ljava/lang/String;". Returns "" for primitives and
// arrays of primitives.
func (t *DexType) Package() string {
	if !t.IsClass() {
		return ""
	}
	inner := strings.TrimSuffix(strings.TrimPrefix(t.Descriptor(), "L"), ";")
	if i := strings.LastIndex(inner, "/"); i >= 0 {
		return inner[:i]
	}
	return ""
}

// SimpleName returns the unqualified class name, e.g. "String".
func (t *DexType) SimpleName() string {
	if !t.IsClass() {
		return t.Descriptor()
	}
	inner := strings.TrimSuffix(strings.TrimPrefix(t.Descriptor(), "L"), ";")
	if i := strings.LastIndex(inner, "/"); i >= 0 {
		return inner[i+1:]
	}
	return inner
}

// RegisterWidth returns 2 for wide primitives, 1 otherwise. Void types must
// never be queried for register width; callers that do so have a bug.
func (t *DexType) RegisterWidth() int {
	if t.IsWide() {
		return 2
	}
	return 1
}
