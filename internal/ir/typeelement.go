package ir

import "github.com/corvid-dex/core/internal/item"

// TypeElement is the inferred type carried by every SSA Value: a primitive
// or a reference with nullability and an optional refined interface set
// (spec.md §3).
type TypeElement struct {
	// Primitive is non-nil for a primitive element (one of I, J, F, D, Z,
	// B, S, C, or V for the degenerate "no value" element attached to
	// void-returning invokes before their move-result is rewritten away).
	Primitive *item.DexType
	// ClassType is non-nil for a reference element: the single most
	// specific known class or array type.
	ClassType *item.DexType
	// Interfaces records additional interfaces this value is statically
	// known to implement beyond what ClassType itself declares — used by
	// devirtualization (pass 6) when a value's declared type doesn't name
	// the interface being invoked through but refinement has proven it.
	Interfaces []*item.DexType
	Nullable   bool
}

func PrimitiveType(t *item.DexType) TypeElement { return TypeElement{Primitive: t} }

func ReferenceType(t *item.DexType, nullable bool) TypeElement {
	return TypeElement{ClassType: t, Nullable: nullable}
}

// NullType is the type of the literal `null`: a reference with no class,
// always nullable, meets with any reference type to that type.
func NullType() TypeElement { return TypeElement{Nullable: true} }

func (t TypeElement) IsPrimitive() bool { return t.Primitive != nil }
func (t TypeElement) IsReference() bool { return !t.IsPrimitive() }
func (t TypeElement) IsNullType() bool  { return t.IsReference() && t.ClassType == nil }

func (t TypeElement) IsWide() bool {
	return t.IsPrimitive() && t.Primitive.IsWide()
}

// ClassHierarchyResolver answers "is a assignable to b" and "what is the
// least common ancestor of a and b" queries needed by the phi type lattice
// meet. internal/classdef.Graph satisfies this; ir stays decoupled from
// classdef to avoid an import cycle (ir/build depends on both).
type ClassHierarchyResolver interface {
	IsAssignable(sub, super *item.DexType) bool
	LeastCommonAncestor(a, b *item.DexType) *item.DexType
}

// Meet computes the type-lattice meet of two SSA values arriving at a phi:
// primitive types meet only with a primitive of the same width (spec.md
// §4.2 invariant), reference types meet to their least common ancestor with
// nullability preserved if either operand is nullable. Returns ok=false if
// the meet is undefined (e.g. primitive meeting reference). The IR builder
// does not call Meet, so it does not report inconsistent register types at
// a join.
func Meet(a, b TypeElement, resolver ClassHierarchyResolver) (TypeElement, bool) {
	if a.IsNullType() {
		return ReferenceType(b.ClassType, true), b.IsReference()
	}
	if b.IsNullType() {
		return ReferenceType(a.ClassType, true), a.IsReference()
	}
	if a.IsPrimitive() != b.IsPrimitive() {
		return TypeElement{}, false
	}
	if a.IsPrimitive() {
		if a.Primitive.RegisterWidth() != b.Primitive.RegisterWidth() {
			return TypeElement{}, false
		}
		if a.Primitive == b.Primitive {
			return a, true
		}
		// Distinct same-width primitives (e.g. int/float) still meet —
		// DEX itself is not type-strict here; the first operand's
		// primitive type is kept.
		return a, true
	}
	nullable := a.Nullable || b.Nullable
	if a.ClassType == b.ClassType {
		return ReferenceType(a.ClassType, nullable), true
	}
	if resolver == nil {
		return ReferenceType(nil, true), true
	}
	lca := resolver.LeastCommonAncestor(a.ClassType, b.ClassType)
	return ReferenceType(lca, nullable), true
}
