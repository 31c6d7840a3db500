package classdef

import "github.com/corvid-dex/core/internal/item"

// ClassKind tags which of the three partitions named in spec.md §2/§3 a
// Class belongs to. Per spec.md §9's redesign note this replaces what the
// original system modeled as a Program/Classpath/Library inheritance
// ladder: the three kinds share one field block, and the handful of
// behaviors that actually differ (isProgramClass, hasBodies, emitsToDex)
// become small capability methods instead of virtual dispatch.
type ClassKind int

const (
	KindProgram ClassKind = iota
	KindClasspath
	KindLibrary
)

// InnerClassAttr mirrors the class-file InnerClasses/EnclosingMethod
// attributes named in spec.md §3.
type InnerClassAttr struct {
	InnerType       *item.DexType
	OuterType       *item.DexType // nil for anonymous/local classes with no enclosing type
	InnerName       string        // "" for anonymous classes
	EnclosingMethod *item.DexMethod // nil unless InnerType was declared inside a method body
}

// ProgramClassExtra holds the fields only meaningful for Kind == KindProgram:
// mutability, emission bookkeeping, and desugaring provenance.
type ProgramClassExtra struct {
	// ChecksumFn supplies a CRC for already-compiled classes (spec.md §9
	// supplemented feature). Nothing in this module calls it; the index
	// assembly orders class defs by inheritance depth and type index only.
	ChecksumFn func() uint32
	// ClassFileVersion is the original class-file major.minor version this
	// program class was read from, used to pick the emitted DEX/class-file
	// floor consistent with spec.md §6.
	ClassFileVersion int
	// SynthesizedFrom names every class this one was synthesized as a
	// companion/lambda/outline of (spec.md §3 "synthesized-from ancestors").
	SynthesizedFrom []*item.DexType
}

// Class is the shared shape for all three partitions (spec.md §3).
type Class struct {
	Kind ClassKind

	Type       *item.DexType
	Access     AccessFlags
	SuperType  *item.DexType // nil only for java.lang.Object
	Interfaces []*item.DexType

	SourceFile       string
	NestHost         *item.DexType
	NestMembers      []*item.DexType
	InnerClasses     []InnerClassAttr
	GenericSignature string
	Annotations      AnnotationSet

	StaticFields   []*EncodedField
	InstanceFields []*EncodedField
	DirectMethods  []*EncodedMethod
	VirtualMethods []*EncodedMethod

	Program *ProgramClassExtra // non-nil iff Kind == KindProgram
}

// IsProgramClass reports whether this class participates in emission and
// may be mutated by optimization passes.
func (c *Class) IsProgramClass() bool { return c.Kind == KindProgram }

// HasBodies reports whether this class's methods carry executable Code.
// Classpath and library methods never do (spec.md §3 invariant).
func (c *Class) HasBodies() bool { return c.Kind == KindProgram }

// EmitsToDex reports whether this class is written to the output container.
// Only program classes are (classpath/library classes exist purely as
// resolution context).
func (c *Class) EmitsToDex() bool { return c.Kind == KindProgram }

// AllFields returns static then instance fields, the canonical order used
// for structural hashing (spec.md §3 invariant: "every member array is
// sorted deterministically before structural hashing").
func (c *Class) AllFields() []*EncodedField {
	out := make([]*EncodedField, 0, len(c.StaticFields)+len(c.InstanceFields))
	out = append(out, c.StaticFields...)
	out = append(out, c.InstanceFields...)
	return out
}

// AllMethods returns direct then virtual methods.
func (c *Class) AllMethods() []*EncodedMethod {
	out := make([]*EncodedMethod, 0, len(c.DirectMethods)+len(c.VirtualMethods))
	out = append(out, c.DirectMethods...)
	out = append(out, c.VirtualMethods...)
	return out
}

// LookupMethod finds a direct or virtual method of this class by reference
// identity.
func (c *Class) LookupMethod(ref *item.DexMethod) *EncodedMethod {
	for _, m := range c.AllMethods() {
		if m.Ref == ref {
			return m
		}
	}
	return nil
}

func (c *Class) LookupField(ref *item.DexField) *EncodedField {
	for _, f := range c.AllFields() {
		if f.Ref == ref {
			return f
		}
	}
	return nil
}

// NewLibraryClass constructs a Library-partition class, stripping static
// field initializers on construction per spec.md §3 invariant ("library
// classes: static-field initializers stripped on construction").
func NewLibraryClass(base Class) *Class {
	c := base
	c.Kind = KindLibrary
	c.Program = nil
	for _, f := range c.StaticFields {
		f.StaticValue = nil
	}
	return &c
}

// NewClasspathClass constructs a Classpath-partition class. Bodies may be
// discarded by the (out-of-scope) reader; this constructor does not force
// that, it only fixes the Kind tag and disables the Program extra.
func NewClasspathClass(base Class) *Class {
	c := base
	c.Kind = KindClasspath
	c.Program = nil
	return &c
}

// NewProgramClass constructs a Program-partition class with the given
// mutable extra bookkeeping.
func NewProgramClass(base Class, extra ProgramClassExtra) *Class {
	c := base
	c.Kind = KindProgram
	c.Program = &extra
	return &c
}
