package classdef

import "github.com/corvid-dex/core/internal/item"

// EncodedField holds a field reference, access flags, generic signature,
// annotations, optional static initializer value, a deprecated bit, and
// mutable optimization info (spec.md §3).
type EncodedField struct {
	Ref               *item.DexField
	Access            AccessFlags
	GenericSignature  string
	Annotations       AnnotationSet
	StaticValue       interface{} // nil when the field has no encoded initializer
	Deprecated        bool
	OptimizationInfo  FieldOptimizationInfo
}

// EncodedMethod additionally holds parameter annotations, a Code payload,
// and mutable optimization/bridge/inlining-constraint info (spec.md §3).
//
// Invariant: OptimizationInfo may only be mutated while the method is
// "not yet processed" by the current wave, or through the wave scheduler's
// delayed-feedback buffer (spec.md §5) — see internal/wave.FeedbackBuffer.
type EncodedMethod struct {
	Ref              *item.DexMethod
	Access           AccessFlags
	GenericSignature string
	Annotations      AnnotationSet
	ParamAnnotations []AnnotationSet
	Code             *Code
	OptimizationInfo MethodOptimizationInfo

	// processed marks that this method has exited its primary wave; further
	// OptimizationInfo writes must go through the feedback buffer.
	processed bool
}

func (m *EncodedMethod) MarkProcessed() { m.processed = true }
func (m *EncodedMethod) IsProcessed() bool { return m.processed }

// HasBody reports whether this method carries executable code. Classpath
// and library methods never have bodies (spec.md §3 class invariant).
func (m *EncodedMethod) HasBody() bool { return m.Code != nil }

// IsEmptyVoidMethod delegates to the Code payload (spec.md §8).
func (m *EncodedMethod) IsEmptyVoidMethod() bool { return m.Code.IsEmptyVoidMethod() }
