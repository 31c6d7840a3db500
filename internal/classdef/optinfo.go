package classdef

// FieldOptimizationInfo is the mutable per-field optimization fact bundle
// spec.md §3 calls out. It is populated across waves by the optimization
// pipeline (pass 3, member-value propagation) and the wave scheduler's
// delayed-feedback buffer (spec.md §5) — never mutated directly by a worker
// outside that buffer once the owning method enters a wave.
type FieldOptimizationInfo struct {
	// AbstractValue holds a known-constant value for this field if every
	// write the whole-program analysis has seen assigns the same constant,
	// or nil if the field's value is not known statically.
	AbstractValue interface{}
	IsRead        bool
	IsWritten     bool
	// DynamicallyDead reports a field proven never read (dead-code removal
	// pass, §4.3 step 17, uses this to also strip dead writes).
	DynamicallyDead bool
}

// MethodOptimizationInfo is the mutable per-method optimization fact bundle.
type MethodOptimizationInfo struct {
	ForceInline           bool
	NeverInline           bool
	Pinned                bool // keep-rule pinned (spec.md glossary); exempt from degrading optimizations
	ReturnedConstant      interface{}
	ReturnsConstantValue  bool
	InstructionCount      int
	InliningConstraint    InliningConstraint
	MayHaveSideEffects    bool
	ClassInitializerMerge bool // candidate for pass 16, class-initializer-defaults
	TriviallyDead         bool
	Bridge                bool
	// AlwaysThrows records that this method's body does nothing but raise an
	// exception on every path, set by pass 13 (always-throwing optimization)
	// so later waves calling this method can truncate their own call sites.
	AlwaysThrows bool
}

// InliningConstraint records why a method may or may not be inlined,
// matching the pipeline's step 4 bound ("pass the inlining constraint and
// size budget").
type InliningConstraint int

const (
	InlineAlways InliningConstraint = iota
	InlineSubjectToBudget
	InlineNever
)
