package classdef

import "github.com/corvid-dex/core/internal/item"

// Annotation is a minimal (type, element-name/value pairs) payload. Full
// annotation-value encoding is an emission-boundary concern; the core only
// needs to carry annotations through passes unmodified and query their type.
type Annotation struct {
	Type       *item.DexType
	Visibility AnnotationVisibility
	Elements   map[string]interface{}
}

type AnnotationVisibility int

const (
	VisibilityBuild AnnotationVisibility = iota
	VisibilityRuntime
	VisibilitySystem
)

// AnnotationSet is an ordered, deduplicated collection of annotations
// attached to a class or member.
type AnnotationSet struct {
	Annotations []Annotation
}

func (s *AnnotationSet) HasType(t *item.DexType) bool {
	for _, a := range s.Annotations {
		if a.Type == t {
			return true
		}
	}
	return false
}
