// Package index implements DEX index-and-offset assembly (spec.md §4.7):
// given the set of references used by every emitted class and its code,
// assign each a total-ordered integer index, detect the uint16 overflow
// each non-string table is bound by, and record the first string requiring
// jumbo encoding. The chained comparators this sorts with live in
// internal/item/order.go (spec.md §4.1); this package supplies the
// btree-backed ordered-container assembly and the two steps order.go can't
// express on its own: class depth ordering and call-site/method-handle
// ordering.
package index

import (
	"github.com/corvid-dex/core/internal/classdef"
	"github.com/corvid-dex/core/internal/item"
)

// MaxTableSize is the uint16 index ceiling every table but strings is bound
// by (spec.md §4.7: "N ≤ 2¹⁶ ... except strings").
const MaxTableSize = 1 << 16

// Tables holds the finished total order over every reference kind, plus the
// lookup functions internal/lower needs to encode concrete index operands.
type Tables struct {
	Strings       []*item.DexString
	Types         []*item.DexType
	Protos        []*item.DexProto
	Methods       []*item.DexMethod
	Fields        []*item.DexField
	CallSites     []*item.DexCallSite
	MethodHandles []*item.DexMethodHandle

	// Classes lists every program class in emission order: (inheritance
	// depth, then type index) ascending, per spec.md §4.7 step 3.
	Classes []*classdef.Class

	// FirstJumboString is the index of the first string whose own index is
	// ≥ MaxTableSize, or -1 if the string table never reaches that size
	// (spec.md §4.7 step 1).
	FirstJumboString int

	stringIdx map[*item.DexString]int
	typeIdx   map[*item.DexType]int
	protoIdx  map[*item.DexProto]int
	methodIdx map[*item.DexMethod]int
	fieldIdx  map[*item.DexField]int
	siteIdx   map[*item.DexCallSite]int
	handleIdx map[*item.DexMethodHandle]int
}

func (t *Tables) StringIndex(s *item.DexString) int             { return t.stringIdx[s] }
func (t *Tables) TypeIndex(ty *item.DexType) int                { return t.typeIdx[ty] }
func (t *Tables) ProtoIndex(p *item.DexProto) int                { return t.protoIdx[p] }
func (t *Tables) MethodIndex(m *item.DexMethod) int              { return t.methodIdx[m] }
func (t *Tables) FieldIndex(f *item.DexField) int                { return t.fieldIdx[f] }
func (t *Tables) CallSiteIndex(c *item.DexCallSite) int          { return t.siteIdx[c] }
func (t *Tables) MethodHandleIndex(h *item.DexMethodHandle) int  { return t.handleIdx[h] }

// IsJumboString reports whether a reference to s must use the jumbo
// const-string/jumbo form rather than the regular 16-bit form.
func (t *Tables) IsJumboString(s *item.DexString) bool {
	return t.FirstJumboString >= 0 && t.stringIdx[s] >= t.FirstJumboString
}
