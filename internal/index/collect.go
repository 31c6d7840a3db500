package index

import (
	"github.com/corvid-dex/core/internal/classdef"
	"github.com/corvid-dex/core/internal/item"
)

// ReferenceSet is every distinct reference reachable from the program
// partition's class declarations and lowered DEX code, gathered before
// Assemble sorts and indexes each table (spec.md §4.7: "given the set of
// references used by every emitted class and its code").
type ReferenceSet struct {
	Strings       []*item.DexString
	Types         []*item.DexType
	Protos        []*item.DexProto
	Methods       []*item.DexMethod
	Fields        []*item.DexField
	CallSites     []*item.DexCallSite
	MethodHandles []*item.DexMethodHandle
	Classes       []*classdef.Class
}

// Collect walks every program class's declaration (own type, supertype,
// interfaces, fields, methods) and any already-lowered DEX code to gather
// the full reference set. Classpath/library classes are consulted only as
// far as a program class's own supertype/interface list reaches into them;
// their own members are never indexed, since only program classes emit to
// the output container (classdef.Class.EmitsToDex).
func Collect(pool *item.Pool, graph *classdef.Graph) *ReferenceSet {
	c := &collector{
		pool:      pool,
		strings:   map[*item.DexString]bool{},
		types:     map[*item.DexType]bool{},
		protos:    map[*item.DexProto]bool{},
		methods:   map[*item.DexMethod]bool{},
		fields:    map[*item.DexField]bool{},
		callSites: map[*item.DexCallSite]bool{},
		handles:   map[*item.DexMethodHandle]bool{},
	}
	for _, cls := range graph.ProgramClasses() {
		c.visitClass(cls)
	}
	return c.build()
}

type collector struct {
	pool *item.Pool

	strings   map[*item.DexString]bool
	types     map[*item.DexType]bool
	protos    map[*item.DexProto]bool
	methods   map[*item.DexMethod]bool
	fields    map[*item.DexField]bool
	callSites map[*item.DexCallSite]bool
	handles   map[*item.DexMethodHandle]bool
	classes   []*classdef.Class
}

func (c *collector) visitClass(cls *classdef.Class) {
	c.classes = append(c.classes, cls)
	c.addType(cls.Type)
	if cls.SuperType != nil {
		c.addType(cls.SuperType)
	}
	for _, iface := range cls.Interfaces {
		c.addType(iface)
	}
	for _, f := range cls.AllFields() {
		c.addField(f.Ref)
	}
	for _, m := range cls.AllMethods() {
		c.addMethod(m.Ref)
		if m.Code != nil && m.Code.Kind == classdef.CodeKindDex && m.Code.Dex != nil {
			c.visitDexCode(m.Code.Dex)
		}
	}
}

func (c *collector) visitDexCode(code *classdef.DexCode) {
	for i := range code.Instructions {
		insn := &code.Instructions[i]
		if insn.StringRef != nil {
			c.addString(insn.StringRef)
		}
		if insn.TypeRef != nil {
			c.addType(insn.TypeRef)
		}
		if insn.FieldRef != nil {
			c.addField(insn.FieldRef)
		}
		if insn.MethodRef != nil {
			c.addMethod(insn.MethodRef)
		}
		if insn.ProtoRef != nil {
			c.addProto(insn.ProtoRef)
		}
		if insn.CallSiteRef != nil {
			c.addCallSite(insn.CallSiteRef)
		}
	}
	for _, h := range code.Handlers {
		for _, p := range h.Pairs {
			c.addType(p.ExceptionType)
		}
	}
	if code.Debug != nil {
		for _, name := range code.Debug.ParamNames {
			c.addString(name)
		}
		for _, ev := range code.Debug.Events {
			if ev.LocalName != nil {
				c.addString(ev.LocalName)
			}
			if ev.LocalType != nil {
				c.addType(ev.LocalType)
			}
			if ev.FileName != nil {
				c.addString(ev.FileName)
			}
		}
	}
}

func (c *collector) addString(s *item.DexString) {
	if s == nil || c.strings[s] {
		return
	}
	c.strings[s] = true
}

// addType also pulls the type's own descriptor into the string table —
// interning through the same Pool the type itself was built from returns
// the exact *DexString the type already references, so no direct accessor
// into DexType's private descriptor field is needed.
func (c *collector) addType(t *item.DexType) {
	if t == nil || c.types[t] {
		return
	}
	c.types[t] = true
	c.addString(c.pool.InternString(t.Descriptor()))
}

func (c *collector) addProto(p *item.DexProto) {
	if p == nil || c.protos[p] {
		return
	}
	c.protos[p] = true
	c.addType(p.ReturnType)
	for _, t := range p.Params {
		c.addType(t)
	}
	c.addString(p.Shorty)
}

func (c *collector) addMethod(m *item.DexMethod) {
	if m == nil || c.methods[m] {
		return
	}
	c.methods[m] = true
	c.addType(m.Holder)
	c.addProto(m.Proto)
	c.addString(m.Name)
}

func (c *collector) addField(f *item.DexField) {
	if f == nil || c.fields[f] {
		return
	}
	c.fields[f] = true
	c.addType(f.Holder)
	c.addType(f.Type)
	c.addString(f.Name)
}

func (c *collector) addCallSite(cs *item.DexCallSite) {
	if cs == nil || c.callSites[cs] {
		return
	}
	c.callSites[cs] = true
	c.addString(cs.MethodName)
	c.addProto(cs.MethodProto)
	c.addMethodHandle(cs.BootstrapRef)
}

func (c *collector) addMethodHandle(h *item.DexMethodHandle) {
	if h == nil || c.handles[h] {
		return
	}
	c.handles[h] = true
	switch ref := h.FieldOrRef.(type) {
	case *item.DexMethod:
		c.addMethod(ref)
	case *item.DexField:
		c.addField(ref)
	}
}

func (c *collector) build() *ReferenceSet {
	rs := &ReferenceSet{Classes: c.classes}
	for s := range c.strings {
		rs.Strings = append(rs.Strings, s)
	}
	for t := range c.types {
		rs.Types = append(rs.Types, t)
	}
	for p := range c.protos {
		rs.Protos = append(rs.Protos, p)
	}
	for m := range c.methods {
		rs.Methods = append(rs.Methods, m)
	}
	for f := range c.fields {
		rs.Fields = append(rs.Fields, f)
	}
	for cs := range c.callSites {
		rs.CallSites = append(rs.CallSites, cs)
	}
	for h := range c.handles {
		rs.MethodHandles = append(rs.MethodHandles, h)
	}
	return rs
}
