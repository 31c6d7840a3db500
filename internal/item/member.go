package item

// DexMethod is (holder type, proto, name); DexField is (holder type, type,
// name). Both are interned: identity comparison decides equality (spec.md §3).
type DexMethod struct {
	Holder *DexType
	Proto  *DexProto
	Name   *DexString
}

type DexField struct {
	Holder *DexType
	Type   *DexType
	Name   *DexString
}

// QualifiedName renders "Holder;->name" style identifiers used in
// diagnostics and in synthesized-name generation (spec.md §9 synthetic
// naming scheme).
func (m *DexMethod) QualifiedName() string {
	return m.Holder.Descriptor() + "->" + m.Name.String()
}

func (f *DexField) QualifiedName() string {
	return f.Holder.Descriptor() + "->" + f.Name.String()
}
