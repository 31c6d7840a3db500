package item

// DexProto is (return-type, ordered parameter type list, shorty) per
// spec.md §3. Shorty is one char per type: 'V' void, 'L' any reference,
// primitives use their own letter.
type DexProto struct {
	ReturnType *DexType
	Params     []*DexType
	Shorty     *DexString
}

// ParamRegisterWidth returns the total register slots needed to pass Params,
// used by the bytecode lowerer (§4.8) and the range-invoke splitter (pass 11).
func (p *DexProto) ParamRegisterWidth() int {
	n := 0
	for _, t := range p.Params {
		n += t.RegisterWidth()
	}
	return n
}

func shortyChar(t *DexType) byte {
	if t.IsVoid() {
		return 'V'
	}
	if t.IsReference() {
		return 'L'
	}
	return t.Descriptor()[0]
}

// ComputeShorty derives the shorty descriptor for (ret, params) without
// requiring the caller to pre-build it; the pool interns the result so two
// protos with the same shape share one shorty string.
func ComputeShorty(ret *DexType, params []*DexType) string {
	buf := make([]byte, 0, len(params)+1)
	buf = append(buf, shortyChar(ret))
	for _, p := range params {
		buf = append(buf, shortyChar(p))
	}
	return string(buf)
}
