package item

import "sync"

// Pool is the process-wide interning factory named in spec.md §4.1. All
// construction of DexString/DexType/DexProto/DexMethod/DexField goes through
// a Pool so identity equality is semantic equality. Pool is safe for
// concurrent use: each kind gets its own RWMutex-guarded map, matching the
// wave scheduler's requirement (spec.md §5) that concurrent intern calls for
// equivalent inputs return the same reference without serializing unrelated
// kinds behind one lock.
type Pool struct {
	stringsMu sync.RWMutex
	strings   map[string]*DexString

	typesMu sync.RWMutex
	types   map[string]*DexType

	protosMu sync.RWMutex
	protos   map[string]*DexProto

	methodsMu sync.RWMutex
	methods   map[string]*DexMethod

	fieldsMu sync.RWMutex
	fields   map[string]*DexField
}

// NewPool creates an empty interning pool. Exactly one Pool should exist per
// compilation run (spec.md §3: "interned items live for the whole process").
func NewPool() *Pool {
	return &Pool{
		strings: make(map[string]*DexString),
		types:   make(map[string]*DexType),
		protos:  make(map[string]*DexProto),
		methods: make(map[string]*DexMethod),
		fields:  make(map[string]*DexField),
	}
}

// InternString returns the canonical DexString for s, creating it on first
// use. Concurrent calls for the same s always return the same pointer.
func (p *Pool) InternString(s string) *DexString {
	p.stringsMu.RLock()
	if v, ok := p.strings[s]; ok {
		p.stringsMu.RUnlock()
		return v
	}
	p.stringsMu.RUnlock()

	p.stringsMu.Lock()
	defer p.stringsMu.Unlock()
	if v, ok := p.strings[s]; ok {
		return v
	}
	v := &DexString{content: s, hash: hashString(s)}
	p.strings[s] = v
	return v
}

// InternType returns the canonical DexType for a descriptor such as "I" or
// "Ljava/lang/String;".
func (p *Pool) InternType(descriptor string) *DexType {
	p.typesMu.RLock()
	if v, ok := p.types[descriptor]; ok {
		p.typesMu.RUnlock()
		return v
	}
	p.typesMu.RUnlock()

	p.typesMu.Lock()
	defer p.typesMu.Unlock()
	if v, ok := p.types[descriptor]; ok {
		return v
	}
	v := &DexType{descriptor: p.InternString(descriptor)}
	p.types[descriptor] = v
	return v
}

// InternProto returns the canonical DexProto for (ret, params), computing
// and interning its shorty automatically.
func (p *Pool) InternProto(ret *DexType, params []*DexType) *DexProto {
	key := protoKey(ret, params)
	p.protosMu.RLock()
	if v, ok := p.protos[key]; ok {
		p.protosMu.RUnlock()
		return v
	}
	p.protosMu.RUnlock()

	p.protosMu.Lock()
	defer p.protosMu.Unlock()
	if v, ok := p.protos[key]; ok {
		return v
	}
	cp := make([]*DexType, len(params))
	copy(cp, params)
	v := &DexProto{
		ReturnType: ret,
		Params:     cp,
		Shorty:     p.InternString(ComputeShorty(ret, cp)),
	}
	p.protos[key] = v
	return v
}

func protoKey(ret *DexType, params []*DexType) string {
	key := ret.Descriptor() + "("
	for _, t := range params {
		key += t.Descriptor()
	}
	return key + ")"
}

// InternMethod returns the canonical DexMethod for (holder, proto, name).
func (p *Pool) InternMethod(holder *DexType, proto *DexProto, name string) *DexMethod {
	key := holder.Descriptor() + "->" + name + protoKey(proto.ReturnType, proto.Params)
	p.methodsMu.RLock()
	if v, ok := p.methods[key]; ok {
		p.methodsMu.RUnlock()
		return v
	}
	p.methodsMu.RUnlock()

	p.methodsMu.Lock()
	defer p.methodsMu.Unlock()
	if v, ok := p.methods[key]; ok {
		return v
	}
	v := &DexMethod{Holder: holder, Proto: proto, Name: p.InternString(name)}
	p.methods[key] = v
	return v
}

// InternField returns the canonical DexField for (holder, type, name).
func (p *Pool) InternField(holder, fieldType *DexType, name string) *DexField {
	key := holder.Descriptor() + "->" + name + ":" + fieldType.Descriptor()
	p.fieldsMu.RLock()
	if v, ok := p.fields[key]; ok {
		p.fieldsMu.RUnlock()
		return v
	}
	p.fieldsMu.RUnlock()

	p.fieldsMu.Lock()
	defer p.fieldsMu.Unlock()
	if v, ok := p.fields[key]; ok {
		return v
	}
	v := &DexField{Holder: holder, Type: fieldType, Name: p.InternString(name)}
	p.fields[key] = v
	return v
}
