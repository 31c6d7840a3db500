package item

// DexCallSite and DexMethodHandle round out the six index-assembly tables
// named in spec.md §4.7 (call-sites, method-handles) beyond the core
// string/type/proto/field/method set. They are produced by invoke-dynamic
// desugaring bookkeeping (spec.md §4.4) and, once lambdas are rewritten to
// invoke-static, are typically empty for DEX output targeting older APIs —
// kept so the index assembly has a uniform table shape to sort.
type MethodHandleKind int

const (
	MethodHandleStaticPut MethodHandleKind = iota
	MethodHandleStaticGet
	MethodHandleInstancePut
	MethodHandleInstanceGet
	MethodHandleInvokeStatic
	MethodHandleInvokeInstance
	MethodHandleInvokeConstructor
	MethodHandleInvokeInterface
)

type DexMethodHandle struct {
	Kind       MethodHandleKind
	FieldOrRef interface{} // *DexField for field handles, *DexMethod for invoke handles
}

type DexCallSite struct {
	MethodName   *DexString
	MethodProto  *DexProto
	BootstrapRef *DexMethodHandle
	ExtraArgs    []interface{}
}
