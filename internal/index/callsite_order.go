package index

import "github.com/corvid-dex/core/internal/item"

// Call-sites and method-handles round out the six tables spec.md §4.7 names
// ("sort methods/fields/call-sites/method-handles the same way") but
// internal/item/order.go has no comparator for either, since DexCallSite and
// DexMethodHandle live outside the core string/type/proto/method/field set
// it was written for. These two small comparators close that gap, built
// against the already-complete method/field/proto/string tables exactly the
// way CompareMethod/CompareField are.

// compareMethodHandle orders handles by (kind, then the already-assigned
// index of whichever of the method or field table the handle resolves into).
func compareMethodHandle(methodIndexOf func(*item.DexMethod) int, fieldIndexOf func(*item.DexField) int) func(a, b *item.DexMethodHandle) bool {
	rank := func(h *item.DexMethodHandle) int {
		switch ref := h.FieldOrRef.(type) {
		case *item.DexMethod:
			return methodIndexOf(ref)
		case *item.DexField:
			return fieldIndexOf(ref)
		}
		return 0
	}
	return func(a, b *item.DexMethodHandle) bool {
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		return rank(a) < rank(b)
	}
}

func compareCallSite(stringIndexOf func(*item.DexString) int, protoIndexOf func(*item.DexProto) int, handleIndexOf func(*item.DexMethodHandle) int) func(a, b *item.DexCallSite) bool {
	return func(a, b *item.DexCallSite) bool {
		if x, y := stringIndexOf(a.MethodName), stringIndexOf(b.MethodName); x != y {
			return x < y
		}
		if x, y := protoIndexOf(a.MethodProto), protoIndexOf(b.MethodProto); x != y {
			return x < y
		}
		return handleIndexOf(a.BootstrapRef) < handleIndexOf(b.BootstrapRef)
	}
}
