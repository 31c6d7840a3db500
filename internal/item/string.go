// Package item implements the interned descriptor pool (spec.md §3, §4.1): a
// process-wide intern table for DEX strings, types, protos, fields, and methods.
// Two interned items are equal iff they are the same Go pointer.
package item

import "hash/fnv"

// DexString is a length-prefixed modified-UTF8 byte sequence with a cached
// hash. All instances come from Pool.InternString so pointer identity is
// semantic identity.
type DexString struct {
	content string
	hash    uint64
}

// String returns the decoded Go string. The pool stores modified-UTF8 bytes
// verbatim; decoding to a Go string is lossless for the ASCII/BMP range this
// compiler core touches (surrogate-pair encoded astral characters are kept
// as opaque byte sequences rather than re-validated here, since the input
// reader is out of scope per spec.md §1).
func (s *DexString) String() string { return s.content }

// Hash returns the cached FNV-1a hash of the encoded content.
func (s *DexString) Hash() uint64 { return s.hash }

// Len returns the UTF-16 code-unit count needed for the DEX string_id_item's
// utf16_size field. Surrogate pairs count as two units, matching modified
// UTF-8's own encoding of astral characters as a pair.
func (s *DexString) Len() int {
	n := 0
	for _, r := range s.content {
		if r > 0xFFFF {
			n += 2
		} else {
			n++
		}
	}
	return n
}

func hashString(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}
