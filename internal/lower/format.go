package lower

import "math"

// fitsInt4 / fitsInt8 / fitsInt16 / fitsInt32 classify a constant's
// magnitude so selectConst can pick the narrowest const-* format that still
// represents it, matching the real DEX encoder's own size-minimizing
// behavior (spec.md §4.8).
func fitsInt4(v int64) bool  { return v >= -8 && v <= 7 }
func fitsInt8(v int64) bool  { return v >= math.MinInt8 && v <= math.MaxInt8 }
func fitsInt16(v int64) bool { return v >= math.MinInt16 && v <= math.MaxInt16 }
func fitsInt32(v int64) bool { return v >= math.MinInt32 && v <= math.MaxInt32 }

// constFormat picks the const/const-wide format for a materialized integer
// constant by magnitude: const/4 (11n) < const/16 (21s) < const (31i) <
// const-wide/16 (21s, wide) < const-wide/32 (31i, wide) < const-wide (51l).
func constFormat(value int64, wide bool) string {
	if !wide {
		switch {
		case fitsInt4(value):
			return "11n"
		case fitsInt16(value):
			return "21s"
		default:
			return "31i"
		}
	}
	switch {
	case fitsInt16(value):
		return "21s"
	case fitsInt32(value):
		return "31i"
	default:
		return "51l"
	}
}

// gotoFormat picks the goto width by branch distance in instruction units:
// goto (10t, ±7 bits) < goto/16 (20t) < goto/32 (30t). Distances here are
// measured in the lowered instruction index space (classdef.DexInstruction
// doc: "target instruction indices... not raw byte offsets"), so the
// thresholds are index-distance, not byte-distance.
func gotoFormat(distance int) string {
	switch {
	case distance >= -128 && distance <= 127:
		return "10t"
	case fitsInt16(int64(distance)):
		return "20t"
	default:
		return "30t"
	}
}

// ifFormat picks the conditional-branch width: if-* (21t/22t, ±16 bits
// reaching a 32-bit target) versus... DEX only has one width for if-*, but
// the register-count split (22t binary compare, 21t unary-vs-zero) depends
// on whether the comparison has one or two register operands.
func ifFormat(binary bool) string {
	if binary {
		return "22t"
	}
	return "21t"
}
