package abi

import (
	"math"
	"reflect"
)

// SafeMulU32 multiplies a and b, reporting false on overflow.
func SafeMulU32(a, b uint32) (uint32, bool) {
	if b != 0 && a > math.MaxUint32/b {
		return 0, false
	}
	return a * b, true
}

// SafeAddU32 adds a and b, reporting false on overflow.
func SafeAddU32(a, b uint32) (uint32, bool) {
	if a > math.MaxUint32-b {
		return 0, false
	}
	return a + b, true
}

// TypeName returns "nil" for nil values, avoiding reflect.TypeOf(nil) panic.
func TypeName(value any) string {
	if value == nil {
		return "nil"
	}
	return reflect.TypeOf(value).String()
}

// AlignTo rounds offset up to a multiple of align, a power of two.
func AlignTo(offset, align uint32) uint32 {
	if align == 0 {
		return offset
	}
	return (offset + align - 1) &^ (align - 1)
}

const (
	CanonicalNaN32 = 0x7fc00000
	CanonicalNaN64 = 0x7ff8000000000000
)

const (
	MaxStringSize = 1 << 30 // 1 GB max string size
	MaxListLength = 1 << 27 // 128M max elements
)

// CanonicalizeF32 maps every NaN to the canonical quiet NaN.
func CanonicalizeF32(bits uint32) uint32 {
	if f := math.Float32frombits(bits); f != f {
		return CanonicalNaN32
	}
	return bits
}

// CanonicalizeF64 maps every NaN to the canonical quiet NaN.
func CanonicalizeF64(bits uint64) uint64 {
	if f := math.Float64frombits(bits); f != f {
		return CanonicalNaN64
	}
	return bits
}

// ValidateChar reports whether r is a Unicode scalar value:
// not a surrogate and below 0x110000.
func ValidateChar(r rune) bool {
	if r >= 0xD800 && r <= 0xDFFF {
		return false
	}
	return r >= 0 && r < 0x110000
}
