package abi

import "math"

// Unsigned converts a Go numeric value to an unsigned integer of the given bit
// width. Negative, fractional, and out-of-range inputs report false.
// Floats are accepted so that values decoded from JSON round-trip.
func Unsigned(value any, bits uint) (uint64, bool) {
	limit := uint64(math.MaxUint64)
	if bits < 64 {
		limit = 1<<bits - 1
	}

	var u uint64
	switch v := value.(type) {
	case uint8:
		u = uint64(v)
	case uint16:
		u = uint64(v)
	case uint32:
		u = uint64(v)
	case uint64:
		u = v
	case uint:
		u = uint64(v)
	case int8, int16, int32, int64, int:
		s, _ := signedOf(v)
		if s < 0 {
			return 0, false
		}
		u = uint64(s)
	case float64:
		if v < 0 || v >= 1<<64 || v != math.Trunc(v) {
			return 0, false
		}
		u = uint64(v)
	case float32:
		f := float64(v)
		if f < 0 || f >= 1<<64 || f != math.Trunc(f) {
			return 0, false
		}
		u = uint64(f)
	default:
		return 0, false
	}
	if u > limit {
		return 0, false
	}
	return u, true
}

// Signed converts a Go numeric value to a signed integer of the given bit width.
func Signed(value any, bits uint) (int64, bool) {
	lo, hi := int64(math.MinInt64), int64(math.MaxInt64)
	if bits < 64 {
		hi = 1<<(bits-1) - 1
		lo = -hi - 1
	}

	var s int64
	switch v := value.(type) {
	case int8, int16, int32, int64, int:
		s, _ = signedOf(v)
	case uint8:
		s = int64(v)
	case uint16:
		s = int64(v)
	case uint32:
		s = int64(v)
	case uint64:
		if v > math.MaxInt64 {
			return 0, false
		}
		s = int64(v)
	case uint:
		if uint64(v) > math.MaxInt64 {
			return 0, false
		}
		s = int64(v)
	case float64:
		if v < -(1<<63) || v >= 1<<63 || v != math.Trunc(v) {
			return 0, false
		}
		s = int64(v)
	case float32:
		f := float64(v)
		if f < -(1<<63) || f >= 1<<63 || f != math.Trunc(f) {
			return 0, false
		}
		s = int64(f)
	default:
		return 0, false
	}
	if s < lo || s > hi {
		return 0, false
	}
	return s, true
}

// Float converts a Go numeric value to float64. Integers are accepted.
func Float(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int8, int16, int32, int64, int:
		s, _ := signedOf(v)
		return float64(s), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case uint:
		return float64(v), true
	}
	return 0, false
}

func signedOf(value any) (int64, bool) {
	switch v := value.(type) {
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case int:
		return int64(v), true
	}
	return 0, false
}
