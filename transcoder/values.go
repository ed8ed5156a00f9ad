package transcoder

import "github.com/wippyai/canonabi/resource"

// Values crossing the boundary use plain Go types for primitives (bool, sized
// integers, float32/float64, rune for char, string), []any for lists and
// tuples, map[string]any for records, resource.Handle for own and borrow, and
// the types below for the remaining kinds. Lifting always produces exactly
// these shapes; lowering is more lenient.

// Option is the value of an option<T>.
type Option struct {
	Value any
	Some  bool
}

// Some wraps v as a present option.
func Some(v any) Option {
	return Option{Some: true, Value: v}
}

// None is the absent option.
func None() Option {
	return Option{}
}

// Result is the value of a result<T, E>. Value is nil for an arm without payload.
type Result struct {
	Value any
	IsErr bool
}

// Ok wraps v as a success result.
func Ok(v any) Result {
	return Result{Value: v}
}

// Err wraps v as an error result.
func Err(v any) Result {
	return Result{IsErr: true, Value: v}
}

// Variant is the value of a variant: the active case name and its payload.
type Variant struct {
	Value any
	Case  string
}

// Enum is the value of an enum: the active case name.
type Enum string

// Flags is the value of a flags type: the set labels in declaration order.
type Flags []string

// Has reports whether label is set.
func (f Flags) Has(label string) bool {
	for _, l := range f {
		if l == label {
			return true
		}
	}
	return false
}

// Handle is the value of an own or borrow.
type Handle = resource.Handle
