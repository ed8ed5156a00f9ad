// Package transcoder provides Canonical ABI lowering and lifting.
//
// This package converts Go values typed by a types.Graph to and from the
// Component Model's core representation: a flat list of i32/i64/f32/f64
// slots plus bytes in a component's linear memory.
//
//	┌─────────────────────────────────────────────────────────────┐
//	│ Go Value ←→ [Encoder/Decoder] ←→ Core Slots + Linear Memory │
//	└─────────────────────────────────────────────────────────────┘
//
// # Memory Layout
//
//	Type            Size            Alignment
//	─────────────────────────────────────────────
//	bool            1               1
//	u8/s8           1               1
//	u16/s16         2               2
//	u32/s32/f32     4               4
//	u64/s64/f64     8               8
//	char            4               4
//	string/list     8               4 (ptr + len)
//	own/borrow      4               4 (handle id)
//	record/tuple    sum, padded     max field align
//	variant         disc + payload  max(disc, max case align)
//	enum            1/2/4           by case count
//	flags           0/1/2/4n        1/1/2/4 by label count
//
// LayoutCalculator computes and memoizes these per TypeID.
//
// # Flattening
//
// Records and tuples flatten to the concatenation of their fields. A
// variant, option or result flattens to an i32 discriminant followed by the
// slot-wise join of every case payload: equal kinds stay, i32 with f32
// becomes i32, anything else becomes i64. Lowering writes the active payload
// and zero-fills the rest; lifting narrows the slots back to the case's own
// kinds.
//
// A parameter list longer than MaxFlatParams (16) slots, or a result list
// longer than MaxFlatResults (1), is stored as a tuple in linear memory and
// passed as a single i32 pointer:
//
//	func add(a: u32, b: u32) -> u32
//	Core: (i32, i32) -> i32          [flat]
//
//	func get-data() -> list<u8>
//	Core: () -> i32                  [result through memory]
//
// # Values
//
// Lifting produces bool, sized integers, float32/float64, rune, string,
// []any (lists, tuples), map[string]any (records), Option, Result, Variant,
// Enum, Flags and resource.Handle. Lowering also accepts untyped Go ints and
// float64 where they fit the declared width, single-rune strings for char,
// and any Go slice for a list.
//
// # Resources
//
// Own and borrow values cross through the HandleLowerer and HandleLifter
// contracts carried by LowerContext and LiftContext. resource.Boundary
// implements both.
//
// # Allocation
//
// Strings, lists and indirect lists are written into memory obtained from
// the Allocator (typically the guest's cabi_realloc). An AllocationList on
// the LowerContext records every region so the caller can free them after
// the call returns.
//
// # Thread Safety
//
// LayoutCalculator, Encoder and Decoder memoize per instance and are NOT safe
// for concurrent use. Use one set per goroutine or instance.
//
// # Error Handling
//
// Errors use the structured types from the errors package:
//
//	[lower] type_mismatch at [0].label: Go type int, WIT type string
//	[lift] invalid_discriminant at [0]: discriminant 3 out of range (3 cases)
package transcoder
