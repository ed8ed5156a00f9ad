// Package layout computes Canonical ABI sizes, alignments and offsets for the
// types of a types.Graph.
//
// # Layout Rules
//
//   - Primitives: size equals alignment (u8=1, u32=4, u64=8, char=4)
//   - string, list: (pointer, length) pair, size 8, align 4
//   - own, borrow: one 4-byte handle id
//   - record, tuple: fields in order, each at its own alignment
//   - variant, option, result: discriminant then the largest case payload
//   - enum: discriminant only
//   - flags: 1, 2, or a multiple of 4 bytes
//
// Results are memoized per TypeID; a Calculator is not safe for concurrent use.
package layout
