// Package abi holds low-level Canonical ABI helpers shared by the layout
// calculator and the lowering and lifting engines.
//
//   - coerce.go: range-checked conversion of Go numbers to sized integers
//   - count.go: discriminant and flags widths
//   - helpers.go: alignment, overflow-safe arithmetic, NaN and char rules
package abi
