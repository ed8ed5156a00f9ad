// Package errors provides structured error types for the canonabi module.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type includes rich context: field path, Go/WIT type names, and cause chain.
//
// The Canonical ABI fault taxonomy maps onto kinds:
//
//	InvalidDiscriminant  KindInvalidDiscriminant
//	InvalidUtf8          KindInvalidUTF8
//	UnknownHandle        KindUnknownHandle
//	HandleTypeMismatch   KindHandleTypeMismatch
//	UseAfterDrop         KindUseAfterDrop
//	BorrowLeaked         KindBorrowLeaked
//	FlattenOverflow      KindFlattenOverflow
//	AllocationFailure    KindAllocation
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseLower, errors.KindTypeMismatch).
//		Path("user", "age").
//		GoType("string").
//		WitType("u32").
//		Detail("cannot convert string to integer").
//		Build()
//
// The Err* sentinels match on kind alone, so a fault stays recognizable after the
// call adapter wraps it:
//
//	if errors.Is(err, errors.ErrBorrowLeaked) { ... }
package errors
