// Package memory provides linear memory and allocator implementations for the
// ABI core.
//
// # Linear Memory
//
// Two backends implement canonabi.Memory:
//
//	mem := memory.NewLinear(1)              // Go slice, 1 page
//	mod, err := memory.NewWazero(ctx, 1)    // wazero module exporting "memory"
//	mem := mod.Memory()
//
// Both grow in 64 KiB pages and report out-of-range accesses as
// errors.KindOutOfBounds instead of panicking.
//
// # Allocator
//
// Bump hands out aligned regions from a memory, growing it on demand, and
// reclaims a region only when it is the most recent one:
//
//	alloc := memory.NewBump(mem, memory.WithBase(1024))
//	ptr, err := alloc.Alloc(16, 8)
//	defer alloc.Free(ptr, 16, 8)
//
// Stats exposes best-effort accounting counters; nothing depends on them for
// correctness.
package memory
