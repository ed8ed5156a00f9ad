package memory

import (
	"sync"

	"github.com/wippyai/canonabi"
	"github.com/wippyai/canonabi/errors"
)

// Growable is a memory whose size can be extended in pages.
type Growable interface {
	canonabi.MemorySizer
	Grow(delta uint32) (uint32, bool)
}

// Stats holds allocator accounting counters.
type Stats struct {
	Allocs    uint64
	Frees     uint64
	Live      uint64 // bytes handed out and not yet freed
	Peak      uint64 // high-water mark of Live
	Reclaimed uint64 // bytes returned to the bump pointer
}

// Bump is a bump-pointer allocator over a linear memory. Freeing the most
// recent allocation moves the pointer back; other frees only update Stats.
type Bump struct {
	mem   Growable
	base  uint32
	top   uint32
	limit uint32
	stats Stats
	mu    sync.Mutex
}

// BumpOption configures a Bump allocator.
type BumpOption func(*Bump)

// WithBase sets the first address handed out. Address 0 is never returned.
func WithBase(base uint32) BumpOption {
	return func(b *Bump) {
		b.base = base
	}
}

// WithLimit caps the highest address the allocator will hand out.
func WithLimit(limit uint32) BumpOption {
	return func(b *Bump) {
		b.limit = limit
	}
}

// NewBump creates an allocator over mem.
func NewBump(mem Growable, opts ...BumpOption) *Bump {
	b := &Bump{mem: mem, base: 8}
	for _, opt := range opts {
		opt(b)
	}
	if b.base == 0 {
		b.base = 1
	}
	b.top = b.base
	return b
}

// Alloc returns an address aligned to align with size bytes available,
// growing the memory when needed.
func (b *Bump) Alloc(size, align uint32) (uint32, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if align == 0 {
		align = 1
	}
	if align&(align-1) != 0 {
		return 0, errors.AllocationFailed(errors.PhaseMemory, size, align,
			errors.InvalidInput(errors.PhaseMemory, "alignment must be a power of two"))
	}

	ptr := (uint64(b.top) + uint64(align) - 1) &^ (uint64(align) - 1)
	end := ptr + uint64(size)
	if b.limit != 0 && end > uint64(b.limit) {
		return 0, errors.AllocationFailed(errors.PhaseMemory, size, align, nil)
	}
	if err := b.ensure(end); err != nil {
		return 0, errors.AllocationFailed(errors.PhaseMemory, size, align, err)
	}

	b.top = uint32(end)
	b.stats.Allocs++
	b.stats.Live += uint64(size)
	if b.stats.Live > b.stats.Peak {
		b.stats.Peak = b.stats.Live
	}
	return uint32(ptr), nil
}

func (b *Bump) ensure(end uint64) error {
	have := uint64(b.mem.Size())
	if end <= have {
		return nil
	}
	need := (end - have + PageSize - 1) / PageSize
	if need > MaxPages {
		return errors.OutOfBounds(errors.PhaseMemory, nil, uint32(have), uint32(end-have))
	}
	if _, ok := b.mem.Grow(uint32(need)); !ok {
		return errors.New(errors.PhaseMemory, errors.KindOutOfBounds).
			Detail("cannot grow memory by %d page(s)", need).
			Build()
	}
	return nil
}

// Free releases a region returned by Alloc.
func (b *Bump) Free(ptr, size, align uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.stats.Frees++
	if uint64(size) <= b.stats.Live {
		b.stats.Live -= uint64(size)
	} else {
		b.stats.Live = 0
	}
	if ptr+size == b.top && ptr >= b.base {
		b.top = ptr
		b.stats.Reclaimed += uint64(size)
	}
}

// Reset discards every allocation.
func (b *Bump) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.top = b.base
	b.stats.Live = 0
}

// Top returns the next unallocated address.
func (b *Bump) Top() uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.top
}

// Stats returns a snapshot of the accounting counters.
func (b *Bump) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stats
}
