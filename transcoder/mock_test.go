package transcoder

import (
	"encoding/binary"
	"errors"

	werrors "github.com/wippyai/canonabi/errors"
)

// mockMemory implements Memory over a byte slice with bounds checks.
type mockMemory struct {
	data []byte
}

func newMockMemory(size int) *mockMemory {
	return &mockMemory{data: make([]byte, size)}
}

func (m *mockMemory) span(offset, length uint32) ([]byte, error) {
	end := uint64(offset) + uint64(length)
	if end > uint64(len(m.data)) {
		return nil, werrors.OutOfBounds(werrors.PhaseMemory, nil, offset, length)
	}
	return m.data[offset:end], nil
}

func (m *mockMemory) Read(offset uint32, length uint32) ([]byte, error) {
	b, err := m.span(offset, length)
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), b...), nil
}

func (m *mockMemory) Write(offset uint32, data []byte) error {
	b, err := m.span(offset, uint32(len(data)))
	if err != nil {
		return err
	}
	copy(b, data)
	return nil
}

func (m *mockMemory) ReadU8(offset uint32) (uint8, error) {
	b, err := m.span(offset, 1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (m *mockMemory) ReadU16(offset uint32) (uint16, error) {
	b, err := m.span(offset, 2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (m *mockMemory) ReadU32(offset uint32) (uint32, error) {
	b, err := m.span(offset, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (m *mockMemory) ReadU64(offset uint32) (uint64, error) {
	b, err := m.span(offset, 8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (m *mockMemory) WriteU8(offset uint32, value uint8) error {
	b, err := m.span(offset, 1)
	if err != nil {
		return err
	}
	b[0] = value
	return nil
}

func (m *mockMemory) WriteU16(offset uint32, value uint16) error {
	b, err := m.span(offset, 2)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint16(b, value)
	return nil
}

func (m *mockMemory) WriteU32(offset uint32, value uint32) error {
	b, err := m.span(offset, 4)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(b, value)
	return nil
}

func (m *mockMemory) WriteU64(offset uint32, value uint64) error {
	b, err := m.span(offset, 8)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(b, value)
	return nil
}

// mockAllocator bumps through mockMemory starting at 1024 so pointers are
// never zero. Frees are recorded.
type mockAllocator struct {
	mem    *mockMemory
	freed  []Allocation
	offset uint32
	fail   bool
}

func newMockAllocator(mem *mockMemory) *mockAllocator {
	return &mockAllocator{offset: 1024, mem: mem}
}

var errExhausted = errors.New("allocator exhausted")

func (a *mockAllocator) Alloc(size, align uint32) (uint32, error) {
	if a.fail {
		return 0, errExhausted
	}
	if align == 0 {
		align = 1
	}
	ptr := (a.offset + align - 1) &^ (align - 1)
	if uint64(ptr)+uint64(size) > uint64(len(a.mem.data)) {
		return 0, errExhausted
	}
	a.offset = ptr + size
	return ptr, nil
}

func (a *mockAllocator) Free(ptr, size, align uint32) {
	a.freed = append(a.freed, Allocation{Ptr: ptr, Size: size, Align: align})
}
