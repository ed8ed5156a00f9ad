package memory

import (
	"encoding/binary"

	"github.com/wippyai/canonabi/errors"
)

// PageSize is the WebAssembly page size in bytes.
const PageSize = 65536

// MaxPages is the largest page count whose byte size fits in a uint32.
const MaxPages = 65535

// Linear is a slice-backed linear memory.
type Linear struct {
	data     []byte
	maxPages uint32
}

// NewLinear creates a memory of the given number of pages with no growth limit
// beyond MaxPages.
func NewLinear(pages uint32) *Linear {
	return &Linear{
		data:     make([]byte, int(pages)*PageSize),
		maxPages: MaxPages,
	}
}

// NewLinearWithLimit creates a memory that refuses to grow past maxPages.
func NewLinearWithLimit(pages, maxPages uint32) *Linear {
	m := NewLinear(pages)
	if maxPages < pages {
		maxPages = pages
	}
	m.maxPages = maxPages
	return m
}

// Size returns the memory size in bytes.
func (m *Linear) Size() uint32 {
	return uint32(len(m.data))
}

// Pages returns the memory size in pages.
func (m *Linear) Pages() uint32 {
	return uint32(len(m.data) / PageSize)
}

// Grow adds delta pages and returns the previous page count.
func (m *Linear) Grow(delta uint32) (uint32, bool) {
	prev := m.Pages()
	if uint64(prev)+uint64(delta) > uint64(m.maxPages) {
		return prev, false
	}
	if delta > 0 {
		m.data = append(m.data, make([]byte, int(delta)*PageSize)...)
	}
	return prev, true
}

// Bytes exposes the backing slice. It is invalidated by Grow.
func (m *Linear) Bytes() []byte {
	return m.data
}

func (m *Linear) slice(offset, length uint32) ([]byte, error) {
	end := uint64(offset) + uint64(length)
	if end > uint64(len(m.data)) {
		return nil, errors.OutOfBounds(errors.PhaseMemory, nil, offset, length)
	}
	return m.data[offset:end], nil
}

// Read returns a copy of length bytes at offset.
func (m *Linear) Read(offset uint32, length uint32) ([]byte, error) {
	b, err := m.slice(offset, length)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

// Write copies data to offset.
func (m *Linear) Write(offset uint32, data []byte) error {
	b, err := m.slice(offset, uint32(len(data)))
	if err != nil {
		return err
	}
	copy(b, data)
	return nil
}

// ReadU8 reads an unsigned 8-bit value.
func (m *Linear) ReadU8(offset uint32) (uint8, error) {
	b, err := m.slice(offset, 1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadU16 reads an unsigned 16-bit little-endian value.
func (m *Linear) ReadU16(offset uint32) (uint16, error) {
	b, err := m.slice(offset, 2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// ReadU32 reads an unsigned 32-bit little-endian value.
func (m *Linear) ReadU32(offset uint32) (uint32, error) {
	b, err := m.slice(offset, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// ReadU64 reads an unsigned 64-bit little-endian value.
func (m *Linear) ReadU64(offset uint32) (uint64, error) {
	b, err := m.slice(offset, 8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// WriteU8 writes an unsigned 8-bit value.
func (m *Linear) WriteU8(offset uint32, value uint8) error {
	b, err := m.slice(offset, 1)
	if err != nil {
		return err
	}
	b[0] = value
	return nil
}

// WriteU16 writes an unsigned 16-bit little-endian value.
func (m *Linear) WriteU16(offset uint32, value uint16) error {
	b, err := m.slice(offset, 2)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint16(b, value)
	return nil
}

// WriteU32 writes an unsigned 32-bit little-endian value.
func (m *Linear) WriteU32(offset uint32, value uint32) error {
	b, err := m.slice(offset, 4)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(b, value)
	return nil
}

// WriteU64 writes an unsigned 64-bit little-endian value.
func (m *Linear) WriteU64(offset uint32, value uint64) error {
	b, err := m.slice(offset, 8)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(b, value)
	return nil
}
