package memory

import (
	"context"
	"encoding/binary"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/wippyai/canonabi/errors"
)

// Wrapper adapts a wazero api.Memory to canonabi.Memory.
type Wrapper struct {
	Mem api.Memory
}

// Wrap wraps mem, returning nil for a nil memory.
func Wrap(mem api.Memory) *Wrapper {
	if mem == nil {
		return nil
	}
	return &Wrapper{Mem: mem}
}

// Size returns the memory size in bytes.
func (m *Wrapper) Size() uint32 {
	return m.Mem.Size()
}

// Grow adds delta pages and returns the previous page count.
func (m *Wrapper) Grow(delta uint32) (uint32, bool) {
	return m.Mem.Grow(delta)
}

// Read returns a copy of length bytes at offset.
func (m *Wrapper) Read(offset uint32, length uint32) ([]byte, error) {
	data, ok := m.Mem.Read(offset, length)
	if !ok {
		return nil, errors.OutOfBounds(errors.PhaseMemory, nil, offset, length)
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Write copies data to offset.
func (m *Wrapper) Write(offset uint32, data []byte) error {
	if !m.Mem.Write(offset, data) {
		return errors.OutOfBounds(errors.PhaseMemory, nil, offset, uint32(len(data)))
	}
	return nil
}

// ReadU8 reads an unsigned 8-bit value.
func (m *Wrapper) ReadU8(offset uint32) (uint8, error) {
	v, ok := m.Mem.ReadByte(offset)
	if !ok {
		return 0, errors.OutOfBounds(errors.PhaseMemory, nil, offset, 1)
	}
	return v, nil
}

// ReadU16 reads an unsigned 16-bit little-endian value.
func (m *Wrapper) ReadU16(offset uint32) (uint16, error) {
	v, ok := m.Mem.ReadUint16Le(offset)
	if !ok {
		return 0, errors.OutOfBounds(errors.PhaseMemory, nil, offset, 2)
	}
	return v, nil
}

// ReadU32 reads an unsigned 32-bit little-endian value.
func (m *Wrapper) ReadU32(offset uint32) (uint32, error) {
	v, ok := m.Mem.ReadUint32Le(offset)
	if !ok {
		return 0, errors.OutOfBounds(errors.PhaseMemory, nil, offset, 4)
	}
	return v, nil
}

// ReadU64 reads an unsigned 64-bit little-endian value.
func (m *Wrapper) ReadU64(offset uint32) (uint64, error) {
	v, ok := m.Mem.ReadUint64Le(offset)
	if !ok {
		return 0, errors.OutOfBounds(errors.PhaseMemory, nil, offset, 8)
	}
	return v, nil
}

// WriteU8 writes an unsigned 8-bit value.
func (m *Wrapper) WriteU8(offset uint32, value uint8) error {
	if !m.Mem.WriteByte(offset, value) {
		return errors.OutOfBounds(errors.PhaseMemory, nil, offset, 1)
	}
	return nil
}

// WriteU16 writes an unsigned 16-bit little-endian value.
func (m *Wrapper) WriteU16(offset uint32, value uint16) error {
	if !m.Mem.WriteUint16Le(offset, value) {
		return errors.OutOfBounds(errors.PhaseMemory, nil, offset, 2)
	}
	return nil
}

// WriteU32 writes an unsigned 32-bit little-endian value.
func (m *Wrapper) WriteU32(offset uint32, value uint32) error {
	if !m.Mem.WriteUint32Le(offset, value) {
		return errors.OutOfBounds(errors.PhaseMemory, nil, offset, 4)
	}
	return nil
}

// WriteU64 writes an unsigned 64-bit little-endian value.
func (m *Wrapper) WriteU64(offset uint32, value uint64) error {
	if !m.Mem.WriteUint64Le(offset, value) {
		return errors.OutOfBounds(errors.PhaseMemory, nil, offset, 8)
	}
	return nil
}

// Module is a wazero runtime hosting a single module that exports its memory.
type Module struct {
	rt  wazero.Runtime
	mod api.Module
	mem *Wrapper
}

// NewWazero instantiates a module with one exported memory of the given
// initial page count.
func NewWazero(ctx context.Context, pages uint32) (*Module, error) {
	if pages > MaxPages {
		return nil, errors.InvalidInput(errors.PhaseMemory, "page count exceeds 32-bit address space")
	}
	rt := wazero.NewRuntime(ctx)
	mod, err := rt.Instantiate(ctx, memoryModule(pages))
	if err != nil {
		_ = rt.Close(ctx)
		return nil, errors.Wrap(errors.PhaseMemory, errors.KindInvalidState, err, "instantiate memory module")
	}
	mem := Wrap(mod.ExportedMemory("memory"))
	if mem == nil {
		_ = rt.Close(ctx)
		return nil, errors.NotFound(errors.PhaseMemory, "export", "memory")
	}
	return &Module{rt: rt, mod: mod, mem: mem}, nil
}

// Memory returns the exported memory.
func (m *Module) Memory() *Wrapper {
	return m.mem
}

// Close releases the runtime and its module.
func (m *Module) Close(ctx context.Context) error {
	return m.rt.Close(ctx)
}

// memoryModule encodes a core module whose only content is a memory with the
// given minimum page count, exported as "memory".
func memoryModule(pages uint32) []byte {
	limits := binary.AppendUvarint([]byte{0x00}, uint64(pages))
	memSec := append([]byte{0x01}, limits...)

	b := []byte{
		0x00, 0x61, 0x73, 0x6d, // magic
		0x01, 0x00, 0x00, 0x00, // version
	}
	b = append(b, 0x05)
	b = binary.AppendUvarint(b, uint64(len(memSec)))
	b = append(b, memSec...)

	exportSec := []byte{0x01, 0x06, 'm', 'e', 'm', 'o', 'r', 'y', 0x02, 0x00}
	b = append(b, 0x07)
	b = binary.AppendUvarint(b, uint64(len(exportSec)))
	return append(b, exportSec...)
}
