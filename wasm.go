package canonabi

// Memory is a component instance's linear memory as seen by the ABI core.
// Multi-byte accessors are little-endian.
type Memory interface {
	Read(offset uint32, length uint32) ([]byte, error)
	Write(offset uint32, data []byte) error
	ReadU8(offset uint32) (uint8, error)
	ReadU16(offset uint32) (uint16, error)
	ReadU32(offset uint32) (uint32, error)
	ReadU64(offset uint32) (uint64, error)
	WriteU8(offset uint32, value uint8) error
	WriteU16(offset uint32, value uint16) error
	WriteU32(offset uint32, value uint32) error
	WriteU64(offset uint32, value uint64) error
}

// MemorySizer reports the current size of linear memory in bytes.
type MemorySizer interface {
	Size() uint32
}

// Allocator hands out regions of a component's linear memory.
// Alloc returns an address aligned to align; Free releases a region
// previously returned by Alloc with the same size and align.
type Allocator interface {
	Alloc(size, align uint32) (uint32, error)
	Free(ptr, size, align uint32)
}
