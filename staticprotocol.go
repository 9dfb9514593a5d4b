package staticprotocol

// Memory is a linear byte region addressed by 32-bit offsets.
// wazero's api.Memory and *buffer.Buffer both satisfy it.
type Memory interface {
	// Read returns a view of length bytes at offset, or false when out of range.
	Read(offset uint32, length uint32) ([]byte, bool)
	// Write copies data to offset, or returns false when out of range.
	Write(offset uint32, data []byte) bool
	MemorySizer
}

// MemorySizer provides the current size of a memory region in bytes.
type MemorySizer interface {
	Size() uint32
}

// Allocator reserves space inside a Memory.
type Allocator interface {
	Alloc(size, align uint32) (uint32, error)
}
