package buffer

import (
	"encoding/binary"
	"math"
)

const minGrow = 64

// Buffer is a growable byte region with little-endian accessors.
// Setters do not bounds check beyond what slice indexing does; callers size the
// buffer first with New, Resize or Grow.
type Buffer struct {
	b []byte
}

// New returns a zeroed buffer of size bytes.
func New(size int) *Buffer {
	return &Buffer{b: make([]byte, size)}
}

// WithCapacity returns a zeroed buffer of size bytes that can grow to capacity
// without reallocating.
func WithCapacity(size, capacity int) *Buffer {
	if capacity < size {
		capacity = size
	}
	return &Buffer{b: make([]byte, size, capacity)}
}

// Wrap uses b as the backing store.
func Wrap(b []byte) *Buffer {
	return &Buffer{b: b}
}

func (b *Buffer) Bytes() []byte { return b.b }
func (b *Buffer) Len() int      { return len(b.b) }
func (b *Buffer) Cap() int      { return cap(b.b) }

// Resize sets the length to n. Shrinking never copies. Growing reuses spare
// capacity when possible and zeroes the newly exposed bytes.
func (b *Buffer) Resize(n int) {
	if n <= cap(b.b) {
		old := len(b.b)
		b.b = b.b[:n]
		if n > old {
			clear(b.b[old:n])
		}
		return
	}
	newCap := max(cap(b.b)*2, n, minGrow)
	nb := make([]byte, n, newCap)
	copy(nb, b.b)
	b.b = nb
}

// Grow makes sure the buffer is at least n bytes long.
func (b *Buffer) Grow(n int) {
	if n > len(b.b) {
		b.Resize(n)
	}
}

// Subarray returns a non-owning slice of [start, end).
func (b *Buffer) Subarray(start, end int) []byte {
	return b.b[start:end:end]
}

// View returns a read-only view over the current contents.
func (b *Buffer) View() View {
	return View{b: b.b}
}

func (b *Buffer) SetUint8(offset int, v uint8) { b.b[offset] = v }

func (b *Buffer) SetUint16(offset int, v uint16) {
	binary.LittleEndian.PutUint16(b.b[offset:], v)
}

// SetUint24 writes the low 24 bits of v.
func (b *Buffer) SetUint24(offset int, v uint32) {
	_ = b.b[offset+2]
	b.b[offset] = byte(v)
	b.b[offset+1] = byte(v >> 8)
	b.b[offset+2] = byte(v >> 16)
}

func (b *Buffer) SetUint32(offset int, v uint32) {
	binary.LittleEndian.PutUint32(b.b[offset:], v)
}

func (b *Buffer) SetUint64(offset int, v uint64) {
	binary.LittleEndian.PutUint64(b.b[offset:], v)
}

func (b *Buffer) SetInt8(offset int, v int8)   { b.b[offset] = byte(v) }
func (b *Buffer) SetInt16(offset int, v int16) { b.SetUint16(offset, uint16(v)) }
func (b *Buffer) SetInt24(offset int, v int32) { b.SetUint24(offset, uint32(v)) }
func (b *Buffer) SetInt32(offset int, v int32) { b.SetUint32(offset, uint32(v)) }
func (b *Buffer) SetInt64(offset int, v int64) { b.SetUint64(offset, uint64(v)) }

// SetUint writes the low width bytes of v. width is 1, 2, 3, 4 or 8.
func (b *Buffer) SetUint(offset, width int, v uint64) {
	switch width {
	case 1:
		b.b[offset] = byte(v)
	case 2:
		b.SetUint16(offset, uint16(v))
	case 3:
		b.SetUint24(offset, uint32(v))
	case 4:
		b.SetUint32(offset, uint32(v))
	case 8:
		b.SetUint64(offset, v)
	default:
		panic("buffer: invalid integer width")
	}
}

// SetString copies the UTF-8 bytes of s to offset and returns the number of
// bytes written.
func (b *Buffer) SetString(offset int, s string) int {
	return copy(b.b[offset:], s)
}

// SetBytes copies p to offset and returns the number of bytes written.
func (b *Buffer) SetBytes(offset int, p []byte) int {
	return copy(b.b[offset:], p)
}

func (b *Buffer) Uint8(offset int) uint8 { return b.b[offset] }

func (b *Buffer) Uint16(offset int) uint16 {
	return binary.LittleEndian.Uint16(b.b[offset:])
}

func (b *Buffer) Uint24(offset int) uint32 {
	_ = b.b[offset+2]
	return uint32(b.b[offset]) | uint32(b.b[offset+1])<<8 | uint32(b.b[offset+2])<<16
}

func (b *Buffer) Uint32(offset int) uint32 {
	return binary.LittleEndian.Uint32(b.b[offset:])
}

func (b *Buffer) Uint64(offset int) uint64 {
	return binary.LittleEndian.Uint64(b.b[offset:])
}

// Read implements staticprotocol.Memory.
func (b *Buffer) Read(offset, length uint32) ([]byte, bool) {
	end := uint64(offset) + uint64(length)
	if end > uint64(len(b.b)) {
		return nil, false
	}
	return b.b[offset:end:end], true
}

// Write implements staticprotocol.Memory.
func (b *Buffer) Write(offset uint32, data []byte) bool {
	end := uint64(offset) + uint64(len(data))
	if end > uint64(len(b.b)) {
		return false
	}
	copy(b.b[offset:], data)
	return true
}

// Size implements staticprotocol.Memory.
func (b *Buffer) Size() uint32 {
	if len(b.b) > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(len(b.b))
}
