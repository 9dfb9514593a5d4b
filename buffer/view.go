package buffer

import (
	"encoding/binary"

	"github.com/huben1337/static-protocol/errors"
)

// View is a read-only window over a byte slice. It never copies the input
// except where a method says so.
type View struct {
	b []byte
}

func NewView(b []byte) View { return View{b: b} }

func (v View) Len() int { return len(v.b) }

// Raw returns the underlying slice.
func (v View) Raw() []byte { return v.b }

// Has reports whether n bytes are readable at offset.
func (v View) Has(offset, n int) bool {
	return offset >= 0 && n >= 0 && offset <= len(v.b)-n
}

func (v View) check(offset, n int) error {
	if !v.Has(offset, n) {
		return errors.OutOfBounds(errors.PhaseDecode, nil, offset+n, len(v.b))
	}
	return nil
}

func (v View) Uint8(offset int) (uint8, error) {
	if err := v.check(offset, 1); err != nil {
		return 0, err
	}
	return v.b[offset], nil
}

func (v View) Uint16(offset int) (uint16, error) {
	if err := v.check(offset, 2); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(v.b[offset:]), nil
}

func (v View) Uint24(offset int) (uint32, error) {
	if err := v.check(offset, 3); err != nil {
		return 0, err
	}
	return uint32(v.b[offset]) | uint32(v.b[offset+1])<<8 | uint32(v.b[offset+2])<<16, nil
}

func (v View) Uint32(offset int) (uint32, error) {
	if err := v.check(offset, 4); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(v.b[offset:]), nil
}

func (v View) Uint64(offset int) (uint64, error) {
	if err := v.check(offset, 8); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(v.b[offset:]), nil
}

// Uint reads a width-byte unsigned integer. width is 1, 2, 3, 4 or 8.
func (v View) Uint(offset, width int) (uint64, error) {
	switch width {
	case 1:
		x, err := v.Uint8(offset)
		return uint64(x), err
	case 2:
		x, err := v.Uint16(offset)
		return uint64(x), err
	case 3:
		x, err := v.Uint24(offset)
		return uint64(x), err
	case 4:
		x, err := v.Uint32(offset)
		return uint64(x), err
	case 8:
		return v.Uint64(offset)
	}
	return 0, errors.InvalidData(errors.PhaseDecode, nil, "invalid integer width")
}

// Int reads a width-byte signed integer and sign-extends it.
func (v View) Int(offset, width int) (int64, error) {
	u, err := v.Uint(offset, width)
	if err != nil {
		return 0, err
	}
	shift := 64 - 8*uint(width)
	return int64(u<<shift) >> shift, nil
}

func (v View) Int8(offset int) (int8, error) {
	x, err := v.Uint8(offset)
	return int8(x), err
}

func (v View) Int16(offset int) (int16, error) {
	x, err := v.Uint16(offset)
	return int16(x), err
}

func (v View) Int24(offset int) (int32, error) {
	x, err := v.Int(offset, 3)
	return int32(x), err
}

func (v View) Int32(offset int) (int32, error) {
	x, err := v.Uint32(offset)
	return int32(x), err
}

func (v View) Int64(offset int) (int64, error) {
	x, err := v.Uint64(offset)
	return int64(x), err
}

// Bytes returns n bytes at offset. The result aliases the view.
func (v View) Bytes(offset, n int) ([]byte, error) {
	if err := v.check(offset, n); err != nil {
		return nil, err
	}
	end := offset + n
	return v.b[offset:end:end], nil
}

// String returns a copy of n bytes at offset as a string.
func (v View) String(offset, n int) (string, error) {
	if err := v.check(offset, n); err != nil {
		return "", err
	}
	return string(v.b[offset : offset+n]), nil
}

// Subarray returns the view of [start, end).
func (v View) Subarray(start, end int) (View, error) {
	if err := v.check(start, end-start); err != nil {
		return View{}, err
	}
	return View{b: v.b[start:end:end]}, nil
}
