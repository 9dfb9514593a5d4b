package codec

import (
	"unsafe"

	"github.com/huben1337/static-protocol/codec/internal/num"
	"github.com/huben1337/static-protocol/schema"
)

type integer interface {
	~int8 | ~int16 | ~int32 | ~int64 | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

var littleEndian = func() bool {
	x := uint16(1)
	return *(*byte)(unsafe.Pointer(&x)) == 1
}()

func asBytes[T integer](s []T) []byte {
	if len(s) == 0 {
		return nil
	}
	var zero T
	return unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(s))), len(s)*int(unsafe.Sizeof(zero)))
}

func viewAs[T integer](raw []byte, n int) []T {
	if n == 0 {
		return []T{}
	}
	return unsafe.Slice((*T)(unsafe.Pointer(unsafe.SliceData(raw))), n)
}

// blockBytes returns the memory of a typed slice whose element type matches t
// exactly, so the block can be copied in one go on little-endian hosts.
func blockBytes(v any, t schema.Type) ([]byte, bool) {
	if !littleEndian {
		return nil, false
	}
	if t.Class == schema.ClassUint {
		switch s := v.(type) {
		case []uint8:
			return s, t.Width == 1
		case []uint16:
			return asBytes(s), t.Width == 2
		case []uint32:
			return asBytes(s), t.Width == 4
		case []uint64:
			return asBytes(s), t.Width == 8
		}
		return nil, false
	}
	switch s := v.(type) {
	case []int8:
		return asBytes(s), t.Width == 1
	case []int16:
		return asBytes(s), t.Width == 2
	case []int32:
		return asBytes(s), t.Width == 4
	case []int64:
		return asBytes(s), t.Width == 8
	}
	return nil, false
}

// readBlock copies n width-byte integers out of raw. It stops at the first
// element test rejects.
func readBlock[T integer](raw []byte, n, w int, signed bool, test func(any) bool) ([]T, bool) {
	out := make([]T, n)
	for i := range out {
		p := raw[i*w:]
		var u uint64
		for j := w - 1; j >= 0; j-- {
			u = u<<8 | uint64(p[j])
		}
		var x T
		if signed {
			x = T(num.SignExtend(u, w))
		} else {
			x = T(u)
		}
		if test != nil && !test(x) {
			return nil, false
		}
		out[i] = x
	}
	return out, true
}

func aligned(raw []byte, w int) bool {
	return len(raw) == 0 || uintptr(unsafe.Pointer(unsafe.SliceData(raw)))%uintptr(w) == 0
}

// decodeBlock turns raw into the typed slice for t. With zeroCopy the slice
// aliases raw when host order and alignment allow it.
func decodeBlock(raw []byte, n int, t schema.Type, zeroCopy bool, test func(any) bool) (any, bool) {
	w := t.Width
	alias := zeroCopy && littleEndian && w != 3 && aligned(raw, w)
	if alias && test != nil {
		alias = false
	}
	signed := t.Class == schema.ClassInt

	if signed {
		switch w {
		case 1:
			if alias {
				return viewAs[int8](raw, n), true
			}
			return readBlock[int8](raw, n, w, true, test)
		case 2:
			if alias {
				return viewAs[int16](raw, n), true
			}
			return readBlock[int16](raw, n, w, true, test)
		case 3, 4:
			if alias {
				return viewAs[int32](raw, n), true
			}
			return readBlock[int32](raw, n, w, true, test)
		}
		if alias {
			return viewAs[int64](raw, n), true
		}
		return readBlock[int64](raw, n, w, true, test)
	}

	switch w {
	case 1:
		if alias {
			return viewAs[uint8](raw, n), true
		}
		return readBlock[uint8](raw, n, w, false, test)
	case 2:
		if alias {
			return viewAs[uint16](raw, n), true
		}
		return readBlock[uint16](raw, n, w, false, test)
	case 3, 4:
		if alias {
			return viewAs[uint32](raw, n), true
		}
		return readBlock[uint32](raw, n, w, false, test)
	}
	if alias {
		return viewAs[uint64](raw, n), true
	}
	return readBlock[uint64](raw, n, w, false, test)
}
