package buffer

import (
	"bytes"
	"errors"
	"testing"

	sperrors "github.com/huben1337/static-protocol/errors"
)

func TestBuffer_SetGet(t *testing.T) {
	b := New(32)

	b.SetUint8(0, 0xAB)
	b.SetUint16(1, 0x1234)
	b.SetUint24(3, 0x00ABCDEF)
	b.SetUint32(6, 0xDEADBEEF)
	b.SetUint64(10, 0x0102030405060708)

	if got := b.Uint8(0); got != 0xAB {
		t.Errorf("Uint8 = %#x, want 0xab", got)
	}
	if got := b.Uint16(1); got != 0x1234 {
		t.Errorf("Uint16 = %#x, want 0x1234", got)
	}
	if got := b.Uint24(3); got != 0xABCDEF {
		t.Errorf("Uint24 = %#x, want 0xabcdef", got)
	}
	if got := b.Uint32(6); got != 0xDEADBEEF {
		t.Errorf("Uint32 = %#x, want 0xdeadbeef", got)
	}
	if got := b.Uint64(10); got != 0x0102030405060708 {
		t.Errorf("Uint64 = %#x, want 0x0102030405060708", got)
	}

	want := []byte{0x34, 0x12}
	if !bytes.Equal(b.Bytes()[1:3], want) {
		t.Errorf("uint16 bytes = %v, want little-endian %v", b.Bytes()[1:3], want)
	}
}

func TestBuffer_SetUintWidths(t *testing.T) {
	tests := []struct {
		width int
		value uint64
		want  []byte
	}{
		{1, 0xFF, []byte{0xFF}},
		{2, 0xBEEF, []byte{0xEF, 0xBE}},
		{3, 0x123456, []byte{0x56, 0x34, 0x12}},
		{4, 0x01020304, []byte{0x04, 0x03, 0x02, 0x01}},
		{8, 1, []byte{1, 0, 0, 0, 0, 0, 0, 0}},
	}

	for _, tt := range tests {
		b := New(tt.width)
		b.SetUint(0, tt.width, tt.value)
		if !bytes.Equal(b.Bytes(), tt.want) {
			t.Errorf("SetUint(width=%d) = %v, want %v", tt.width, b.Bytes(), tt.want)
		}
	}
}

func TestBuffer_SignedRoundTrip(t *testing.T) {
	b := New(3 + 8)
	b.SetInt24(0, -2)
	b.SetInt64(3, -1<<40)

	v := b.View()
	i24, err := v.Int24(0)
	if err != nil {
		t.Fatalf("Int24: %v", err)
	}
	if i24 != -2 {
		t.Errorf("Int24 = %d, want -2", i24)
	}
	i64, err := v.Int64(3)
	if err != nil {
		t.Fatalf("Int64: %v", err)
	}
	if i64 != -1<<40 {
		t.Errorf("Int64 = %d, want %d", i64, int64(-1<<40))
	}
}

func TestBuffer_Resize(t *testing.T) {
	b := WithCapacity(4, 16)
	copy(b.Bytes(), []byte{1, 2, 3, 4})
	base := &b.Bytes()[0]

	b.Resize(2)
	if b.Len() != 2 {
		t.Fatalf("Len = %d, want 2", b.Len())
	}
	if &b.Bytes()[0] != base {
		t.Error("shrinking should not reallocate")
	}

	b.Resize(4)
	if !bytes.Equal(b.Bytes(), []byte{1, 2, 0, 0}) {
		t.Errorf("regrown bytes = %v, want exposed tail zeroed", b.Bytes())
	}

	b.Resize(100)
	if b.Len() != 100 {
		t.Errorf("Len = %d, want 100", b.Len())
	}
	if b.Bytes()[0] != 1 || b.Bytes()[1] != 2 {
		t.Error("growing lost existing contents")
	}
}

func TestBuffer_Grow(t *testing.T) {
	b := New(8)
	b.Grow(4)
	if b.Len() != 8 {
		t.Errorf("Grow below length changed Len to %d", b.Len())
	}
	b.Grow(9)
	if b.Len() != 9 {
		t.Errorf("Len = %d, want 9", b.Len())
	}
}

func TestBuffer_Memory(t *testing.T) {
	b := New(8)

	if !b.Write(4, []byte{9, 8, 7, 6}) {
		t.Fatal("Write in range failed")
	}
	if b.Write(6, []byte{1, 2, 3}) {
		t.Error("Write past end should fail")
	}

	got, ok := b.Read(4, 4)
	if !ok || !bytes.Equal(got, []byte{9, 8, 7, 6}) {
		t.Errorf("Read = %v, %v", got, ok)
	}
	if _, ok := b.Read(5, 4); ok {
		t.Error("Read past end should fail")
	}
	if b.Size() != 8 {
		t.Errorf("Size = %d, want 8", b.Size())
	}
}

func TestBuffer_SetString(t *testing.T) {
	b := New(8)
	n := b.SetString(2, "héllo")
	if n != 6 {
		t.Errorf("SetString wrote %d bytes, want 6", n)
	}
	s, err := b.View().String(2, n)
	if err != nil {
		t.Fatalf("String: %v", err)
	}
	if s != "héllo" {
		t.Errorf("String = %q, want %q", s, "héllo")
	}
}

func TestView_OutOfBounds(t *testing.T) {
	v := NewView([]byte{1, 2, 3})

	tests := []struct {
		name string
		read func() error
	}{
		{"uint16 at end", func() error { _, err := v.Uint16(2); return err }},
		{"uint24 past end", func() error { _, err := v.Uint24(1); return err }},
		{"uint32", func() error { _, err := v.Uint32(0); return err }},
		{"uint64", func() error { _, err := v.Uint64(0); return err }},
		{"negative offset", func() error { _, err := v.Uint8(-1); return err }},
		{"bytes", func() error { _, err := v.Bytes(1, 3); return err }},
		{"string", func() error { _, err := v.String(3, 1); return err }},
		{"subarray", func() error { _, err := v.Subarray(2, 5); return err }},
	}

	target := &sperrors.Error{Phase: sperrors.PhaseDecode, Kind: sperrors.KindOutOfBounds}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.read()
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, target) {
				t.Errorf("error = %v, want out_of_bounds", err)
			}
		})
	}
}

func TestView_BytesAlias(t *testing.T) {
	src := []byte{1, 2, 3, 4}
	v := NewView(src)

	p, err := v.Bytes(1, 2)
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	src[1] = 42
	if p[0] != 42 {
		t.Error("Bytes should alias the input")
	}
	if cap(p) != 2 {
		t.Errorf("cap = %d, want 2 so appends cannot clobber the input", cap(p))
	}
}

func TestView_Int(t *testing.T) {
	v := NewView([]byte{0xFF, 0xFF, 0xFF, 0x80})

	tests := []struct {
		offset, width int
		want          int64
	}{
		{0, 1, -1},
		{0, 2, -1},
		{0, 3, -1},
		{3, 1, -128},
		{1, 3, -8323073},
	}
	for _, tt := range tests {
		got, err := v.Int(tt.offset, tt.width)
		if err != nil {
			t.Fatalf("Int(%d, %d): %v", tt.offset, tt.width, err)
		}
		if got != tt.want {
			t.Errorf("Int(%d, %d) = %d, want %d", tt.offset, tt.width, got, tt.want)
		}
	}
}
