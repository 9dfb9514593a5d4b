package wasmmem

import (
	staticprotocol "github.com/huben1337/static-protocol"
	"github.com/huben1337/static-protocol/codec"
	"github.com/huben1337/static-protocol/errors"
	"github.com/huben1337/static-protocol/schema"
)

// Store encodes v at offset and returns the message length.
func Store(mem staticprotocol.Memory, offset uint32, c *codec.Codec, v any) (uint32, error) {
	size, err := c.Size(v)
	if err != nil {
		return 0, err
	}
	region, ok := mem.Read(offset, uint32(size))
	if !ok {
		return 0, outOfRange(mem, offset, size)
	}
	n, err := c.EncodeInto(region, v)
	if err != nil {
		return 0, err
	}
	return uint32(n), nil
}

// Load decodes the message of length bytes at offset.
func Load(mem staticprotocol.Memory, offset, length uint32, c *codec.Codec) (schema.Record, error) {
	region, ok := mem.Read(offset, length)
	if !ok {
		return nil, outOfRange(mem, offset, int(length))
	}
	return c.Decode(region)
}

// Put allocates room for v with a and stores it there.
func Put(mem staticprotocol.Memory, a staticprotocol.Allocator, c *codec.Codec, v any) (ptr, length uint32, err error) {
	size, err := c.Size(v)
	if err != nil {
		return 0, 0, err
	}
	ptr, err = a.Alloc(uint32(size), 8)
	if err != nil {
		return 0, 0, err
	}
	length, err = Store(mem, ptr, c, v)
	if err != nil {
		return 0, 0, err
	}
	return ptr, length, nil
}

func outOfRange(mem staticprotocol.Memory, offset uint32, n int) error {
	return errors.New(errors.PhaseTransport, errors.KindOutOfBounds).
		Value(offset).
		Detail("region [%d, %d) outside memory of %d bytes", offset, uint64(offset)+uint64(n), mem.Size()).
		Build()
}
