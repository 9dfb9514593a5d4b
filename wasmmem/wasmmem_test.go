package wasmmem

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/huben1337/static-protocol/buffer"
	"github.com/huben1337/static-protocol/codec"
	sperrors "github.com/huben1337/static-protocol/errors"
	"github.com/huben1337/static-protocol/schema"
)

// guestWasm imports env.send(ptr, len i32) i32 and exports one page of
// memory "mem", run(ptr, len) forwarding to send, and alloc(size) bumping a
// global that starts at 1024.
var guestWasm = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
	// types: (i32 i32) -> i32, (i32) -> i32
	0x01, 0x0c, 0x02, 0x60, 0x02, 0x7f, 0x7f, 0x01, 0x7f, 0x60, 0x01, 0x7f, 0x01, 0x7f,
	// import env.send
	0x02, 0x0c, 0x01, 0x03, 'e', 'n', 'v', 0x04, 's', 'e', 'n', 'd', 0x00, 0x00,
	// functions: run, alloc
	0x03, 0x03, 0x02, 0x00, 0x01,
	// memory: min 1 page
	0x05, 0x03, 0x01, 0x00, 0x01,
	// global: mut i32 = 1024
	0x06, 0x07, 0x01, 0x7f, 0x01, 0x41, 0x80, 0x08, 0x0b,
	// exports
	0x07, 0x15, 0x03,
	0x03, 'm', 'e', 'm', 0x02, 0x00,
	0x03, 'r', 'u', 'n', 0x00, 0x01,
	0x05, 'a', 'l', 'l', 'o', 'c', 0x00, 0x02,
	// code
	0x0a, 0x16, 0x02,
	0x08, 0x00, 0x20, 0x00, 0x20, 0x01, 0x10, 0x00, 0x0b,
	0x0b, 0x00, 0x23, 0x00, 0x23, 0x00, 0x20, 0x00, 0x6a, 0x24, 0x00, 0x0b,
}

var noteDef = schema.Def(
	schema.Field{Name: "id", Kind: schema.T("uint16")},
	schema.Field{Name: "body", Kind: schema.CheckAs("varbuf", func(b []byte) bool { return len(b) > 0 })},
)

func TestStoreLoad_Buffer(t *testing.T) {
	c := codec.Must(noteDef)
	mem := buffer.New(32)

	n, err := Store(mem, 4, c, schema.Record{"id": 7, "body": []byte("xyz")})
	require.NoError(t, err)
	assert.Equal(t, uint32(6), n)
	assert.Equal(t, []byte{0, 0, 0, 0, 7, 0, 3, 'x', 'y', 'z'}, mem.Bytes()[:10])

	rec, err := Load(mem, 4, n, c)
	require.NoError(t, err)
	assert.Equal(t, schema.Record{"id": uint16(7), "body": []byte("xyz")}, rec)

	_, err = Store(mem, 30, c, schema.Record{"id": 7, "body": []byte("xyz")})
	assert.ErrorIs(t, err, &sperrors.Error{Phase: sperrors.PhaseTransport, Kind: sperrors.KindOutOfBounds})

	_, err = Load(mem, 30, 6, c)
	assert.ErrorIs(t, err, &sperrors.Error{Phase: sperrors.PhaseTransport, Kind: sperrors.KindOutOfBounds})

	_, err = Load(mem, 4, 4, c)
	assert.ErrorIs(t, err, &sperrors.Error{Phase: sperrors.PhaseDecode, Kind: sperrors.KindOutOfBounds})
}

func TestBump(t *testing.T) {
	b := NewBump(10, 40)

	p, err := b.Alloc(3, 1)
	require.NoError(t, err)
	assert.Equal(t, uint32(10), p)

	p, err = b.Alloc(4, 8)
	require.NoError(t, err)
	assert.Equal(t, uint32(16), p)

	p, err = b.Alloc(20, 0)
	require.NoError(t, err)
	assert.Equal(t, uint32(20), p)

	_, err = b.Alloc(1, 1)
	assert.ErrorIs(t, err, &sperrors.Error{Phase: sperrors.PhaseTransport, Kind: sperrors.KindOverflow})

	b.Reset()
	p, err = b.Alloc(30, 1)
	require.NoError(t, err)
	assert.Equal(t, uint32(10), p)
}

type guest struct {
	mod   api.Module
	alloc *GuestAllocator
	got   []schema.Record
}

func instantiate(t *testing.T, ctx context.Context, c *codec.Codec) *guest {
	t.Helper()
	rt := wazero.NewRuntime(ctx)
	t.Cleanup(func() { rt.Close(ctx) })

	g := &guest{}
	_, err := Export(rt.NewHostModuleBuilder("env"), "send", c,
		func(_ context.Context, _ api.Module, rec schema.Record) error {
			g.got = append(g.got, rec)
			return nil
		}).Instantiate(ctx)
	require.NoError(t, err)

	g.mod, err = rt.Instantiate(ctx, guestWasm)
	require.NoError(t, err)

	g.alloc, err = NewGuestAllocator(g.mod)
	require.NoError(t, err)
	g.alloc.SetContext(ctx)
	return g
}

func (g *guest) run(t *testing.T, ctx context.Context, ptr, length uint32) uint32 {
	t.Helper()
	res, err := g.mod.ExportedFunction("run").Call(ctx, api.EncodeU32(ptr), api.EncodeU32(length))
	require.NoError(t, err)
	return api.DecodeU32(res[0])
}

func TestGuest_RoundTrip(t *testing.T) {
	ctx := context.Background()
	c := codec.Must(noteDef, codec.WithOwnedValues())
	g := instantiate(t, ctx, c)

	ptr, n, err := Put(g.mod.Memory(), g.alloc, c, schema.Record{"id": 1, "body": []byte("hello")})
	require.NoError(t, err)
	assert.Equal(t, uint32(1024), ptr)
	assert.Equal(t, uint32(2+1+5), n)

	assert.Equal(t, StatusOK, g.run(t, ctx, ptr, n))
	require.Len(t, g.got, 1)
	assert.Equal(t, schema.Record{"id": uint16(1), "body": []byte("hello")}, g.got[0])

	ptr2, n2, err := Put(g.mod.Memory(), g.alloc, c, schema.Record{"id": 2, "body": []byte{}})
	require.NoError(t, err)
	assert.Greater(t, ptr2, ptr)
	assert.Equal(t, StatusInvalid, g.run(t, ctx, ptr2, n2))

	assert.Equal(t, StatusError, g.run(t, ctx, ptr, 2))
	assert.Equal(t, StatusError, g.run(t, ctx, 1<<16-1, 8))
	assert.Len(t, g.got, 1)
}

func TestGuest_LoadAliasesMemory(t *testing.T) {
	ctx := context.Background()
	c := codec.Must(noteDef)
	g := instantiate(t, ctx, c)
	mem := g.mod.Memory()

	n, err := Store(mem, 64, c, schema.Record{"id": 3, "body": []byte("abc")})
	require.NoError(t, err)

	rec, err := Load(mem, 64, n, c)
	require.NoError(t, err)
	require.True(t, mem.WriteByte(64+3, 'z'))
	assert.Equal(t, []byte("zbc"), rec["body"])
}

func TestNewGuestAllocator_Missing(t *testing.T) {
	ctx := context.Background()
	rt := wazero.NewRuntime(ctx)
	defer rt.Close(ctx)

	mod, err := rt.NewHostModuleBuilder("empty").Instantiate(ctx)
	require.NoError(t, err)
	_, err = NewGuestAllocator(mod)
	assert.ErrorIs(t, err, &sperrors.Error{Phase: sperrors.PhaseTransport, Kind: sperrors.KindNotFound})
}
