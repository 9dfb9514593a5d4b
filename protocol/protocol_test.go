package protocol

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huben1337/static-protocol/codec"
	sperrors "github.com/huben1337/static-protocol/errors"
	"github.com/huben1337/static-protocol/schema"
)

var (
	noteDef = schema.Def(schema.Field{Name: "text", Kind: schema.T("varchar")})
	pingDef = schema.Def(schema.Field{Name: "seq", Kind: schema.T("uint32")})
	ackDef  = schema.Def(schema.Field{Name: "ok", Kind: schema.T("bool")})
	pickDef = schema.Def(schema.Field{Name: "n", Kind: schema.CheckAs("uint8", func(n uint8) bool { return n < 10 })})
)

func requireKind(t *testing.T, err error, phase sperrors.Phase, kind sperrors.Kind) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, errors.Is(err, &sperrors.Error{Phase: phase, Kind: kind}), "got %v", err)
}

func TestNew_ChannelAssignment(t *testing.T) {
	p, err := New(
		Endpoint("note", noteDef),
		Endpoint("ping", pingDef, Channel(0)),
		Endpoint("ack", ackDef),
		Endpoint("pick", pickDef, Channel(2)),
	)
	require.NoError(t, err)

	want := map[string]uint8{"ping": 0, "note": 1, "pick": 2, "ack": 3}
	for name, ch := range want {
		got, ok := p.ChannelOf(name)
		assert.True(t, ok, name)
		assert.Equal(t, ch, got, name)
	}
	assert.Equal(t, []string{"note", "ping", "ack", "pick"}, p.Names())
	assert.Equal(t, 4, p.Len())
	assert.False(t, p.IsRaw())

	_, ok := p.ChannelOf("missing")
	assert.False(t, ok)
}

func TestNew_Errors(t *testing.T) {
	_, err := New(Endpoint("a", noteDef, Channel(3)), Endpoint("b", pingDef, Channel(3)))
	requireKind(t, err, sperrors.PhaseRegister, sperrors.KindDuplicateChannel)

	_, err = New(Endpoint("a", noteDef), Endpoint("a", pingDef))
	requireKind(t, err, sperrors.PhaseRegister, sperrors.KindDuplicateField)

	decls := make([]Declaration, MaxEndpoints+1)
	for i := range decls {
		decls[i] = Endpoint(string(rune('a'+i%26))+string(rune('a'+i/26)), ackDef)
	}
	_, err = New(decls...)
	requireKind(t, err, sperrors.PhaseRegister, sperrors.KindOverflow)

	_, err = New(decls[:MaxEndpoints]...)
	require.NoError(t, err)

	_, err = New(Endpoint("bad", schema.Def(schema.Field{Name: "x", Kind: schema.T("none")})))
	requireKind(t, err, sperrors.PhaseCompile, sperrors.KindInvalidSchema)
	var e *sperrors.Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, []string{"bad", "x"}, e.Path)
}

func TestProtocol_EncodeDispatch(t *testing.T) {
	p, err := New(Endpoint("note", noteDef), Endpoint("ping", pingDef, Channel(7)))
	require.NoError(t, err)

	buf, err := p.Encode("ping", schema.Record{"seq": 5})
	require.NoError(t, err)
	assert.Equal(t, []byte{7, 5, 0, 0, 0}, buf)

	name, rec, err := p.Dispatch(buf)
	require.NoError(t, err)
	assert.Equal(t, "ping", name)
	assert.Equal(t, schema.Record{"seq": uint32(5)}, rec)

	buf, err = p.Encode("note", schema.Record{"text": "hi"})
	require.NoError(t, err)
	name, rec, err = p.Dispatch(buf)
	require.NoError(t, err)
	assert.Equal(t, "note", name)
	assert.Equal(t, "hi", rec["text"])

	_, _, err = p.Dispatch([]byte{9, 0})
	requireKind(t, err, sperrors.PhaseDispatch, sperrors.KindNotFound)

	_, _, err = p.Dispatch(nil)
	requireKind(t, err, sperrors.PhaseDispatch, sperrors.KindOutOfBounds)

	_, err = p.Encode("missing", schema.Record{})
	requireKind(t, err, sperrors.PhaseDispatch, sperrors.KindNotFound)

	_, err = p.Codec("missing")
	requireKind(t, err, sperrors.PhaseDispatch, sperrors.KindNotFound)
}

func TestRaw(t *testing.T) {
	p, err := Raw(Endpoint("note", noteDef), Endpoint("ping", pingDef))
	require.NoError(t, err)
	assert.True(t, p.IsRaw())

	buf, err := p.Encode("ping", schema.Record{"seq": 1})
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 0, 0, 0}, buf)

	rec, err := p.Decode("ping", buf)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), rec["seq"])

	_, _, err = p.Dispatch(buf)
	requireKind(t, err, sperrors.PhaseDispatch, sperrors.KindUnsupported)

	_, err = NewHandler(p, nil)
	requireKind(t, err, sperrors.PhaseRegister, sperrors.KindUnsupported)
}

func TestWith_PassesCodecOptions(t *testing.T) {
	p, err := New(Endpoint("pick", pickDef, With(codec.WithoutValidation())))
	require.NoError(t, err)

	buf, err := p.Encode("pick", schema.Record{"n": 50})
	require.NoError(t, err)
	_, rec, err := p.Dispatch(buf)
	require.NoError(t, err)
	assert.Equal(t, uint8(50), rec["n"])
}

func TestHandler(t *testing.T) {
	p, err := New(Endpoint("note", noteDef), Endpoint("ping", pingDef), Endpoint("pick", pickDef))
	require.NoError(t, err)

	var notes []string
	var picks []uint8
	h, err := NewHandler(p, map[string]HandlerFunc{
		"note": func(rec schema.Record) error {
			notes = append(notes, rec["text"].(string))
			return nil
		},
		"pick": func(rec schema.Record) error {
			picks = append(picks, rec["n"].(uint8))
			return nil
		},
	})
	require.NoError(t, err)
	assert.Same(t, p, h.Protocol())

	for _, text := range []string{"a", "b"} {
		buf, err := p.Encode("note", schema.Record{"text": text})
		require.NoError(t, err)
		require.NoError(t, h.Handle(buf))
	}
	assert.Equal(t, []string{"a", "b"}, notes)

	buf, err := p.Encode("pick", schema.Record{"n": 3})
	require.NoError(t, err)
	require.NoError(t, h.Handle(buf))

	buf, err = p.Encode("pick", schema.Record{"n": 30})
	require.NoError(t, err)
	assert.Same(t, codec.ErrInvalid, h.Handle(buf))
	assert.Equal(t, []uint8{3}, picks)

	buf, err = p.Encode("ping", schema.Record{"seq": 1})
	require.NoError(t, err)
	requireKind(t, h.Handle(buf), sperrors.PhaseDispatch, sperrors.KindNotFound)

	requireKind(t, h.Handle(nil), sperrors.PhaseDispatch, sperrors.KindOutOfBounds)

	boom := errors.New("boom")
	h, err = NewHandler(p, map[string]HandlerFunc{"ping": func(schema.Record) error { return boom }})
	require.NoError(t, err)
	assert.ErrorIs(t, h.Handle(buf), boom)

	_, err = NewHandler(p, map[string]HandlerFunc{"missing": func(schema.Record) error { return nil }})
	requireKind(t, err, sperrors.PhaseRegister, sperrors.KindNotFound)
}

func TestEmitter(t *testing.T) {
	p, err := New(Endpoint("note", noteDef), Endpoint("ping", pingDef))
	require.NoError(t, err)

	var sent [][]byte
	sink := SinkFunc(func(_ context.Context, msg []byte) error {
		sent = append(sent, msg)
		return nil
	})

	e, err := NewEmitter(p, sink, "note")
	require.NoError(t, err)
	require.NoError(t, e.Emit(context.Background(), "note", schema.Record{"text": "yo"}))
	require.Len(t, sent, 1)
	assert.Equal(t, []byte{0, 2, 'y', 'o'}, sent[0])

	err = e.Emit(context.Background(), "ping", schema.Record{"seq": 1})
	requireKind(t, err, sperrors.PhaseDispatch, sperrors.KindNotFound)

	err = e.Emit(context.Background(), "note", schema.Record{})
	requireKind(t, err, sperrors.PhaseEncode, sperrors.KindFieldMissing)
	assert.Len(t, sent, 1)

	all, err := NewEmitter(p, sink)
	require.NoError(t, err)
	require.NoError(t, all.Emit(context.Background(), "ping", schema.Record{"seq": 2}))
	assert.Equal(t, []byte{1, 2, 0, 0, 0}, sent[1])

	_, err = NewEmitter(p, sink, "missing")
	requireKind(t, err, sperrors.PhaseRegister, sperrors.KindNotFound)
}

func TestEmitterHandlerLoop(t *testing.T) {
	p, err := New(Endpoint("note", noteDef))
	require.NoError(t, err)

	var got []string
	h, err := NewHandler(p, map[string]HandlerFunc{"note": func(rec schema.Record) error {
		got = append(got, rec["text"].(string))
		return nil
	}})
	require.NoError(t, err)

	e, err := NewEmitter(p, SinkFunc(func(_ context.Context, msg []byte) error {
		return h.Handle(msg)
	}))
	require.NoError(t, err)

	require.NoError(t, e.Emit(context.Background(), "note", schema.Record{"text": "echo"}))
	assert.Equal(t, []string{"echo"}, got)
}
