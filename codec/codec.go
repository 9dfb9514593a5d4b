package codec

import (
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/huben1337/static-protocol/buffer"
	"github.com/huben1337/static-protocol/errors"
	"github.com/huben1337/static-protocol/layout"
	"github.com/huben1337/static-protocol/schema"
)

// ErrInvalid is returned by Decode when a validator rejects a field. It is
// preallocated; compare with == or errors.Is.
var ErrInvalid = errors.New(errors.PhaseValidate, errors.KindValidationFailed).
	Detail("message rejected by validator").
	Build()

// Codec encodes and decodes messages of one definition.
type Codec struct {
	def    *schema.Definition
	layout *layout.Layout
	logger *zap.Logger
	hint   atomic.Int64 // grow strategy capacity hint
	opts   options
}

// New compiles def and returns a codec bound to it.
func New(def *schema.Definition, opts ...Option) (*Codec, error) {
	c := &Codec{def: def}
	for _, o := range opts {
		o(&c.opts)
	}
	if c.opts.compiler == nil {
		c.opts.compiler = layout.Default()
	}
	c.logger = c.opts.logger
	if c.logger == nil {
		c.logger = Logger()
	}

	l, err := c.opts.compiler.Compile(def, c.opts.layout)
	if err != nil {
		return nil, err
	}
	c.layout = l
	if l.Padded && c.opts.strategy == StrategyExact {
		c.opts.strategy = StrategyGrow
	}
	c.hint.Store(int64(l.BaseSize()) + 64)

	c.logger.Debug("codec ready",
		zap.Int("base_size", l.BaseSize()),
		zap.Bool("fixed", l.Fixed()),
		zap.Stringer("strategy", c.opts.strategy),
		zap.Bool("channel", l.Options.HasChannel),
	)
	return c, nil
}

// Must is New that panics on error.
func Must(def *schema.Definition, opts ...Option) *Codec {
	c, err := New(def, opts...)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Codec) Definition() *schema.Definition { return c.def }
func (c *Codec) Layout() *layout.Layout         { return c.layout }
func (c *Codec) Strategy() Strategy             { return c.opts.strategy }

// Channel returns the leading channel byte, if any.
func (c *Codec) Channel() (uint8, bool) {
	return c.layout.Options.Channel, c.layout.Options.HasChannel
}

// Size returns the exact encoded length of v.
func (c *Codec) Size(v any) (int, error) {
	if c.layout.Fixed() {
		return c.layout.BaseSize(), nil
	}
	if c.layout.Padded {
		b, err := c.encodeGrow(v)
		if err != nil {
			return 0, err
		}
		return len(b), nil
	}
	n, err := measureScope(c.layout.Root, v)
	if err != nil {
		return 0, err
	}
	return c.layout.HeaderSize + n, nil
}

// Encode serializes v into a new buffer of exactly its encoded length.
func (c *Codec) Encode(v any) ([]byte, error) {
	l := c.layout
	switch {
	case l.Fixed():
		return c.encodeExact(v, l.BaseSize())
	case c.opts.strategy == StrategyGrow:
		return c.encodeGrow(v)
	}
	n, err := measureScope(l.Root, v)
	if err != nil {
		return nil, err
	}
	return c.encodeExact(v, l.HeaderSize+n)
}

// EncodeInto writes v to the start of dst and returns the encoded length. dst
// must hold at least Size(v) bytes; the bytes after the message are untouched.
func (c *Codec) EncodeInto(dst []byte, v any) (int, error) {
	if c.layout.Padded {
		b, err := c.encodeGrow(v)
		if err != nil {
			return 0, err
		}
		if len(b) > len(dst) {
			return 0, errors.OutOfBounds(errors.PhaseEncode, nil, len(b), len(dst))
		}
		return copy(dst, b), nil
	}

	size, err := c.Size(v)
	if err != nil {
		return 0, err
	}
	if size > len(dst) {
		return 0, errors.OutOfBounds(errors.PhaseEncode, nil, size, len(dst))
	}
	e := encoder{buf: buffer.Wrap(dst[:size:size])}
	end, err := e.message(c.layout, v)
	if err != nil {
		return 0, err
	}
	if end != size {
		return 0, errors.InvalidData(errors.PhaseEncode, nil, "encoded length differs from computed size")
	}
	return size, nil
}

func (c *Codec) encodeExact(v any, size int) ([]byte, error) {
	buf := buffer.New(size)
	e := encoder{buf: buf}
	end, err := e.message(c.layout, v)
	if err != nil {
		return nil, err
	}
	if end != size {
		return nil, errors.InvalidData(errors.PhaseEncode, nil, "encoded length differs from computed size")
	}
	return buf.Bytes(), nil
}

func (c *Codec) encodeGrow(v any) ([]byte, error) {
	buf := buffer.WithCapacity(0, int(c.hint.Load()))
	e := encoder{buf: buf, grow: true}
	end, err := e.message(c.layout, v)
	if err != nil {
		return nil, err
	}
	buf.Resize(end)
	if int64(end) > c.hint.Load() {
		c.hint.Store(int64(end))
	}
	return buf.Bytes(), nil
}

// Decode reads a message from data. Bytes past the end of the message are
// ignored. It returns ErrInvalid if a validator rejects a field.
func (c *Codec) Decode(data []byte) (schema.Record, error) {
	rec, _, err := c.DecodeView(buffer.NewView(data))
	return rec, err
}

// DecodeView is Decode over a view and also returns the message length.
func (c *Codec) DecodeView(v buffer.View) (schema.Record, int, error) {
	d := decoder{view: v, layout: c.layout, opts: &c.opts}
	return d.message()
}
