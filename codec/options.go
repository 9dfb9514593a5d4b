package codec

import (
	"go.uber.org/zap"

	"github.com/huben1337/static-protocol/layout"
)

// Strategy selects how Encode allocates the output buffer of a variable size
// message. Fixed-size messages always allocate their base size directly.
type Strategy uint8

const (
	// StrategyExact evaluates the layout's size contributions first and
	// allocates the exact size.
	StrategyExact Strategy = iota
	// StrategyGrow writes into a buffer that grows on demand and shrinks it to
	// the written length afterwards.
	StrategyGrow
)

func (s Strategy) String() string {
	if s == StrategyGrow {
		return "grow"
	}
	return "exact"
}

type options struct {
	logger     *zap.Logger
	compiler   *layout.Compiler
	layout     layout.Options
	strategy   Strategy
	owned      bool
	zeroCopy   bool
	noValidate bool
}

// Option configures a Codec.
type Option func(*options)

// WithChannel prefixes every message with the channel byte id and checks it on
// decode.
func WithChannel(id uint8) Option {
	return func(o *options) {
		o.layout.Channel = id
		o.layout.HasChannel = true
	}
}

// WithOwnedValues makes decoded byte fields copies instead of views into the
// input. It takes precedence over WithZeroCopy.
func WithOwnedValues() Option {
	return func(o *options) { o.owned = true }
}

// WithZeroCopy makes decoded strings and integer arrays alias the input. The
// caller must keep the input alive and unmodified while the values are in use.
func WithZeroCopy() Option {
	return func(o *options) { o.zeroCopy = true }
}

// WithoutValidation skips registered predicates on decode.
func WithoutValidation() Option {
	return func(o *options) { o.noValidate = true }
}

func WithStrategy(s Strategy) Option {
	return func(o *options) { o.strategy = s }
}

// WithAlignedArrays pads every 2, 4 and 8 byte integer array block to a
// multiple of its element width, measured from the start of the message.
func WithAlignedArrays() Option {
	return func(o *options) { o.layout.AlignArrays = true }
}

func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithCompiler compiles through c instead of layout.Default().
func WithCompiler(c *layout.Compiler) Option {
	return func(o *options) { o.compiler = c }
}
