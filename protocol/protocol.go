package protocol

import (
	"strconv"

	"go.uber.org/zap"

	"github.com/huben1337/static-protocol/codec"
	"github.com/huben1337/static-protocol/errors"
	"github.com/huben1337/static-protocol/schema"
)

// MaxEndpoints is the number of distinct channel ids.
const MaxEndpoints = 256

// Declaration is one endpoint passed to New or Raw.
type Declaration struct {
	def        *schema.Definition
	name       string
	opts       []codec.Option
	channel    uint8
	hasChannel bool
}

// EndpointOption configures a Declaration.
type EndpointOption func(*Declaration)

// Endpoint declares a named message.
func Endpoint(name string, def *schema.Definition, opts ...EndpointOption) Declaration {
	d := Declaration{name: name, def: def}
	for _, o := range opts {
		o(&d)
	}
	return d
}

// Channel pins the endpoint to id instead of the next free one.
func Channel(id uint8) EndpointOption {
	return func(d *Declaration) {
		d.channel = id
		d.hasChannel = true
	}
}

// With passes codec options to the endpoint's codec. codec.WithChannel is
// overridden by the protocol's assignment.
func With(opts ...codec.Option) EndpointOption {
	return func(d *Declaration) {
		d.opts = append(d.opts, opts...)
	}
}

type endpoint struct {
	codec   *codec.Codec
	name    string
	channel uint8
}

// Protocol is an immutable set of endpoints. Safe for concurrent use.
type Protocol struct {
	byName    map[string]*endpoint
	byChannel [MaxEndpoints]*endpoint
	order     []*endpoint
	raw       bool
}

// New builds a protocol whose messages carry their channel id.
func New(decls ...Declaration) (*Protocol, error) {
	return build(decls, false)
}

// Raw builds a protocol without channel bytes. Its messages can only be
// decoded by name.
func Raw(decls ...Declaration) (*Protocol, error) {
	return build(decls, true)
}

func build(decls []Declaration, raw bool) (*Protocol, error) {
	p := &Protocol{
		byName: make(map[string]*endpoint, len(decls)),
		order:  make([]*endpoint, 0, len(decls)),
		raw:    raw,
	}
	log := Logger()

	channels := make([]uint8, len(decls))
	if !raw {
		var err error
		if channels, err = assignChannels(decls); err != nil {
			return nil, err
		}
	}

	for i, d := range decls {
		if _, dup := p.byName[d.name]; dup {
			return nil, errors.New(errors.PhaseRegister, errors.KindDuplicateField).
				Path(d.name).
				Detail("endpoint %q declared twice", d.name).
				Build()
		}

		opts := d.opts
		if !raw {
			opts = append(opts[:len(opts):len(opts)], codec.WithChannel(channels[i]))
		}
		c, err := codec.New(d.def, opts...)
		if err != nil {
			return nil, errors.WithPrefix(err, d.name)
		}

		ep := &endpoint{name: d.name, channel: channels[i], codec: c}
		p.byName[d.name] = ep
		p.order = append(p.order, ep)
		if !raw {
			p.byChannel[ep.channel] = ep
			log.Debug("endpoint registered",
				zap.String("endpoint", d.name),
				zap.Uint8("channel", ep.channel),
				zap.Bool("pinned", d.hasChannel),
			)
		}
	}
	return p, nil
}

// assignChannels reserves pinned channels, then hands out the lowest free ids
// in declaration order.
func assignChannels(decls []Declaration) ([]uint8, error) {
	if len(decls) > MaxEndpoints {
		return nil, errors.New(errors.PhaseRegister, errors.KindOverflow).
			Value(len(decls)).
			Detail("%d endpoints exceed %d channels", len(decls), MaxEndpoints).
			Build()
	}

	var used [MaxEndpoints]bool
	out := make([]uint8, len(decls))
	for i, d := range decls {
		if !d.hasChannel {
			continue
		}
		if used[d.channel] {
			return nil, errors.New(errors.PhaseRegister, errors.KindDuplicateChannel).
				Path(d.name).
				Value(d.channel).
				Detail("channel %d already in use", d.channel).
				Build()
		}
		used[d.channel] = true
		out[i] = d.channel
	}

	next := 0
	for i, d := range decls {
		if d.hasChannel {
			continue
		}
		for used[next] {
			next++
		}
		used[next] = true
		out[i] = uint8(next)
	}
	return out, nil
}

// IsRaw reports whether messages carry no channel byte.
func (p *Protocol) IsRaw() bool { return p.raw }

// Len returns the number of endpoints.
func (p *Protocol) Len() int { return len(p.order) }

// Names lists endpoint names in declaration order.
func (p *Protocol) Names() []string {
	out := make([]string, len(p.order))
	for i, ep := range p.order {
		out[i] = ep.name
	}
	return out
}

func (p *Protocol) lookup(name string) (*endpoint, error) {
	ep, ok := p.byName[name]
	if !ok {
		return nil, errors.NotFound(errors.PhaseDispatch, "endpoint", name)
	}
	return ep, nil
}

// Codec returns the codec of the named endpoint.
func (p *Protocol) Codec(name string) (*codec.Codec, error) {
	ep, err := p.lookup(name)
	if err != nil {
		return nil, err
	}
	return ep.codec, nil
}

// ChannelOf returns the channel id of the named endpoint. It is false for
// unknown names and raw protocols.
func (p *Protocol) ChannelOf(name string) (uint8, bool) {
	ep, ok := p.byName[name]
	if !ok || p.raw {
		return 0, false
	}
	return ep.channel, true
}

// Encode encodes v as a message of the named endpoint.
func (p *Protocol) Encode(name string, v any) ([]byte, error) {
	ep, err := p.lookup(name)
	if err != nil {
		return nil, err
	}
	return ep.codec.Encode(v)
}

// Decode decodes buf as a message of the named endpoint.
func (p *Protocol) Decode(name string, buf []byte) (schema.Record, error) {
	ep, err := p.lookup(name)
	if err != nil {
		return nil, err
	}
	return ep.codec.Decode(buf)
}

// Dispatch routes buf by its channel byte and decodes it.
func (p *Protocol) Dispatch(buf []byte) (string, schema.Record, error) {
	ep, err := p.route(buf)
	if err != nil {
		return "", nil, err
	}
	rec, err := ep.codec.Decode(buf)
	if err != nil {
		return ep.name, nil, err
	}
	return ep.name, rec, nil
}

func (p *Protocol) route(buf []byte) (*endpoint, error) {
	if p.raw {
		return nil, errors.Unsupported(errors.PhaseDispatch, "raw protocols have no channel byte")
	}
	if len(buf) == 0 {
		return nil, errors.OutOfBounds(errors.PhaseDispatch, nil, 1, 0)
	}
	ep := p.byChannel[buf[0]]
	if ep == nil {
		Logger().Debug("unknown channel", zap.Uint8("channel", buf[0]), zap.Int("len", len(buf)))
		return nil, errors.NotFound(errors.PhaseDispatch, "channel", strconv.Itoa(int(buf[0])))
	}
	return ep, nil
}
