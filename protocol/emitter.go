package protocol

import (
	"context"

	"github.com/huben1337/static-protocol/errors"
)

// Sink receives encoded messages.
type Sink interface {
	Send(ctx context.Context, msg []byte) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, msg []byte) error

func (f SinkFunc) Send(ctx context.Context, msg []byte) error { return f(ctx, msg) }

// Emitter encodes messages by endpoint name and passes them to a sink.
type Emitter struct {
	sink      Sink
	endpoints map[string]*endpoint
}

// NewEmitter creates an emitter for the endpoints named in mask, or all
// endpoints of p when mask is empty.
func NewEmitter(p *Protocol, sink Sink, mask ...string) (*Emitter, error) {
	e := &Emitter{sink: sink, endpoints: make(map[string]*endpoint)}
	if len(mask) == 0 {
		for _, ep := range p.order {
			e.endpoints[ep.name] = ep
		}
		return e, nil
	}
	for _, name := range mask {
		ep, ok := p.byName[name]
		if !ok {
			return nil, errors.NotFound(errors.PhaseRegister, "endpoint", name)
		}
		e.endpoints[name] = ep
	}
	return e, nil
}

// Emit encodes v for the named endpoint and sends it.
func (e *Emitter) Emit(ctx context.Context, name string, v any) error {
	ep, ok := e.endpoints[name]
	if !ok {
		return errors.NotFound(errors.PhaseDispatch, "endpoint", name)
	}
	msg, err := ep.codec.Encode(v)
	if err != nil {
		return err
	}
	return e.sink.Send(ctx, msg)
}
