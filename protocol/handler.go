package protocol

import (
	"strconv"

	"go.uber.org/zap"

	"github.com/huben1337/static-protocol/errors"
	"github.com/huben1337/static-protocol/schema"
)

// HandlerFunc receives a decoded message.
type HandlerFunc func(rec schema.Record) error

type route struct {
	ep *endpoint
	fn HandlerFunc
}

// Handler decodes incoming messages and calls the callback of their endpoint.
type Handler struct {
	routes [MaxEndpoints]*route
	proto  *Protocol
}

// NewHandler binds callbacks to endpoints of p by name. Endpoints without a
// callback are rejected by Handle.
func NewHandler(p *Protocol, handlers map[string]HandlerFunc) (*Handler, error) {
	if p.raw {
		return nil, errors.Unsupported(errors.PhaseRegister, "handler on a raw protocol")
	}
	h := &Handler{proto: p}
	for name, fn := range handlers {
		ep, ok := p.byName[name]
		if !ok {
			return nil, errors.NotFound(errors.PhaseRegister, "endpoint", name)
		}
		if fn == nil {
			continue
		}
		h.routes[ep.channel] = &route{ep: ep, fn: fn}
	}
	return h, nil
}

// Protocol returns the protocol the handler routes for.
func (h *Handler) Protocol() *Protocol { return h.proto }

// Handle decodes buf and calls its endpoint's callback. A message rejected by
// a validator is dropped and codec.ErrInvalid returned.
func (h *Handler) Handle(buf []byte) error {
	if len(buf) == 0 {
		return errors.OutOfBounds(errors.PhaseDispatch, nil, 1, 0)
	}
	r := h.routes[buf[0]]
	if r == nil {
		Logger().Debug("no handler for channel", zap.Uint8("channel", buf[0]))
		return errors.NotFound(errors.PhaseDispatch, "handler for channel", strconv.Itoa(int(buf[0])))
	}
	rec, err := r.ep.codec.Decode(buf)
	if err != nil {
		return err
	}
	return r.fn(rec)
}
