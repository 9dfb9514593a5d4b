package transport

import (
	"context"
	stderrors "errors"

	"go.uber.org/zap"

	"github.com/huben1337/static-protocol/errors"
)

// ErrClosed is returned by carriers after Close or once the peer hung up.
var ErrClosed = errors.New(errors.PhaseTransport, errors.KindClosed).
	Detail("connection closed").
	Build()

// Sender delivers one message. It satisfies protocol.Sink.
type Sender interface {
	Send(ctx context.Context, msg []byte) error
}

// Receiver yields incoming messages one at a time.
type Receiver interface {
	Receive(ctx context.Context) ([]byte, error)
}

// Conn is a bidirectional carrier.
type Conn interface {
	Sender
	Receiver
	Close() error
}

// MessageHandler consumes one received message. *protocol.Handler
// implements it.
type MessageHandler interface {
	Handle(msg []byte) error
}

// HandlerFunc adapts a function to MessageHandler.
type HandlerFunc func(msg []byte) error

func (f HandlerFunc) Handle(msg []byte) error { return f(msg) }

// Serve feeds every message from r to h until ctx is done or r is closed.
// Messages h rejects are logged and dropped. It returns nil on cancellation
// or closure and the receive error otherwise.
func Serve(ctx context.Context, r Receiver, h MessageHandler) error {
	log := Logger()
	var handled, dropped int
	defer func() {
		log.Debug("serve stopped", zap.Int("handled", handled), zap.Int("dropped", dropped))
	}()

	for {
		msg, err := r.Receive(ctx)
		if err != nil {
			if stderrors.Is(err, ErrClosed) || ctx.Err() != nil {
				return nil
			}
			log.Warn("receive failed", zap.Error(err))
			return err
		}
		if err := h.Handle(msg); err != nil {
			dropped++
			log.Debug("message dropped", zap.Int("len", len(msg)), zap.Error(err))
			continue
		}
		handled++
	}
}
