package transport

import (
	"bytes"
	"context"
	"sync"
)

// Loopback is an in-process carrier. Messages are copied on Send.
type Loopback struct {
	in   chan []byte
	out  chan []byte
	done chan struct{}
	once *sync.Once
}

// NewLoopback returns a carrier that receives what it sends. buffer is the
// number of messages Send queues before blocking.
func NewLoopback(buffer int) *Loopback {
	q := make(chan []byte, buffer)
	return &Loopback{in: q, out: q, done: make(chan struct{}), once: &sync.Once{}}
}

// Pipe returns two connected carriers. Closing either closes both.
func Pipe(buffer int) (*Loopback, *Loopback) {
	ab := make(chan []byte, buffer)
	ba := make(chan []byte, buffer)
	done := make(chan struct{})
	once := &sync.Once{}
	return &Loopback{in: ba, out: ab, done: done, once: once},
		&Loopback{in: ab, out: ba, done: done, once: once}
}

func (l *Loopback) Send(ctx context.Context, msg []byte) error {
	select {
	case <-l.done:
		return ErrClosed
	default:
	}
	select {
	case l.out <- bytes.Clone(msg):
		return nil
	case <-l.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Receive returns queued messages before reporting closure.
func (l *Loopback) Receive(ctx context.Context) ([]byte, error) {
	select {
	case msg := <-l.in:
		return msg, nil
	default:
	}
	select {
	case msg := <-l.in:
		return msg, nil
	case <-l.done:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (l *Loopback) Close() error {
	l.once.Do(func() { close(l.done) })
	return nil
}
