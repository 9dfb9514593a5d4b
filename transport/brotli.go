package transport

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/andybalholm/brotli"

	"github.com/huben1337/static-protocol/errors"
)

// BrotliSender compresses every message before passing it on.
type BrotliSender struct {
	next    Sender
	writers sync.Pool
	level   int
}

// NewBrotliSender wraps next. level ranges from brotli.BestSpeed to
// brotli.BestCompression.
func NewBrotliSender(next Sender, level int) *BrotliSender {
	s := &BrotliSender{next: next, level: level}
	s.writers.New = func() any { return brotli.NewWriterLevel(nil, s.level) }
	return s
}

func (s *BrotliSender) Send(ctx context.Context, msg []byte) error {
	frame, err := s.compress(msg)
	if err != nil {
		return err
	}
	return s.next.Send(ctx, frame)
}

func (s *BrotliSender) compress(msg []byte) ([]byte, error) {
	w := s.writers.Get().(*brotli.Writer)
	defer s.writers.Put(w)
	return compressWith(w, msg)
}

func compressWith(w *brotli.Writer, msg []byte) ([]byte, error) {
	var out bytes.Buffer
	w.Reset(&out)
	if _, err := w.Write(msg); err != nil {
		return nil, errors.Wrap(errors.PhaseTransport, errors.KindInvalidData, err, "brotli compress")
	}
	if err := w.Close(); err != nil {
		return nil, errors.Wrap(errors.PhaseTransport, errors.KindInvalidData, err, "brotli compress")
	}
	return out.Bytes(), nil
}

// Compress returns msg brotli compressed at level.
func Compress(msg []byte, level int) ([]byte, error) {
	return compressWith(brotli.NewWriterLevel(nil, level), msg)
}

// MaxDecompressed bounds the output of Decompress.
const MaxDecompressed = 16 << 20

// Decompress inflates one brotli frame.
func Decompress(frame []byte) ([]byte, error) {
	r := brotli.NewReader(bytes.NewReader(frame))
	out, err := io.ReadAll(io.LimitReader(r, MaxDecompressed+1))
	if err != nil {
		return nil, errors.Wrap(errors.PhaseTransport, errors.KindInvalidData, err, "brotli decompress")
	}
	if len(out) > MaxDecompressed {
		return nil, errors.New(errors.PhaseTransport, errors.KindOverflow).
			Detail("decompressed frame exceeds %d bytes", MaxDecompressed).
			Build()
	}
	return out, nil
}

// BrotliReceiver decompresses every message of the wrapped receiver.
type BrotliReceiver struct {
	next Receiver
}

func NewBrotliReceiver(next Receiver) *BrotliReceiver {
	return &BrotliReceiver{next: next}
}

func (r *BrotliReceiver) Receive(ctx context.Context) ([]byte, error) {
	frame, err := r.next.Receive(ctx)
	if err != nil {
		return nil, err
	}
	return Decompress(frame)
}
