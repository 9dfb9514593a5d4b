package transport

import (
	"context"
	stderrors "errors"
	"net"
	"net/http"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/huben1337/static-protocol/errors"
)

// DefaultReadLimit bounds a single received frame.
const DefaultReadLimit = 1 << 20

type wsOptions struct {
	header       http.Header
	subprotocols []string
	origins      []string
	readLimit    int64
	compression  websocket.CompressionMode
}

// WSOption configures Dial and Accept.
type WSOption func(*wsOptions)

// WithSubprotocols negotiates one of the given subprotocols.
func WithSubprotocols(p ...string) WSOption {
	return func(o *wsOptions) { o.subprotocols = append(o.subprotocols, p...) }
}

// WithReadLimit caps the size of a received frame in bytes.
func WithReadLimit(n int64) WSOption {
	return func(o *wsOptions) { o.readLimit = n }
}

// WithOriginPatterns allows cross origin upgrades from matching hosts.
func WithOriginPatterns(p ...string) WSOption {
	return func(o *wsOptions) { o.origins = append(o.origins, p...) }
}

// WithHeader adds request headers to Dial.
func WithHeader(h http.Header) WSOption {
	return func(o *wsOptions) { o.header = h }
}

// WithPerMessageDeflate enables websocket level compression. It is redundant
// with BrotliSender.
func WithPerMessageDeflate() WSOption {
	return func(o *wsOptions) { o.compression = websocket.CompressionContextTakeover }
}

func buildWSOptions(opts []WSOption) wsOptions {
	o := wsOptions{readLimit: DefaultReadLimit, compression: websocket.CompressionDisabled}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// WebSocket carries each message as one binary frame.
type WebSocket struct {
	conn   *websocket.Conn
	logger *zap.Logger
	peer   string
}

// Dial connects to a websocket endpoint.
func Dial(ctx context.Context, url string, opts ...WSOption) (*WebSocket, error) {
	o := buildWSOptions(opts)
	conn, _, err := websocket.Dial(ctx, url, &websocket.DialOptions{
		HTTPHeader:      o.header,
		Subprotocols:    o.subprotocols,
		CompressionMode: o.compression,
	})
	if err != nil {
		return nil, errors.New(errors.PhaseTransport, errors.KindInvalidData).
			Detail("dial %s", url).
			Cause(err).
			Build()
	}
	return newWebSocket(conn, url, o), nil
}

// Accept upgrades an HTTP request.
func Accept(w http.ResponseWriter, r *http.Request, opts ...WSOption) (*WebSocket, error) {
	o := buildWSOptions(opts)
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		Subprotocols:    o.subprotocols,
		OriginPatterns:  o.origins,
		CompressionMode: o.compression,
	})
	if err != nil {
		return nil, errors.New(errors.PhaseTransport, errors.KindInvalidData).
			Detail("accept %s", r.RemoteAddr).
			Cause(err).
			Build()
	}
	return newWebSocket(conn, r.RemoteAddr, o), nil
}

func newWebSocket(conn *websocket.Conn, peer string, o wsOptions) *WebSocket {
	conn.SetReadLimit(o.readLimit)
	ws := &WebSocket{conn: conn, peer: peer, logger: Logger().With(zap.String("peer", peer))}
	ws.logger.Debug("websocket open", zap.String("subprotocol", conn.Subprotocol()))
	return ws
}

// Subprotocol returns the negotiated subprotocol.
func (ws *WebSocket) Subprotocol() string { return ws.conn.Subprotocol() }

func (ws *WebSocket) Send(ctx context.Context, msg []byte) error {
	if err := ws.conn.Write(ctx, websocket.MessageBinary, msg); err != nil {
		return ws.wrap(ctx, err)
	}
	return nil
}

// Receive returns the next binary frame. Text frames are an error.
func (ws *WebSocket) Receive(ctx context.Context) ([]byte, error) {
	typ, msg, err := ws.conn.Read(ctx)
	if err != nil {
		return nil, ws.wrap(ctx, err)
	}
	if typ != websocket.MessageBinary {
		return nil, errors.InvalidData(errors.PhaseTransport, nil, "text frame on a binary channel")
	}
	return msg, nil
}

func (ws *WebSocket) wrap(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		ws.logger.Debug("websocket closed by peer")
		return ErrClosed
	}
	if stderrors.Is(err, net.ErrClosed) {
		return ErrClosed
	}
	return errors.Wrap(errors.PhaseTransport, errors.KindInvalidData, err, "websocket")
}

func (ws *WebSocket) Close() error {
	ws.logger.Debug("websocket close")
	err := ws.conn.Close(websocket.StatusNormalClosure, "")
	if err != nil && websocket.CloseStatus(err) == -1 && !stderrors.Is(err, net.ErrClosed) {
		return err
	}
	return nil
}

// Upgrade returns an http.Handler that accepts websocket connections and
// runs fn for each. The connection is closed when fn returns.
func Upgrade(fn func(ctx context.Context, ws *WebSocket), opts ...WSOption) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := Accept(w, r, opts...)
		if err != nil {
			Logger().Warn("websocket upgrade failed", zap.String("peer", r.RemoteAddr), zap.Error(err))
			return
		}
		defer ws.Close()
		fn(r.Context(), ws)
	})
}
