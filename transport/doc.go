// Package transport moves encoded messages between peers.
//
// A Sender delivers one message, a Receiver yields one message at a time and
// Serve pumps a Receiver into a message handler such as *protocol.Handler.
// Loopback and Pipe are in-process carriers; WebSocket carries each message
// as one binary frame. BrotliSender compresses frames on the way out and
// BrotliReceiver undoes it on the way in.
package transport
