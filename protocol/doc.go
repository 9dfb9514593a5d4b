// Package protocol groups several message definitions behind one byte of
// routing.
//
// Every endpoint of a Protocol gets a channel id that its codec writes as the
// first byte of each message. Dispatch and Handler read that byte to pick the
// codec for an incoming buffer; Emitter encodes by endpoint name and hands the
// result to a Sink.
//
//	p, err := protocol.New(
//		protocol.Endpoint("note", noteDef),
//		protocol.Endpoint("ping", pingDef, protocol.Channel(9)),
//	)
//
// Explicit channels are reserved first. The remaining endpoints take the lowest
// free ids in declaration order. A protocol built with Raw has no channel bytes
// and cannot dispatch.
package protocol
