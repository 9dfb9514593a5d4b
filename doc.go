// Package staticprotocol compiles declarative message schemas into compact binary
// encoders and decoders.
//
// A schema is compiled once into an immutable layout: a fixed base size, a list of
// runtime size contributions and two order-matched operation sequences. Every
// encode and decode call then executes those sequences against a single buffer.
//
// # Architecture Overview
//
//	staticprotocol/      Root package with the Memory contract shared by carriers
//	├── schema/          Type catalog, schema model, YAML schema files
//	├── layout/          Schema to layout planner and compile cache
//	├── codec/           Encode/decode engine and validation
//	├── buffer/          Growable little-endian buffer and read-only view
//	├── protocol/        Channel registry, dispatch, handler and emitter
//	├── transport/       Loopback, websocket and brotli carriers
//	├── wasmmem/         Encode into and decode from wazero guest memory
//	├── witschema/       Schemas derived from WIT types
//	├── errors/          Structured error types
//	└── cmd/layout/      Layout printer and interactive inspector
//
// # Quick Start
//
//	def := schema.Def(
//	    schema.Field{Name: "flag", Kind: schema.T("bool")},
//	    schema.Field{Name: "count", Kind: schema.T("uint16")},
//	    schema.Field{Name: "name", Kind: schema.T("varchar:10")},
//	)
//
//	c, err := codec.New(def)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	buf, err := c.Encode(schema.Record{"flag": true, "count": 300, "name": "hi"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	rec, err := c.Decode(buf)
//	if errors.Is(err, codec.ErrInvalid) {
//	    // a validator rejected the message
//	}
//
// # Wire Format
//
// All integers are little-endian. Booleans of one scope are packed eight per byte,
// bit i holding the i-th boolean in declaration order. Variable strings and byte
// strings carry a one or two byte length prefix chosen from the declared maximum.
// Unions carry a one byte discriminant followed by the chosen case's payload.
// Arrays carry a one or two byte element count.
package staticprotocol
