// Package codec executes compiled layouts: it encodes values into byte
// buffers and decodes buffers back into values.
//
// A Codec is bound to one schema.Definition. It is immutable and safe for
// concurrent use; every call allocates exactly the buffer it returns.
//
// Values use the model documented in package schema. Encoding is lenient about
// Go types (any integer kind, integral floats, map[string]any records, id/value
// maps for unions). Decoding always yields the canonical types: sized integers,
// string, []byte, schema.Record, schema.Enum and typed slices for leaf arrays.
//
// A decode that trips a registered validator returns ErrInvalid. Truncated or
// malformed input yields a decode error with the offending field path.
package codec
