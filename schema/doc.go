// Package schema describes messages: the leaf type catalog, the recursive
// schema model and the value types that encode to and decode from it.
//
// Leaf descriptors follow a compact grammar:
//
//	bool                       one bit inside the scope's boolean group
//	int8 ... int64, int24      signed little-endian integers
//	uint8 ... uint64, uint24   unsigned little-endian integers
//	char:N  buf:N              fixed-length text and bytes
//	varchar[:N]  varbuf[:N]    length-prefixed text and bytes, N is the declared maximum
//	none                       unit union case
//
// Schemas can be built in Go with Def, OneOf and List, or loaded from YAML with
// ParseYAML.
package schema
