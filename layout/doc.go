// Package layout compiles a schema.Definition into an immutable Layout.
//
// A Layout describes one message as a tree of scopes. The root scope is the
// message itself; every array element and every union payload is a scope of
// its own. Each scope has:
//
//   - a static region: fixed-width fields that precede the first variable,
//     array or union field, at literal offsets, followed by the boolean group
//   - a dynamic region: the remaining fields in declaration order, addressed by
//     a running cursor
//   - BaseSize: every byte of the scope known at compile time
//   - Contribs: the runtime size dependencies, so that for any value
//     BaseSize + sum(Contribs(value)) is the exact encoded length
//   - EncodeOps and DecodeOps: two order-matched operation sequences
//
// Layouts are safe for concurrent use. Compiler caches them per definition.
package layout
