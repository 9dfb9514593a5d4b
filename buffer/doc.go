// Package buffer provides the byte region the codec writes to and reads from.
//
// Buffer is a mutable, growable little-endian region with typed setters and
// getters. View is its read-only counterpart: every accessor is bounds checked
// and returns a decode error instead of panicking, so a View can wrap untrusted
// input directly without copying it.
package buffer
