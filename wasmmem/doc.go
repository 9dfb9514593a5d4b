// Package wasmmem moves messages across a WebAssembly guest's linear memory.
//
// Store encodes a message directly into guest memory and Load decodes one from
// a view of it without copying the region. Decoded byte fields alias guest
// memory unless the codec was built with codec.WithOwnedValues; copy them
// before the guest runs again.
//
// Allocators reserve space for messages: GuestAllocator calls the guest's
// exported allocator and Bump hands out a fixed region. HostFunc turns a
// handler into a wazero host function that guests call with (ptr, len).
package wasmmem
