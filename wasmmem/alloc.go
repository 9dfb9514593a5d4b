package wasmmem

import (
	"context"
	"sync"

	"github.com/tetratelabs/wazero/api"

	staticprotocol "github.com/huben1337/static-protocol"
	"github.com/huben1337/static-protocol/errors"
)

// Allocator export names, in lookup order.
const (
	CabiRealloc = "cabi_realloc"
	simpleAlloc = "alloc"
	mallocAlloc = "malloc"
)

// GuestAllocator reserves memory by calling the guest's allocator export.
// cabi_realloc(old, old_size, align, size) and alloc(size) shaped exports
// are supported.
type GuestAllocator struct {
	fn     api.Function
	ctx    context.Context
	stack  []uint64
	mu     sync.Mutex
	simple bool
}

// NewGuestAllocator finds an allocator export of mod.
func NewGuestAllocator(mod api.Module) (*GuestAllocator, error) {
	defs := mod.ExportedFunctionDefinitions()
	for _, name := range []string{CabiRealloc, simpleAlloc, mallocAlloc} {
		def, ok := defs[name]
		if !ok {
			continue
		}
		return &GuestAllocator{
			fn:     mod.ExportedFunction(name),
			stack:  make([]uint64, 4),
			simple: len(def.ParamTypes()) < 4,
		}, nil
	}
	return nil, errors.NotFound(errors.PhaseTransport, "allocator export in module", mod.Name())
}

// SetContext sets the context guest calls run with.
func (a *GuestAllocator) SetContext(ctx context.Context) {
	a.mu.Lock()
	a.ctx = ctx
	a.mu.Unlock()
}

func (a *GuestAllocator) Alloc(size, align uint32) (uint32, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	ctx := a.ctx
	if ctx == nil {
		ctx = context.Background()
	}

	var stack []uint64
	if a.simple {
		stack = a.stack[:1]
		stack[0] = uint64(size)
	} else {
		stack = a.stack[:4]
		stack[0], stack[1], stack[2], stack[3] = 0, 0, uint64(align), uint64(size)
	}
	if err := a.fn.CallWithStack(ctx, stack); err != nil {
		return 0, errors.Wrap(errors.PhaseTransport, errors.KindInvalidData, err, "guest allocator")
	}
	ptr := uint32(stack[0])
	if ptr == 0 && size > 0 {
		return 0, errors.New(errors.PhaseTransport, errors.KindOverflow).
			Value(size).
			Detail("guest allocator returned null for %d bytes", size).
			Build()
	}
	return ptr, nil
}

// Bump hands out consecutive regions of [start, end) and never frees.
// Reset reclaims everything.
type Bump struct {
	mu    sync.Mutex
	start uint32
	next  uint32
	end   uint32
}

func NewBump(start, end uint32) *Bump {
	return &Bump{start: start, next: start, end: end}
}

func (b *Bump) Alloc(size, align uint32) (uint32, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if align == 0 {
		align = 1
	}
	a := uint64(align)
	ptr := (uint64(b.next) + a - 1) / a * a
	if ptr+uint64(size) > uint64(b.end) {
		return 0, errors.New(errors.PhaseTransport, errors.KindOverflow).
			Value(size).
			Detail("%d bytes do not fit in [%d, %d)", size, b.next, b.end).
			Build()
	}
	b.next = uint32(ptr) + size
	return uint32(ptr), nil
}

func (b *Bump) Reset() {
	b.mu.Lock()
	b.next = b.start
	b.mu.Unlock()
}

var (
	_ staticprotocol.Allocator = (*GuestAllocator)(nil)
	_ staticprotocol.Allocator = (*Bump)(nil)
)
