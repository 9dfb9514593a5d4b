package wasmmem

import (
	"context"
	stderrors "errors"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/huben1337/static-protocol/codec"
	"github.com/huben1337/static-protocol/schema"
)

// Status codes returned to the guest by a HostFunc.
const (
	StatusOK      uint32 = 0
	StatusInvalid uint32 = 1 // a validator rejected the message
	StatusError   uint32 = 2 // decode or handler failure
)

// Handler receives a message a guest passed to the host.
type Handler func(ctx context.Context, mod api.Module, rec schema.Record) error

// HostFunc returns a host function of type (ptr, len i32) -> i32 that decodes
// the caller's message with c and passes it to h.
func HostFunc(c *codec.Codec, h Handler) api.GoModuleFunc {
	return func(ctx context.Context, mod api.Module, stack []uint64) {
		ptr, length := api.DecodeU32(stack[0]), api.DecodeU32(stack[1])
		stack[0] = api.EncodeU32(handle(ctx, mod, c, h, ptr, length))
	}
}

func handle(ctx context.Context, mod api.Module, c *codec.Codec, h Handler, ptr, length uint32) uint32 {
	mem := mod.Memory()
	if mem == nil {
		Logger().Warn("caller exports no memory", zap.String("module", mod.Name()))
		return StatusError
	}
	rec, err := Load(mem, ptr, length, c)
	switch {
	case stderrors.Is(err, codec.ErrInvalid):
		return StatusInvalid
	case err != nil:
		Logger().Debug("guest message rejected",
			zap.String("module", mod.Name()),
			zap.Uint32("ptr", ptr),
			zap.Uint32("len", length),
			zap.Error(err),
		)
		return StatusError
	}
	if err := h(ctx, mod, rec); err != nil {
		Logger().Debug("guest message handler failed", zap.String("module", mod.Name()), zap.Error(err))
		return StatusError
	}
	return StatusOK
}

// Export adds HostFunc(c, h) to b under name.
func Export(b wazero.HostModuleBuilder, name string, c *codec.Codec, h Handler) wazero.HostModuleBuilder {
	return b.NewFunctionBuilder().
		WithGoModuleFunction(HostFunc(c, h),
			[]api.ValueType{api.ValueTypeI32, api.ValueTypeI32},
			[]api.ValueType{api.ValueTypeI32}).
		WithParameterNames("ptr", "len").
		Export(name)
}
