package codec

import (
	"bytes"
	"strconv"
	"unsafe"

	"github.com/huben1337/static-protocol/buffer"
	"github.com/huben1337/static-protocol/codec/internal/num"
	"github.com/huben1337/static-protocol/errors"
	"github.com/huben1337/static-protocol/layout"
	"github.com/huben1337/static-protocol/schema"
)

type decoder struct {
	layout *layout.Layout
	opts   *options
	view   buffer.View
}

func (d *decoder) message() (schema.Record, int, error) {
	l := d.layout
	if l.Options.HasChannel {
		ch, err := d.view.Uint8(0)
		if err != nil {
			return nil, 0, err
		}
		if ch != l.Options.Channel {
			return nil, 0, errors.New(errors.PhaseDecode, errors.KindInvalidData).
				Value(ch).
				Detail("channel %d, want %d", ch, l.Options.Channel).
				Build()
		}
	}
	v, end, err := d.scope(l.Root, l.HeaderSize)
	if err != nil {
		return nil, 0, err
	}
	return v.(schema.Record), end, nil
}

func (d *decoder) test(idx int, x any) bool {
	if idx < 0 || d.opts.noValidate {
		return true
	}
	return d.layout.Validators[idx].Test(x)
}

func (d *decoder) elemTest(idx int) func(any) bool {
	if idx < 0 || d.opts.noValidate {
		return nil
	}
	return d.layout.Validators[idx].Test
}

// scope reads one scope at base and returns its value and end offset.
func (d *decoder) scope(s *layout.Scope, base int) (any, int, error) {
	if !d.view.Has(base, s.StaticSize) {
		return nil, 0, errors.OutOfBounds(errors.PhaseDecode, nil, base+s.StaticSize, d.view.Len())
	}

	var rec schema.Record
	var val any
	if !s.Value {
		rec = make(schema.Record, len(s.DecodeOps)+len(s.Nested))
		for _, p := range s.Nested {
			parentOf(rec, p)[p[len(p)-1]] = schema.Record{}
		}
	}

	cursor := base + s.StaticSize
	for i := range s.DecodeOps {
		op := &s.DecodeOps[i]
		at := cursor
		if op.Static {
			at = base + op.Offset
		}

		x, end, err := d.op(op, at)
		if err != nil {
			return nil, 0, prefixWithPath(err, op.Path...)
		}
		if !d.test(op.Validator, x) {
			return nil, 0, ErrInvalid
		}
		if !op.Static {
			cursor = end
		}

		if len(op.Path) == 0 {
			val = x
		} else {
			parentOf(rec, op.Path)[op.Path[len(op.Path)-1]] = x
		}
	}

	if s.Value {
		return val, cursor, nil
	}
	return rec, cursor, nil
}

// parentOf returns the record holding the last element of path.
func parentOf(rec schema.Record, path []string) schema.Record {
	for _, seg := range path[:len(path)-1] {
		rec = rec[seg].(schema.Record)
	}
	return rec
}

func (d *decoder) op(op *layout.Op, at int) (any, int, error) {
	switch op.Code {
	case layout.OpUint:
		u, err := d.view.Uint(at, op.Width)
		return uintValue(u, op.Width), at + op.Width, err

	case layout.OpInt:
		i, err := d.view.Int(at, op.Width)
		return intValue(i, op.Width), at + op.Width, err

	case layout.OpBool:
		b, err := d.view.Uint8(at)
		return b>>op.Bit&1 == 1, at + 1, err

	case layout.OpChars, layout.OpBytes:
		return d.fixed(op.Code == layout.OpChars, op.Width, at)

	case layout.OpVarChars, layout.OpVarBytes:
		return d.variable(op.Code == layout.OpVarChars, op.Width, at)

	case layout.OpUnion:
		return d.union(op.Union, at)

	case layout.OpArray:
		return d.array(op.Array, at)
	}
	return nil, 0, errors.Unsupported(errors.PhaseDecode, "op "+op.Code.String())
}

func (d *decoder) fixed(text bool, width, at int) (any, int, error) {
	raw, err := d.view.Bytes(at, width)
	if err != nil {
		return nil, 0, err
	}
	if text {
		return d.str(bytes.TrimRight(raw, "\x00")), at + width, nil
	}
	return d.bytes(raw), at + width, nil
}

func (d *decoder) variable(text bool, prefix, at int) (any, int, error) {
	n, err := d.view.Uint(at, prefix)
	if err != nil {
		return nil, 0, err
	}
	raw, err := d.view.Bytes(at+prefix, int(n))
	if err != nil {
		return nil, 0, err
	}
	end := at + prefix + int(n)
	if text {
		return d.str(raw), end, nil
	}
	return d.bytes(raw), end, nil
}

func (d *decoder) str(raw []byte) string {
	if d.opts.zeroCopy && !d.opts.owned && len(raw) > 0 {
		return unsafe.String(unsafe.SliceData(raw), len(raw))
	}
	return string(raw)
}

func (d *decoder) bytes(raw []byte) []byte {
	if d.opts.owned {
		return bytes.Clone(raw)
	}
	return raw
}

func (d *decoder) union(u *layout.UnionPlan, at int) (any, int, error) {
	disc, err := d.view.Uint8(at)
	if err != nil {
		return nil, 0, err
	}
	c, ok := u.ByDisc(disc)
	if !ok {
		return nil, 0, errors.InvalidDiscriminant(errors.PhaseDecode, nil, disc)
	}
	if c.Payload == nil {
		return schema.Enum{ID: c.Key}, at + 1, nil
	}
	v, end, err := d.scope(c.Payload, at+1)
	if err != nil {
		return nil, 0, prefixWithPath(err, caseLabel(c))
	}
	return schema.Enum{ID: c.Key, Value: v}, end, nil
}

func (d *decoder) array(a *layout.ArrayPlan, at int) (any, int, error) {
	count, err := d.view.Uint(at, a.PrefixWidth)
	if err != nil {
		return nil, 0, err
	}
	n := int(count)
	cur := at + a.PrefixWidth

	switch a.Kind {
	case layout.ElemBools:
		nb := (n + 7) / 8
		raw, err := d.view.Bytes(cur, nb)
		if err != nil {
			return nil, 0, err
		}
		out := make([]bool, n)
		for i := range out {
			out[i] = raw[i>>3]>>(i&7)&1 == 1
			if !d.test(a.Validator, out[i]) {
				return nil, 0, ErrInvalid
			}
		}
		return out, cur + nb, nil

	case layout.ElemBlock:
		w := a.Type.Width
		if a.Aligned {
			cur = num.AlignTo(cur, w)
		}
		raw, err := d.view.Bytes(cur, n*w)
		if err != nil {
			return nil, 0, err
		}
		out, ok := decodeBlock(raw, n, a.Type, d.opts.zeroCopy && !d.opts.owned, d.elemTest(a.Validator))
		if !ok {
			return nil, 0, ErrInvalid
		}
		return out, cur + n*w, nil

	case layout.ElemFixed, layout.ElemVar:
		return d.leafArray(a, n, cur)
	}

	if a.Elem.BaseSize > 0 && !d.view.Has(cur, n*a.Elem.BaseSize) {
		return nil, 0, errors.OutOfBounds(errors.PhaseDecode, nil, cur+n*a.Elem.BaseSize, d.view.Len())
	}
	out := make([]any, n)
	for i := range out {
		v, end, err := d.scope(a.Elem, cur)
		if err != nil {
			return nil, 0, prefixWithPath(err, strconv.Itoa(i))
		}
		out[i] = v
		cur = end
	}
	return out, cur, nil
}

func (d *decoder) leafArray(a *layout.ArrayPlan, n, cur int) (any, int, error) {
	text := a.Type.Class == schema.ClassChars || a.Type.Class == schema.ClassVarChars
	var strs []string
	var bufs [][]byte
	if text {
		strs = make([]string, n)
	} else {
		bufs = make([][]byte, n)
	}

	for i := 0; i < n; i++ {
		var (
			x   any
			err error
		)
		if a.Kind == layout.ElemFixed {
			x, cur, err = d.fixed(text, a.Type.Width, cur)
		} else {
			x, cur, err = d.variable(text, a.Type.Width, cur)
		}
		if err != nil {
			return nil, 0, prefixWithPath(err, strconv.Itoa(i))
		}
		if !d.test(a.Validator, x) {
			return nil, 0, ErrInvalid
		}
		if text {
			strs[i] = x.(string)
		} else {
			bufs[i] = x.([]byte)
		}
	}
	if text {
		return strs, cur, nil
	}
	return bufs, cur, nil
}
