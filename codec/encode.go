package codec

import (
	"strconv"

	"github.com/huben1337/static-protocol/buffer"
	"github.com/huben1337/static-protocol/codec/internal/num"
	"github.com/huben1337/static-protocol/errors"
	"github.com/huben1337/static-protocol/layout"
	"github.com/huben1337/static-protocol/schema"
)

// encoder executes encode ops. With grow set the buffer is extended before
// every write; otherwise it was sized up front.
type encoder struct {
	buf  *buffer.Buffer
	grow bool
}

func (e *encoder) reserve(end int) {
	if e.grow {
		e.buf.Grow(end)
	}
}

func (e *encoder) message(l *layout.Layout, v any) (int, error) {
	if l.Options.HasChannel {
		e.reserve(1)
		e.buf.SetUint8(0, l.Options.Channel)
	}
	return e.scope(l.Root, v, l.HeaderSize)
}

// scope writes v at base and returns the offset just past it.
func (e *encoder) scope(s *layout.Scope, v any, base int) (int, error) {
	if !s.Value && len(s.EncodeOps) > 0 {
		if _, ok := asRecord(v); !ok {
			return 0, errors.TypeMismatch(errors.PhaseEncode, nil, num.TypeName(v), "record")
		}
	}
	e.reserve(base + s.StaticSize)
	cursor := base + s.StaticSize

	for i := range s.EncodeOps {
		op := &s.EncodeOps[i]
		at := cursor
		if op.Static {
			at = base + op.Offset
		}

		if op.Code == layout.OpPackBools {
			var packed uint8
			for bit, p := range op.Bools {
				x, err := fieldOf(v, p)
				if err != nil {
					return 0, err
				}
				b, err := boolOf(x)
				if err != nil {
					return 0, prefixWithPath(err, p...)
				}
				if b {
					packed |= 1 << bit
				}
			}
			e.buf.SetUint8(at, packed)
			continue
		}

		x, err := fieldOf(v, op.Path)
		if err != nil {
			return 0, err
		}
		end, err := e.op(op, x, at)
		if err != nil {
			return 0, prefixWithPath(err, op.Path...)
		}
		if !op.Static {
			cursor = end
		}
	}
	return cursor, nil
}

func (e *encoder) op(op *layout.Op, x any, at int) (int, error) {
	switch op.Code {
	case layout.OpUint:
		u, err := uintOf(x, op.Width, uintType(op.Width))
		if err != nil {
			return 0, err
		}
		e.reserve(at + op.Width)
		e.buf.SetUint(at, op.Width, u)
		return at + op.Width, nil

	case layout.OpInt:
		i, err := intOf(x, op.Width, intType(op.Width))
		if err != nil {
			return 0, err
		}
		e.reserve(at + op.Width)
		e.buf.SetUint(at, op.Width, uint64(i))
		return at + op.Width, nil

	case layout.OpChars, layout.OpBytes:
		return e.fixed(op.Code == layout.OpChars, op.Width, x, at)

	case layout.OpVarChars, layout.OpVarBytes:
		return e.variable(op.Width, x, at)

	case layout.OpUnion:
		return e.union(op.Union, x, at)

	case layout.OpArray:
		return e.array(op.Array, x, at)
	}
	return 0, errors.Unsupported(errors.PhaseEncode, "op "+op.Code.String())
}

func (e *encoder) fixed(text bool, width int, x any, at int) (int, error) {
	n, err := byteLen(x)
	if err != nil {
		return 0, err
	}
	switch {
	case text && n > width:
		return 0, errors.New(errors.PhaseEncode, errors.KindOverflow).
			SchemaType("char:"+strconv.Itoa(width)).
			Value(x).
			Detail("text of %d bytes does not fit", n).
			Build()
	case !text && n != width:
		return 0, errors.New(errors.PhaseEncode, errors.KindInvalidData).
			SchemaType("buf:"+strconv.Itoa(width)).
			Detail("need exactly %d bytes, got %d", width, n).
			Build()
	}
	e.reserve(at + width)
	e.put(at, x)
	clear(e.buf.Bytes()[at+n : at+width])
	return at + width, nil
}

func (e *encoder) variable(prefix int, x any, at int) (int, error) {
	n, err := byteLen(x)
	if err != nil {
		return 0, err
	}
	if uint64(n) > num.MaxUint(prefix) {
		return 0, errors.New(errors.PhaseEncode, errors.KindOverflow).
			Value(n).
			Detail("length %d exceeds %d byte length prefix", n, prefix).
			Build()
	}
	e.reserve(at + prefix + n)
	e.buf.SetUint(at, prefix, uint64(n))
	e.put(at+prefix, x)
	return at + prefix + n, nil
}

func (e *encoder) put(at int, x any) {
	switch s := x.(type) {
	case string:
		e.buf.SetString(at, s)
	case []byte:
		e.buf.SetBytes(at, s)
	}
}

func (e *encoder) union(u *layout.UnionPlan, x any, at int) (int, error) {
	id, payload, err := enumParts(x)
	if err != nil {
		return 0, err
	}
	c, err := caseOf(u, id)
	if err != nil {
		return 0, err
	}
	e.reserve(at + 1)
	e.buf.SetUint8(at, c.Disc)
	if c.Payload == nil {
		return at + 1, nil
	}
	end, err := e.scope(c.Payload, payload, at+1)
	if err != nil {
		return 0, prefixWithPath(err, caseLabel(c))
	}
	return end, nil
}

func caseOf(u *layout.UnionPlan, id any) (*layout.CasePlan, error) {
	var (
		c  *layout.CasePlan
		ok bool
	)
	if name, isName := id.(string); isName {
		c, ok = u.ByName(name)
	} else if n, isNum := num.ToUint64(id); isNum && n <= 0xFF {
		c, ok = u.ByID(uint8(n))
	}
	if !ok {
		return nil, errors.UnknownCase(nil, id)
	}
	return c, nil
}

func caseLabel(c *layout.CasePlan) string {
	if name, ok := c.Key.(string); ok {
		return name
	}
	return strconv.Itoa(int(c.Disc))
}

func (e *encoder) array(a *layout.ArrayPlan, x any, at int) (int, error) {
	items, err := seqOf(x)
	if err != nil {
		return 0, err
	}
	n := items.n
	if uint64(n) > num.MaxUint(a.PrefixWidth) {
		return 0, errors.New(errors.PhaseEncode, errors.KindOverflow).
			Value(n).
			Detail("%d elements exceed %d byte count", n, a.PrefixWidth).
			Build()
	}
	e.reserve(at + a.PrefixWidth)
	e.buf.SetUint(at, a.PrefixWidth, uint64(n))
	cur := at + a.PrefixWidth

	switch a.Kind {
	case layout.ElemBools:
		return e.boolArray(items, cur)
	case layout.ElemBlock:
		return e.block(a, x, items, cur)
	}

	for i := 0; i < n; i++ {
		var err error
		el := items.at(i)
		switch a.Kind {
		case layout.ElemFixed:
			cur, err = e.fixed(a.Type.Class == schema.ClassChars, a.Type.Width, el, cur)
		case layout.ElemVar:
			cur, err = e.variable(a.Type.Width, el, cur)
		default:
			cur, err = e.scope(a.Elem, el, cur)
		}
		if err != nil {
			return 0, prefixWithPath(err, strconv.Itoa(i))
		}
	}
	return cur, nil
}

func (e *encoder) boolArray(items seq, cur int) (int, error) {
	nb := (items.n + 7) / 8
	e.reserve(cur + nb)
	out := e.buf.Bytes()[cur : cur+nb]
	clear(out)
	for i := 0; i < items.n; i++ {
		b, err := boolOf(items.at(i))
		if err != nil {
			return 0, prefixWithPath(err, strconv.Itoa(i))
		}
		if b {
			out[i>>3] |= 1 << (i & 7)
		}
	}
	return cur + nb, nil
}

func (e *encoder) block(a *layout.ArrayPlan, x any, items seq, cur int) (int, error) {
	w := a.Type.Width
	if a.Aligned {
		start := cur
		cur = num.AlignTo(cur, w)
		e.reserve(cur)
		clear(e.buf.Bytes()[start:cur])
	}
	size, ok := num.SafeMul(items.n, w)
	if !ok {
		return 0, errors.Overflow(errors.PhaseEncode, nil, items.n, a.Type.String())
	}
	e.reserve(cur + size)

	if raw, ok := blockBytes(x, a.Type); ok {
		e.buf.SetBytes(cur, raw)
		return cur + size, nil
	}

	signed := a.Type.Class == schema.ClassInt
	for i := 0; i < items.n; i++ {
		el := items.at(i)
		var u uint64
		if signed {
			v, err := intOf(el, w, a.Type)
			if err != nil {
				return 0, prefixWithPath(err, strconv.Itoa(i))
			}
			u = uint64(v)
		} else {
			v, err := uintOf(el, w, a.Type)
			if err != nil {
				return 0, prefixWithPath(err, strconv.Itoa(i))
			}
			u = v
		}
		e.buf.SetUint(cur+i*w, w, u)
	}
	return cur + size, nil
}

func uintType(width int) schema.Type { return schema.Type{Class: schema.ClassUint, Width: width} }
func intType(width int) schema.Type  { return schema.Type{Class: schema.ClassInt, Width: width} }
