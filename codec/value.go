package codec

import (
	"reflect"

	"github.com/huben1337/static-protocol/codec/internal/num"
	"github.com/huben1337/static-protocol/errors"
	"github.com/huben1337/static-protocol/schema"
)

func asRecord(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case schema.Record:
		return m, true
	case map[string]any:
		return m, true
	}
	return nil, false
}

// fieldOf walks path from v. An empty path addresses v itself.
func fieldOf(v any, path []string) (any, error) {
	for i, seg := range path {
		m, ok := asRecord(v)
		if !ok {
			return nil, errors.TypeMismatch(errors.PhaseEncode, path[:i], num.TypeName(v), "record")
		}
		x, ok := m[seg]
		if !ok {
			return nil, errors.FieldMissing(errors.PhaseEncode, path[:i+1], seg)
		}
		v = x
	}
	return v, nil
}

// enumParts splits a union value into its case id and payload.
func enumParts(v any) (id, payload any, err error) {
	switch x := v.(type) {
	case schema.Enum:
		return x.ID, x.Value, nil
	case *schema.Enum:
		if x != nil {
			return x.ID, x.Value, nil
		}
	default:
		if m, ok := asRecord(v); ok {
			id, ok := m["id"]
			if !ok {
				return nil, nil, errors.FieldMissing(errors.PhaseEncode, nil, "id")
			}
			return id, m["value"], nil
		}
	}
	return nil, nil, errors.TypeMismatch(errors.PhaseEncode, nil, num.TypeName(v), "enum")
}

// seq iterates []any without reflection and any other slice or array with it.
type seq struct {
	items []any
	rv    reflect.Value
	n     int
}

func seqOf(v any) (seq, error) {
	switch x := v.(type) {
	case nil:
		return seq{}, nil
	case []any:
		return seq{items: x, n: len(x)}, nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return seq{rv: rv, n: rv.Len()}, nil
	}
	return seq{}, errors.TypeMismatch(errors.PhaseEncode, nil, num.TypeName(v), "array")
}

func (s seq) at(i int) any {
	if s.items != nil {
		return s.items[i]
	}
	return s.rv.Index(i).Interface()
}

// byteLen is the encoded length of a text or byte value.
func byteLen(v any) (int, error) {
	switch x := v.(type) {
	case string:
		return len(x), nil
	case []byte:
		return len(x), nil
	}
	return 0, errors.TypeMismatch(errors.PhaseEncode, nil, num.TypeName(v), "string or []byte")
}

func boolOf(v any) (bool, error) {
	b, ok := v.(bool)
	if !ok {
		return false, errors.TypeMismatch(errors.PhaseEncode, nil, num.TypeName(v), "bool")
	}
	return b, nil
}

func uintOf(v any, width int, desc schema.Type) (uint64, error) {
	u, ok := num.ToUint64(v)
	if !ok {
		if num.IsNumber(v) {
			return 0, errors.Overflow(errors.PhaseEncode, nil, v, desc.String())
		}
		return 0, errors.TypeMismatch(errors.PhaseEncode, nil, num.TypeName(v), desc.String())
	}
	if u > num.MaxUint(width) {
		return 0, errors.Overflow(errors.PhaseEncode, nil, v, desc.String())
	}
	return u, nil
}

func intOf(v any, width int, desc schema.Type) (int64, error) {
	i, ok := num.ToInt64(v)
	if !ok {
		if num.IsNumber(v) {
			return 0, errors.Overflow(errors.PhaseEncode, nil, v, desc.String())
		}
		return 0, errors.TypeMismatch(errors.PhaseEncode, nil, num.TypeName(v), desc.String())
	}
	lo, hi := num.IntRange(width)
	if i < lo || i > hi {
		return 0, errors.Overflow(errors.PhaseEncode, nil, v, desc.String())
	}
	return i, nil
}

func uintValue(u uint64, width int) any {
	switch width {
	case 1:
		return uint8(u)
	case 2:
		return uint16(u)
	case 3, 4:
		return uint32(u)
	}
	return u
}

func intValue(i int64, width int) any {
	switch width {
	case 1:
		return int8(i)
	case 2:
		return int16(i)
	case 3, 4:
		return int32(i)
	}
	return i
}

// prefixWithPath adds path to err unless it is the validation sentinel.
func prefixWithPath(err error, path ...string) error {
	if err == nil || err == ErrInvalid || len(path) == 0 {
		return err
	}
	return errors.WithPrefix(err, path...)
}
