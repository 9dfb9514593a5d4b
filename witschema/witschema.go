// Package witschema derives message schemas from WebAssembly Interface Types.
//
// Strings and byte lists get the widest variable length, other lists a two
// byte count. Variants, enums, options and results become unions of named
// cases, so their decoded ids are case names. Floats and resource handles have
// no wire representation and are rejected.
package witschema

import (
	"fmt"
	"strconv"
	"strings"

	"go.bytecodealliance.org/wit"

	"github.com/huben1337/static-protocol/errors"
	"github.com/huben1337/static-protocol/schema"
)

// Case names used for option and result.
const (
	CaseNone = "none"
	CaseSome = "some"
	CaseOK   = "ok"
	CaseErr  = "err"
)

var (
	stringType = schema.Type{Class: schema.ClassVarChars, Width: 2, Max: schema.MaxVarLength}
	bytesType  = schema.Type{Class: schema.ClassVarBytes, Width: 2, Max: schema.MaxVarLength}
)

// Definition derives the definition of a WIT record, tuple or flags type.
func Definition(t wit.Type) (*schema.Definition, error) {
	k, err := Kind(t)
	if err != nil {
		return nil, err
	}
	def, ok := k.(*schema.Definition)
	if !ok {
		return nil, errors.New(errors.PhaseCompile, errors.KindTypeMismatch).
			GoType(kindName(t)).
			SchemaType("record").
			Detail("only record, tuple and flags types define a message").
			Build()
	}
	return def, nil
}

// Kind maps any supported WIT type to a schema kind.
func Kind(t wit.Type) (schema.Kind, error) {
	return kindOf(t, nil)
}

func kindOf(t wit.Type, path []string) (schema.Kind, error) {
	switch t := t.(type) {
	case wit.Bool:
		return schema.T("bool"), nil
	case wit.U8:
		return schema.T("uint8"), nil
	case wit.U16:
		return schema.T("uint16"), nil
	case wit.U32:
		return schema.T("uint32"), nil
	case wit.U64:
		return schema.T("uint64"), nil
	case wit.S8:
		return schema.T("int8"), nil
	case wit.S16:
		return schema.T("int16"), nil
	case wit.S32:
		return schema.T("int32"), nil
	case wit.S64:
		return schema.T("int64"), nil
	case wit.Char:
		return schema.T("uint32"), nil
	case wit.String:
		return stringType, nil
	case wit.F32, wit.F64:
		return nil, unsupported(path, kindName(t), "floating point has no wire type")
	case *wit.TypeDef:
		return typeDef(t, path)
	case nil:
		return nil, errors.New(errors.PhaseCompile, errors.KindInvalidSchema).
			Path(path...).
			Detail("missing WIT type").
			Build()
	}
	return nil, unsupported(path, kindName(t), "")
}

func typeDef(td *wit.TypeDef, path []string) (schema.Kind, error) {
	switch k := td.Kind.(type) {
	case *wit.Record:
		fields := make([]schema.Field, len(k.Fields))
		for i, f := range k.Fields {
			fk, err := kindOf(f.Type, sub(path, f.Name))
			if err != nil {
				return nil, err
			}
			fields[i] = schema.Field{Name: f.Name, Kind: fk}
		}
		return schema.Def(fields...), nil

	case *wit.Tuple:
		fields := make([]schema.Field, len(k.Types))
		for i, et := range k.Types {
			name := strconv.Itoa(i)
			fk, err := kindOf(et, sub(path, name))
			if err != nil {
				return nil, err
			}
			fields[i] = schema.Field{Name: name, Kind: fk}
		}
		return schema.Def(fields...), nil

	case *wit.Flags:
		fields := make([]schema.Field, len(k.Flags))
		for i, f := range k.Flags {
			fields[i] = schema.Field{Name: f.Name, Kind: schema.T("bool")}
		}
		return schema.Def(fields...), nil

	case *wit.List:
		if _, ok := k.Type.(wit.U8); ok {
			return bytesType, nil
		}
		ek, err := kindOf(k.Type, sub(path, "[]"))
		if err != nil {
			return nil, err
		}
		return schema.List16(ek), nil

	case *wit.Enum:
		cases := make([]schema.Case, len(k.Cases))
		for i, c := range k.Cases {
			cases[i] = schema.Named(c.Name, nil)
		}
		return schema.OneOf(cases...), nil

	case *wit.Variant:
		cases := make([]schema.Case, len(k.Cases))
		for i, c := range k.Cases {
			p, err := payload(c.Type, sub(path, c.Name))
			if err != nil {
				return nil, err
			}
			cases[i] = schema.Named(c.Name, p)
		}
		return schema.OneOf(cases...), nil

	case *wit.Option:
		some, err := kindOf(k.Type, sub(path, CaseSome))
		if err != nil {
			return nil, err
		}
		return schema.OneOf(schema.Named(CaseNone, nil), schema.Named(CaseSome, some)), nil

	case *wit.Result:
		ok, err := payload(k.OK, sub(path, CaseOK))
		if err != nil {
			return nil, err
		}
		bad, err := payload(k.Err, sub(path, CaseErr))
		if err != nil {
			return nil, err
		}
		return schema.OneOf(schema.Named(CaseOK, ok), schema.Named(CaseErr, bad)), nil

	case *wit.Own, *wit.Borrow, *wit.Resource:
		return nil, unsupported(path, kindName(td.Kind), "resource handles are not serializable")

	case wit.Type:
		return kindOf(k, path)
	}
	return nil, unsupported(path, kindName(td.Kind), "")
}

// payload maps an optional case type; nil means a unit case.
func payload(t wit.Type, path []string) (schema.Kind, error) {
	if t == nil {
		return nil, nil
	}
	return kindOf(t, path)
}

func sub(path []string, name string) []string {
	return append(path[:len(path):len(path)], name)
}

// kindName renders a WIT type or typedef kind as "wit.F32", "wit.Own".
func kindName(t any) string {
	return strings.TrimPrefix(fmt.Sprintf("%T", t), "*")
}

func unsupported(path []string, witKind, detail string) error {
	b := errors.New(errors.PhaseCompile, errors.KindUnsupported).
		Path(path...).
		GoType(witKind)
	if detail != "" {
		b.Detail("%s", detail)
	}
	return b.Build()
}
