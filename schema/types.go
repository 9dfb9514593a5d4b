package schema

import (
	"regexp"
	"strconv"

	"github.com/huben1337/static-protocol/errors"
)

// Class is the wire category of a leaf type.
type Class uint8

const (
	ClassBool Class = iota
	ClassInt
	ClassUint
	ClassChars
	ClassBytes
	ClassVarChars
	ClassVarBytes
	ClassNone
)

var classNames = [...]string{
	ClassBool:     "bool",
	ClassInt:      "int",
	ClassUint:     "uint",
	ClassChars:    "char",
	ClassBytes:    "buf",
	ClassVarChars: "varchar",
	ClassVarBytes: "varbuf",
	ClassNone:     "none",
}

func (c Class) String() string {
	if int(c) < len(classNames) {
		return classNames[c]
	}
	return "unknown"
}

// IsVar reports whether the class carries a length prefix.
func (c Class) IsVar() bool {
	return c == ClassVarChars || c == ClassVarBytes
}

// IsInteger reports whether the class is a fixed-width integer.
func (c Class) IsInteger() bool {
	return c == ClassInt || c == ClassUint
}

// MaxVarLength is the largest declared maximum a var type accepts.
const MaxVarLength = 1<<16 - 1

// Type is a parsed leaf type descriptor. It is immutable.
//
// Width is the byte width of fixed types and the length prefix width of var
// types. Booleans and none have width 0; booleans are sized by their group.
type Type struct {
	Class Class
	Width int
	Max   int
}

var (
	descriptorRe = regexp.MustCompile(`^([a-zA-Z]+):?([0-9]+)?$`)
	negativeRe   = regexp.MustCompile(`^[a-zA-Z]+:-([0-9]+)$`)
)

// ParseType parses a descriptor such as "uint16", "char:8" or "varchar:300".
func ParseType(desc string) (Type, error) {
	m := descriptorRe.FindStringSubmatch(desc)
	if m == nil {
		if neg := negativeRe.FindStringSubmatch(desc); neg != nil {
			n, _ := strconv.ParseInt(neg[1], 10, 64)
			return Type{}, errors.LengthRange(nil, desc, -n)
		}
		return Type{}, errors.UnknownType(nil, desc)
	}
	name, digits := m[1], m[2]

	n := -1
	if digits != "" {
		v, err := strconv.Atoi(digits)
		if err != nil {
			return Type{}, errors.LengthRange(nil, desc, -1)
		}
		n = v
	}

	switch name {
	case "bool":
		return Type{Class: ClassBool}, nil
	case "none":
		return Type{Class: ClassNone}, nil
	case "int", "uint":
		if n < 0 {
			return Type{}, missingLength(desc)
		}
		switch n {
		case 8, 16, 24, 32, 64:
		default:
			return Type{}, errors.LengthRange(nil, desc, int64(n))
		}
		c := ClassUint
		if name == "int" {
			c = ClassInt
		}
		return Type{Class: c, Width: n / 8}, nil
	case "char", "buf":
		if n < 0 {
			return Type{}, missingLength(desc)
		}
		c := ClassBytes
		if name == "char" {
			c = ClassChars
		}
		return Type{Class: c, Width: n}, nil
	case "varchar", "varbuf":
		c := ClassVarBytes
		if name == "varchar" {
			c = ClassVarChars
		}
		if n < 0 {
			return Type{Class: c, Width: 1, Max: 1<<8 - 1}, nil
		}
		if n > MaxVarLength {
			return Type{}, errors.LengthRange(nil, desc, int64(n))
		}
		return Type{Class: c, Width: PrefixWidth(n), Max: n}, nil
	}
	return Type{}, errors.UnknownType(nil, desc)
}

func missingLength(desc string) error {
	return errors.New(errors.PhaseParse, errors.KindMissingLength).
		SchemaType(desc).
		Detail("length suffix required").
		Build()
}

// PrefixWidth returns the length prefix width for a declared maximum.
func PrefixWidth(maxLen int) int {
	if maxLen > 1<<8-1 {
		return 2
	}
	return 1
}

// T parses desc and panics on error. Intended for schema literals.
func T(desc string) Type {
	t, err := ParseType(desc)
	if err != nil {
		panic(err)
	}
	return t
}

// Fixed reports whether values of this type always occupy Width bytes.
func (t Type) Fixed() bool {
	switch t.Class {
	case ClassInt, ClassUint, ClassChars, ClassBytes:
		return true
	}
	return false
}

// String returns the canonical descriptor.
func (t Type) String() string {
	switch t.Class {
	case ClassBool, ClassNone:
		return t.Class.String()
	case ClassInt, ClassUint:
		return t.Class.String() + strconv.Itoa(t.Width*8)
	case ClassVarChars, ClassVarBytes:
		return t.Class.String() + ":" + strconv.Itoa(t.Max)
	}
	return t.Class.String() + ":" + strconv.Itoa(t.Width)
}

// GoType names the Go type values of this type decode to.
func (t Type) GoType() string {
	switch t.Class {
	case ClassBool:
		return "bool"
	case ClassInt:
		return intGoTypes[t.Width]
	case ClassUint:
		return "u" + intGoTypes[t.Width]
	case ClassChars, ClassVarChars:
		return "string"
	case ClassBytes, ClassVarBytes:
		return "[]byte"
	}
	return "nil"
}

var intGoTypes = [...]string{1: "int8", 2: "int16", 3: "int32", 4: "int32", 8: "int64"}

func (Type) isKind() {}
