package schema

import (
	"strconv"
	"strings"
)

// Kind is what a field holds. The set is closed: Type, Validated, *Definition,
// *Union and *Array are the only implementations.
type Kind interface {
	isKind()
}

// Validated is a leaf type with a predicate run against each decoded value.
type Validated struct {
	Test func(any) bool
	Type Type
}

func (Validated) isKind() {}

// Check builds a validated leaf from a descriptor. It panics if desc is invalid.
func Check(desc string, test func(any) bool) Validated {
	return Validated{Type: T(desc), Test: test}
}

// CheckAs is Check with a typed predicate. Values of another Go type fail.
func CheckAs[V any](desc string, test func(V) bool) Validated {
	return Check(desc, func(v any) bool {
		tv, ok := v.(V)
		return ok && test(tv)
	})
}

// Field is one named entry of a Definition.
type Field struct {
	Kind Kind
	Name string
}

// Definition is an ordered list of fields. Field order is wire order.
type Definition struct {
	Fields []Field
}

func (*Definition) isKind() {}

// Def builds a Definition from fields in wire order.
func Def(fields ...Field) *Definition {
	return &Definition{Fields: fields}
}

func (d *Definition) Len() int { return len(d.Fields) }

// Field returns the field called name.
func (d *Definition) Field(name string) (Field, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Case is one alternative of a Union. A case with a Name is mapped: its
// discriminant is assigned at compile time. Otherwise ID is the discriminant.
type Case struct {
	Payload Kind
	Name    string
	ID      int
}

// Num declares a case with an explicit discriminant.
func Num(id int, payload Kind) Case {
	return Case{ID: id, Payload: payload}
}

// Named declares a case whose discriminant is assigned from the lowest free id.
func Named(name string, payload Kind) Case {
	return Case{Name: name, Payload: payload}
}

// Mapped reports whether the case has a string key.
func (c Case) Mapped() bool { return c.Name != "" }

// Key returns the value used as Enum.ID for this case: the name for mapped
// cases, the discriminant as uint8 otherwise.
func (c Case) Key() any {
	if c.Mapped() {
		return c.Name
	}
	return uint8(c.ID)
}

// Unit reports whether the case carries no payload. A record without fields
// is a unit case.
func (c Case) Unit() bool {
	switch p := c.Payload.(type) {
	case nil:
		return true
	case Type:
		return p.Class == ClassNone
	case *Definition:
		return p == nil || len(p.Fields) == 0
	}
	return false
}

func (c Case) label() string {
	if c.Mapped() {
		return c.Name
	}
	return strconv.Itoa(c.ID)
}

// Union is a tagged union written as a one byte discriminant plus the chosen
// case's payload.
type Union struct {
	Cases []Case
}

func (*Union) isKind() {}

// OneOf builds a Union from cases in declaration order.
func OneOf(cases ...Case) *Union {
	return &Union{Cases: cases}
}

// Mapped reports whether any case uses a string key.
func (u *Union) Mapped() bool {
	for _, c := range u.Cases {
		if c.Mapped() {
			return true
		}
	}
	return false
}

// Array is a homogeneous list with a one byte (or, when Long, two byte) count.
type Array struct {
	Elem Kind
	Long bool
}

func (*Array) isKind() {}

// List is an array with a one byte count.
func List(elem Kind) *Array { return &Array{Elem: elem} }

// List16 is an array with a two byte count.
func List16(elem Kind) *Array { return &Array{Elem: elem, Long: true} }

// PrefixWidth is the byte width of the element count.
func (a *Array) PrefixWidth() int {
	if a.Long {
		return 2
	}
	return 1
}

// Describe renders k in a compact, single line form.
func Describe(k Kind) string {
	var b strings.Builder
	describe(&b, k)
	return b.String()
}

func describe(b *strings.Builder, k Kind) {
	switch k := k.(type) {
	case Type:
		b.WriteString(k.String())
	case Validated:
		b.WriteString(k.Type.String())
		b.WriteByte('?')
	case *Definition:
		b.WriteByte('{')
		for i, f := range k.Fields {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(f.Name)
			b.WriteString(": ")
			describe(b, f.Kind)
		}
		b.WriteByte('}')
	case *Union:
		b.WriteString("enum{")
		for i, c := range k.Cases {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(c.label())
			b.WriteString(": ")
			if c.Unit() {
				b.WriteString("none")
			} else {
				describe(b, c.Payload)
			}
		}
		b.WriteByte('}')
	case *Array:
		if k.Long {
			b.WriteString("list16<")
		} else {
			b.WriteString("list<")
		}
		describe(b, k.Elem)
		b.WriteByte('>')
	case nil:
		b.WriteString("none")
	}
}
