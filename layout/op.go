package layout

import (
	"fmt"
	"strings"

	"github.com/huben1337/static-protocol/schema"
)

// OpCode selects what an Op reads or writes.
type OpCode uint8

const (
	OpUint      OpCode = iota // fixed-width unsigned integer
	OpInt                     // fixed-width signed integer
	OpChars                   // fixed-length text, NUL padded
	OpBytes                   // fixed-length bytes
	OpVarChars                // length-prefixed text
	OpVarBytes                // length-prefixed bytes
	OpPackBools               // encode only: up to eight booleans into one byte
	OpBool                    // decode only: one bit of a boolean group byte
	OpUnion                   // discriminant byte then the chosen case's scope
	OpArray                   // element count then the elements
)

var opNames = [...]string{
	OpUint:      "uint",
	OpInt:       "int",
	OpChars:     "chars",
	OpBytes:     "bytes",
	OpVarChars:  "varchars",
	OpVarBytes:  "varbytes",
	OpPackBools: "pack-bools",
	OpBool:      "bool",
	OpUnion:     "union",
	OpArray:     "array",
}

func (c OpCode) String() string {
	if int(c) < len(opNames) {
		return opNames[c]
	}
	return "unknown"
}

// Op reads or writes one field. Static ops address Offset relative to the
// start of their scope; the others address the cursor and advance it.
type Op struct {
	Union     *UnionPlan
	Array     *ArrayPlan
	Path      []string   // relative to the scope value; nil is the value itself
	Bools     [][]string // OpPackBools paths, bit i is Bools[i]
	Offset    int
	Width     int // integer width, fixed length, or length prefix width
	Validator int // index into Layout.Validators, -1 when unvalidated
	Code      OpCode
	Static    bool
	Bit       uint8
}

// Validated reports whether a predicate runs after this op decodes.
func (o *Op) Validated() bool { return o.Validator >= 0 }

// Field returns the dotted path of the op's field.
func (o *Op) Field() string {
	if len(o.Path) == 0 {
		return "."
	}
	return strings.Join(o.Path, ".")
}

func (o Op) String() string {
	var b strings.Builder
	b.WriteString(o.Code.String())
	if o.Code == OpPackBools {
		names := make([]string, len(o.Bools))
		for i, p := range o.Bools {
			names[i] = strings.Join(p, ".")
		}
		fmt.Fprintf(&b, " [%s]", strings.Join(names, " "))
	} else {
		b.WriteByte(' ')
		b.WriteString(o.Field())
	}
	if o.Static {
		fmt.Fprintf(&b, " @%d", o.Offset)
	} else {
		b.WriteString(" @cursor")
	}
	switch o.Code {
	case OpBool:
		fmt.Fprintf(&b, " bit %d", o.Bit)
	case OpUnion:
		fmt.Fprintf(&b, " cases %d", len(o.Union.Cases))
	case OpArray:
		fmt.Fprintf(&b, " count u%d", o.Array.PrefixWidth*8)
	case OpPackBools:
	default:
		fmt.Fprintf(&b, " w%d", o.Width)
	}
	if o.Validated() {
		b.WriteString(" validated")
	}
	return b.String()
}

// ContribKind selects how a Contrib is evaluated.
type ContribKind uint8

const (
	ContribVar   ContribKind = iota // byte length of a var field
	ContribArray                    // payload of an array, per ArrayPlan
	ContribUnion                    // payload of the chosen case
)

// Contrib is one runtime size dependency of a scope.
type Contrib struct {
	Array *ArrayPlan
	Union *UnionPlan
	Path  []string
	Kind  ContribKind
}

func (c Contrib) String() string {
	p := "."
	if len(c.Path) > 0 {
		p = strings.Join(c.Path, ".")
	}
	switch c.Kind {
	case ContribVar:
		return "len(" + p + ")"
	case ContribArray:
		return c.Array.sizeExpr(p)
	case ContribUnion:
		return "case-size(" + p + ")"
	}
	return "?"
}

// ElemKind is how an array stores its elements.
type ElemKind uint8

const (
	ElemBools ElemKind = iota // bit-packed, ceil(n/8) bytes
	ElemBlock                 // fixed-width integers written as one block
	ElemFixed                 // char:N or buf:N
	ElemVar                   // varchar or varbuf, each with its own prefix
	ElemScope                 // records, unions and arrays
)

// ArrayPlan describes one array field.
type ArrayPlan struct {
	Elem        *Scope // ElemScope only
	Type        schema.Type
	PrefixWidth int
	Validator   int // per element, leaf arrays only
	Kind        ElemKind
	Aligned     bool // block is padded to a multiple of the element width
}

func (a *ArrayPlan) sizeExpr(p string) string {
	switch a.Kind {
	case ElemBools:
		return fmt.Sprintf("ceil(count(%s)/8)", p)
	case ElemBlock, ElemFixed:
		s := fmt.Sprintf("count(%s)*%d", p, a.Type.Width)
		if a.Aligned {
			s += "+pad"
		}
		return s
	case ElemVar:
		return fmt.Sprintf("count(%s)*%d+sum(len(%s[]))", p, a.Type.Width, p)
	}
	if len(a.Elem.Contribs) == 0 {
		return fmt.Sprintf("count(%s)*%d", p, a.Elem.BaseSize)
	}
	return fmt.Sprintf("count(%s)*%d+sum(contribs(%s[]))", p, a.Elem.BaseSize, p)
}

// Scope is the plan of one record or bare value. See the package doc.
type Scope struct {
	EncodeOps  []Op
	DecodeOps  []Op
	Contribs   []Contrib
	Nested     [][]string // nested record paths, created up front on decode
	BaseSize   int
	StaticSize int
	Value      bool // the scope holds a bare value instead of a record
}

// Fixed reports whether every value of the scope has the same size.
func (s *Scope) Fixed() bool { return len(s.Contribs) == 0 }

// Validator is a predicate bound to a field.
type Validator struct {
	Test func(any) bool
	Path string
}

// Layout is the compiled plan of a message.
type Layout struct {
	Root       *Scope
	Validators []Validator
	Options    Options
	HeaderSize int // 1 when a channel byte leads the message
	Padded     bool
}

// BaseSize is every byte known at compile time, channel byte included.
func (l *Layout) BaseSize() int { return l.HeaderSize + l.Root.BaseSize }

// Contribs are the root scope's runtime size dependencies.
func (l *Layout) Contribs() []Contrib { return l.Root.Contribs }

func (l *Layout) EncodeOps() []Op { return l.Root.EncodeOps }
func (l *Layout) DecodeOps() []Op { return l.Root.DecodeOps }

// Fixed reports whether every message has exactly BaseSize bytes.
func (l *Layout) Fixed() bool { return l.Root.Fixed() && !l.Padded }
