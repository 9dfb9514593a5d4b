package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseParse     Phase = "parse"     // type descriptors and schema files
	PhaseCompile   Phase = "compile"   // schema to layout
	PhaseEncode    Phase = "encode"    // value to bytes
	PhaseDecode    Phase = "decode"    // bytes to value
	PhaseValidate  Phase = "validate"  // field predicates
	PhaseRegister  Phase = "register"  // protocol endpoint registration
	PhaseDispatch  Phase = "dispatch"  // routing by channel byte
	PhaseTransport Phase = "transport" // carriers and guest memory
)

// Kind categorizes the error
type Kind string

const (
	KindUnknownType      Kind = "unknown_type"
	KindMissingLength    Kind = "missing_length"
	KindLengthRange      Kind = "length_range"
	KindDuplicateField   Kind = "duplicate_field"
	KindDuplicateCase    Kind = "duplicate_case"
	KindCaseRange        Kind = "case_range"
	KindTooManyCases     Kind = "too_many_cases"
	KindInvalidSchema    Kind = "invalid_schema"
	KindTypeMismatch     Kind = "type_mismatch"
	KindOutOfBounds      Kind = "out_of_bounds"
	KindOverflow         Kind = "overflow"
	KindInvalidVariant   Kind = "invalid_variant"
	KindInvalidData      Kind = "invalid_data"
	KindFieldMissing     Kind = "field_missing"
	KindValidationFailed Kind = "validation_failed"
	KindUnsupported      Kind = "unsupported"
	KindNotFound         Kind = "not_found"
	KindDuplicateChannel Kind = "duplicate_channel"
	KindClosed           Kind = "closed"
)

// Error is the structured error type used throughout the module
type Error struct {
	Value      any
	Cause      error
	Phase      Phase
	Kind       Kind
	GoType     string
	SchemaType string
	Detail     string
	Path       []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.GoType != "" || e.SchemaType != "" {
		b.WriteString(": ")
		if e.GoType != "" && e.SchemaType != "" {
			b.WriteString("Go type ")
			b.WriteString(e.GoType)
			b.WriteString(", schema type ")
			b.WriteString(e.SchemaType)
		} else if e.GoType != "" {
			b.WriteString("Go type ")
			b.WriteString(e.GoType)
		} else {
			b.WriteString("schema type ")
			b.WriteString(e.SchemaType)
		}
	}

	if e.Detail != "" {
		if e.GoType != "" || e.SchemaType != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the field path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// GoType sets the Go type name
func (b *Builder) GoType(t string) *Builder {
	b.err.GoType = t
	return b
}

// SchemaType sets the schema type descriptor
func (b *Builder) SchemaType(t string) *Builder {
	b.err.SchemaType = t
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// TypeMismatch creates a type mismatch error
func TypeMismatch(phase Phase, path []string, goType, schemaType string) *Error {
	return &Error{
		Phase:      phase,
		Kind:       KindTypeMismatch,
		Path:       path,
		GoType:     goType,
		SchemaType: schemaType,
	}
}

// UnknownType reports a type descriptor the catalog does not recognize
func UnknownType(path []string, descriptor string) *Error {
	return &Error{
		Phase:      PhaseParse,
		Kind:       KindUnknownType,
		Path:       path,
		SchemaType: descriptor,
		Detail:     "unknown type",
	}
}

// LengthRange reports a declared length outside what the wire format can hold
func LengthRange(path []string, descriptor string, n int64) *Error {
	return &Error{
		Phase:      PhaseParse,
		Kind:       KindLengthRange,
		Path:       path,
		SchemaType: descriptor,
		Detail:     fmt.Sprintf("length %d out of range", n),
		Value:      n,
	}
}

// DuplicateField reports a field name used twice in one record
func DuplicateField(path []string, name string) *Error {
	return &Error{
		Phase:  PhaseCompile,
		Kind:   KindDuplicateField,
		Path:   path,
		Detail: fmt.Sprintf("field %q declared twice", name),
	}
}

// FieldMissing creates a missing field error
func FieldMissing(phase Phase, path []string, fieldName string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindFieldMissing,
		Path:   path,
		Detail: fmt.Sprintf("required field %q not found", fieldName),
	}
}

// InvalidDiscriminant creates an error for a discriminant no case maps to
func InvalidDiscriminant(phase Phase, path []string, disc uint8) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidVariant,
		Path:   path,
		Detail: fmt.Sprintf("no case for discriminant %d", disc),
		Value:  disc,
	}
}

// UnknownCase creates an error for an enum value whose id is not declared
func UnknownCase(path []string, id any) *Error {
	return &Error{
		Phase:  PhaseEncode,
		Kind:   KindInvalidVariant,
		Path:   path,
		Detail: fmt.Sprintf("unknown case %v", id),
		Value:  id,
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// OutOfBounds creates an out of bounds error
func OutOfBounds(phase Phase, path []string, index, length int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Path:   path,
		Detail: fmt.Sprintf("index %d out of bounds (length %d)", index, length),
		Value:  index,
	}
}

// Overflow creates an overflow error
func Overflow(phase Phase, path []string, value any, targetType string) *Error {
	return &Error{
		Phase:      phase,
		Kind:       KindOverflow,
		Path:       path,
		SchemaType: targetType,
		Detail:     fmt.Sprintf("value %v overflows %s", value, targetType),
		Value:      value,
	}
}

// InvalidData creates an invalid data error
func InvalidData(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidData,
		Path:   path,
		Detail: detail,
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// WithPrefix returns a copy of err with prefix prepended to its path.
// Non-structured errors are returned unchanged.
func WithPrefix(err error, prefix ...string) error {
	e, ok := err.(*Error)
	if !ok || len(prefix) == 0 {
		return err
	}
	cp := *e
	cp.Path = append(append(make([]string, 0, len(prefix)+len(e.Path)), prefix...), e.Path...)
	return &cp
}
