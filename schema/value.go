package schema

// Record is the decoded form of a Definition and the preferred input for
// encoding one. Plain map[string]any values are accepted as well.
type Record map[string]any

// Enum is the value of a Union field. ID is a uint8 for numeric cases and a
// string for mapped cases. Value is nil for unit cases.
type Enum struct {
	ID    any
	Value any
}
