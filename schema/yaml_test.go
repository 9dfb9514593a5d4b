package schema

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sperrors "github.com/huben1337/static-protocol/errors"
)

const userYAML = `
name: varchar
age: !enum
  0: uint8
  1: char:3
  unknown: none
ageVerified: bool
userId: uint16
tags: !list varchar
points: !list16
  x: int16
  y: int16
grid: !list [!list uint8]
address:
  city: varchar:64
  zip: char:5
`

func TestParseYAML(t *testing.T) {
	def, err := ParseYAML([]byte(userYAML))
	require.NoError(t, err)

	names := make([]string, 0, def.Len())
	for _, f := range def.Fields {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"name", "age", "ageVerified", "userId", "tags", "points", "grid", "address"}, names)

	age, _ := def.Field("age")
	u, ok := age.Kind.(*Union)
	require.True(t, ok)
	require.Len(t, u.Cases, 3)
	assert.Equal(t, Num(0, T("uint8")), u.Cases[0])
	assert.Equal(t, Num(1, T("char:3")), u.Cases[1])
	assert.Equal(t, Named("unknown", nil), u.Cases[2])
	assert.True(t, u.Mapped())

	tags, _ := def.Field("tags")
	assert.Equal(t, List(T("varchar")), tags.Kind)

	points, _ := def.Field("points")
	pa, ok := points.Kind.(*Array)
	require.True(t, ok)
	assert.True(t, pa.Long)
	assert.Equal(t, Def(Field{Name: "x", Kind: T("int16")}, Field{Name: "y", Kind: T("int16")}), pa.Elem)

	grid, _ := def.Field("grid")
	assert.Equal(t, List(List(T("uint8"))), grid.Kind)

	addr, _ := def.Field("address")
	assert.Equal(t, Def(Field{Name: "city", Kind: T("varchar:64")}, Field{Name: "zip", Kind: T("char:5")}), addr.Kind)
}

func TestParseYAML_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		kind sperrors.Kind
		path []string
	}{
		{"not a mapping", "- a\n- b\n", sperrors.KindInvalidSchema, nil},
		{"unknown type", "a:\n  b: float\n", sperrors.KindUnknownType, []string{"a", "b"}},
		{"enum scalar", "e: !enum uint8\n", sperrors.KindInvalidSchema, []string{"e"}},
		{"list of two", "l: !list [uint8, uint16]\n", sperrors.KindInvalidSchema, []string{"l"}},
		{"malformed", "a: [\n", sperrors.KindInvalidSchema, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseYAML([]byte(tt.src))
			require.Error(t, err)
			var e *sperrors.Error
			require.True(t, errors.As(err, &e))
			assert.Equal(t, tt.kind, e.Kind)
			if tt.path != nil {
				assert.Equal(t, tt.path, e.Path)
			}
		})
	}
}

func TestFormatYAML_RoundTrip(t *testing.T) {
	def, err := ParseYAML([]byte(userYAML))
	require.NoError(t, err)

	out, err := FormatYAML(def)
	require.NoError(t, err)

	again, err := ParseYAML(out)
	require.NoError(t, err)
	assert.Equal(t, Describe(def), Describe(again))
}
