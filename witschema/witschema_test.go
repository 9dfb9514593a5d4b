package witschema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bytecodealliance.org/wit"

	"github.com/huben1337/static-protocol/codec"
	sperrors "github.com/huben1337/static-protocol/errors"
	"github.com/huben1337/static-protocol/schema"
)

func td(k wit.TypeDefKind) *wit.TypeDef { return &wit.TypeDef{Kind: k} }

func TestKind_Primitives(t *testing.T) {
	tests := []struct {
		typ  wit.Type
		want string
	}{
		{wit.Bool{}, "bool"},
		{wit.U8{}, "uint8"},
		{wit.U16{}, "uint16"},
		{wit.U32{}, "uint32"},
		{wit.U64{}, "uint64"},
		{wit.S8{}, "int8"},
		{wit.S16{}, "int16"},
		{wit.S32{}, "int32"},
		{wit.S64{}, "int64"},
		{wit.Char{}, "uint32"},
		{wit.String{}, "varchar:65535"},
		{td(&wit.List{Type: wit.U8{}}), "varbuf:65535"},
		{td(&wit.List{Type: wit.U32{}}), "list16<uint32>"},
		{td(wit.U16{}), "uint16"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			k, err := Kind(tt.typ)
			require.NoError(t, err)
			assert.Equal(t, tt.want, schema.Describe(k))
		})
	}
}

func TestKind_Composites(t *testing.T) {
	point := td(&wit.Record{Fields: []wit.Field{
		{Name: "x", Type: wit.S32{}},
		{Name: "y", Type: wit.S32{}},
	}})
	tests := []struct {
		name string
		typ  wit.Type
		want string
	}{
		{"record", point, "{x: int32, y: int32}"},
		{"tuple", td(&wit.Tuple{Types: []wit.Type{wit.U8{}, wit.String{}}}), "{0: uint8, 1: varchar:65535}"},
		{"flags", td(&wit.Flags{Flags: []wit.Flag{{Name: "read"}, {Name: "write"}}}), "{read: bool, write: bool}"},
		{"enum", td(&wit.Enum{Cases: []wit.EnumCase{{Name: "red"}, {Name: "green"}}}), "enum{red: none, green: none}"},
		{"option", td(&wit.Option{Type: point}), "enum{none: none, some: {x: int32, y: int32}}"},
		{"result", td(&wit.Result{OK: wit.U32{}}), "enum{ok: uint32, err: none}"},
		{"variant", td(&wit.Variant{Cases: []wit.Case{
			{Name: "empty"},
			{Name: "at", Type: point},
			{Name: "many", Type: td(&wit.List{Type: point})},
		}}), "enum{empty: none, at: {x: int32, y: int32}, many: list16<{x: int32, y: int32}>}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k, err := Kind(tt.typ)
			require.NoError(t, err)
			assert.Equal(t, tt.want, schema.Describe(k))
		})
	}
}

func TestKind_Unsupported(t *testing.T) {
	tests := []struct {
		name string
		typ  wit.Type
		path []string
	}{
		{"f32", wit.F32{}, nil},
		{"f64", wit.F64{}, nil},
		{"nested float", td(&wit.Record{Fields: []wit.Field{
			{Name: "ok", Type: wit.Bool{}},
			{Name: "pos", Type: td(&wit.Tuple{Types: []wit.Type{wit.U8{}, wit.F64{}}})},
		}}), []string{"pos", "1"}},
		{"list element", td(&wit.List{Type: wit.F32{}}), []string{"[]"}},
		{"own", td(&wit.Own{}), nil},
		{"borrow in variant", td(&wit.Variant{Cases: []wit.Case{{Name: "h", Type: td(&wit.Borrow{})}}}), []string{"h"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Kind(tt.typ)
			require.Error(t, err)
			var e *sperrors.Error
			require.ErrorAs(t, err, &e)
			assert.Equal(t, sperrors.PhaseCompile, e.Phase)
			assert.Equal(t, sperrors.KindUnsupported, e.Kind)
			assert.Equal(t, tt.path, e.Path)
		})
	}
}

func TestDefinition(t *testing.T) {
	_, err := Definition(wit.U8{})
	assert.ErrorIs(t, err, &sperrors.Error{Phase: sperrors.PhaseCompile, Kind: sperrors.KindTypeMismatch})

	user := td(&wit.Record{Fields: []wit.Field{
		{Name: "id", Type: wit.U64{}},
		{Name: "name", Type: wit.String{}},
		{Name: "avatar", Type: td(&wit.Option{Type: td(&wit.List{Type: wit.U8{}})})},
		{Name: "perms", Type: td(&wit.Flags{Flags: []wit.Flag{{Name: "admin"}, {Name: "banned"}}})},
		{Name: "status", Type: td(&wit.Result{OK: wit.Char{}, Err: wit.String{}})},
		{Name: "scores", Type: td(&wit.List{Type: wit.S16{}})},
	}})
	def, err := Definition(user)
	require.NoError(t, err)

	c, err := codec.New(def)
	require.NoError(t, err)

	v := schema.Record{
		"id":     uint64(1) << 40,
		"name":   "ada",
		"avatar": schema.Enum{ID: CaseSome, Value: []byte{0x89, 'P', 'N', 'G'}},
		"perms":  schema.Record{"admin": true, "banned": false},
		"status": schema.Enum{ID: CaseErr, Value: "offline"},
		"scores": []int16{-3, 400},
	}
	buf, err := c.Encode(v)
	require.NoError(t, err)
	got, err := c.Decode(buf)
	require.NoError(t, err)
	assert.Equal(t, v, got)
}
