package main

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huben1337/static-protocol/codec"
	"github.com/huben1337/static-protocol/schema"
)

const testSchema = `
id: uint16
ok: bool
kind: !enum
  0: uint8
  text: varchar
tags: !list varchar
`

func testCodec(t *testing.T, opts ...codec.Option) *codec.Codec {
	t.Helper()
	def, err := schema.ParseYAML([]byte(testSchema))
	require.NoError(t, err)
	c, err := codec.New(def, opts...)
	require.NoError(t, err)
	return c
}

func TestRenderLayout(t *testing.T) {
	c := testCodec(t, codec.WithChannel(4))
	out := renderLayout("user.yaml", c, newStyles(false))

	assert.Contains(t, out, "user.yaml")
	assert.Contains(t, out, "base size  6 bytes, variable")
	assert.Contains(t, out, "channel    4")
	assert.Contains(t, out, "case-size(kind)")
	assert.Contains(t, out, "case 0 = 0")
	assert.Contains(t, out, "case text = 1")
	assert.Contains(t, out, "element varchar:255")
	assert.Contains(t, out, "pack-bools [ok] @2")
	assert.Contains(t, out, "bool ok @2 bit 0")
}

func TestOpLines_NestedScopes(t *testing.T) {
	def := schema.Def(schema.Field{Name: "points", Kind: schema.List(schema.Def(
		schema.Field{Name: "x", Kind: schema.T("int16")},
		schema.Field{Name: "y", Kind: schema.T("int16")},
	))})
	c, err := codec.New(def)
	require.NoError(t, err)

	lines := opLines(c.Layout().Root, true, 1)
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "  array points"))
	assert.Equal(t, "    element", lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "      int x @0"))
	assert.True(t, strings.HasPrefix(lines[3], "      int y @2"))
}

func TestRoundTrip(t *testing.T) {
	c := testCodec(t)

	res := roundTrip(c, `{id: 300, ok: true, kind: {id: 0, value: 7}, tags: [a]}`)
	require.NoError(t, res.err)
	assert.Equal(t, []byte{0x2C, 0x01, 0x01, 0x00, 0x07, 0x01, 0x01, 'a'}, res.encoded)
	assert.Contains(t, res.decoded, "id: 300")
	assert.Contains(t, res.decoded, "value: 7")
	assert.Contains(t, res.decoded, "- a")

	out := renderResult(res, newStyles(false))
	assert.Contains(t, out, "8 bytes 2c 01 01 00 07 01 01 61")

	res = roundTrip(c, `{id: 1}`)
	require.Error(t, res.err)
	assert.Nil(t, res.encoded)
	assert.Contains(t, renderResult(res, newStyles(false)), "error:")

	res = roundTrip(c, `{id: [`)
	require.Error(t, res.err)
}

func TestPrintable(t *testing.T) {
	v := printable(schema.Record{
		"blob": []byte{0xDE, 0xAD},
		"list": []uint16{1, 2},
		"kind": schema.Enum{ID: "empty"},
		"nested": schema.Record{
			"bufs": [][]byte{{1}},
		},
	})
	assert.Equal(t, map[string]any{
		"blob": "0xdead",
		"list": []any{uint16(1), uint16(2)},
		"kind": map[string]any{"id": "empty"},
		"nested": map[string]any{
			"bufs": []any{"0x01"},
		},
	}, v)
}

func TestRecordSource(t *testing.T) {
	c := testCodec(t)
	fields := c.Definition().Fields

	src, err := recordSource(fields, []string{"300", "true", "{id: text, value: hi}", ""})
	require.NoError(t, err)
	rec, err := parseValue(src)
	require.NoError(t, err)
	assert.Equal(t, 300, rec["id"])
	assert.Equal(t, true, rec["ok"])
	assert.NotContains(t, rec, "tags")

	_, err = recordSource(fields, []string{"[1,"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "field id")
}

func TestInspectorModel(t *testing.T) {
	c := testCodec(t)
	m := newInspectorModel("user.yaml", c)
	press := func(key string) {
		var msg tea.KeyMsg
		switch key {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
		}
		_, cmd := m.Update(msg)
		if m.state == stateInput || cmd == nil {
			return
		}
		if out := cmd(); out != nil {
			if res, ok := out.(encodedMsg); ok {
				m.Update(res)
			}
		}
	}

	assert.Contains(t, m.View(), "base size 5 bytes, variable")

	press("j")
	assert.Equal(t, 1, m.selected)

	press("o")
	assert.Equal(t, stateOps, m.state)
	assert.Contains(t, m.View(), "pack-bools [ok]")
	press("esc")
	assert.Equal(t, stateBrowse, m.state)

	press("e")
	require.Equal(t, stateInput, m.state)
	require.Len(t, m.inputs, 4)
	assert.Equal(t, 1, m.focusIdx)

	m.inputs[0].SetValue("7")
	m.inputs[1].SetValue("false")
	m.inputs[2].SetValue("{id: text, value: hi}")
	m.inputs[3].SetValue("[]")

	m.result = m.encode().(encodedMsg).res
	require.NoError(t, m.result.err)
	assert.Equal(t, []byte{7, 0, 0, 1, 2, 'h', 'i', 0}, m.result.encoded)
}
