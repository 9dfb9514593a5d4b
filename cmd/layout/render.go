package main

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/huben1337/static-protocol/codec"
	"github.com/huben1337/static-protocol/layout"
	"github.com/huben1337/static-protocol/schema"
)

type styles struct {
	title lipgloss.Style
	op    lipgloss.Style
	typ   lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
}

func newStyles(color bool) styles {
	if !color {
		plain := lipgloss.NewStyle()
		return styles{title: plain, op: plain, typ: plain, ok: plain, err: plain}
	}
	return styles{
		title: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")),
		op:    lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		typ:   lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		ok:    lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		err:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	}
}

func renderLayout(name string, c *codec.Codec, st styles) string {
	l := c.Layout()
	var b strings.Builder

	b.WriteString(st.title.Render(name))
	b.WriteString("\n")
	b.WriteString(st.typ.Render(schema.Describe(c.Definition())))
	b.WriteString("\n\n")

	size := "variable"
	if l.Fixed() {
		size = "fixed"
	}
	fmt.Fprintf(&b, "base size  %d bytes, %s\n", l.BaseSize(), size)
	if id, ok := c.Channel(); ok {
		fmt.Fprintf(&b, "channel    %d\n", id)
	}
	if l.Padded {
		b.WriteString("arrays     aligned\n")
	}
	fmt.Fprintf(&b, "strategy   %s\n", c.Strategy())

	if contribs := l.Contribs(); len(contribs) > 0 {
		b.WriteString("\n")
		b.WriteString(st.title.Render("contributions"))
		b.WriteString("\n")
		for _, ct := range contribs {
			b.WriteString("  + ")
			b.WriteString(ct.String())
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(st.title.Render("encode"))
	b.WriteString("\n")
	for _, line := range opLines(l.Root, true, 1) {
		b.WriteString(st.op.Render(line))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(st.title.Render("decode"))
	b.WriteString("\n")
	for _, line := range opLines(l.Root, false, 1) {
		b.WriteString(st.op.Render(line))
		b.WriteString("\n")
	}
	return b.String()
}

// opLines flattens a scope's ops, indenting union cases and array elements.
func opLines(s *layout.Scope, encode bool, depth int) []string {
	ops := s.DecodeOps
	if encode {
		ops = s.EncodeOps
	}
	pad := strings.Repeat("  ", depth)
	var lines []string
	for _, op := range ops {
		lines = append(lines, pad+op.String())
		switch op.Code {
		case layout.OpUnion:
			for _, cp := range op.Union.Cases {
				lines = append(lines, fmt.Sprintf("%s  case %v = %d", pad, cp.Key, cp.Disc))
				if cp.Payload != nil {
					lines = append(lines, opLines(cp.Payload, encode, depth+2)...)
				}
			}
		case layout.OpArray:
			if op.Array.Kind == layout.ElemScope {
				lines = append(lines, pad+"  element")
				lines = append(lines, opLines(op.Array.Elem, encode, depth+2)...)
			} else {
				lines = append(lines, fmt.Sprintf("%s  element %s", pad, elemLabel(op.Array)))
			}
		}
	}
	return lines
}

func elemLabel(a *layout.ArrayPlan) string {
	s := a.Type.String()
	switch a.Kind {
	case layout.ElemBools:
		s += " packed"
	case layout.ElemBlock:
		s += " block"
		if a.Aligned {
			s += " aligned"
		}
	}
	return s
}

func renderResult(res result, st styles) string {
	var b strings.Builder
	if res.encoded != nil {
		fmt.Fprintf(&b, "%s %s\n", st.title.Render(fmt.Sprintf("%d bytes", len(res.encoded))), hexString(res.encoded))
	}
	if res.err != nil {
		b.WriteString(st.err.Render("error: " + res.err.Error()))
		b.WriteString("\n")
		return b.String()
	}
	b.WriteString(st.ok.Render(res.decoded))
	return b.String()
}

func hexString(buf []byte) string {
	parts := make([]string, len(buf))
	for i, x := range buf {
		parts[i] = hex.EncodeToString([]byte{x})
	}
	return strings.Join(parts, " ")
}
