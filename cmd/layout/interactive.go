package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/huben1337/static-protocol/codec"
	"github.com/huben1337/static-protocol/schema"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	fieldStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	typeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type modelState int

const (
	stateBrowse modelState = iota
	stateOps
	stateInput
	stateShowResult
)

type inspectorModel struct {
	codec    *codec.Codec
	filename string
	fields   []schema.Field
	inputs   []textinput.Model
	ops      []string
	result   result
	selected int
	focusIdx int
	state    modelState
}

func newInspectorModel(filename string, c *codec.Codec) *inspectorModel {
	var ops []string
	ops = append(ops, "encode")
	ops = append(ops, opLines(c.Layout().Root, true, 1)...)
	ops = append(ops, "", "decode")
	ops = append(ops, opLines(c.Layout().Root, false, 1)...)
	return &inspectorModel{
		codec:    c,
		filename: filename,
		fields:   c.Definition().Fields,
		ops:      ops,
		state:    stateBrowse,
	}
}

func runInteractive(filename string, c *codec.Codec) error {
	p := tea.NewProgram(newInspectorModel(filename, c), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

type encodedMsg struct {
	res result
}

func (m *inspectorModel) Init() tea.Cmd {
	return nil
}

func (m *inspectorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "q":
			if m.state != stateInput {
				return m, tea.Quit
			}

		case "up", "k":
			if m.state == stateBrowse && m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.state == stateBrowse && m.selected < len(m.fields)-1 {
				m.selected++
			}

		case "o":
			switch m.state {
			case stateBrowse:
				m.state = stateOps
			case stateOps:
				m.state = stateBrowse
			}

		case "e":
			if m.state == stateBrowse {
				m.prepareInputs()
				m.state = stateInput
				return m, textinput.Blink
			}

		case "enter":
			switch m.state {
			case stateInput:
				return m, m.encode
			case stateShowResult:
				m.state = stateInput
				m.result = result{}
				return m, nil
			}

		case "tab", "shift+tab":
			if m.state == stateInput && len(m.inputs) > 1 {
				m.inputs[m.focusIdx].Blur()
				step := 1
				if msg.String() == "shift+tab" {
					step = len(m.inputs) - 1
				}
				m.focusIdx = (m.focusIdx + step) % len(m.inputs)
				m.inputs[m.focusIdx].Focus()
				return m, nil
			}

		case "esc":
			switch m.state {
			case stateInput, stateOps:
				m.state = stateBrowse
			case stateShowResult:
				m.state = stateInput
				m.result = result{}
			}
			return m, nil
		}

	case encodedMsg:
		m.result = msg.res
		m.state = stateShowResult
		return m, nil
	}

	if m.state == stateInput {
		var cmds []tea.Cmd
		for i := range m.inputs {
			var cmd tea.Cmd
			m.inputs[i], cmd = m.inputs[i].Update(msg)
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)
	}

	return m, nil
}

// prepareInputs keeps values typed earlier so a failed encode can be edited.
func (m *inspectorModel) prepareInputs() {
	if len(m.fields) == 0 {
		return
	}
	if len(m.inputs) == len(m.fields) {
		m.inputs[m.focusIdx].Blur()
		m.focusIdx = m.selected
		m.inputs[m.focusIdx].Focus()
		return
	}
	m.inputs = make([]textinput.Model, len(m.fields))
	for i, f := range m.fields {
		ti := textinput.New()
		ti.Placeholder = schema.Describe(f.Kind)
		ti.Prompt = f.Name + ": "
		ti.Width = 48
		m.inputs[i] = ti
	}
	m.focusIdx = m.selected
	m.inputs[m.focusIdx].Focus()
}

func (m *inspectorModel) encode() tea.Msg {
	values := make([]string, len(m.inputs))
	for i, in := range m.inputs {
		values[i] = in.Value()
	}
	src, err := recordSource(m.fields, values)
	if err != nil {
		return encodedMsg{res: result{err: err}}
	}
	return encodedMsg{res: roundTrip(m.codec, src)}
}

// recordSource joins per-field YAML flow values into one YAML mapping. Empty
// inputs are left out so the codec reports them as missing.
func recordSource(fields []schema.Field, values []string) (string, error) {
	rec := make(map[string]any, len(fields))
	for i, f := range fields {
		if i >= len(values) || strings.TrimSpace(values[i]) == "" {
			continue
		}
		var v any
		if err := yaml.Unmarshal([]byte(values[i]), &v); err != nil {
			return "", fmt.Errorf("field %s: %w", f.Name, err)
		}
		rec[f.Name] = v
	}
	out, err := yaml.Marshal(rec)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func (m *inspectorModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Layout Inspector"))
	b.WriteString(" ")
	b.WriteString(m.filename)
	b.WriteString("\n\n")

	l := m.codec.Layout()
	size := "variable"
	if l.Fixed() {
		size = "fixed"
	}

	switch m.state {
	case stateBrowse:
		fmt.Fprintf(&b, "base size %d bytes, %s\n\n", l.BaseSize(), size)
		for i, f := range m.fields {
			line := fieldStyle.Render(f.Name) + " " + typeStyle.Render(schema.Describe(f.Kind))
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> " + f.Name + " " + schema.Describe(f.Kind)))
			} else {
				b.WriteString("  " + line)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • e encode • o ops • q quit"))

	case stateOps:
		for _, line := range m.ops {
			b.WriteString(line)
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("o/esc back • q quit"))

	case stateInput:
		b.WriteString("Values in YAML flow style:\n\n")
		for i, input := range m.inputs {
			b.WriteString(input.View())
			b.WriteString(" ")
			b.WriteString(typeStyle.Render(schema.Describe(m.fields[i].Kind)))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("tab next field • enter encode • esc back"))

	case stateShowResult:
		if m.result.encoded != nil {
			fmt.Fprintf(&b, "%s\n%s\n\n", fieldStyle.Render(fmt.Sprintf("%d bytes", len(m.result.encoded))), hexString(m.result.encoded))
		}
		if m.result.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.result.err)))
		} else {
			b.WriteString(resultStyle.Render(m.result.decoded))
		}
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter edit • q quit"))
	}

	return b.String()
}
