package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/thunk"
	"github.com/wippyai/thunk/compiler"
	"github.com/wippyai/thunk/emit"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	funcStyle = lipgloss.NewStyle().
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
	stateSelectSample modelState = iota
	stateInputArgs
	stateShowResult
)

type interactiveModel struct {
	err       error
	compiler  *compiler.Compiler
	programs  map[string]*emit.Program
	receivers map[string]thunk.Handle
	result    string
	listing   string
	args      []string
	samples   []sample
	inputs    []textinput.Model
	selected  int
	focusIdx  int
	state     modelState
}

type callResultMsg struct {
	err     error
	result  string
	listing string
	args    []string
}

func newInteractiveModel(c *compiler.Compiler) *interactiveModel {
	return &interactiveModel{
		compiler:  c,
		programs:  make(map[string]*emit.Program),
		receivers: make(map[string]thunk.Handle),
		samples:   samples(),
		state:     stateSelectSample,
	}
}

func (m *interactiveModel) Init() tea.Cmd {
	return nil
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "q":
			if m.state != stateInputArgs {
				return m, tea.Quit
			}

		case "up", "k":
			if m.state == stateSelectSample && m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.state == stateSelectSample && m.selected < len(m.samples)-1 {
				m.selected++
			}

		case "enter":
			switch m.state {
			case stateSelectSample:
				m.prepareInputs()
				if len(m.inputs) == 0 {
					return m, m.callSample()
				}
				m.state = stateInputArgs
				return m, textinput.Blink

			case stateInputArgs:
				return m, m.callSample()

			case stateShowResult:
				m.reset()
			}

		case "tab":
			if m.state == stateInputArgs && len(m.inputs) > 1 {
				m.inputs[m.focusIdx].Blur()
				m.focusIdx = (m.focusIdx + 1) % len(m.inputs)
				m.inputs[m.focusIdx].Focus()
			}

		case "esc":
			switch m.state {
			case stateInputArgs:
				m.state = stateSelectSample
				m.inputs = nil
			case stateShowResult:
				m.reset()
			}
		}

	case callResultMsg:
		m.result = msg.result
		m.listing = msg.listing
		m.args = msg.args
		m.err = msg.err
		m.state = stateShowResult
	}

	if m.state == stateInputArgs {
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

func (m *interactiveModel) reset() {
	m.state = stateSelectSample
	m.result = ""
	m.listing = ""
	m.args = nil
	m.err = nil
}

func (m *interactiveModel) prepareInputs() {
	s := m.samples[m.selected]
	m.inputs = make([]textinput.Model, len(s.desc.Params))
	for i, p := range s.desc.Params {
		ti := textinput.New()
		ti.Placeholder = p.Type.String()
		ti.Prompt = p.Name + ": "
		ti.Width = 40
		if i == 0 {
			ti.Focus()
		}
		m.inputs[i] = ti
	}
	m.focusIdx = 0
}

// callSample compiles the selected sample on first use and returns the
// command that calls it. A receiver is created once per sample so its state
// survives repeated calls. Both maps are only touched from Update.
func (m *interactiveModel) callSample() tea.Cmd {
	s := m.samples[m.selected]

	p, ok := m.programs[s.name]
	if !ok {
		var err error
		p, err = m.compiler.CompileProgram(s.desc, nil)
		if err != nil {
			return func() tea.Msg { return callResultMsg{err: err} }
		}
		m.programs[s.name] = p
	}

	recv, ok := m.receivers[s.name]
	if !ok && s.recv != nil {
		recv = s.recv()
		m.receivers[s.name] = recv
	}

	values := make([]string, len(m.inputs))
	for i, input := range m.inputs {
		values[i] = input.Value()
	}

	return func() tea.Msg {
		listing := emit.Disassemble(p)
		args, err := parseArgs(s.desc, values)
		if err != nil {
			return callResultMsg{err: err, listing: listing}
		}
		res, err := call(p.Func(), recv, args)
		if err != nil {
			return callResultMsg{err: err, listing: listing}
		}
		return callResultMsg{
			result:  formatHandle(res),
			args:    formatArgs(s.desc, args),
			listing: listing,
		}
	}
}

func (m *interactiveModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Thunk Dump"))
	b.WriteString(" ")
	b.WriteString(m.compiler.Mode().String())
	b.WriteString("\n\n")

	switch m.state {
	case stateSelectSample:
		b.WriteString("Select a target to compile and call:\n\n")
		for i, s := range m.samples {
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> " + m.formatSample(s)))
			} else {
				b.WriteString("  " + m.formatSample(s))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter call • q quit"))

	case stateInputArgs:
		s := m.samples[m.selected]
		b.WriteString(fmt.Sprintf("Calling %s\n\n", funcStyle.Render(s.desc.String())))
		for i, input := range m.inputs {
			b.WriteString(input.View())
			b.WriteString(" ")
			p := s.desc.Params[i]
			t := p.Type.String()
			if p.ByRef {
				t = "ref " + t
			}
			b.WriteString(typeStyle.Render(t))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("tab next field • enter call • esc back"))

	case stateShowResult:
		s := m.samples[m.selected]
		b.WriteString(fmt.Sprintf("Result of %s:\n\n", funcStyle.Render(s.name)))
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		} else {
			b.WriteString(resultStyle.Render(m.result))
			for _, a := range m.args {
				b.WriteString("\n  ")
				b.WriteString(a)
			}
		}
		if m.listing != "" {
			b.WriteString("\n\n")
			b.WriteString(m.listing)
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("enter continue • q quit"))
	}

	return b.String()
}

func (m *interactiveModel) formatSample(s sample) string {
	return funcStyle.Render(s.name) + " " + typeStyle.Render(s.desc.String()) + " " + helpStyle.Render(s.about)
}

func runInteractive(c *compiler.Compiler) error {
	p := tea.NewProgram(newInteractiveModel(c), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
