package page

import tea "github.com/charmbracelet/bubbletea"

type program struct {
	m Model
}

var _ tea.Model = program{}

// TeaModel wraps the page so it can be handed to tea.NewProgram.
func (m Model) TeaModel() tea.Model {
	return program{m: m}
}

// Unwrap returns the page held by a model returned from tea.Program.Run.
func Unwrap(tm tea.Model) (Model, bool) {
	p, ok := tm.(program)
	return p.m, ok
}

func (p program) Init() tea.Cmd { return p.m.Init() }

func (p program) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	p.m, cmd = p.m.Update(msg)
	return p, cmd
}

func (p program) View() string { return p.m.View() }
