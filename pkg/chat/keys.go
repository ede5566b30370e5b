package chat

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

type keyMap struct {
	Send       key.Binding
	Clear      key.Binding
	Suggest    key.Binding
	ScrollUp   key.Binding
	ScrollDown key.Binding
}

var keys = keyMap{
	Send:       key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "send")),
	Clear:      key.NewBinding(key.WithKeys("ctrl+l"), key.WithHelp("ctrl+l", "clear chat")),
	Suggest:    key.NewBinding(key.WithKeys("alt+1", "alt+2", "alt+3", "alt+4"), key.WithHelp("alt+1-4", "suggestion")),
	ScrollUp:   key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "scroll up")),
	ScrollDown: key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdn", "scroll down")),
}

// ShortHelp lists the bindings shown in the page help line.
func (m Model) ShortHelp() []key.Binding {
	return []key.Binding{keys.Send, keys.Clear, keys.Suggest, keys.ScrollUp}
}

// isSubmit reports whether msg submits the draft. Terminals do not report Shift on Enter, so the
// modifier they do report (Alt) takes the role of the "newline, not submit" combination.
func isSubmit(msg tea.KeyMsg) bool {
	return msg.Type == tea.KeyEnter && !msg.Alt
}

func suggestionIndex(msg tea.KeyMsg) (int, bool) {
	if !msg.Alt || msg.Type != tea.KeyRunes || len(msg.Runes) != 1 {
		return 0, false
	}
	r := msg.Runes[0]
	if r < '1' || r > '9' {
		return 0, false
	}
	idx := int(r - '1')
	if idx >= len(Suggestions) {
		return 0, false
	}
	return idx, true
}
