package chat

import tea "github.com/charmbracelet/bubbletea"

// Settle runs cmd and feeds the session and reply messages it produces back into the model until
// the exchange is over. Cursor and spinner ticks are dropped. It blocks on the backend calls, so it
// is meant for non-interactive callers.
func Settle(m Model, cmd tea.Cmd) Model {
	pending := exchangeMsgs(cmd)
	for len(pending) > 0 {
		msg := pending[0]
		pending = pending[1:]
		var next tea.Cmd
		m, next = m.Update(msg)
		pending = append(pending, exchangeMsgs(next)...)
	}
	return m
}

func exchangeMsgs(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		var out []tea.Msg
		for _, c := range msg {
			out = append(out, exchangeMsgs(c)...)
		}
		return out
	case SessionCreatedMsg, ReplyMsg:
		return []tea.Msg{msg}
	}
	return nil
}
