package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog/log"
)

// header + input + suggestions + borders
const chromeHeight = 8

var (
	onlineStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	statusStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	userBubble      = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("25")).Padding(0, 1)
	assistantBubble = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Background(lipgloss.Color("236")).Padding(0, 1)
	timeStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	sendStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("25")).Padding(0, 1).Bold(true)
	disabledStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Padding(0, 1)
	suggestionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("246"))
	inputBox        = lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240"))
	focusedInputBox = inputBox.BorderForeground(lipgloss.Color("63"))
)

// markdownRenderer renders assistant content through glamour and caches the result per message and
// width. It is shared between copies of the model.
type markdownRenderer struct {
	style string
	cache map[string]string
}

func newMarkdownRenderer(style string) *markdownRenderer {
	return &markdownRenderer{style: style, cache: map[string]string{}}
}

func (r *markdownRenderer) render(msg Message, width int) string {
	if r == nil || r.style == "" {
		return msg.Content
	}
	key := fmt.Sprintf("%s:%d", msg.ID, width)
	if s, ok := r.cache[key]; ok {
		return s
	}
	tr, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(r.style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		log.Warn().Err(err).Str("style", r.style).Msg("could not create markdown renderer")
		return msg.Content
	}
	out, err := tr.Render(msg.Content)
	if err != nil {
		log.Warn().Err(err).Msg("could not render markdown")
		return msg.Content
	}
	out = strings.Trim(out, "\n")
	r.cache[key] = out
	return out
}

func (m Model) bubbleWidth() int {
	w := m.width * 3 / 4
	if w < 20 {
		w = 20
	}
	return w
}

func (m Model) renderTranscript() string {
	width := m.viewport.Width
	bw := m.bubbleWidth()

	var sb strings.Builder
	for i, msg := range m.transcript {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(m.renderMessage(msg, width, bw))
	}
	if m.inFlight {
		sb.WriteString("\n\n")
		sb.WriteString(assistantBubble.Render(m.spinner.View()))
	}
	return sb.String()
}

func (m Model) renderMessage(msg Message, width, bubbleWidth int) string {
	stamp := timeStyle.Render(msg.Timestamp.Format("15:04"))
	if msg.Role == RoleUser {
		body := userBubble.Width(min(bubbleWidth, lipgloss.Width(msg.Content)+2)).Render(msg.Content)
		block := lipgloss.JoinVertical(lipgloss.Right, body, stamp)
		return lipgloss.PlaceHorizontal(width, lipgloss.Right, block)
	}
	content := m.renderer.render(msg, bubbleWidth-2)
	body := assistantBubble.MaxWidth(bubbleWidth).Render(content)
	return lipgloss.JoinVertical(lipgloss.Left, body, stamp)
}

func (m Model) View() string {
	status := onlineStyle.Render("●") + " " + statusStyle.Render("AI Assistant Online")
	clearHint := statusStyle.Render("ctrl+l clear chat")
	gap := m.width - lipgloss.Width(status) - lipgloss.Width(clearHint)
	if gap < 1 {
		gap = 1
	}
	header := status + strings.Repeat(" ", gap) + clearHint

	send := disabledStyle.Render("Send")
	switch {
	case m.inFlight:
		send = disabledStyle.Render("...")
	case strings.TrimSpace(m.input.Value()) != "":
		send = sendStyle.Render("Send")
	}
	box := inputBox
	if m.focused {
		box = focusedInputBox
	}
	input := lipgloss.JoinHorizontal(lipgloss.Center,
		box.Width(max(10, m.width-lipgloss.Width(send)-3)).Render(m.input.View()),
		" ",
		send,
	)

	var sugg []string
	for i, s := range Suggestions {
		sugg = append(sugg, fmt.Sprintf("[alt+%d] %s", i+1, s))
	}
	suggestions := suggestionStyle.Width(m.width).Render(strings.Join(sugg, "  "))
	if m.inFlight {
		suggestions = disabledStyle.Width(m.width).Render(strings.Join(sugg, "  "))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		m.viewport.View(),
		input,
		suggestions,
	)
}
