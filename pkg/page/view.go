package page

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// narrower than this and the panels are stacked
const twoColumnMinWidth = 100

var (
	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("25")).
			Padding(0, 1)
	brandStyle    = lipgloss.NewStyle().Bold(true)
	taglineStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("153"))
	headerButtons = lipgloss.NewStyle().Foreground(lipgloss.Color("153"))

	panelStyle   = lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 1)
	panelFocused = panelStyle.BorderForeground(lipgloss.Color("63"))
	panelTitle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))

	skeletonStyle = lipgloss.NewStyle().Background(lipgloss.Color("237"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Background(lipgloss.Color("52")).Padding(0, 1)
	retryStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("210")).Underline(true)
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
)

type panelSize struct {
	width, height int
}

type dimensions struct {
	stacked  bool
	briefing panelSize
	chat     panelSize
}

const (
	headerHeight = 2
	helpHeight   = 1
)

func (m Model) dimensions() dimensions {
	bodyHeight := max(8, m.height-headerHeight-helpHeight)
	if m.width >= twoColumnMinWidth {
		left := m.width / 2
		return dimensions{
			briefing: panelSize{left, bodyHeight},
			chat:     panelSize{m.width - left, bodyHeight},
		}
	}
	top := bodyHeight / 2
	return dimensions{
		stacked:  true,
		briefing: panelSize{m.width, top},
		chat:     panelSize{m.width, bodyHeight - top},
	}
}

// inner is the content area of a panel, inside the border, padding and title line.
func (p panelSize) inner() (int, int) {
	return max(10, p.width-4), max(3, p.height-3)
}

func (m *Model) layout() {
	d := m.dimensions()
	m.help.Width = m.width
	m.chat = m.chat.SetSize(d.chat.inner())
	if m.state == StateLoaded {
		m.briefing = m.briefing.SetSize(d.briefing.inner())
	}
}

func (m Model) View() string {
	d := m.dimensions()

	left := m.renderPanel("☀️  Morning Briefing", m.briefingContent(d.briefing), d.briefing, m.focus == PanelBriefing)
	right := m.renderPanel("💬 Chat with AI Assistant", m.chat.View(), d.chat, m.focus == PanelChat)

	var body string
	if d.stacked {
		body = lipgloss.JoinVertical(lipgloss.Left, left, right)
	} else {
		body = lipgloss.JoinHorizontal(lipgloss.Top, left, right)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		body,
		m.help.ShortHelpView(m.helpBindings()),
	)
}

func (m Model) renderHeader() string {
	brand := lipgloss.JoinVertical(lipgloss.Left,
		brandStyle.Render("☕ Morning News AI"),
		taglineStyle.Render("   Your witty news companion"),
	)
	buttons := headerButtons.Render("ctrl+r refresh news")
	gap := max(1, m.width-2-lipgloss.Width(brand)-lipgloss.Width(buttons))
	row := lipgloss.JoinHorizontal(lipgloss.Center, brand, strings.Repeat(" ", gap), buttons)
	return headerStyle.Width(m.width).Render(row)
}

func (m Model) renderPanel(title, content string, size panelSize, focused bool) string {
	style := panelStyle
	if focused {
		style = panelFocused
	}
	w, h := size.inner()
	body := lipgloss.NewStyle().Width(w).Height(h).MaxHeight(h).Render(content)
	return style.Width(size.width - 2).Render(lipgloss.JoinVertical(lipgloss.Left, panelTitle.Render(title), body))
}

func (m Model) briefingContent(size panelSize) string {
	w, _ := size.inner()
	switch m.state {
	case StateLoading:
		return lipgloss.JoinVertical(lipgloss.Left,
			m.spinner.View()+" "+mutedStyle.Render("Loading morning briefing..."),
			"",
			skeletonStyle.Render(strings.Repeat(" ", w*3/4)),
			"",
			skeletonStyle.Render(strings.Repeat(" ", w/2)),
			"",
			skeletonStyle.Render(strings.Repeat(" ", w*5/6)),
		)
	case StateFailed:
		return errorStyle.Width(w).Render(FailedText + "  " + retryStyle.Render("[r] Try again"))
	case StateLoaded:
		return m.briefing.View()
	}
	return ""
}
