package briefing

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/go-go-golems/morning-news/pkg/api"
	"github.com/rs/zerolog/log"
)

var (
	summaryBox = lipgloss.NewStyle().
			Border(lipgloss.ThickBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("33")).
			PaddingLeft(1)
	summaryTitle  = lipgloss.NewStyle().Foreground(lipgloss.Color("33")).Bold(true)
	generatedText = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Italic(true)

	chipStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("250")).Background(lipgloss.Color("237")).Padding(0, 1)
	chipSelected = lipgloss.NewStyle().Foreground(lipgloss.Color("17")).Background(lipgloss.Color("153")).Padding(0, 1).Bold(true)

	sectionTitle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	card         = lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 1)
	cardCursor   = card.BorderForeground(lipgloss.Color("63"))
	badge        = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("33")).Padding(0, 1)
	metaStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	titleStyle   = lipgloss.NewStyle().Bold(true)
	bodyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("248"))
	linkStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Underline(true)
	moreStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Background(lipgloss.Color("237")).Padding(0, 2)
	statusText   = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
)

func (m Model) View() string {
	return m.viewport.View()
}

// renderBody renders the scrollable content and returns, for every displayed article, the line its
// card starts on.
func (m Model) renderBody() (string, []int) {
	width := max(20, m.width)
	var blocks []string
	lines := 0
	add := func(s string) {
		if len(blocks) > 0 {
			lines++ // blank separator
		}
		blocks = append(blocks, s)
		lines += lipgloss.Height(s)
	}

	add(m.renderSummary(width))
	if m.HasFilterRow() {
		add(m.renderFilterRow(width))
	}
	add(sectionTitle.Render("📰 Latest Articles"))

	shown := m.Displayed()
	offsets := make([]int, 0, len(shown))
	if len(shown) == 0 {
		add(metaStyle.Render("No articles in this category."))
	}
	for i, a := range shown {
		offsets = append(offsets, lines+1)
		add(m.renderArticle(i, a, width))
	}

	if label, ok := m.MoreLabel(); ok {
		add(lipgloss.PlaceHorizontal(width, lipgloss.Center, moreStyle.Render("[a] "+label)))
	}
	if m.status != "" {
		add(statusText.Render(m.status))
	}
	return strings.Join(blocks, "\n\n"), offsets
}

func (m Model) renderSummary(width int) string {
	inner := max(10, width-2)
	summary := m.briefing.Summary
	if m.opts.GlamourStyle != "" {
		r, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(m.opts.GlamourStyle),
			glamour.WithWordWrap(inner),
		)
		if err == nil {
			var out string
			out, err = r.Render(summary)
			if err == nil {
				summary = strings.Trim(out, "\n")
			}
		}
		if err != nil {
			log.Warn().Err(err).Msg("could not render briefing summary")
		}
	} else {
		summary = lipgloss.NewStyle().Width(inner).Render(summary)
	}

	parts := []string{summaryTitle.Render("🤖 Your Morning Briefing"), summary}
	if !m.briefing.GeneratedAt.IsZero() {
		parts = append(parts, generatedText.Render("Generated "+m.relative(m.briefing.GeneratedAt)))
	}
	return summaryBox.Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

func (m Model) renderFilterRow(width int) string {
	counts := m.CategoryCounts()
	var chips []string
	for _, c := range m.Categories() {
		label := fmt.Sprintf("%s (%d)", c, counts[c])
		if c == AllCategories {
			label = fmt.Sprintf("All (%d)", counts[c])
		}
		style := chipStyle
		if c == m.selected {
			style = chipSelected
		}
		chips = append(chips, style.Render(label))
	}
	return lipgloss.NewStyle().Width(width).Render(strings.Join(chips, " "))
}

func (m Model) renderArticle(i int, a api.Article, width int) string {
	meta := badge.Render(fmt.Sprintf("#%d", i+1)) + " " + metaStyle.Render(a.Category+" • "+a.Source)
	inner := max(10, width-4)
	rows := []string{
		meta,
		titleStyle.Width(inner).Render(a.Title),
	}
	if a.Summary != "" {
		rows = append(rows, bodyStyle.Width(inner).Render(a.Summary))
	}
	footer := ""
	if !a.PublishedAt.IsZero() {
		footer = metaStyle.Render(m.relative(a.PublishedAt))
	}
	if a.URL != "" {
		link := linkStyle.Render("Read more →")
		gap := max(1, inner-lipgloss.Width(footer)-lipgloss.Width(link))
		footer += strings.Repeat(" ", gap) + link
		rows = append(rows, footer, metaStyle.MaxWidth(inner).Render(a.URL))
	} else if footer != "" {
		rows = append(rows, footer)
	}

	style := card
	if m.focused && i == m.cursor {
		style = cardCursor
	}
	return style.Width(width - 2).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m Model) relative(t api.Timestamp) string {
	return humanize.RelTime(t.Time, m.opts.Now(), "ago", "from now")
}
