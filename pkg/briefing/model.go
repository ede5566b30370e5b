package briefing

import (
	"fmt"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-go-golems/morning-news/pkg/api"
	"github.com/rs/zerolog/log"
)

// RefreshRequestedMsg asks the page to reload everything, including a fresh briefing fetch.
type RefreshRequestedMsg struct{}

type urlCopiedMsg struct {
	url string
	err error
}

type Options struct {
	// GlamourStyle renders the summary as markdown. Empty renders plain text.
	GlamourStyle string
	// Copy writes to the system clipboard.
	Copy func(string) error
	Now  func() time.Time
}

type keyMap struct {
	PrevCategory key.Binding
	NextCategory key.Binding
	ToggleAll    key.Binding
	Up           key.Binding
	Down         key.Binding
	CopyURL      key.Binding
	Refresh      key.Binding
}

var keys = keyMap{
	PrevCategory: key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/→", "category")),
	NextCategory: key.NewBinding(key.WithKeys("right", "l")),
	ToggleAll:    key.NewBinding(key.WithKeys("a", " "), key.WithHelp("a", "show more/less")),
	Up:           key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/↓", "article")),
	Down:         key.NewBinding(key.WithKeys("down", "j")),
	CopyURL:      key.NewBinding(key.WithKeys("c", "y"), key.WithHelp("c", "copy link")),
	Refresh:      key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh news")),
}

// Model renders a briefing with a category filter and a collapsible article list. The briefing
// itself is never modified.
type Model struct {
	briefing api.Briefing
	opts     Options

	selected string
	showAll  bool
	cursor   int
	status   string

	viewport viewport.Model
	offsets  []int
	focused  bool
	width    int
	height   int
}

func New(b api.Briefing, opts Options) Model {
	if opts.Copy == nil {
		opts.Copy = clipboard.WriteAll
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	m := Model{
		briefing: b,
		opts:     opts,
		selected: AllCategories,
		viewport: viewport.New(60, 20),
		width:    60,
		height:   20,
	}
	m.refresh()
	return m
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Briefing() api.Briefing { return m.briefing }
func (m Model) SelectedCategory() string { return m.selected }
func (m Model) ShowAll() bool { return m.showAll }
func (m Model) Cursor() int { return m.cursor }
func (m Model) Status() string { return m.status }

// Filtered is the briefing's article list under the current category filter.
func (m Model) Filtered() []api.Article {
	return FilterByCategory(m.briefing.Articles, m.selected)
}

// Displayed is what the list currently shows.
func (m Model) Displayed() []api.Article {
	return Visible(m.Filtered(), m.showAll)
}

// Categories returns the filter choices, starting with AllCategories.
func (m Model) Categories() []string {
	return append([]string{AllCategories}, m.briefing.Categories...)
}

// CategoryCounts counts the full article list, independent of the current filter.
func (m Model) CategoryCounts() map[string]int {
	counts := CountByCategory(m.briefing.Articles)
	counts[AllCategories] = len(m.briefing.Articles)
	return counts
}

// HasFilterRow reports whether category buttons are offered at all.
func (m Model) HasFilterRow() bool {
	return len(m.briefing.Categories) > 1
}

// MoreLabel is the label of the show more/less control. ok is false when the filtered list fits
// in the preview and the control is not shown.
func (m Model) MoreLabel() (label string, ok bool) {
	n := len(m.Filtered())
	if n <= PreviewCount {
		return "", false
	}
	if m.showAll {
		return "Show Less", true
	}
	return fmt.Sprintf("Show %d More Articles", n-PreviewCount), true
}

func (m Model) SelectCategory(cat string) Model {
	m.selected = cat
	m.cursor = 0
	m.refresh()
	return m
}

func (m Model) NextCategory() Model { return m.stepCategory(1) }
func (m Model) PrevCategory() Model { return m.stepCategory(-1) }

func (m Model) stepCategory(delta int) Model {
	cats := m.Categories()
	idx := 0
	for i, c := range cats {
		if c == m.selected {
			idx = i
			break
		}
	}
	idx = (idx + delta + len(cats)) % len(cats)
	return m.SelectCategory(cats[idx])
}

// ToggleShowAll flips between the preview and the full filtered list.
func (m Model) ToggleShowAll() Model {
	m.showAll = !m.showAll
	if n := len(m.Displayed()); m.cursor >= n {
		m.cursor = max(0, n-1)
	}
	m.refresh()
	return m
}

// Refresh requests a full reload from the page.
func (m Model) Refresh() tea.Cmd {
	return func() tea.Msg { return RefreshRequestedMsg{} }
}

// CopyURL copies the link of the article under the cursor.
func (m Model) CopyURL() (Model, tea.Cmd) {
	shown := m.Displayed()
	if m.cursor >= len(shown) {
		return m, nil
	}
	url := shown[m.cursor].URL
	if url == "" {
		m.status = "This article has no link"
		m.refresh()
		return m, nil
	}
	copyFn := m.opts.Copy
	return m, func() tea.Msg {
		return urlCopiedMsg{url: url, err: copyFn(url)}
	}
}

func (m Model) Focus() Model {
	m.focused = true
	m.refresh()
	return m
}

func (m Model) Blur() Model {
	m.focused = false
	m.refresh()
	return m
}

func (m Model) SetSize(width, height int) Model {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = max(3, height)
	m.refresh()
	return m
}

// ShortHelp lists the bindings shown in the page help line.
func (m Model) ShortHelp() []key.Binding {
	return []key.Binding{keys.PrevCategory, keys.Up, keys.ToggleAll, keys.CopyURL, keys.Refresh}
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case urlCopiedMsg:
		if msg.err != nil {
			log.Warn().Err(msg.err).Str("url", msg.url).Msg("could not copy article url")
			m.status = "Could not copy link: " + msg.err.Error()
		} else {
			m.status = "Copied " + msg.url
		}
		m.refresh()
		return m, nil
	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		if !m.focused {
			return m, nil
		}
		switch {
		case key.Matches(msg, keys.PrevCategory):
			if m.HasFilterRow() {
				return m.PrevCategory(), nil
			}
		case key.Matches(msg, keys.NextCategory):
			if m.HasFilterRow() {
				return m.NextCategory(), nil
			}
		case key.Matches(msg, keys.ToggleAll):
			if _, ok := m.MoreLabel(); ok {
				return m.ToggleShowAll(), nil
			}
		case key.Matches(msg, keys.Up):
			return m.moveCursor(-1), nil
		case key.Matches(msg, keys.Down):
			return m.moveCursor(1), nil
		case key.Matches(msg, keys.CopyURL):
			return m.CopyURL()
		case key.Matches(msg, keys.Refresh):
			return m, m.Refresh()
		}
	}
	return m, nil
}

func (m Model) moveCursor(delta int) Model {
	n := len(m.Displayed())
	if n == 0 {
		return m
	}
	m.cursor += delta
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.cursor >= n {
		m.cursor = n - 1
	}
	m.status = ""
	m.refresh()
	m.scrollToCursor()
	return m
}

func (m *Model) refresh() {
	content, offsets := m.renderBody()
	m.offsets = offsets
	m.viewport.SetContent(content)
}

func (m *Model) scrollToCursor() {
	if m.cursor >= len(m.offsets) {
		return
	}
	top := m.offsets[m.cursor]
	if top < m.viewport.YOffset || top >= m.viewport.YOffset+m.viewport.Height-2 {
		m.viewport.SetYOffset(top)
	}
}
