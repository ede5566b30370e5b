package page

import (
	"context"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	bspinner "github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/go-go-golems/morning-news/pkg/api"
	"github.com/go-go-golems/morning-news/pkg/briefing"
	"github.com/go-go-golems/morning-news/pkg/chat"
	"github.com/rs/zerolog/log"
)

// BriefingSource fetches the daily digest.
type BriefingSource interface {
	GetBriefing(ctx context.Context) (*api.Briefing, error)
}

// Backend is everything the page talks to. *api.Client implements it.
type Backend interface {
	BriefingSource
	chat.Backend
}

type State int

const (
	StateLoading State = iota
	StateFailed
	StateLoaded
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateFailed:
		return "failed"
	case StateLoaded:
		return "loaded"
	default:
		return "unknown"
	}
}

// Panel identifies which panel receives keyboard input.
type Panel int

const (
	PanelBriefing Panel = iota
	PanelChat
)

const FailedText = "Failed to load morning briefing"

// BriefingLoadedMsg is the outcome of a briefing fetch. Load identifies the fetch so results that
// arrive after a reload are dropped.
type BriefingLoadedMsg struct {
	Load     uint64
	Briefing *api.Briefing
	Err      error
}

type Options struct {
	Context  context.Context
	Chat     chat.Options
	Briefing briefing.Options
}

type keyMap struct {
	Focus  key.Binding
	Retry  key.Binding
	Reload key.Binding
	Quit   key.Binding
}

var keys = keyMap{
	Focus:  key.NewBinding(key.WithKeys("tab", "shift+tab"), key.WithHelp("tab", "switch panel")),
	Retry:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "try again")),
	Reload: key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "reload")),
	Quit:   key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
}

// Model is the top-level screen: a header, the briefing panel and the chat panel.
type Model struct {
	backend Backend
	opts    Options

	state    State
	err      error
	load     uint64
	briefing briefing.Model
	chat     chat.Model
	focus    Panel

	spinner bspinner.Model
	// ticking is true while a spinner tick chain is pending.
	ticking bool
	help    help.Model
	width   int
	height  int
}

func New(backend Backend, opts Options) Model {
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	if opts.Chat.Context == nil {
		opts.Chat.Context = opts.Context
	}

	sp := bspinner.New()
	sp.Spinner = bspinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("33"))

	m := Model{
		backend: backend,
		opts:    opts,
		state:   StateLoading,
		load:    1,
		chat:    chat.New(backend, opts.Chat),
		focus:   PanelBriefing,
		spinner: sp,
		ticking: true,
		help:    help.New(),
		width:   100,
		height:  30,
	}
	m.layout()
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.fetchCmd(), m.spinner.Tick, m.chat.Init())
}

func (m Model) State() State { return m.state }
func (m Model) Err() error   { return m.err }
func (m Model) Focus() Panel { return m.focus }
func (m Model) Chat() chat.Model {
	return m.chat
}

// Briefing returns the briefing view. ok is false unless the page is in the Loaded state.
func (m Model) Briefing() (briefing.Model, bool) {
	return m.briefing, m.state == StateLoaded
}

// Retry re-issues the briefing fetch. It only has an effect in the Failed state.
func (m Model) Retry() (Model, tea.Cmd) {
	if m.state != StateFailed {
		return m, nil
	}
	m.state = StateLoading
	m.err = nil
	m.load++
	log.Debug().Uint64("load", m.load).Msg("retrying briefing fetch")
	if m.ticking {
		// the earlier chain is still in flight and picks up the spinner again
		return m, m.fetchCmd()
	}
	m.ticking = true
	return m, tea.Batch(m.fetchCmd(), m.spinner.Tick)
}

// Reload discards all page state, including the chat, and starts over with a new fetch.
func (m Model) Reload() (Model, tea.Cmd) {
	next := New(m.backend, m.opts)
	next.load = m.load + 1
	next.width, next.height = m.width, m.height
	next.layout()
	log.Info().Uint64("load", next.load).Msg("reloading page")
	return next, next.Init()
}

func (m Model) SetFocus(p Panel) (Model, tea.Cmd) {
	m.focus = p
	var cmd tea.Cmd
	if p == PanelChat {
		m.chat, cmd = m.chat.Focus()
	} else {
		m.chat = m.chat.Blur()
	}
	if m.state == StateLoaded {
		if p == PanelBriefing {
			m.briefing = m.briefing.Focus()
		} else {
			m.briefing = m.briefing.Blur()
		}
	}
	return m, cmd
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		return m, nil

	case BriefingLoadedMsg:
		return m.handleLoaded(msg)

	case briefing.RefreshRequestedMsg:
		return m.Reload()

	case bspinner.TickMsg:
		var cmds []tea.Cmd
		if m.state == StateLoading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		} else if msg.ID == m.spinner.ID() {
			m.ticking = false
		}
		var cmd tea.Cmd
		m.chat, cmd = m.chat.Update(msg)
		cmds = append(cmds, cmd)
		return m, tea.Batch(cmds...)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		var cmd tea.Cmd
		if m.focus == PanelChat {
			m.chat, cmd = m.chat.Update(msg)
		} else if m.state == StateLoaded {
			m.briefing, cmd = m.briefing.Update(msg)
		}
		return m, cmd
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.chat, cmd = m.chat.Update(msg)
	cmds = append(cmds, cmd)
	if m.state == StateLoaded {
		m.briefing, cmd = m.briefing.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, keys.Focus):
		if m.focus == PanelChat {
			return m.SetFocus(PanelBriefing)
		}
		return m.SetFocus(PanelChat)
	case key.Matches(msg, keys.Reload):
		return m.Reload()
	}

	var cmd tea.Cmd
	switch m.focus {
	case PanelChat:
		m.chat, cmd = m.chat.Update(msg)
	case PanelBriefing:
		switch m.state {
		case StateFailed:
			if key.Matches(msg, keys.Retry) {
				return m.Retry()
			}
		case StateLoaded:
			m.briefing, cmd = m.briefing.Update(msg)
		case StateLoading:
		}
	}
	return m, cmd
}

func (m Model) handleLoaded(msg BriefingLoadedMsg) (Model, tea.Cmd) {
	if msg.Load != m.load || m.state != StateLoading {
		log.Debug().Uint64("load", msg.Load).Msg("dropping stale briefing result")
		return m, nil
	}
	if msg.Err != nil || msg.Briefing == nil {
		log.Error().Err(msg.Err).Msg("error fetching briefing")
		m.state = StateFailed
		m.err = msg.Err
		return m, nil
	}

	m.state = StateLoaded
	m.err = nil
	m.briefing = briefing.New(*msg.Briefing, m.opts.Briefing)
	if m.focus == PanelBriefing {
		m.briefing = m.briefing.Focus()
	}
	m.layout()
	log.Debug().Int("articles", len(msg.Briefing.Articles)).Msg("briefing loaded")
	return m, nil
}

func (m Model) fetchCmd() tea.Cmd {
	source, ctx, load := m.backend, m.opts.Context, m.load
	return func() tea.Msg {
		b, err := source.GetBriefing(ctx)
		return BriefingLoadedMsg{Load: load, Briefing: b, Err: err}
	}
}

func (m Model) helpBindings() []key.Binding {
	bindings := []key.Binding{keys.Focus}
	switch {
	case m.focus == PanelChat:
		bindings = append(bindings, m.chat.ShortHelp()...)
	case m.state == StateFailed:
		bindings = append(bindings, keys.Retry)
	case m.state == StateLoaded:
		bindings = append(bindings, m.briefing.ShortHelp()...)
	}
	return append(bindings, keys.Reload, keys.Quit)
}
