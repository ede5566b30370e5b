package chat

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	bspinner "github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/go-go-golems/morning-news/pkg/api"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Backend is the part of the assistant API the widget needs.
type Backend interface {
	CreateSession(ctx context.Context, userID string) (string, error)
	PostMessage(ctx context.Context, message, sessionID, userID string) (*api.MessageResponse, error)
}

type Options struct {
	// Context is used for every backend call issued by the widget.
	Context context.Context
	// DiscardStaleReplies drops replies (and session ids) that belong to a transcript that has been
	// cleared since the request was issued. When false, late replies are appended to the new
	// transcript.
	DiscardStaleReplies bool
	// GlamourStyle is the glamour style used for assistant messages. Empty renders plain text.
	GlamourStyle string
	Now          func() time.Time
}

// SessionCreatedMsg carries the outcome of the lazy session creation that precedes the first
// message of a conversation.
type SessionCreatedMsg struct {
	UserID     string
	SessionID  string
	Text       string
	Generation uint64
	Err        error
}

// ReplyMsg carries the outcome of a message exchange.
type ReplyMsg struct {
	UserID     string
	Generation uint64
	Response   *api.MessageResponse
	Err        error
}

// Model is the chat widget. It owns the transcript, the draft, the in-flight guard and the session
// id of the current conversation.
type Model struct {
	backend Backend
	opts    Options

	userID     string
	sessionID  string
	transcript []Message
	inFlight   bool
	generation uint64
	lastErr    error

	input    textinput.Model
	viewport viewport.Model
	spinner  bspinner.Model
	renderer *markdownRenderer

	focused bool
	width   int
	height  int
}

func New(backend Backend, opts Options) Model {
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	ti := textinput.New()
	ti.Placeholder = "Ask me about today's news..."
	ti.Prompt = "› "
	ti.CharLimit = 2000

	sp := bspinner.New()
	sp.Spinner = bspinner.Points
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("63")).Bold(true)

	vp := viewport.New(60, 12)

	m := Model{
		backend:  backend,
		opts:     opts,
		userID:   "user_" + uuid.NewString(),
		input:    ti,
		viewport: vp,
		spinner:  sp,
		renderer: newMarkdownRenderer(opts.GlamourStyle),
		width:    60,
		height:   20,
	}
	m.transcript = []Message{newMessage(RoleAssistant, WelcomeText, opts.Now())}
	m.refreshViewport()
	return m
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) UserID() string    { return m.userID }
func (m Model) SessionID() string { return m.sessionID }
func (m Model) InFlight() bool    { return m.inFlight }
func (m Model) Draft() string     { return m.input.Value() }
func (m Model) Focused() bool     { return m.focused }

// LastError is the failure absorbed by the most recent exchange, nil if it succeeded.
func (m Model) LastError() error { return m.lastErr }

// SetSessionID resumes an existing backend session instead of creating one on the first send.
func (m Model) SetSessionID(id string) Model {
	m.sessionID = id
	return m
}

// Transcript returns a copy of the messages in display order.
func (m Model) Transcript() []Message {
	out := make([]Message, len(m.transcript))
	copy(out, m.transcript)
	return out
}

func (m Model) Focus() (Model, tea.Cmd) {
	m.focused = true
	if m.inFlight {
		return m, nil
	}
	return m, m.input.Focus()
}

func (m Model) Blur() Model {
	m.focused = false
	m.input.Blur()
	return m
}

func (m Model) SetDraft(s string) Model {
	m.input.SetValue(s)
	m.input.CursorEnd()
	return m
}

// SetSize sets the outer dimensions of the widget.
func (m Model) SetSize(width, height int) Model {
	m.width = width
	m.height = height
	m.input.Width = max(10, width-6)
	m.viewport.Width = width
	m.viewport.Height = max(3, height-chromeHeight)
	m.refreshViewport()
	return m
}

// Send submits draft. It appends the user message before any network work starts and returns the
// command that performs the exchange. Empty drafts and sends while a request is in flight are
// ignored.
func (m Model) Send(draft string) (Model, tea.Cmd) {
	if strings.TrimSpace(draft) == "" || m.inFlight {
		return m, nil
	}

	m.appendMessage(newMessage(RoleUser, draft, m.opts.Now()))
	m.input.Reset()
	m.input.Blur()
	m.inFlight = true

	var exchange tea.Cmd
	if m.sessionID == NoSession {
		exchange = m.createSessionCmd(draft)
	} else {
		exchange = m.postMessageCmd(draft, m.sessionID)
	}
	return m, tea.Batch(exchange, m.spinner.Tick)
}

// Clear resets the transcript to a single assistant message and forgets the session, so the next
// send creates a new one. A request already in flight keeps running.
func (m Model) Clear() Model {
	m.generation++
	m.transcript = []Message{newMessage(RoleAssistant, ClearedText, m.opts.Now())}
	m.sessionID = NoSession
	m.refreshViewport()
	log.Debug().Uint64("generation", m.generation).Msg("chat cleared")
	return m
}

// SelectSuggestion copies a canned prompt into the draft without sending it.
func (m Model) SelectSuggestion(i int) Model {
	if m.inFlight || i < 0 || i >= len(Suggestions) {
		return m
	}
	return m.SetDraft(Suggestions[i])
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case SessionCreatedMsg:
		if msg.UserID != m.userID {
			return m, nil
		}
		return m.handleSessionCreated(msg)
	case ReplyMsg:
		if msg.UserID != m.userID {
			return m, nil
		}
		return m.handleReply(msg)
	case bspinner.TickMsg:
		if !m.inFlight {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.refreshViewport()
		return m, cmd
	case tea.KeyMsg:
		if !m.focused {
			return m, nil
		}
		return m.handleKey(msg)
	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	if m.focused && !m.inFlight {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case isSubmit(msg):
		return m.Send(m.input.Value())
	case msg.Type == tea.KeyEnter:
		// alt+enter is reserved for multi-line input
		return m, nil
	case key.Matches(msg, keys.Clear):
		return m.Clear(), nil
	case key.Matches(msg, keys.ScrollUp), key.Matches(msg, keys.ScrollDown):
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	if idx, ok := suggestionIndex(msg); ok {
		return m.SelectSuggestion(idx), nil
	}
	if m.inFlight {
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleSessionCreated(msg SessionCreatedMsg) (Model, tea.Cmd) {
	if msg.Generation != m.generation && m.opts.DiscardStaleReplies {
		log.Debug().Uint64("generation", msg.Generation).Msg("dropping session created for a cleared chat")
		m.inFlight = false
		return m.refocus()
	}
	if msg.Err != nil {
		log.Error().Err(msg.Err).Str("user_id", m.userID).Msg("error creating session")
	}
	// Stored as-is: a failed creation leaves the session absent and the message is still sent.
	m.sessionID = msg.SessionID
	return m, m.postMessageCmdFor(msg.Text, msg.SessionID, msg.Generation)
}

func (m Model) handleReply(msg ReplyMsg) (Model, tea.Cmd) {
	m.inFlight = false
	if msg.Generation != m.generation && m.opts.DiscardStaleReplies {
		log.Debug().Uint64("generation", msg.Generation).Msg("dropping reply for a cleared chat")
		m.refreshViewport()
		return m.refocus()
	}

	m.lastErr = msg.Err
	switch {
	case msg.Err != nil:
		log.Error().Err(msg.Err).Str("session_id", m.sessionID).Msg("error sending message")
		m.appendMessage(newMessage(RoleAssistant, FallbackText, m.opts.Now()))
	case msg.Response == nil:
		m.lastErr = errors.New("empty reply from backend")
		log.Error().Str("session_id", m.sessionID).Msg("empty reply from backend")
		m.appendMessage(newMessage(RoleAssistant, FallbackText, m.opts.Now()))
	default:
		m.appendMessage(newMessage(RoleAssistant, msg.Response.Response, m.opts.Now()))
	}
	return m.refocus()
}

func (m Model) refocus() (Model, tea.Cmd) {
	if !m.focused {
		return m, nil
	}
	return m, m.input.Focus()
}

func (m Model) createSessionCmd(text string) tea.Cmd {
	backend, ctx, userID, gen := m.backend, m.opts.Context, m.userID, m.generation
	return func() tea.Msg {
		id, err := backend.CreateSession(ctx, userID)
		if err != nil {
			return SessionCreatedMsg{UserID: userID, SessionID: NoSession, Text: text, Generation: gen, Err: err}
		}
		return SessionCreatedMsg{UserID: userID, SessionID: id, Text: text, Generation: gen}
	}
}

func (m Model) postMessageCmd(text, sessionID string) tea.Cmd {
	return m.postMessageCmdFor(text, sessionID, m.generation)
}

func (m Model) postMessageCmdFor(text, sessionID string, gen uint64) tea.Cmd {
	backend, ctx, userID := m.backend, m.opts.Context, m.userID
	return func() tea.Msg {
		resp, err := backend.PostMessage(ctx, text, sessionID, userID)
		return ReplyMsg{UserID: userID, Generation: gen, Response: resp, Err: err}
	}
}

func (m *Model) appendMessage(msg Message) {
	m.transcript = append(m.transcript, msg)
	m.refreshViewport()
}

func (m *Model) refreshViewport() {
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}
