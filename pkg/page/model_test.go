package page

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	bspinner "github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-go-golems/morning-news/pkg/api"
	"github.com/go-go-golems/morning-news/pkg/briefing"
	"github.com/go-go-golems/morning-news/pkg/chat"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	mu       sync.Mutex
	fetches  int
	failures int // number of fetches that fail before one succeeds
	briefing api.Briefing
}

func (f *fakeBackend) GetBriefing(context.Context) (*api.Briefing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	if f.fetches <= f.failures {
		return nil, errors.New("backend down")
	}
	b := f.briefing
	return &b, nil
}

func (f *fakeBackend) CreateSession(context.Context, string) (string, error) {
	return "s-1", nil
}

func (f *fakeBackend) PostMessage(_ context.Context, message, _, _ string) (*api.MessageResponse, error) {
	return &api.MessageResponse{Response: "echo: " + message}, nil
}

func (f *fakeBackend) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches
}

func sampleBriefing(n int) api.Briefing {
	b := api.Briefing{Summary: "Today in brief.", Categories: []string{"tech", "world"}}
	for i := 0; i < n; i++ {
		cat := "tech"
		if i%3 == 1 {
			cat = "world"
		}
		b.Articles = append(b.Articles, api.Article{
			ID:       int64(i + 1),
			Title:    fmt.Sprintf("Story %d", i+1),
			Category: cat,
			Source:   "Wire",
			URL:      fmt.Sprintf("https://news.example/%d", i+1),
		})
	}
	return b
}

// run executes cmd and returns the page messages it produces, descending into batches.
func run(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		var out []tea.Msg
		for _, c := range msg {
			out = append(out, run(c)...)
		}
		return out
	case BriefingLoadedMsg, briefing.RefreshRequestedMsg, chat.SessionCreatedMsg, chat.ReplyMsg:
		return []tea.Msg{msg}
	}
	return nil
}

func settle(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	pending := run(cmd)
	for len(pending) > 0 {
		msg := pending[0]
		pending = pending[1:]
		var next tea.Cmd
		m, next = m.Update(msg)
		pending = append(pending, run(next)...)
	}
	return m
}

func newTestPage(b Backend) Model {
	m := New(b, Options{})
	m, _ = m.Update(tea.WindowSizeMsg{Width: 120, Height: 60})
	return m
}

func TestInit_FetchesOnceAndLoads(t *testing.T) {
	b := &fakeBackend{briefing: sampleBriefing(3)}
	m := newTestPage(b)
	require.Equal(t, StateLoading, m.State())
	require.Contains(t, m.View(), "Loading morning briefing")
	require.Equal(t, 0, b.fetchCount(), "nothing is fetched before Init runs")

	m = settle(t, m, m.Init())
	require.Equal(t, 1, b.fetchCount())
	require.Equal(t, StateLoaded, m.State())
	require.NoError(t, m.Err())

	bv, ok := m.Briefing()
	require.True(t, ok)
	require.Len(t, bv.Displayed(), 3)
	require.Contains(t, m.View(), "Story 1")
	require.NotContains(t, m.View(), FailedText)
}

func TestFailure_RetryFetchesOncePerPress(t *testing.T) {
	b := &fakeBackend{failures: 2, briefing: sampleBriefing(2)}
	m := newTestPage(b)

	m = settle(t, m, m.Init())
	require.Equal(t, StateFailed, m.State())
	require.Error(t, m.Err())
	require.Contains(t, m.View(), FailedText)
	require.Contains(t, m.View(), "Try again")

	r := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}}
	m, cmd := m.Update(r)
	require.Equal(t, StateLoading, m.State())
	require.NotContains(t, m.View(), FailedText, "error and loading are exclusive")

	// a second press while the retry is pending does nothing
	m, extra := m.Update(r)
	require.Nil(t, extra)

	m = settle(t, m, cmd)
	require.Equal(t, 2, b.fetchCount())
	require.Equal(t, StateFailed, m.State())

	m, cmd = m.Update(r)
	m = settle(t, m, cmd)
	require.Equal(t, 3, b.fetchCount())
	require.Equal(t, StateLoaded, m.State())
	require.NoError(t, m.Err())
}

func TestRetry_IgnoredOutsideFailedState(t *testing.T) {
	b := &fakeBackend{briefing: sampleBriefing(2)}
	m := newTestPage(b)

	next, cmd := m.Retry()
	require.Nil(t, cmd)
	require.Equal(t, StateLoading, next.State())

	m = settle(t, m, m.Init())
	next, cmd = m.Retry()
	require.Nil(t, cmd)
	require.Equal(t, StateLoaded, next.State())
}

// splitTicks executes cmd and separates the page spinner ticks from the other page messages.
// Only immediate commands may be passed; timed ticks would block.
func splitTicks(cmd tea.Cmd, spinnerID int) (ticks []bspinner.TickMsg, rest []tea.Msg) {
	if cmd == nil {
		return nil, nil
	}
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		for _, c := range msg {
			t, r := splitTicks(c, spinnerID)
			ticks = append(ticks, t...)
			rest = append(rest, r...)
		}
	case bspinner.TickMsg:
		if msg.ID == spinnerID {
			ticks = append(ticks, msg)
		}
	case BriefingLoadedMsg:
		rest = append(rest, msg)
	}
	return ticks, rest
}

func TestRetry_ReusesPendingSpinnerTick(t *testing.T) {
	b := &fakeBackend{failures: 1, briefing: sampleBriefing(2)}
	m := newTestPage(b)

	ticks, rest := splitTicks(m.Init(), m.spinner.ID())
	require.Len(t, ticks, 1)
	require.Len(t, rest, 1)
	m, _ = m.Update(rest[0])
	require.Equal(t, StateFailed, m.State())

	// the first tick has not been delivered yet, so its chain is still alive
	m, cmd := m.Retry()
	retryTicks, retryRest := splitTicks(cmd, m.spinner.ID())
	require.Empty(t, retryTicks)
	require.Len(t, retryRest, 1)

	m, next := m.Update(ticks[0])
	require.NotNil(t, next, "the pending tick keeps the spinner going")

	m, _ = m.Update(retryRest[0])
	require.Equal(t, StateLoaded, m.State())
}

func TestRetry_RestartsSpinnerAfterChainEnded(t *testing.T) {
	b := &fakeBackend{failures: 1, briefing: sampleBriefing(2)}
	m := newTestPage(b)

	ticks, rest := splitTicks(m.Init(), m.spinner.ID())
	require.Len(t, ticks, 1)
	m, _ = m.Update(rest[0])
	require.Equal(t, StateFailed, m.State())

	// delivered while failed, the tick is dropped and its chain ends
	m, _ = m.Update(ticks[0])

	m, cmd := m.Retry()
	retryTicks, _ := splitTicks(cmd, m.spinner.ID())
	require.Len(t, retryTicks, 1)
}

func TestReload_RebuildsEverything(t *testing.T) {
	b := &fakeBackend{briefing: sampleBriefing(2)}
	m := newTestPage(b)
	m = settle(t, m, m.Init())

	m, _ = m.SetFocus(PanelChat)
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("hi")})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.Len(t, m.Chat().Transcript(), 2)
	require.True(t, m.Chat().InFlight())
	oldUser := m.Chat().UserID()

	m, cmd := m.Update(briefing.RefreshRequestedMsg{})
	require.Equal(t, StateLoading, m.State())
	require.NotEqual(t, oldUser, m.Chat().UserID())
	require.Len(t, m.Chat().Transcript(), 1)
	require.False(t, m.Chat().InFlight())
	require.Equal(t, PanelBriefing, m.Focus())

	m = settle(t, m, cmd)
	require.Equal(t, 2, b.fetchCount())
	require.Equal(t, StateLoaded, m.State())
}

func TestReload_DropsResultOfEarlierLoad(t *testing.T) {
	b := &fakeBackend{briefing: sampleBriefing(2)}
	m := newTestPage(b)
	initial := run(m.Init())

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	for _, msg := range initial {
		m, _ = m.Update(msg)
	}
	require.Equal(t, StateLoading, m.State())
}

func TestFocus_TabSwitchesPanels(t *testing.T) {
	b := &fakeBackend{briefing: sampleBriefing(7)}
	m := newTestPage(b)
	m = settle(t, m, m.Init())
	require.Equal(t, PanelBriefing, m.Focus())

	// keys reach the briefing view while it has focus
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'a'}})
	bv, _ := m.Briefing()
	require.True(t, bv.ShowAll())

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	require.Equal(t, PanelChat, m.Focus())
	require.True(t, m.Chat().Focused())

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'a'}})
	require.Equal(t, "a", m.Chat().Draft())
	bv, _ = m.Briefing()
	require.True(t, bv.ShowAll(), "briefing untouched while chat has focus")

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = settle(t, m, cmd)
	tr := m.Chat().Transcript()
	require.Equal(t, "echo: a", tr[len(tr)-1].Content)
}

func TestQuit(t *testing.T) {
	m := newTestPage(&fakeBackend{})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	require.Equal(t, tea.Quit(), cmd())
}

func TestView_Layout(t *testing.T) {
	m := newTestPage(&fakeBackend{briefing: sampleBriefing(2)})
	v := m.View()
	require.Contains(t, v, "Morning News AI")
	require.Contains(t, v, "Your witty news companion")
	require.Contains(t, v, "Morning Briefing")
	require.Contains(t, v, "Chat with AI Assistant")
	require.False(t, m.dimensions().stacked)

	m, _ = m.Update(tea.WindowSizeMsg{Width: 70, Height: 60})
	require.True(t, m.dimensions().stacked)
	require.Contains(t, m.View(), "Chat with AI Assistant")
}

func TestStateString(t *testing.T) {
	require.Equal(t, "loading", StateLoading.String())
	require.Equal(t, "failed", StateFailed.String())
	require.Equal(t, "loaded", StateLoaded.String())
}

func TestEndToEnd_HTTPBackend(t *testing.T) {
	var briefingCalls atomic.Int32
	var fail atomic.Bool
	fail.Store(true)

	mux := http.NewServeMux()
	mux.HandleFunc(api.BriefingPath, func(w http.ResponseWriter, r *http.Request) {
		briefingCalls.Add(1)
		if fail.Load() {
			http.Error(w, `{"detail":"Error generating briefing"}`, http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"summary":      "All quiet.",
			"generated_at": "2026-10-14T07:00:00",
			"categories":   []string{"tech", "world"},
			"articles": []map[string]any{
				{"id": 1, "title": "One", "category": "tech", "source": "A", "url": "https://a", "published_at": "2026-10-14T06:00:00"},
				{"id": 2, "title": "Two", "category": "world", "source": "B", "url": "https://b", "published_at": "2026-10-14T06:00:00"},
				{"id": 3, "title": "Three", "category": "tech", "source": "A", "url": "https://c", "published_at": "2026-10-14T06:00:00"},
				{"id": 4, "title": "Four", "category": "tech", "source": "A", "url": "https://d", "published_at": "2026-10-14T06:00:00"},
				{"id": 5, "title": "Five", "category": "world", "source": "B", "url": "https://e", "published_at": "2026-10-14T06:00:00"},
				{"id": 6, "title": "Six", "category": "tech", "source": "A", "url": "https://f", "published_at": "2026-10-14T06:00:00"},
				{"id": 7, "title": "Seven", "category": "tech", "source": "A", "url": "https://g", "published_at": "2026-10-14T06:00:00"},
			},
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client, err := api.NewClient(srv.URL)
	require.NoError(t, err)

	m := newTestPage(client)
	m = settle(t, m, m.Init())
	require.Equal(t, StateFailed, m.State())
	require.EqualValues(t, 1, briefingCalls.Load())

	var se *api.StatusError
	require.True(t, errors.As(m.Err(), &se))
	require.Equal(t, http.StatusInternalServerError, se.StatusCode)

	fail.Store(false)
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})
	m = settle(t, m, cmd)
	require.EqualValues(t, 2, briefingCalls.Load())
	require.Equal(t, StateLoaded, m.State())

	bv, ok := m.Briefing()
	require.True(t, ok)
	require.Len(t, bv.Displayed(), 5)
	label, ok := bv.MoreLabel()
	require.True(t, ok)
	require.Equal(t, "Show 2 More Articles", label)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'a'}})
	bv, _ = m.Briefing()
	require.Len(t, bv.Displayed(), 7)
}
