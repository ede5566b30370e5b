package cmds

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-go-golems/glazed/pkg/cmds"
	"github.com/go-go-golems/glazed/pkg/cmds/fields"
	"github.com/go-go-golems/glazed/pkg/cmds/values"
	"github.com/go-go-golems/morning-news/pkg/api"
	"github.com/go-go-golems/morning-news/pkg/briefing"
	"github.com/go-go-golems/morning-news/pkg/chat"
	"github.com/go-go-golems/morning-news/pkg/page"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

type TUICommand struct {
	*cmds.CommandDescription
}

type TUISettings struct {
	GlamourStyle        string `glazed:"glamour-style"`
	DiscardStaleReplies bool   `glazed:"discard-stale-replies"`
	LogFile             string `glazed:"tui-log-file"`
	NoMouse             bool   `glazed:"no-mouse"`
}

var _ cmds.BareCommand = &TUICommand{}

func NewTUICommand() (*TUICommand, error) {
	backendSection, err := api.NewSection()
	if err != nil {
		return nil, err
	}

	return &TUICommand{
		CommandDescription: cmds.NewCommandDescription(
			"tui",
			cmds.WithShort("Open the morning briefing and chat assistant"),
			cmds.WithLong("Full-screen terminal UI with today's briefing on one side and the news assistant on the other."),
			cmds.WithFlags(
				fields.New(
					"glamour-style",
					fields.TypeString,
					fields.WithDefault("dark"),
					fields.WithHelp(glamourStyleHelp),
				),
				fields.New(
					"discard-stale-replies",
					fields.TypeBool,
					fields.WithDefault(false),
					fields.WithHelp("Drop assistant replies that arrive after the chat was cleared"),
				),
				fields.New(
					"tui-log-file",
					fields.TypeString,
					fields.WithDefault(""),
					fields.WithHelp("Write logs to this file while the UI runs (logs are discarded otherwise)"),
				),
				fields.New(
					"no-mouse",
					fields.TypeBool,
					fields.WithDefault(false),
					fields.WithHelp("Do not capture mouse events"),
				),
			),
			cmds.WithSections(backendSection),
		),
	}, nil
}

func (c *TUICommand) Run(ctx context.Context, parsed *values.Values) error {
	s := &TUISettings{}
	if err := parsed.DecodeSectionInto(values.DefaultSlug, s); err != nil {
		return err
	}
	client, err := api.NewClientFromValues(parsed)
	if err != nil {
		return err
	}

	restore, err := redirectLogs(s.LogFile)
	if err != nil {
		return err
	}
	defer restore()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	p := tea.NewProgram(newPage(ctx, client, s).TeaModel(), programOptions(s)...)

	log.Info().Str("backend", client.BaseURL()).Msg("starting tui")

	runCtx, cancel := context.WithCancel(ctx)
	eg := errgroup.Group{}
	eg.Go(func() error {
		defer cancel()
		_, err := p.Run()
		if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			return errors.Wrap(err, "run tui")
		}
		return nil
	})
	eg.Go(func() error {
		<-runCtx.Done()
		p.Quit()
		return nil
	})
	return eg.Wait()
}

func newPage(ctx context.Context, backend page.Backend, s *TUISettings) page.Model {
	return page.New(backend, page.Options{
		Context: ctx,
		Chat: chat.Options{
			DiscardStaleReplies: s.DiscardStaleReplies,
			GlamourStyle:        s.GlamourStyle,
		},
		Briefing: briefing.Options{
			GlamourStyle: s.GlamourStyle,
		},
	})
}

func programOptions(s *TUISettings) []tea.ProgramOption {
	opts := []tea.ProgramOption{tea.WithAltScreen()}
	if !s.NoMouse {
		opts = append(opts, tea.WithMouseCellMotion())
	}
	return opts
}

// redirectLogs keeps the global logger off the terminal while the UI owns it. With a path, logs go
// to that file; without one they are dropped.
func redirectLogs(path string) (func(), error) {
	previous := log.Logger
	if path == "" {
		log.Logger = zerolog.Nop()
		return func() { log.Logger = previous }, nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, errors.Wrapf(err, "open log file %s", path)
	}
	log.Logger = zerolog.New(f).With().Timestamp().Logger().Level(previous.GetLevel())
	return func() {
		log.Logger = previous
		_ = f.Close()
	}, nil
}
