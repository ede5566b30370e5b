package cmds

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/go-go-golems/glazed/pkg/cmds"
	"github.com/go-go-golems/glazed/pkg/cmds/fields"
	"github.com/go-go-golems/glazed/pkg/cmds/values"
	"github.com/go-go-golems/morning-news/pkg/api"
	"github.com/go-go-golems/morning-news/pkg/chat"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

type AskCommand struct {
	*cmds.CommandDescription
}

type AskSettings struct {
	Message      string `glazed:"message"`
	SessionID    string `glazed:"session-id"`
	GlamourStyle string `glazed:"glamour-style"`
	PrintSession bool   `glazed:"print-session"`
}

var _ cmds.WriterCommand = (*AskCommand)(nil)

func NewAskCommand() (*AskCommand, error) {
	backendSection, err := api.NewSection()
	if err != nil {
		return nil, err
	}

	return &AskCommand{
		CommandDescription: cmds.NewCommandDescription(
			"ask",
			cmds.WithShort("Ask the news assistant a single question"),
			cmds.WithLong("Send one message to the news assistant and print its reply. A new session is created unless --session-id is given."),
			cmds.WithFlags(
				fields.New(
					"session-id",
					fields.TypeString,
					fields.WithDefault(""),
					fields.WithHelp("Continue an existing chat session"),
				),
				fields.New(
					"glamour-style",
					fields.TypeString,
					fields.WithDefault("dark"),
					fields.WithHelp(glamourStyleHelp),
				),
				fields.New(
					"print-session",
					fields.TypeBool,
					fields.WithDefault(false),
					fields.WithHelp("Print the session id after the reply so it can be reused"),
				),
			),
			cmds.WithArguments(
				fields.New(
					"message",
					fields.TypeString,
					fields.WithHelp("Message to send"),
					fields.WithRequired(true),
				),
			),
			cmds.WithSections(backendSection),
		),
	}, nil
}

func (c *AskCommand) RunIntoWriter(
	ctx context.Context,
	parsed *values.Values,
	w io.Writer,
) error {
	s := &AskSettings{}
	if err := parsed.DecodeSectionInto(values.DefaultSlug, s); err != nil {
		return err
	}
	client, err := api.NewClientFromValues(parsed)
	if err != nil {
		return err
	}

	style := s.GlamourStyle
	if f, ok := w.(*os.File); !ok || !isatty.IsTerminal(f.Fd()) {
		style = ""
	}
	return ask(ctx, client, s, style, w)
}

// ask runs a single exchange through the chat widget and writes the reply. The widget absorbs
// backend failures into a fallback reply; that reply is still printed and the failure returned.
func ask(ctx context.Context, backend chat.Backend, s *AskSettings, style string, w io.Writer) error {
	if strings.TrimSpace(s.Message) == "" {
		return errors.New("message must not be empty")
	}

	m := chat.New(backend, chat.Options{Context: ctx})
	if s.SessionID != "" {
		m = m.SetSessionID(s.SessionID)
	}
	m, cmd := m.Send(s.Message)
	m = chat.Settle(m, cmd)

	tr := m.Transcript()
	reply := tr[len(tr)-1].Content
	if style != "" {
		out, err := glamour.Render(reply, style)
		if err != nil {
			log.Warn().Err(err).Str("style", style).Msg("could not render reply")
		} else {
			reply = strings.TrimRight(out, "\n")
		}
	}
	if _, err := fmt.Fprintln(w, reply); err != nil {
		return err
	}
	if s.PrintSession && m.SessionID() != chat.NoSession {
		if _, err := fmt.Fprintf(w, "session: %s\n", m.SessionID()); err != nil {
			return err
		}
	}

	if err := m.LastError(); err != nil {
		return errors.Wrap(err, "assistant did not answer")
	}
	return nil
}
