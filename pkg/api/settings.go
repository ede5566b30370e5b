package api

import (
	"time"

	"github.com/go-go-golems/glazed/pkg/cmds/fields"
	"github.com/go-go-golems/glazed/pkg/cmds/schema"
	"github.com/go-go-golems/glazed/pkg/cmds/values"
	"github.com/pkg/errors"
)

const BackendSlug = "backend"

// Settings holds the backend connection configuration shared by all commands.
type Settings struct {
	URL string `glazed:"backend-url" glazed.default:"http://localhost:8000" glazed.help:"Base URL of the briefing and chat backend"`
	// Timeout in seconds, 0 disables it.
	Timeout int `glazed:"backend-timeout" glazed.default:"0" glazed.help:"Request timeout in seconds (0 = none)"`
}

// NewSection returns the section definition for backend settings.
func NewSection() (schema.Section, error) {
	return schema.NewSection(
		BackendSlug,
		"Backend connection settings",
		schema.WithFields(
			fields.New("backend-url", fields.TypeString,
				fields.WithDefault(DefaultBaseURL),
				fields.WithHelp("Base URL of the briefing and chat backend")),
			fields.New("backend-timeout", fields.TypeInteger,
				fields.WithDefault(0),
				fields.WithHelp("Request timeout in seconds (0 = none)")),
		),
	)
}

// NewClientFromValues decodes the backend section and builds a client.
func NewClientFromValues(parsed *values.Values) (*Client, error) {
	s := &Settings{}
	if err := parsed.DecodeSectionInto(BackendSlug, s); err != nil {
		return nil, errors.Wrap(err, "decode backend settings")
	}
	return NewClientFromSettings(s)
}

func NewClientFromSettings(s *Settings) (*Client, error) {
	if s.Timeout < 0 {
		return nil, errors.Errorf("backend-timeout must not be negative, got %d", s.Timeout)
	}
	return NewClient(s.URL, WithTimeout(time.Duration(s.Timeout)*time.Second))
}
