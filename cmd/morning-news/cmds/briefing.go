package cmds

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/go-go-golems/glazed/pkg/cli"
	"github.com/go-go-golems/glazed/pkg/cmds"
	"github.com/go-go-golems/glazed/pkg/cmds/fields"
	"github.com/go-go-golems/glazed/pkg/cmds/values"
	"github.com/go-go-golems/glazed/pkg/middlewares"
	"github.com/go-go-golems/glazed/pkg/settings"
	"github.com/go-go-golems/glazed/pkg/types"
	"github.com/go-go-golems/morning-news/pkg/api"
	"github.com/go-go-golems/morning-news/pkg/briefing"
	"github.com/pkg/errors"
)

type BriefingCommand struct {
	*cmds.CommandDescription
}

type BriefingSettings struct {
	Category    string `glazed:"category"`
	All         bool   `glazed:"all"`
	WithSummary bool   `glazed:"with-summary"`
}

var _ cmds.GlazeCommand = &BriefingCommand{}

func NewBriefingCommand() (*BriefingCommand, error) {
	glazedSection, err := settings.NewGlazedSection()
	if err != nil {
		return nil, err
	}
	commandSettingsSection, err := cli.NewCommandSettingsSection()
	if err != nil {
		return nil, err
	}
	backendSection, err := api.NewSection()
	if err != nil {
		return nil, err
	}

	desc := cmds.NewCommandDescription(
		"briefing",
		cmds.WithShort("Fetch the morning briefing and list its articles"),
		cmds.WithLong("Fetch the morning briefing once and emit one row per article, optionally preceded by the AI summary."),
		cmds.WithFlags(
			fields.New(
				"category",
				fields.TypeString,
				fields.WithDefault(briefing.AllCategories),
				fields.WithHelp("Only list articles of this category"),
			),
			fields.New(
				"all",
				fields.TypeBool,
				fields.WithDefault(false),
				fields.WithHelp("List every article instead of the first five"),
			),
			fields.New(
				"with-summary",
				fields.TypeBool,
				fields.WithDefault(false),
				fields.WithHelp("Emit the briefing summary as a leading row"),
			),
		),
		cmds.WithSections(glazedSection, commandSettingsSection, backendSection),
	)

	return &BriefingCommand{CommandDescription: desc}, nil
}

func (c *BriefingCommand) RunIntoGlazeProcessor(
	ctx context.Context,
	parsed *values.Values,
	gp middlewares.Processor,
) error {
	s := &BriefingSettings{}
	if err := parsed.DecodeSectionInto(values.DefaultSlug, s); err != nil {
		return err
	}
	client, err := api.NewClientFromValues(parsed)
	if err != nil {
		return err
	}

	b, err := client.GetBriefing(ctx)
	if err != nil {
		return errors.Wrap(err, "fetch briefing")
	}
	rows, err := briefingRows(b, s)
	if err != nil {
		return err
	}
	for _, row := range rows {
		if err := gp.AddRow(ctx, row); err != nil {
			return err
		}
	}
	return nil
}

// briefingRows renders the briefing as output rows: an optional summary row followed by the
// articles selected by the category and preview settings.
func briefingRows(b *api.Briefing, s *BriefingSettings) ([]types.Row, error) {
	if s.Category != briefing.AllCategories && !slices.Contains(b.Categories, s.Category) {
		return nil, errors.Errorf("unknown category %q (available: %s)", s.Category, strings.Join(b.Categories, ", "))
	}

	var rows []types.Row
	if s.WithSummary {
		rows = append(rows, types.NewRow(
			types.MRP("kind", "summary"),
			types.MRP("rank", 0),
			types.MRP("title", b.Summary),
			types.MRP("published_at", formatTime(b.GeneratedAt)),
		))
	}

	shown := briefing.Visible(briefing.FilterByCategory(b.Articles, s.Category), s.All)
	for i, a := range shown {
		rows = append(rows, types.NewRow(
			types.MRP("kind", "article"),
			types.MRP("rank", i+1),
			types.MRP("id", a.ID),
			types.MRP("category", a.Category),
			types.MRP("source", a.Source),
			types.MRP("title", a.Title),
			types.MRP("published_at", formatTime(a.PublishedAt)),
			types.MRP("url", a.URL),
		))
	}
	return rows, nil
}

func formatTime(t api.Timestamp) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
