package cmds

import (
	"github.com/go-go-golems/glazed/pkg/cmds/fields"
	"github.com/go-go-golems/glazed/pkg/cmds/sources"
	"github.com/go-go-golems/glazed/pkg/cmds/values"
	"github.com/spf13/cobra"
)

// EnvPrefix is the prefix for environment overrides, e.g. MORNING_NEWS_BACKEND_URL.
const EnvPrefix = "MORNING_NEWS"

func GetMiddlewares(
	_ *values.Values,
	cmd *cobra.Command,
	args []string,
) ([]sources.Middleware, error) {
	return []sources.Middleware{
		sources.FromCobra(cmd),
		sources.FromArgs(args),
		sources.FromEnv(EnvPrefix,
			fields.WithSource("env"),
		),
		sources.FromDefaults(),
	}, nil
}

const glamourStyleHelp = "Glamour style for markdown (dark, light, notty, ...). Empty disables markdown rendering"
