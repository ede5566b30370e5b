package main

import (
	clay "github.com/go-go-golems/clay/pkg"
	"github.com/go-go-golems/glazed/pkg/cli"
	"github.com/go-go-golems/glazed/pkg/cmds/logging"
	"github.com/go-go-golems/glazed/pkg/help"
	help_cmd "github.com/go-go-golems/glazed/pkg/help/cmd"
	"github.com/go-go-golems/morning-news/cmd/morning-news/cmds"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "morning-news",
	Short: "Morning News AI: your witty news companion in the terminal",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return logging.InitLoggerFromCobra(cmd)
	},
}

func main() {
	err := clay.InitGlazed("morning-news", rootCmd)
	cobra.CheckErr(err)

	helpSystem := help.NewHelpSystem()
	help_cmd.SetupCobraRootCommand(helpSystem, rootCmd)

	tuiCmd, err := cmds.NewTUICommand()
	cobra.CheckErr(err)
	briefingCmd, err := cmds.NewBriefingCommand()
	cobra.CheckErr(err)
	askCmd, err := cmds.NewAskCommand()
	cobra.CheckErr(err)

	cobraTUICmd, err := cli.BuildCobraCommand(tuiCmd, cli.WithCobraMiddlewaresFunc(cmds.GetMiddlewares))
	cobra.CheckErr(err)
	cobraBriefingCmd, err := cli.BuildCobraCommand(briefingCmd, cli.WithCobraMiddlewaresFunc(cmds.GetMiddlewares))
	cobra.CheckErr(err)
	cobraAskCmd, err := cli.BuildCobraCommand(askCmd, cli.WithCobraMiddlewaresFunc(cmds.GetMiddlewares))
	cobra.CheckErr(err)

	rootCmd.AddCommand(cobraTUICmd, cobraBriefingCmd, cobraAskCmd)

	cobra.CheckErr(rootCmd.Execute())
}
