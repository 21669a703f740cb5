package main

import (
	clay "github.com/go-go-golems/clay/pkg"
	"github.com/go-go-golems/glazed/pkg/cli"
	"github.com/go-go-golems/glazed/pkg/cmds"
	"github.com/go-go-golems/glazed/pkg/cmds/logging"
	"github.com/go-go-golems/glazed/pkg/help"
	help_cmd "github.com/go-go-golems/glazed/pkg/help/cmd"
	"github.com/spf13/cobra"

	bellhop_cmds "github.com/go-go-golems/bellhop/cmd/bellhop/cmds"
)

var rootCmd = &cobra.Command{
	Use:   "bellhop",
	Short: "bellhop is a terminal chat widget for a hotel booking assistant",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// reinitialize the logger because we can now parse --log-level and co
		// from the command line flag
		return logging.InitLoggerFromCobra(cmd)
	},
}

func main() {
	if err := clay.InitGlazed("bellhop", rootCmd); err != nil {
		cobra.CheckErr(err)
	}

	helpSystem := help.NewHelpSystem()
	help_cmd.SetupCobraRootCommand(helpSystem, rootCmd)

	cobra.CheckErr(addCommands(rootCmd))
	cobra.CheckErr(rootCmd.Execute())
}

func addCommands(root *cobra.Command) error {
	chatCommand, err := bellhop_cmds.NewChatCommand()
	if err != nil {
		return err
	}
	speakCommand, err := bellhop_cmds.NewSpeakCommand()
	if err != nil {
		return err
	}
	clipCommand, err := bellhop_cmds.NewClipCommand()
	if err != nil {
		return err
	}

	for _, c := range []cmds.Command{chatCommand, speakCommand, clipCommand} {
		cobraCommand, err := cli.BuildCobraCommand(c)
		if err != nil {
			return err
		}
		root.AddCommand(cobraCommand)
	}
	return nil
}
