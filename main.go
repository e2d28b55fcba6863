package main

import (
	"context"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"jlog/cmd"
)

func main() {
	app := cmd.NewApp(os.Stdout, os.Stderr)

	rootCmd := &cobra.Command{
		Use:   "jlog",
		Short: "Log work time and follow sprints in JIRA",
		Long:  "jlog registers worklogs on JIRA issues through configurable aliases and shows your issues and sprint progress.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			app.SetupLogging()
		},
	}

	rootCmd.PersistentFlags().StringVar(&app.ConfigPath, "config", "", "Path to the configuration file (default ~/.config/jlog/config.json)")
	rootCmd.PersistentFlags().BoolVar(&app.Verbose, "verbose", false, "Enable debug logging on stderr")

	rootCmd.AddCommand(cmd.LogCmd(app))
	rootCmd.AddCommand(cmd.RmlogCmd(app))
	rootCmd.AddCommand(cmd.IssuesCmd(app))
	rootCmd.AddCommand(cmd.SprintCmd(app))
	rootCmd.AddCommand(cmd.ConfigCmd(app))

	if err := fang.Execute(context.Background(), rootCmd); err != nil {
		os.Exit(1)
	}
}
