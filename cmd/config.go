package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"jlog/internal/config"
)

func ConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration settings",
		Long:  "View the jlog configuration: JIRA credentials, board, projects and aliases.",
	}

	cmd.AddCommand(configShowCmd(app))
	cmd.AddCommand(configPathCmd(app))
	cmd.AddCommand(configAliasesCmd(app))

	return cmd
}

func configShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long:  "Display the current configuration with the API token masked.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.Config()
			if err != nil {
				return err
			}

			out := app.Out
			fmt.Fprintln(out, "Current Configuration:")
			fmt.Fprintf(out, "\nJIRA:")
			fmt.Fprintf(out, "\n  URL: %s", orNotSet(cfg.Credentials.URL))
			fmt.Fprintf(out, "\n  Email: %s", orNotSet(cfg.Credentials.Email))
			fmt.Fprintf(out, "\n  Token: %s", maskToken(cfg.Credentials.Token))

			fmt.Fprintf(out, "\n\nAgile:")
			fmt.Fprintf(out, "\n  Board: %s", boardString(cfg.Board))
			fmt.Fprintf(out, "\n  Projects: %s", orNotSet(strings.Join(cfg.Projects, ", ")))
			fmt.Fprintf(out, "\n  Story points field: %s", cfg.StoryPointsField)

			fmt.Fprintf(out, "\n\nAliases: %d", len(cfg.Aliases))
			fmt.Fprintln(out)

			return nil
		},
	}
}

func configPathCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		Long:  "Display the path to the configuration file.",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := app.ConfigPath
			if path == "" {
				var err error
				path, err = config.GetConfigPath()
				if err != nil {
					return fmt.Errorf("failed to get config path: %w", err)
				}
			}

			fmt.Fprintf(app.Out, "Configuration file: %s\n", path)
			return nil
		},
	}
}

func configAliasesCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "aliases",
		Short: "List configured aliases",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.Config()
			if err != nil {
				return err
			}

			fmt.Fprint(app.Out, app.formatter().FormatAliases(cfg))
			return nil
		},
	}
}

func maskToken(token string) string {
	if token == "" {
		return "(not set)"
	}
	if len(token) <= 8 {
		return "****"
	}
	return token[:4] + "****" + token[len(token)-4:]
}

func orNotSet(value string) string {
	if value == "" {
		return "(not set)"
	}
	return value
}

func boardString(board int) string {
	if board == 0 {
		return "(not set)"
	}
	return fmt.Sprintf("%d", board)
}
