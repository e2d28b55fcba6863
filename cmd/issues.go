package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func IssuesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "issues",
		Short: "Work with JIRA issues",
	}

	cmd.AddCommand(issuesListCmd(app))

	return cmd
}

// assignedIssuesJQL selects the current user's issues in the configured projects
func assignedIssuesJQL(projects []string) string {
	jql := "assignee = currentUser()"
	if len(projects) > 0 {
		jql = fmt.Sprintf("%s AND project in (%s)", jql, strings.Join(projects, ", "))
	}
	return jql + " ORDER BY updated DESC"
}

func issuesListCmd(app *App) *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the issues assigned to you",
		Long:  "List the issues assigned to the current user in the projects named in the configuration.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateOutputFormat(outputFormat); err != nil {
				return err
			}

			cfg, err := app.Config()
			if err != nil {
				return err
			}

			gateway, err := app.Gateway()
			if err != nil {
				return err
			}

			issues, err := gateway.SearchIssues(cmd.Context(), assignedIssuesJQL(cfg.Projects), maxIssues)
			if err != nil {
				return remoteError(err)
			}

			formatter := app.formatter()
			if outputFormat == "json" {
				fmt.Fprint(app.Out, formatter.FormatJSON(issues))
				return nil
			}

			fmt.Fprint(app.Out, formatter.FormatIssues(issues))
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "output", "o", "text", "Output format: 'text' or 'json'")

	return cmd
}
