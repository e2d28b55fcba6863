package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"jlog/internal/config"
)

// worklogRequest is the payload sent for one `log add`
type worklogRequest struct {
	IssueKey  string
	TimeSpent string
	Comment   string
}

// missingTimeError is reported when neither the command line nor the alias
// provides a time to log. Nothing is sent to JIRA in that case.
type missingTimeError struct {
	alias string
}

func (e *missingTimeError) Error() string {
	return fmt.Sprintf("There is no default time to log in [%s]. You need to specify one", e.alias)
}

// resolveWorklog merges explicit arguments with the alias defaults. Explicit
// values win; an unknown alias is used as the issue key with no defaults.
func resolveWorklog(cfg *config.Config, aliasOrKey string, timeSpent, comment *string) (worklogRequest, error) {
	alias, ok := cfg.Alias(aliasOrKey)
	if !ok {
		alias = config.Alias{Issue: aliasOrKey}
	}

	req := worklogRequest{IssueKey: alias.Issue}

	switch {
	case timeSpent != nil:
		req.TimeSpent = *timeSpent
	case alias.Time != nil:
		req.TimeSpent = *alias.Time
	default:
		return worklogRequest{}, &missingTimeError{alias: aliasOrKey}
	}

	switch {
	case comment != nil:
		req.Comment = *comment
	case alias.Comment != nil:
		req.Comment = *alias.Comment
	}

	return req, nil
}

func LogCmd(app *App) *cobra.Command {
	var comment string

	cmd := &cobra.Command{
		Use:   "log <alias> [time]",
		Short: "Manage worklogs",
		Long: "Add or remove JIRA worklogs. `log <alias> [time]` is a shortcut for `log add`.\n" +
			"An alias names an issue in the configuration, optionally with a default time and comment.",
		Args: cobra.RangeArgs(0, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return runLogAdd(cmd, app, args, comment)
		},
	}

	cmd.Flags().StringVarP(&comment, "comment", "c", "", "Add a comment into the log")

	cmd.AddCommand(logAddCmd(app))
	cmd.AddCommand(logRmCmd(app, "rm"))

	return cmd
}

// RmlogCmd is the top-level `rmlog` shortcut for `log rm`
func RmlogCmd(app *App) *cobra.Command {
	cmd := logRmCmd(app, "rmlog")
	cmd.Hidden = true
	return cmd
}

func logAddCmd(app *App) *cobra.Command {
	var comment string

	cmd := &cobra.Command{
		Use:   "add <alias> [time]",
		Short: "Log time spent on an issue",
		Long:  "Register a worklog on the issue behind <alias>, or on <alias> itself when it is an issue key.",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogAdd(cmd, app, args, comment)
		},
	}

	cmd.Flags().StringVarP(&comment, "comment", "c", "", "Add a comment into the log")

	return cmd
}

func runLogAdd(cmd *cobra.Command, app *App, args []string, comment string) error {
	cfg, err := app.Config()
	if err != nil {
		return err
	}

	var timeSpent, explicitComment *string
	if len(args) > 1 {
		timeSpent = &args[1]
	}
	if cmd.Flags().Changed("comment") {
		explicitComment = &comment
	}

	formatter := app.formatter()

	req, err := resolveWorklog(cfg, args[0], timeSpent, explicitComment)
	if err != nil {
		// A missing time is a usage problem, not a failure
		fmt.Fprint(app.Out, formatter.Notice(err.Error()))
		return nil
	}

	gateway, err := app.Gateway()
	if err != nil {
		return err
	}

	worklog, err := gateway.AddWorklog(cmd.Context(), req.IssueKey, req.TimeSpent, req.Comment)
	if err != nil {
		return remoteError(err)
	}

	fmt.Fprint(app.Out, formatter.FormatWorklogAdded(worklog))
	return nil
}

func logRmCmd(app *App, name string) *cobra.Command {
	return &cobra.Command{
		Use:   name + " <issueKey> <worklogId>",
		Short: "Remove a worklog from an issue",
		Long:  "Delete the worklog <worklogId> from <issueKey>. Aliases are not resolved here.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			issueKey, worklogID := args[0], args[1]

			gateway, err := app.Gateway()
			if err != nil {
				return err
			}

			if err := gateway.DeleteWorklog(cmd.Context(), issueKey, worklogID); err != nil {
				return remoteError(err)
			}

			fmt.Fprint(app.Out, app.formatter().FormatWorklogRemoved(issueKey, worklogID))
			return nil
		},
	}
}
