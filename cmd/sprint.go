package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"jlog/internal/jira"
	"jlog/internal/output"
)

const (
	sprintStateActive = "active"
	sprintStateClosed = "closed"
	sprintStateFuture = "future"
)

type sprintFilters struct {
	open bool
	last bool
	next bool
	mine bool
}

// state picks which sprints to list: --last wins over --next
func (f sprintFilters) state() string {
	switch {
	case f.last:
		return sprintStateClosed
	case f.next:
		return sprintStateFuture
	default:
		return sprintStateActive
	}
}

func (f sprintFilters) jql() string {
	var clauses []string
	if f.open {
		clauses = append(clauses, "statusCategory != done")
	}
	if f.mine {
		clauses = append(clauses, "assignee = currentUser()")
	}
	return strings.Join(clauses, " AND ")
}

// selectSprint returns the earliest sprint of the list for upcoming sprints and the most
// recently added one otherwise.
func selectSprint(sprints []jira.Sprint, next bool) (jira.Sprint, bool) {
	if len(sprints) == 0 {
		return jira.Sprint{}, false
	}
	if next {
		return sprints[0], true
	}
	return sprints[len(sprints)-1], true
}

func SprintCmd(app *App) *cobra.Command {
	var filters sprintFilters
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "sprint",
		Short: "Show the issues of a sprint",
		Long: "Show the issues of the active sprint of the configured board with their story points.\n" +
			"Use --last for the last closed sprint and --next for the upcoming one.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateOutputFormat(outputFormat); err != nil {
				return err
			}

			cfg, err := app.Config()
			if err != nil {
				return err
			}
			if cfg.Board == 0 {
				return errors.New(`no board configured: set "board" in the configuration file`)
			}

			gateway, err := app.Gateway()
			if err != nil {
				return err
			}

			state := filters.state()
			sprints, err := gateway.Sprints(cmd.Context(), cfg.Board, state)
			if err != nil {
				return remoteError(err)
			}

			formatter := app.formatter()

			sprint, ok := selectSprint(sprints, state == sprintStateFuture)
			if !ok {
				fmt.Fprint(app.Out, formatter.Notice(fmt.Sprintf("No %s sprint found on board %d.", state, cfg.Board)))
				return nil
			}
			slog.Debug("sprint selected", "id", sprint.ID, "name", sprint.Name, "candidates", len(sprints))

			issues, err := gateway.SprintIssues(cmd.Context(), cfg.Board, sprint.ID, filters.jql(), maxIssues)
			if err != nil {
				return remoteError(err)
			}

			if outputFormat == "json" {
				fmt.Fprint(app.Out, formatter.FormatJSON(struct {
					Sprint      jira.Sprint  `json:"sprint"`
					Issues      []jira.Issue `json:"issues"`
					TotalPoints float64      `json:"total_points"`
				}{
					Sprint:      sprint,
					Issues:      issues,
					TotalPoints: output.TotalPoints(issues),
				}))
				return nil
			}

			fmt.Fprint(app.Out, formatter.FormatSprint(sprint, issues))
			return nil
		},
	}

	cmd.Flags().BoolVar(&filters.open, "open", false, "Only show issues that are not done")
	cmd.Flags().BoolVar(&filters.last, "last", false, "Show the last closed sprint")
	cmd.Flags().BoolVar(&filters.next, "next", false, "Show the next future sprint")
	cmd.Flags().BoolVar(&filters.mine, "mine", false, "Only show issues assigned to you")
	cmd.Flags().StringVarP(&outputFormat, "output", "o", "text", "Output format: 'text' or 'json'")

	return cmd
}
