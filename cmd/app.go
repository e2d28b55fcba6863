package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"jlog/internal/config"
	"jlog/internal/jira"
	"jlog/internal/output"
)

// maxIssues caps every issue query
const maxIssues = 1000

// Gateway is the part of the JIRA client the commands use
type Gateway interface {
	AddWorklog(ctx context.Context, issueKey, timeSpent, comment string) (*jira.Worklog, error)
	DeleteWorklog(ctx context.Context, issueKey, worklogID string) error
	SearchIssues(ctx context.Context, jql string, max int) ([]jira.Issue, error)
	Sprints(ctx context.Context, boardID int, state string) ([]jira.Sprint, error)
	SprintIssues(ctx context.Context, boardID, sprintID int, jql string, max int) ([]jira.Issue, error)
}

// App carries what every command needs for one invocation: configuration,
// the JIRA gateway and the output streams. Config and gateway are loaded on
// first use so commands that don't talk to JIRA work without credentials.
type App struct {
	ConfigPath string
	Verbose    bool

	Out io.Writer
	Err io.Writer

	config  *config.Config
	gateway Gateway
}

// NewApp returns an App writing results to out and diagnostics to errOut
func NewApp(out, errOut io.Writer) *App {
	return &App{Out: out, Err: errOut}
}

// SetupLogging installs the default slog handler on the error stream
func (a *App) SetupLogging() {
	level := slog.LevelWarn
	if a.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(a.Err, &slog.HandlerOptions{
		Level: level,
	})))
}

func (a *App) Config() (*config.Config, error) {
	if a.config != nil {
		return a.config, nil
	}

	var (
		cfg *config.Config
		err error
	)
	if a.ConfigPath != "" {
		cfg, err = config.LoadFile(a.ConfigPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	slog.Debug("configuration loaded", "aliases", len(cfg.Aliases), "board", cfg.Board)
	a.config = cfg
	return cfg, nil
}

func (a *App) Gateway() (Gateway, error) {
	if a.gateway != nil {
		return a.gateway, nil
	}

	cfg, err := a.Config()
	if err != nil {
		return nil, err
	}
	if err := cfg.CheckCredentials(); err != nil {
		return nil, err
	}

	client, err := jira.NewClient(cfg.Credentials, cfg.StoryPointsField)
	if err != nil {
		return nil, err
	}

	a.gateway = client
	return client, nil
}

func (a *App) formatter() *output.Formatter {
	return output.NewFormatter(a.Out)
}

// remoteError turns a gateway failure into the message shown to the user
func remoteError(err error) error {
	return fmt.Errorf("an error happened: %s", jira.Describe(err))
}

func validateOutputFormat(outputFormat string) error {
	if outputFormat != "text" && outputFormat != "json" {
		return fmt.Errorf("invalid output format: %s (must be 'text' or 'json')", outputFormat)
	}
	return nil
}
