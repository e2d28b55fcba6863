package output

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	catppuccin "github.com/catppuccin/go"
	"github.com/charmbracelet/lipgloss/v2"
	"github.com/mattn/go-isatty"
	"github.com/olekukonko/tablewriter"

	"jlog/internal/config"
	"jlog/internal/jira"
)

type Formatter struct {
	styled bool

	// Styles for different components
	titleStyle   lipgloss.Style
	successStyle lipgloss.Style
	noticeStyle  lipgloss.Style
	mutedStyle   lipgloss.Style
}

// isDarkMode detects if the terminal is using a dark theme
func isDarkMode() bool {
	// Check for explicit dark mode environment variables
	if theme := os.Getenv("THEME"); theme == "dark" {
		return true
	}
	if theme := os.Getenv("TERMINAL_THEME"); theme == "dark" {
		return true
	}

	// COLORFGBG format is usually "foreground;background"
	if colorScheme := os.Getenv("COLORFGBG"); colorScheme != "" {
		parts := strings.Split(colorScheme, ";")
		if len(parts) >= 2 {
			bg := parts[len(parts)-1]
			return bg == "0" || bg == "1" || bg == "8"
		}
	}

	// Default to light mode if we can't determine
	return false
}

// isTerminal reports whether w is an interactive terminal
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// NewFormatter returns a formatter for w. Styling is only applied when w is a terminal.
func NewFormatter(w io.Writer) *Formatter {
	if !isTerminal(w) {
		return &Formatter{}
	}

	var flavor catppuccin.Flavor = catppuccin.Latte
	if isDarkMode() {
		flavor = catppuccin.Mocha
	}

	return &Formatter{
		styled: true,
		titleStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(flavor.Mauve().Hex)),
		successStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color(flavor.Green().Hex)),
		noticeStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color(flavor.Peach().Hex)),
		mutedStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color(flavor.Subtext0().Hex)),
	}
}

func (f *Formatter) render(style lipgloss.Style, text string) string {
	if !f.styled {
		return text
	}
	return style.Render(text)
}

func (f *Formatter) Title(text string) string {
	return f.render(f.titleStyle, text) + "\n"
}

func (f *Formatter) Success(text string) string {
	return f.render(f.successStyle, text) + "\n"
}

func (f *Formatter) Notice(text string) string {
	return f.render(f.noticeStyle, text) + "\n"
}

// FormatWorklogAdded is the confirmation printed after a worklog is registered
func (f *Formatter) FormatWorklogAdded(worklog *jira.Worklog) string {
	return f.Success(fmt.Sprintf("Worklog registered with id %s. Ticket: %s, time spent: %s",
		worklog.ID, worklog.IssueKey, worklog.TimeSpent))
}

func (f *Formatter) FormatWorklogRemoved(issueKey, worklogID string) string {
	return f.Success(fmt.Sprintf("Worklog %s removed from issue %s", worklogID, issueKey))
}

// FormatIssues renders a Key / Summary table
func (f *Formatter) FormatIssues(issues []jira.Issue) string {
	if len(issues) == 0 {
		return f.Notice("No issues found.")
	}

	var out strings.Builder
	table := newTable(&out, []string{"Key", "Summary"})
	for _, issue := range issues {
		table.Append([]string{issue.Key, issue.Summary})
	}
	table.Render()

	return out.String()
}

// FormatSprint renders the sprint issues followed by a row holding the story point total
func (f *Formatter) FormatSprint(sprint jira.Sprint, issues []jira.Issue) string {
	var out strings.Builder

	out.WriteString(f.Title(fmt.Sprintf("%s (%s)", sprint.Name, sprint.State)))

	table := newTable(&out, []string{"Key", "Summary", "Assignee", "Points", "Status"})
	for _, issue := range issues {
		table.Append([]string{
			issue.Key,
			issue.Summary,
			issue.Assignee,
			FormatPoints(issue.Points),
			issue.Status,
		})
	}
	table.Append([]string{"", "", "", FormatPoints(TotalPoints(issues)), ""})
	table.Render()

	return out.String()
}

// FormatAliases renders the configured aliases in name order
func (f *Formatter) FormatAliases(cfg *config.Config) string {
	names := cfg.AliasNames()
	if len(names) == 0 {
		return f.Notice("No aliases configured.")
	}

	var out strings.Builder
	table := newTable(&out, []string{"Alias", "Issue", "Time", "Comment"})
	for _, name := range names {
		alias := cfg.Aliases[name]
		table.Append([]string{name, alias.Issue, f.optional(alias.Time), f.optional(alias.Comment)})
	}
	table.Render()

	return out.String()
}

func (f *Formatter) optional(value *string) string {
	if value == nil {
		return f.render(f.mutedStyle, "-")
	}
	return *value
}

// FormatJSON renders any value as indented JSON
func (f *Formatter) FormatJSON(value any) string {
	jsonBytes, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"error": "Failed to marshal JSON: %s"}`, err.Error()) + "\n"
	}

	return string(jsonBytes) + "\n"
}

// TotalPoints sums story points; unset estimates count as zero
func TotalPoints(issues []jira.Issue) float64 {
	var total float64
	for _, issue := range issues {
		total += issue.Points
	}
	return roundPoints(total)
}

// FormatPoints prints whole estimates without decimals
func FormatPoints(points float64) string {
	return strconv.FormatFloat(roundPoints(points), 'f', -1, 64)
}

// roundPoints keeps two decimals so float sums like 0.1+0.2 print as 0.3
func roundPoints(points float64) float64 {
	return math.Round(points*100) / 100
}

func newTable(w io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader(header)
	return table
}
