package jira

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	gojira "github.com/andygrunwald/go-jira"

	"jlog/internal/config"
)

// Issue is the subset of a JIRA issue shown in tables
type Issue struct {
	Key      string  `json:"key"`
	Summary  string  `json:"summary"`
	Assignee string  `json:"assignee"`
	Points   float64 `json:"points"`
	Status   string  `json:"status"`
}

// Sprint is a board sprint with its state: active, closed or future
type Sprint struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	State string `json:"state"`
}

// Worklog is a registered unit of time spent on an issue
type Worklog struct {
	ID        string `json:"id"`
	IssueKey  string `json:"issue_key"`
	TimeSpent string `json:"time_spent"`
	Comment   string `json:"comment,omitempty"`
}

// Client talks to JIRA through go-jira. It adds no behaviour besides mapping
// responses into view models and failures into APIError.
type Client struct {
	client           *gojira.Client
	storyPointsField string
	logger           *slog.Logger
}

// NewClient returns a client authenticating with the account email and API token
func NewClient(creds config.Credentials, storyPointsField string) (*Client, error) {
	transport := &gojira.BasicAuthTransport{
		Username: creds.Email,
		Password: creds.Token,
	}
	httpClient := transport.Client()
	httpClient.Timeout = 60 * time.Second

	return newClient(httpClient, creds.URL, storyPointsField)
}

func newClient(httpClient *http.Client, baseURL, storyPointsField string) (*Client, error) {
	client, err := gojira.NewClient(httpClient, baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create JIRA client: %w", err)
	}
	if storyPointsField == "" {
		storyPointsField = config.DefaultStoryPointsField
	}

	return &Client{
		client:           client,
		storyPointsField: storyPointsField,
		logger:           slog.Default().With("component", "jira"),
	}, nil
}

func (c *Client) AddWorklog(ctx context.Context, issueKey, timeSpent, comment string) (*Worklog, error) {
	c.logger.Debug("adding worklog", "issue", issueKey, "time_spent", timeSpent)

	record, resp, err := c.client.Issue.AddWorklogRecordWithContext(ctx, issueKey, &gojira.WorklogRecord{
		TimeSpent: timeSpent,
		Comment:   comment,
	})
	if err != nil {
		return nil, libraryError(resp, err)
	}

	return &Worklog{
		ID:        record.ID,
		IssueKey:  issueKey,
		TimeSpent: timeSpent,
		Comment:   comment,
	}, nil
}

func (c *Client) DeleteWorklog(ctx context.Context, issueKey, worklogID string) error {
	c.logger.Debug("deleting worklog", "issue", issueKey, "worklog", worklogID)

	path := fmt.Sprintf("rest/api/2/issue/%s/worklog/%s", url.PathEscape(issueKey), url.PathEscape(worklogID))
	return c.do(ctx, http.MethodDelete, path, nil)
}

// SearchIssues runs a JQL search and returns at most max issues, following pages
func (c *Client) SearchIssues(ctx context.Context, jql string, max int) ([]Issue, error) {
	var issues []Issue

	for startAt := 0; len(issues) < max; {
		c.logger.Debug("searching issues", "jql", jql, "start_at", startAt)

		page, resp, err := c.client.Issue.SearchWithContext(ctx, jql, &gojira.SearchOptions{
			StartAt:    startAt,
			MaxResults: max - len(issues),
			Fields:     []string{"summary", "assignee", "status", c.storyPointsField},
		})
		if err != nil {
			return nil, libraryError(resp, err)
		}

		issues = append(issues, c.toIssues(page)...)
		startAt += len(page)
		if len(page) == 0 || startAt >= resp.Total {
			break
		}
	}

	return capIssues(issues, max), nil
}

// Sprints lists every sprint of a board in the given state, in board order
func (c *Client) Sprints(ctx context.Context, boardID int, state string) ([]Sprint, error) {
	var sprints []Sprint

	for startAt := 0; ; {
		c.logger.Debug("listing sprints", "board", boardID, "state", state, "start_at", startAt)

		list, resp, err := c.client.Board.GetAllSprintsWithOptionsWithContext(ctx, boardID, &gojira.GetAllSprintsOptions{
			State:         state,
			SearchOptions: gojira.SearchOptions{StartAt: startAt},
		})
		if err != nil {
			return nil, libraryError(resp, err)
		}

		for _, s := range list.Values {
			sprints = append(sprints, Sprint{ID: s.ID, Name: s.Name, State: s.State})
		}

		if list.IsLast || len(list.Values) == 0 {
			break
		}
		startAt += len(list.Values)
	}

	return sprints, nil
}

// SprintIssues returns the issues of a sprint matching jql, up to max. JIRA caps
// the page size on its side, so pages are followed until total is reached.
func (c *Client) SprintIssues(ctx context.Context, boardID, sprintID int, jql string, max int) ([]Issue, error) {
	var issues []Issue

	for startAt := 0; len(issues) < max; {
		c.logger.Debug("listing sprint issues", "board", boardID, "sprint", sprintID, "jql", jql, "start_at", startAt)

		query := url.Values{}
		if jql != "" {
			query.Set("jql", jql)
		}
		query.Set("startAt", strconv.Itoa(startAt))
		query.Set("maxResults", strconv.Itoa(max-len(issues)))
		path := fmt.Sprintf("rest/agile/1.0/board/%d/sprint/%d/issue?%s", boardID, sprintID, query.Encode())

		var page struct {
			Total  int            `json:"total"`
			Issues []gojira.Issue `json:"issues"`
		}
		if err := c.do(ctx, http.MethodGet, path, &page); err != nil {
			return nil, err
		}

		issues = append(issues, c.toIssues(page.Issues)...)
		startAt += len(page.Issues)
		if len(page.Issues) == 0 || startAt >= page.Total {
			break
		}
	}

	return capIssues(issues, max), nil
}

func capIssues(issues []Issue, max int) []Issue {
	if issues == nil {
		return []Issue{}
	}
	if len(issues) > max {
		return issues[:max]
	}
	return issues
}

func (c *Client) do(ctx context.Context, method, path string, result any) error {
	req, err := c.client.NewRequestWithContext(ctx, method, path, nil)
	if err != nil {
		return fmt.Errorf("failed to build JIRA request: %w", err)
	}

	resp, err := c.client.Do(req, result)
	if err != nil {
		if resp == nil || resp.Response == nil {
			return fmt.Errorf("JIRA request failed: %w", err)
		}
		defer func() { _ = resp.Body.Close() }()

		payload, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Payload: payload, Err: err}
	}
	_ = resp.Body.Close()

	return nil
}

// go-jira has already consumed the body of failed responses into a *gojira.Error.
func libraryError(resp *gojira.Response, err error) error {
	if resp == nil || resp.Response == nil {
		return fmt.Errorf("JIRA request failed: %w", err)
	}

	apiErr := &APIError{StatusCode: resp.StatusCode, Err: err}
	var jiraErr *gojira.Error
	if errors.As(err, &jiraErr) {
		if payload, mErr := json.Marshal(errorBody{ErrorMessages: jiraErr.ErrorMessages, Errors: jiraErr.Errors}); mErr == nil {
			apiErr.Payload = payload
		}
	}
	return apiErr
}

func (c *Client) toIssues(issues []gojira.Issue) []Issue {
	result := make([]Issue, 0, len(issues))
	for _, issue := range issues {
		result = append(result, c.toIssue(issue))
	}
	return result
}

func (c *Client) toIssue(issue gojira.Issue) Issue {
	result := Issue{Key: issue.Key}
	if issue.Fields == nil {
		return result
	}

	result.Summary = issue.Fields.Summary
	if issue.Fields.Assignee != nil {
		result.Assignee = issue.Fields.Assignee.DisplayName
	}
	if issue.Fields.Status != nil {
		result.Status = issue.Fields.Status.Name
	}
	result.Points = storyPoints(issue.Fields.Unknowns[c.storyPointsField])

	return result
}

// storyPoints reads an estimate from a custom field value; unset is zero
func storyPoints(value any) float64 {
	switch v := value.(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return 0
}
