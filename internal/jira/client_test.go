package jira

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"jlog/internal/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := newClient(srv.Client(), srv.URL, "")
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	return client
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func TestNewClient(t *testing.T) {
	client, err := NewClient(config.Credentials{
		URL:   "https://example.atlassian.net",
		Email: "test@example.com",
		Token: "testtoken",
	}, "")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if client.storyPointsField != config.DefaultStoryPointsField {
		t.Errorf("Expected default story points field, got %q", client.storyPointsField)
	}
}

func TestClient_AddWorklog(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/rest/api/2/issue/CORE-1/worklog" {
			t.Errorf("Unexpected request %s %s", r.Method, r.URL.Path)
		}

		var body struct {
			TimeSpent string `json:"timeSpent"`
			Comment   string `json:"comment"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("Failed to decode body: %v", err)
		}
		if body.TimeSpent != "1h 30m" || body.Comment != "Reviewing" {
			t.Errorf("Unexpected payload: %+v", body)
		}

		writeJSON(w, http.StatusCreated, `{"id":"10001","timeSpent":"1h 30m"}`)
	})

	worklog, err := client.AddWorklog(context.Background(), "CORE-1", "1h 30m", "Reviewing")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if worklog.ID != "10001" {
		t.Errorf("Expected worklog id 10001, got %q", worklog.ID)
	}
	if worklog.IssueKey != "CORE-1" || worklog.TimeSpent != "1h 30m" {
		t.Errorf("Unexpected worklog: %+v", worklog)
	}
}

func TestClient_AddWorklog_Error(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, `{"errorMessages":[],"errors":{"timeSpent":"Invalid time duration entered."}}`)
	})

	_, err := client.AddWorklog(context.Background(), "CORE-1", "forever", "")
	if err == nil {
		t.Fatal("Expected error, got nil")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected *APIError, got %T", err)
	}
	if apiErr.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", apiErr.StatusCode)
	}
	if got := Describe(err); got != "Invalid time duration entered." {
		t.Errorf("Unexpected message %q", got)
	}
}

func TestClient_DeleteWorklog(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != "/rest/api/2/issue/CORE-1/worklog/10001" {
			t.Errorf("Unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.WriteHeader(http.StatusNoContent)
	})

	if err := client.DeleteWorklog(context.Background(), "CORE-1", "10001"); err != nil {
		t.Errorf("Expected no error, got: %v", err)
	}
}

func TestClient_DeleteWorklog_Error(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, `{"errorMessages":["Cannot find worklog with id: 99"],"errors":{}}`)
	})

	err := client.DeleteWorklog(context.Background(), "CORE-1", "99")
	if err == nil {
		t.Fatal("Expected error, got nil")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected *APIError, got %T", err)
	}
	if string(apiErr.Payload) == "" {
		t.Error("Expected raw payload to be kept")
	}
	if got := Describe(err); got != "Cannot find worklog with id: 99" {
		t.Errorf("Unexpected message %q", got)
	}
}

func TestClient_SearchIssues(t *testing.T) {
	jql := "assignee = currentUser() AND project in (CORE, OPS)"
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/api/2/search" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("jql"); got != jql {
			t.Errorf("Expected jql %q, got %q", jql, got)
		}
		writeJSON(w, http.StatusOK, `{"startAt":0,"maxResults":50,"total":2,"issues":[
			{"key":"CORE-1","fields":{"summary":"Fix login","status":{"name":"To Do"}}},
			{"key":"OPS-2","fields":{"summary":"Rotate keys","assignee":{"displayName":"Dana"}}}
		]}`)
	})

	issues, err := client.SearchIssues(context.Background(), jql, 50)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(issues) != 2 {
		t.Fatalf("Expected 2 issues, got %d", len(issues))
	}
	if issues[0].Key != "CORE-1" || issues[0].Summary != "Fix login" || issues[0].Status != "To Do" {
		t.Errorf("Unexpected first issue: %+v", issues[0])
	}
	if issues[1].Assignee != "Dana" {
		t.Errorf("Expected assignee Dana, got %q", issues[1].Assignee)
	}
}

func TestClient_Sprints(t *testing.T) {
	calls := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.URL.Path != "/rest/agile/1.0/board/7/sprint" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("state"); got != "closed" {
			t.Errorf("Expected state closed, got %q", got)
		}

		startAt, _ := strconv.Atoi(r.URL.Query().Get("startAt"))
		if startAt == 0 {
			writeJSON(w, http.StatusOK, `{"maxResults":2,"startAt":0,"isLast":false,"values":[
				{"id":1,"name":"Sprint 1","state":"closed"},
				{"id":2,"name":"Sprint 2","state":"closed"}
			]}`)
			return
		}
		writeJSON(w, http.StatusOK, `{"maxResults":2,"startAt":2,"isLast":true,"values":[
			{"id":3,"name":"Sprint 3","state":"closed"}
		]}`)
	})

	sprints, err := client.Sprints(context.Background(), 7, "closed")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if calls != 2 {
		t.Errorf("Expected 2 page requests, got %d", calls)
	}
	if len(sprints) != 3 || sprints[2].ID != 3 || sprints[2].Name != "Sprint 3" {
		t.Errorf("Unexpected sprints: %+v", sprints)
	}
}

func TestClient_SprintIssues(t *testing.T) {
	jql := "statusCategory != done AND assignee = currentUser()"
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/agile/1.0/board/7/sprint/3/issue" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("jql"); got != jql {
			t.Errorf("Expected jql %q, got %q", jql, got)
		}
		if got := r.URL.Query().Get("maxResults"); got != "1000" {
			t.Errorf("Expected maxResults 1000, got %q", got)
		}
		writeJSON(w, http.StatusOK, `{"issues":[
			{"key":"CORE-1","fields":{"summary":"A","customfield_10016":5,"status":{"name":"Done"}}},
			{"key":"CORE-2","fields":{"summary":"B","customfield_10016":null}}
		]}`)
	})

	issues, err := client.SprintIssues(context.Background(), 7, 3, jql, 1000)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(issues) != 2 {
		t.Fatalf("Expected 2 issues, got %d", len(issues))
	}
	if issues[0].Points != 5 {
		t.Errorf("Expected 5 points, got %v", issues[0].Points)
	}
	if issues[1].Points != 0 {
		t.Errorf("Expected missing points to be 0, got %v", issues[1].Points)
	}
}

func TestClient_SprintIssues_NoFilter(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if _, ok := r.URL.Query()["jql"]; ok {
			t.Error("Expected no jql parameter without filters")
		}
		writeJSON(w, http.StatusOK, `{"issues":[]}`)
	})

	issues, err := client.SprintIssues(context.Background(), 7, 3, "", 1000)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(issues) != 0 {
		t.Errorf("Expected no issues, got %d", len(issues))
	}
}

// cappedIssuePages serves total issues, never more than pageSize per response,
// the way JIRA clamps maxResults on its side.
func cappedIssuePages(t *testing.T, total, pageSize int, requests *int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		*requests++

		startAt, _ := strconv.Atoi(r.URL.Query().Get("startAt"))
		maxResults, _ := strconv.Atoi(r.URL.Query().Get("maxResults"))
		if maxResults == 0 || maxResults > pageSize {
			maxResults = pageSize
		}

		var issues []string
		for i := startAt; i < total && i < startAt+maxResults; i++ {
			issues = append(issues, fmt.Sprintf(`{"key":"CORE-%d","fields":{"summary":"Task %d","customfield_10016":1}}`, i+1, i+1))
		}

		writeJSON(w, http.StatusOK, fmt.Sprintf(`{"startAt":%d,"maxResults":%d,"total":%d,"issues":[%s]}`,
			startAt, maxResults, total, strings.Join(issues, ",")))
	}
}

func TestClient_SprintIssues_FollowsPages(t *testing.T) {
	requests := 0
	client := newTestClient(t, cappedIssuePages(t, 120, 50, &requests))

	issues, err := client.SprintIssues(context.Background(), 7, 3, "", 1000)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if len(issues) != 120 {
		t.Fatalf("Expected all 120 issues, got %d", len(issues))
	}
	if requests != 3 {
		t.Errorf("Expected 3 page requests, got %d", requests)
	}
	if issues[0].Key != "CORE-1" || issues[119].Key != "CORE-120" {
		t.Errorf("Unexpected ordering: first %s, last %s", issues[0].Key, issues[119].Key)
	}
}

func TestClient_SprintIssues_StopsAtMax(t *testing.T) {
	requests := 0
	client := newTestClient(t, cappedIssuePages(t, 120, 50, &requests))

	issues, err := client.SprintIssues(context.Background(), 7, 3, "", 70)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if len(issues) != 70 {
		t.Errorf("Expected 70 issues, got %d", len(issues))
	}
	if requests != 2 {
		t.Errorf("Expected 2 page requests, got %d", requests)
	}
}

func TestClient_SearchIssues_FollowsPages(t *testing.T) {
	requests := 0
	client := newTestClient(t, cappedIssuePages(t, 75, 50, &requests))

	issues, err := client.SearchIssues(context.Background(), "assignee = currentUser()", 1000)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if len(issues) != 75 {
		t.Errorf("Expected all 75 issues, got %d", len(issues))
	}
	if requests != 2 {
		t.Errorf("Expected 2 page requests, got %d", requests)
	}
}

func TestStoryPoints(t *testing.T) {
	tests := []struct {
		name     string
		value    any
		expected float64
	}{
		{name: "float", value: 3.5, expected: 3.5},
		{name: "int", value: 8, expected: 8},
		{name: "numeric string", value: "2", expected: 2},
		{name: "garbage string", value: "lots", expected: 0},
		{name: "nil", value: nil, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := storyPoints(tt.value); got != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}
