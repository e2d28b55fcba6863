package jira

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	gojira "github.com/andygrunwald/go-jira"
)

// ErrUnexpectedErrorShape is returned when a payload parses as JSON but carries
// neither errorMessages nor errors.
var ErrUnexpectedErrorShape = errors.New("unexpected error payload shape")

const genericErrorMessage = "unknown error from JIRA"

// APIError is a failed JIRA call with the raw response payload
type APIError struct {
	StatusCode int
	Payload    []byte
	Err        error
}

func (e *APIError) Error() string {
	if msg, err := NormalizeError(e.Payload); err == nil && strings.TrimSpace(msg) != "" {
		return strings.TrimSpace(msg)
	}
	if e.Err != nil {
		return fmt.Sprintf("JIRA request failed with status %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("JIRA request failed with status %d", e.StatusCode)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

type errorBody struct {
	ErrorMessages []string          `json:"errorMessages"`
	Errors        map[string]string `json:"errors"`
}

// NormalizeError flattens a JIRA error payload into a single line: every entry of
// errorMessages followed by every value of errors, each one followed by a space.
// The payload may be the bare JIRA body or one wrapped in {"body": ...}.
func NormalizeError(payload []byte) (string, error) {
	var envelope struct {
		Body          *errorBody        `json:"body"`
		ErrorMessages []string          `json:"errorMessages"`
		Errors        map[string]string `json:"errors"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return "", fmt.Errorf("failed to parse error payload: %w", err)
	}

	body := errorBody{ErrorMessages: envelope.ErrorMessages, Errors: envelope.Errors}
	if envelope.Body != nil {
		body = *envelope.Body
	}
	if body.ErrorMessages == nil && body.Errors == nil {
		return "", ErrUnexpectedErrorShape
	}

	return joinMessages(body.ErrorMessages, body.Errors), nil
}

// Field errors are emitted in field name order.
func joinMessages(messages []string, fieldErrors map[string]string) string {
	var b strings.Builder
	for _, msg := range messages {
		b.WriteString(msg)
		b.WriteString(" ")
	}

	fields := make([]string, 0, len(fieldErrors))
	for field := range fieldErrors {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		b.WriteString(fieldErrors[field])
		b.WriteString(" ")
	}

	return b.String()
}

// Describe returns a human-readable message for any error coming out of the
// gateway. It never fails: payloads that cannot be normalized fall back to the
// error text.
func Describe(err error) string {
	if err == nil {
		return ""
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Error()
	}

	var jiraErr *gojira.Error
	if errors.As(err, &jiraErr) {
		if msg := strings.TrimSpace(joinMessages(jiraErr.ErrorMessages, jiraErr.Errors)); msg != "" {
			return msg
		}
	}

	if msg := err.Error(); msg != "" {
		return msg
	}
	return genericErrorMessage
}
