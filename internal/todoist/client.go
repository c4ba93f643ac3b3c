// Package todoist is a read-only client for the Todoist HTTP API.
//
// It covers exactly the surface the tracker consumes: completed tasks by
// completion date (cursor-paginated, 90-day window limit), the project
// list, active tasks, and single-task reads. All calls are authenticated
// with a Bearer token and use a fixed per-request timeout. There are no
// retries; a failed list call is fatal to the run and a failed single-task
// read degrades to not-found.
package todoist

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// API endpoints. The unified v1 API serves completed-task history;
// the REST v2 surface serves projects, active tasks, and single tasks.
const (
	DefaultAPIBaseURL  = "https://api.todoist.com/api/v1"
	DefaultRESTBaseURL = "https://api.todoist.com/rest/v2"
)

// MaxWindow is the widest span the completed endpoint will answer for.
const MaxWindow = 90 * 24 * time.Hour

// requestTimeout is the fixed socket timeout for every request.
const requestTimeout = 30 * time.Second

// maxErrorBody bounds how much of an error response body is kept.
const maxErrorBody = 500

// TimeFormat is the timestamp format the API expects for since/until.
const TimeFormat = "2006-01-02T15:04:05Z"

// ErrTaskNotFound indicates a single-task read did not produce a task.
// Covers 404 and any transport failure on that one request; callers
// treat both the same way (the task is unresolvable).
var ErrTaskNotFound = errors.New("task not found")

// StatusError is a non-2xx response on a list/fetch call.
// It carries the status and a truncated body for the fatal-error log line.
type StatusError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("todoist: %s: %s", e.Status, e.Body)
}

// Client talks to the Todoist API with a Bearer token.
type Client struct {
	token   string
	apiURL  string
	restURL string
	http    *http.Client
}

// NewClient creates a Client for the given token.
// Empty base URLs fall back to the production endpoints.
func NewClient(token, apiURL, restURL string) *Client {
	if apiURL == "" {
		apiURL = DefaultAPIBaseURL
	}

	if restURL == "" {
		restURL = DefaultRESTBaseURL
	}

	return &Client{
		token:   token,
		apiURL:  apiURL,
		restURL: restURL,
		http:    &http.Client{Timeout: requestTimeout},
	}
}

// CompletedByCompletionDate fetches every completed item in [since, until],
// following the cursor until the response carries none.
//
// The window is clamped to MaxWindow by advancing since; the recent end of
// the window always wins. Items are returned in upstream page order,
// concatenated across pages.
func (c *Client) CompletedByCompletionDate(since, until time.Time) ([]Item, error) {
	if until.Sub(since) > MaxWindow {
		since = until.Add(-MaxWindow)
	}

	var all []Item

	cursor := ""

	for {
		query := url.Values{}
		query.Set("since", since.UTC().Format(TimeFormat))
		query.Set("until", until.UTC().Format(TimeFormat))

		if cursor != "" {
			query.Set("cursor", cursor)
		}

		body, err := c.get(c.apiURL + "/tasks/completed/by_completion_date?" + query.Encode())
		if err != nil {
			return nil, err
		}

		var page completedResponse

		unmarshalErr := json.Unmarshal(body, &page)
		if unmarshalErr != nil {
			return nil, fmt.Errorf("todoist: decoding completed response: %w", unmarshalErr)
		}

		all = append(all, page.Items...)

		cursor = page.NextCursor
		if cursor == "" {
			break
		}
	}

	return all, nil
}

// Projects fetches the full project list.
//
// The endpoint has two shapes across API generations: a flat JSON array,
// or an object with the list under "projects" or "results" plus an
// optional next_cursor. The shape is sniffed once per page from the first
// byte of the body.
func (c *Client) Projects() ([]Project, error) {
	var all []Project

	cursor := ""

	for {
		endpoint := c.restURL + "/projects"
		if cursor != "" {
			endpoint += "?cursor=" + url.QueryEscape(cursor)
		}

		body, err := c.get(endpoint)
		if err != nil {
			return nil, err
		}

		projects, nextCursor, decodeErr := decodeProjects(body)
		if decodeErr != nil {
			return nil, decodeErr
		}

		all = append(all, projects...)

		cursor = nextCursor
		if cursor == "" {
			break
		}
	}

	return all, nil
}

// decodeProjects decodes either projects response shape.
func decodeProjects(body []byte) ([]Project, string, error) {
	trimmed := bytes.TrimLeft(body, " \t\r\n")

	if len(trimmed) > 0 && trimmed[0] == '[' {
		var flat []Project

		err := json.Unmarshal(trimmed, &flat)
		if err != nil {
			return nil, "", fmt.Errorf("todoist: decoding project list: %w", err)
		}

		return flat, "", nil
	}

	var envelope projectsEnvelope

	err := json.Unmarshal(trimmed, &envelope)
	if err != nil {
		return nil, "", fmt.Errorf("todoist: decoding project list: %w", err)
	}

	return envelope.list(), envelope.NextCursor, nil
}

// ActiveTasks fetches all active tasks (flat REST v2 list, no cursor).
func (c *Client) ActiveTasks() ([]Task, error) {
	body, err := c.get(c.restURL + "/tasks")
	if err != nil {
		return nil, err
	}

	var tasks []Task

	unmarshalErr := json.Unmarshal(body, &tasks)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("todoist: decoding task list: %w", unmarshalErr)
	}

	return tasks, nil
}

// Task fetches a single task by id.
//
// Any failure (404, other status, transport error, bad JSON) returns
// ErrTaskNotFound: one broken ancestor lookup must degrade only that
// lineage's admission decision, never the whole run.
func (c *Client) Task(id string) (Task, error) {
	body, err := c.get(c.restURL + "/tasks/" + url.PathEscape(id))
	if err != nil {
		return Task{}, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}

	var task Task

	unmarshalErr := json.Unmarshal(body, &task)
	if unmarshalErr != nil {
		return Task{}, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}

	return task, nil
}

// get performs an authenticated GET and returns the body.
// Non-2xx responses become a *StatusError with a truncated body.
func (c *Client) get(endpoint string) ([]byte, error) {
	req, err := http.NewRequest(http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("todoist: building request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("todoist: request failed: %w", err)
	}

	defer func() { _ = resp.Body.Close() }()

	body, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return nil, fmt.Errorf("todoist: reading response: %w", readErr)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		truncated := body
		if len(truncated) > maxErrorBody {
			truncated = truncated[:maxErrorBody]
		}

		return nil, &StatusError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(truncated),
		}
	}

	return body, nil
}
