package todoist

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompletedFollowsCursorAcrossPages(t *testing.T) {
	var gotAuth string

	var cursors []string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		cursors = append(cursors, r.URL.Query().Get("cursor"))

		switch r.URL.Query().Get("cursor") {
		case "":
			fmt.Fprint(w, `{"items":[{"id":"1","content":"a","completed_at":"2024-02-26T18:00:00Z","priority":2}],"next_cursor":"p2"}`)
		case "p2":
			fmt.Fprint(w, `{"items":[{"id":"2","content":"b","completed_at":"2024-02-27T08:00:00Z","priority":1}],"next_cursor":""}`)
		default:
			t.Errorf("unexpected cursor %q", r.URL.Query().Get("cursor"))
		}
	}))
	defer server.Close()

	client := NewClient("secret", server.URL, server.URL)

	until := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	since := until.Add(-24 * time.Hour)

	items, err := client.CompletedByCompletionDate(since, until)
	require.NoError(t, err)

	require.Len(t, items, 2)
	assert.Equal(t, "1", items[0].ID)
	assert.Equal(t, "2", items[1].ID)
	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, []string{"", "p2"}, cursors)
}

func TestCompletedClampsWindowToNinetyDays(t *testing.T) {
	var gotSince, gotUntil string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSince = r.URL.Query().Get("since")
		gotUntil = r.URL.Query().Get("until")
		fmt.Fprint(w, `{"items":[],"next_cursor":""}`)
	}))
	defer server.Close()

	client := NewClient("secret", server.URL, server.URL)

	until := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	since := until.Add(-200 * 24 * time.Hour)

	_, err := client.CompletedByCompletionDate(since, until)
	require.NoError(t, err)

	// since is advanced so the span is exactly 90 days ending at until.
	assert.Equal(t, until.Add(-MaxWindow).Format(TimeFormat), gotSince)
	assert.Equal(t, until.Format(TimeFormat), gotUntil)
}

func TestCompletedNonSuccessIsStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, strings.Repeat("x", 2000))
	}))
	defer server.Close()

	client := NewClient("secret", server.URL, server.URL)

	_, err := client.CompletedByCompletionDate(time.Now().Add(-time.Hour), time.Now())
	require.Error(t, err)

	var statusErr *StatusError

	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusForbidden, statusErr.StatusCode)
	assert.Len(t, statusErr.Body, 500)
}

func TestProjectsDecodesFlatList(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `[{"id":"10","name":"Inbox"},{"id":"11","name":"Work"}]`)
	}))
	defer server.Close()

	client := NewClient("secret", server.URL, server.URL)

	projects, err := client.Projects()
	require.NoError(t, err)

	require.Len(t, projects, 2)
	assert.Equal(t, "Inbox", projects[0].Name)
}

func TestProjectsDecodesCursoredEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("cursor") == "" {
			fmt.Fprint(w, `{"results":[{"id":"10","name":"Inbox"}],"next_cursor":"more"}`)
			return
		}

		fmt.Fprint(w, `{"results":[{"id":"11","name":"Work"}],"next_cursor":""}`)
	}))
	defer server.Close()

	client := NewClient("secret", server.URL, server.URL)

	projects, err := client.Projects()
	require.NoError(t, err)

	require.Len(t, projects, 2)
	assert.Equal(t, "Work", projects[1].Name)
}

func TestTaskNotFoundOn404(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient("secret", server.URL, server.URL)

	_, err := client.Task("999")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTaskNotFound))
}

func TestTaskDecodesSingleTask(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tasks/42", r.URL.Path)
		fmt.Fprint(w, `{"id":"42","content":"Plan sprint","project_id":"10","parent_id":"7"}`)
	}))
	defer server.Close()

	client := NewClient("secret", server.URL, server.URL)

	task, err := client.Task("42")
	require.NoError(t, err)

	assert.Equal(t, "Plan sprint", task.Content)
	assert.Equal(t, "7", task.ParentID)
}

func TestTaskTransportErrorDegradesToNotFound(t *testing.T) {
	server := httptest.NewServer(nil)
	server.Close() // connection refused from here on

	client := NewClient("secret", server.URL, server.URL)

	_, err := client.Task("42")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTaskNotFound))
}
