// Package tracker mirrors completed Todoist tasks into a local activity
// log, restricted to an allow-list of task lineages, and renders the log
// as week-grouped markdown.
package tracker

import (
	"strings"
	"time"
)

// CompletionEvent is one admitted completion record. Immutable once
// stored: never mutated, never deleted.
type CompletionEvent struct {
	ID          string `json:"id"`
	Content     string `json:"content"`
	CompletedAt string `json:"completed_at"`
	ProjectID   string `json:"project_id"`
	ParentID    string `json:"parent_id,omitempty"`
	Priority    int    `json:"priority"`
}

// CompletedTime parses the completion instant. Returns the zero time if
// the stored timestamp is malformed.
func (e CompletionEvent) CompletedTime() time.Time {
	parsed, err := time.Parse(time.RFC3339, e.CompletedAt)
	if err != nil {
		return time.Time{}
	}

	return parsed
}

// TaskInfo is a cached task summary used for chain-walking and parent
// title display. Immutable after first resolution; an upstream edit
// after caching is not reflected.
type TaskInfo struct {
	Content   string `json:"content"`
	ParentID  string `json:"parent_id"`
	ProjectID string `json:"project_id"`
}

// singleLine collapses embedded line breaks to spaces for display.
func singleLine(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")

	return s
}
