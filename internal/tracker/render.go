package tracker

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/natefinch/atomic"
)

// Priority markers keyed by upstream ordinal (1 = lowest). Anything
// outside 1-4 renders as the unknown marker.
var priorityMarkers = map[int]string{
	1: "○",
	2: "◎",
	3: "◉",
	4: "●",
}

const unknownPriorityMarker = "◌"

// documentHeader is the first line of the rendered document.
const documentHeader = "# Completed Tasks"

// Renderer materializes the event log as week-grouped markdown.
//
// This is a full re-render: the whole document is regenerated from the
// complete, allow-list-filtered event set on every run, so re-running
// with unchanged inputs produces byte-identical output and removing an
// id from the allow-list retroactively suppresses its lineage. The
// renderer resolves parent titles from already-loaded events or the
// task cache only; it never performs network I/O.
type Renderer struct {
	gate     *Gate
	projects ProjectDirectory
	cache    *TaskCache
	location *time.Location
}

// NewRenderer creates a renderer filtering against the given allow-list.
// The lineage re-check walks the task cache only (no fetcher).
func NewRenderer(allow map[string]bool, projects ProjectDirectory, cache *TaskCache, loc *time.Location) *Renderer {
	return &Renderer{
		gate:     NewGate(allow, NewResolver(cache, nil)),
		projects: projects,
		cache:    cache,
		location: loc,
	}
}

// Render produces the full document for the given event set.
func (r *Renderer) Render(events []CompletionEvent) string {
	kept := make([]CompletionEvent, 0, len(events))

	for _, event := range events {
		if event.CompletedTime().IsZero() {
			continue // malformed timestamps never render
		}

		if r.gate.Allowed(event.ID, event.ParentID) {
			kept = append(kept, event)
		}
	}

	sort.Slice(kept, func(i, j int) bool {
		ti, tj := kept[i].CompletedTime(), kept[j].CompletedTime()
		if ti.Equal(tj) {
			return kept[i].ID < kept[j].ID
		}

		return ti.Before(tj)
	})

	// Parent titles prefer the admitted events themselves over the cache.
	titles := make(map[string]string, len(kept))
	for _, event := range kept {
		titles[event.ID] = singleLine(event.Content)
	}

	var doc strings.Builder

	doc.WriteString(documentHeader)
	doc.WriteString("\n")

	var currentWeek time.Time

	for _, event := range kept {
		local := event.CompletedTime().In(r.location)

		week := weekStart(local)
		if !week.Equal(currentWeek) {
			fmt.Fprintf(&doc, "\n## Week of %s\n\n", week.Format("2006-01-02"))

			currentWeek = week
		}

		doc.WriteString(r.formatEntry(event, local, titles))
	}

	return doc.String()
}

// formatEntry renders one event line.
func (r *Renderer) formatEntry(event CompletionEvent, local time.Time, titles map[string]string) string {
	marker, ok := priorityMarkers[event.Priority]
	if !ok {
		marker = unknownPriorityMarker
	}

	line := fmt.Sprintf("- %s %s %s — %s",
		local.Format("2006-01-02"),
		marker,
		r.projects.Name(event.ProjectID),
		singleLine(event.Content),
	)

	if event.ParentID != "" {
		line += fmt.Sprintf(" (↳ %s)", r.parentTitle(event.ParentID, titles))
	}

	return line + fmt.Sprintf(" <!-- id:%s -->\n", event.ID)
}

// parentTitle resolves a parent's display title from loaded events or
// the task cache, falling back to a placeholder with the raw id.
func (r *Renderer) parentTitle(parentID string, titles map[string]string) string {
	if title, ok := titles[parentID]; ok {
		return title
	}

	if info, ok := r.cache.Get(parentID); ok && info.Content != "" {
		return singleLine(info.Content)
	}

	return "task " + parentID
}

// weekStart returns midnight of the Monday starting the week of t, in
// t's location.
func weekStart(t time.Time) time.Time {
	year, month, day := t.Date()
	date := time.Date(year, month, day, 0, 0, 0, 0, t.Location())

	offset := (int(date.Weekday()) + 6) % 7 // Monday = 0

	return date.AddDate(0, 0, -offset)
}

// WriteDocument writes the rendered document atomically into dataDir.
func WriteDocument(dataDir, document string) error {
	mkdirErr := os.MkdirAll(dataDir, dirPerms)
	if mkdirErr != nil {
		return fmt.Errorf("creating data dir: %w", mkdirErr)
	}

	path := filepath.Join(dataDir, DocumentFileName)

	writeErr := atomic.WriteFile(path, bytes.NewReader([]byte(document)))
	if writeErr != nil {
		return fmt.Errorf("writing document: %w", writeErr)
	}

	return nil
}
