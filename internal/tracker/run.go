package tracker

import (
	"fmt"
	"time"

	"github.com/jittania/todoist-tracker/internal/todoist"
)

// Upstream is the full API surface one sync run needs.
type Upstream interface {
	TaskFetcher
	CompletedByCompletionDate(since, until time.Time) ([]todoist.Item, error)
	Projects() ([]todoist.Project, error)
}

// SyncInput holds the inputs for one sync run.
type SyncInput struct {
	Config Config
	Client Upstream
	Now    time.Time
}

// SyncResult summarizes what a run did.
type SyncResult struct {
	NoOp     bool // empty allow-list, nothing touched
	Fetched  int  // raw items returned by the upstream
	Admitted int  // new events appended to the store
}

// Sync performs one full run: fetch the window, admit new items through
// the allow-list gate, append them to the event store, re-render the
// document, and persist the merged task cache and the new watermark.
//
// All persistence happens only after fetch and admission succeed: a
// failure during fetch leaves every file exactly as it was. An empty
// allow-list is a hard safety rule: the run admits nothing and writes
// nothing, but still succeeds.
func Sync(input SyncInput) (SyncResult, error) {
	allow := input.Config.AllowSet()
	if len(allow) == 0 {
		return SyncResult{NoOp: true}, nil
	}

	var result SyncResult

	err := WithRunLock(input.Config.DataDirAbs, func() error {
		var runErr error

		result, runErr = syncLocked(input, allow)

		return runErr
	})
	if err != nil {
		return SyncResult{}, err
	}

	return result, nil
}

func syncLocked(input SyncInput, allow map[string]bool) (SyncResult, error) {
	dataDir := input.Config.DataDirAbs

	state := LoadRunState(dataDir)
	since, until := state.Window(input.Now)

	cache := LoadTaskCache(dataDir)
	store := NewEventStore(dataDir)

	existing, err := store.Load()
	if err != nil {
		return SyncResult{}, err
	}

	items, err := input.Client.CompletedByCompletionDate(since, until)
	if err != nil {
		return SyncResult{}, fmt.Errorf("fetching completed tasks: %w", err)
	}

	projects, err := input.Client.Projects()
	if err != nil {
		return SyncResult{}, fmt.Errorf("fetching projects: %w", err)
	}

	directory := NewProjectDirectory(projects)
	gate := NewGate(allow, NewResolver(cache, input.Client))

	admitted := admit(items, existing, gate)

	appendErr := store.Append(admitted)
	if appendErr != nil {
		return SyncResult{}, appendErr
	}

	renderer := NewRenderer(allow, directory, cache, input.Config.Location())
	document := renderer.Render(append(existing, admitted...))

	writeErr := WriteDocument(dataDir, document)
	if writeErr != nil {
		return SyncResult{}, writeErr
	}

	saveErr := directory.Save(dataDir)
	if saveErr != nil {
		return SyncResult{}, saveErr
	}

	persistErr := cache.Persist()
	if persistErr != nil {
		return SyncResult{}, persistErr
	}

	newState := RunState{LastRunISO: until.UTC().Format(todoist.TimeFormat)}

	stateErr := newState.Save(dataDir)
	if stateErr != nil {
		return SyncResult{}, stateErr
	}

	return SyncResult{Fetched: len(items), Admitted: len(admitted)}, nil
}

// admit runs each fetched item through the gate, skipping items already
// present in the store (or admitted earlier in this batch) and items
// with an unusable completion timestamp.
func admit(items []todoist.Item, existing []CompletionEvent, gate *Gate) []CompletionEvent {
	seen := make(map[string]bool, len(existing))
	for _, event := range existing {
		seen[event.ID] = true
	}

	var admitted []CompletionEvent

	for _, item := range items {
		if item.ID == "" || seen[item.ID] {
			continue
		}

		_, parseErr := time.Parse(time.RFC3339, item.CompletedAt)
		if parseErr != nil {
			continue
		}

		if !gate.Allowed(item.ID, item.ParentID) {
			continue
		}

		seen[item.ID] = true

		admitted = append(admitted, CompletionEvent{
			ID:          item.ID,
			Content:     item.Content,
			CompletedAt: item.CompletedAt,
			ProjectID:   item.ProjectID,
			ParentID:    item.ParentID,
			Priority:    item.Priority,
		})
	}

	return admitted
}

// Rerender regenerates the document from the local event store and the
// current allow-list without touching the network. The project directory
// is whatever the last sync persisted; unknown ids render as "Unknown".
//
// An empty allow-list is a no-op here too: a misconfigured invocation
// must not wipe the existing document.
func Rerender(cfg Config) (int, bool, error) {
	if len(cfg.AllowSet()) == 0 {
		return 0, true, nil
	}

	rendered := 0

	err := WithRunLock(cfg.DataDirAbs, func() error {
		store := NewEventStore(cfg.DataDirAbs)

		events, err := store.Load()
		if err != nil {
			return err
		}

		cache := LoadTaskCache(cfg.DataDirAbs)
		directory := LoadProjectDirectory(cfg.DataDirAbs)

		renderer := NewRenderer(cfg.AllowSet(), directory, cache, cfg.Location())
		document := renderer.Render(events)

		writeErr := WriteDocument(cfg.DataDirAbs, document)
		if writeErr != nil {
			return writeErr
		}

		rendered = len(events)

		return nil
	})
	if err != nil {
		return 0, false, err
	}

	return rendered, false, nil
}
