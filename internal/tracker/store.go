package tracker

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// File permissions.
const (
	dirPerms  = 0o755
	filePerms = 0o644
)

// maxEventLine bounds the scanner buffer for a single stored event.
const maxEventLine = 1 << 20

// EventStore is the append-only event log: one JSON record per line.
//
// Append never rewrites prior entries and performs no existence check;
// dedup by id is the coordinator's job. Each line is independently
// parseable, so a truncated final line from a crashed run is simply
// skipped on the next Load.
type EventStore struct {
	path string
}

// NewEventStore creates a store backed by the event log in dataDir.
func NewEventStore(dataDir string) *EventStore {
	return &EventStore{path: filepath.Join(dataDir, EventLogFileName)}
}

// Load reads the entire store in storage order.
// A missing file is an empty store. Malformed lines are skipped.
func (s *EventStore) Load() ([]CompletionEvent, error) {
	file, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("opening event log: %w", err)
	}

	defer func() { _ = file.Close() }()

	var events []CompletionEvent

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxEventLine)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var event CompletionEvent

		unmarshalErr := json.Unmarshal(line, &event)
		if unmarshalErr != nil || event.ID == "" {
			continue // torn or corrupt line
		}

		events = append(events, event)
	}

	scanErr := scanner.Err()
	if scanErr != nil {
		return nil, fmt.Errorf("reading event log: %w", scanErr)
	}

	return events, nil
}

// Append writes the given events to the end of the log, one complete
// line each. Events must already be admitted and deduplicated.
func (s *EventStore) Append(events []CompletionEvent) error {
	if len(events) == 0 {
		return nil
	}

	mkdirErr := os.MkdirAll(filepath.Dir(s.path), dirPerms)
	if mkdirErr != nil {
		return fmt.Errorf("creating data dir: %w", mkdirErr)
	}

	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, filePerms)
	if err != nil {
		return fmt.Errorf("opening event log: %w", err)
	}

	defer func() { _ = file.Close() }()

	for _, event := range events {
		line, marshalErr := json.Marshal(event)
		if marshalErr != nil {
			return fmt.Errorf("encoding event %s: %w", event.ID, marshalErr)
		}

		_, writeErr := file.Write(append(line, '\n'))
		if writeErr != nil {
			return fmt.Errorf("appending event %s: %w", event.ID, writeErr)
		}
	}

	syncErr := file.Sync()
	if syncErr != nil {
		return fmt.Errorf("syncing event log: %w", syncErr)
	}

	return nil
}
