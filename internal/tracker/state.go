package tracker

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/natefinch/atomic"
)

// defaultLookback is the fetch window when no watermark exists yet.
const defaultLookback = 24 * time.Hour

// RunState is the incremental-fetch watermark: the upper bound of the
// previously fetched window. Read once at run start, written once at
// run end.
type RunState struct {
	LastRunISO string `json:"last_run_iso"`
}

// LoadRunState reads state.json from dataDir.
// A missing or unreadable file yields the zero state.
func LoadRunState(dataDir string) RunState {
	data, err := os.ReadFile(filepath.Join(dataDir, StateFileName))
	if err != nil {
		return RunState{}
	}

	var state RunState

	unmarshalErr := json.Unmarshal(data, &state)
	if unmarshalErr != nil {
		return RunState{}
	}

	return state
}

// Save writes the state atomically.
func (s RunState) Save(dataDir string) error {
	mkdirErr := os.MkdirAll(dataDir, dirPerms)
	if mkdirErr != nil {
		return fmt.Errorf("creating data dir: %w", mkdirErr)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}

	data = append(data, '\n')

	writeErr := atomic.WriteFile(filepath.Join(dataDir, StateFileName), bytes.NewReader(data))
	if writeErr != nil {
		return fmt.Errorf("writing state: %w", writeErr)
	}

	return nil
}

// Window returns the fetch window [since, until] ending at now.
// The lower bound is the stored watermark, or now minus 24 hours when no
// watermark exists or it fails to parse.
func (s RunState) Window(now time.Time) (time.Time, time.Time) {
	until := now.UTC().Truncate(time.Second)

	if s.LastRunISO != "" {
		since, err := time.Parse(time.RFC3339, s.LastRunISO)
		if err == nil {
			return since.UTC(), until
		}
	}

	return until.Add(-defaultLookback), until
}
