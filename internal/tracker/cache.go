package tracker

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"
)

// TaskCache is the persistent task-info cache keyed by task id, plus an
// in-run pending buffer for tasks resolved during the current run.
//
// The buffer and the loaded cache are merged and persisted exactly once,
// at the end of the run, so a mid-run crash loses only that run's newly
// learned entries and never corrupts existing ones. Cached entries are
// trusted indefinitely; an upstream edit after caching is not reflected.
type TaskCache struct {
	path    string
	loaded  map[string]TaskInfo
	pending map[string]TaskInfo
}

// LoadTaskCache reads the cache file from dataDir.
// A missing or malformed file yields an empty cache.
func LoadTaskCache(dataDir string) *TaskCache {
	cache := &TaskCache{
		path:    filepath.Join(dataDir, CacheFileName),
		loaded:  make(map[string]TaskInfo),
		pending: make(map[string]TaskInfo),
	}

	data, err := os.ReadFile(cache.path)
	if err != nil {
		return cache
	}

	var entries map[string]TaskInfo

	unmarshalErr := json.Unmarshal(data, &entries)
	if unmarshalErr != nil {
		return cache
	}

	cache.loaded = entries

	return cache
}

// Get looks up a task, checking the persistent cache first and the
// in-run pending buffer second.
func (c *TaskCache) Get(taskID string) (TaskInfo, bool) {
	if info, ok := c.loaded[taskID]; ok {
		return info, true
	}

	info, ok := c.pending[taskID]

	return info, ok
}

// PutPending buffers a freshly resolved task for the end-of-run merge.
func (c *TaskCache) PutPending(taskID string, info TaskInfo) {
	c.pending[taskID] = info
}

// Dirty reports whether the run learned any new entries.
func (c *TaskCache) Dirty() bool {
	return len(c.pending) > 0
}

// Persist merges the pending buffer into the loaded cache and writes the
// result atomically. A no-op when nothing was learned.
func (c *TaskCache) Persist() error {
	if !c.Dirty() {
		return nil
	}

	merged := make(map[string]TaskInfo, len(c.loaded)+len(c.pending))

	for id, info := range c.loaded {
		merged[id] = info
	}

	for id, info := range c.pending {
		merged[id] = info
	}

	mkdirErr := os.MkdirAll(filepath.Dir(c.path), dirPerms)
	if mkdirErr != nil {
		return fmt.Errorf("creating data dir: %w", mkdirErr)
	}

	data, err := json.MarshalIndent(merged, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding task cache: %w", err)
	}

	data = append(data, '\n')

	writeErr := atomic.WriteFile(c.path, bytes.NewReader(data))
	if writeErr != nil {
		return fmt.Errorf("writing task cache: %w", writeErr)
	}

	c.loaded = merged
	c.pending = make(map[string]TaskInfo)

	return nil
}
