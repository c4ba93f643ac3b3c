package tracker

import (
	"github.com/jittania/todoist-tracker/internal/todoist"
)

// TaskFetcher is the single-task read the resolver needs from the API
// client. A failed fetch of any kind means the task is unresolvable.
type TaskFetcher interface {
	Task(id string) (todoist.Task, error)
}

// Resolver resolves task ids to TaskInfo.
//
// Resolution order: persistent cache, in-run pending buffer, live fetch.
// Successful live fetches land in the pending buffer so later lookups in
// the same run (and future runs, once persisted) are free. A nil fetcher
// makes the resolver cache-only, which is what the renderer's
// retroactive allow-list filtering uses.
type Resolver struct {
	cache   *TaskCache
	fetcher TaskFetcher
}

// NewResolver creates a resolver over the given cache and fetcher.
// fetcher may be nil for cache-only resolution.
func NewResolver(cache *TaskCache, fetcher TaskFetcher) *Resolver {
	return &Resolver{cache: cache, fetcher: fetcher}
}

// Resolve returns the task info for taskID, or false if the task cannot
// be resolved. Not-found is a normal result the caller must handle.
func (r *Resolver) Resolve(taskID string) (TaskInfo, bool) {
	if info, ok := r.cache.Get(taskID); ok {
		return info, true
	}

	if r.fetcher == nil {
		return TaskInfo{}, false
	}

	task, err := r.fetcher.Task(taskID)
	if err != nil {
		return TaskInfo{}, false
	}

	info := TaskInfo{
		Content:   task.Content,
		ParentID:  task.ParentID,
		ProjectID: task.ProjectID,
	}

	r.cache.PutPending(taskID, info)

	return info, true
}
