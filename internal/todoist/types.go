package todoist

// Item is a completed-task record from the by-completion-date endpoint.
//
// Priority is the raw upstream ordinal (1-4, 1 = lowest). Values outside
// that range are kept as-is; display code maps them to an "unknown" marker.
type Item struct {
	ID          string `json:"id"`
	Content     string `json:"content"`
	CompletedAt string `json:"completed_at"`
	ProjectID   string `json:"project_id"`
	ParentID    string `json:"parent_id"`
	Priority    int    `json:"priority"`
}

// Task is a single task object from the REST surface.
// Used for ancestor-chain walks and the lookup command.
type Task struct {
	ID        string `json:"id"`
	Content   string `json:"content"`
	ProjectID string `json:"project_id"`
	ParentID  string `json:"parent_id"`
}

// Project is a project object from the projects endpoint.
type Project struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// completedResponse is the paginated envelope of the completed endpoint.
type completedResponse struct {
	Items      []Item `json:"items"`
	NextCursor string `json:"next_cursor"`
}

// projectsEnvelope is the cursored object shape of the projects endpoint.
// Depending on API generation the list arrives under "projects" or "results".
type projectsEnvelope struct {
	Projects   []Project `json:"projects"`
	Results    []Project `json:"results"`
	NextCursor string    `json:"next_cursor"`
}

func (e projectsEnvelope) list() []Project {
	if len(e.Projects) > 0 {
		return e.Projects
	}

	return e.Results
}
