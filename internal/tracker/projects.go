package tracker

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"

	"github.com/jittania/todoist-tracker/internal/todoist"
)

// ProjectDirectory maps project ids to display names. Rebuilt from the
// upstream project list on every sync; persisted only so the offline
// render command can reuse the last known names.
type ProjectDirectory map[string]string

// NewProjectDirectory builds a directory from an upstream project list.
// Projects with a blank name get a visible placeholder.
func NewProjectDirectory(projects []todoist.Project) ProjectDirectory {
	dir := make(ProjectDirectory, len(projects))

	for _, project := range projects {
		name := strings.TrimSpace(project.Name)
		if name == "" {
			name = "(No name)"
		}

		dir[project.ID] = name
	}

	return dir
}

// Name returns the display name for a project id, or "Unknown" when the
// id is absent from the directory.
func (d ProjectDirectory) Name(projectID string) string {
	if name, ok := d[projectID]; ok {
		return name
	}

	return "Unknown"
}

// LoadProjectDirectory reads the persisted directory from dataDir.
// A missing or malformed file yields an empty directory.
func LoadProjectDirectory(dataDir string) ProjectDirectory {
	data, err := os.ReadFile(filepath.Join(dataDir, ProjectsFileName))
	if err != nil {
		return ProjectDirectory{}
	}

	var dir ProjectDirectory

	unmarshalErr := json.Unmarshal(data, &dir)
	if unmarshalErr != nil {
		return ProjectDirectory{}
	}

	return dir
}

// Save writes the directory atomically.
func (d ProjectDirectory) Save(dataDir string) error {
	mkdirErr := os.MkdirAll(dataDir, dirPerms)
	if mkdirErr != nil {
		return fmt.Errorf("creating data dir: %w", mkdirErr)
	}

	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding project directory: %w", err)
	}

	data = append(data, '\n')

	writeErr := atomic.WriteFile(filepath.Join(dataDir, ProjectsFileName), bytes.NewReader(data))
	if writeErr != nil {
		return fmt.Errorf("writing project directory: %w", writeErr)
	}

	return nil
}
