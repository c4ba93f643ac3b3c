package cli

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/peterh/liner"

	"github.com/jittania/todoist-tracker/internal/todoist"
	"github.com/jittania/todoist-tracker/internal/tracker"

	flag "github.com/spf13/pflag"
)

// LookupCmd returns the lookup command.
//
// With query arguments it searches active tasks once and exits. With no
// arguments it drops into an interactive prompt so several searches can
// reuse the fetched task list.
func LookupCmd(cfg *tracker.Config, env map[string]string, stdin io.Reader) *Command {
	_ = stdin // the interactive prompt owns the terminal directly

	return &Command{
		Flags: flag.NewFlagSet("lookup", flag.ContinueOnError),
		Usage: "lookup [query...]",
		Short: "Search active tasks for allow-list ids",
		Long: "Search active tasks by text and print matching ids, contents, and\n" +
			"projects. Copy an id into allowed_root_task_ids. With no query, starts\n" +
			"an interactive prompt. Requires TODOIST_API_TOKEN.",
		Exec: func(_ context.Context, o *IO, args []string) error {
			return execLookup(o, cfg, env, args)
		},
	}
}

func execLookup(o *IO, cfg *tracker.Config, env map[string]string, args []string) error {
	token := strings.TrimSpace(env[tracker.TokenEnvVar])
	if token == "" {
		return tracker.ErrTokenMissing
	}

	client := todoist.NewClient(token, cfg.APIBaseURL, cfg.RESTBaseURL)

	// Project names are display sugar; a failed list degrades to raw ids.
	var directory tracker.ProjectDirectory

	projects, projErr := client.Projects()
	if projErr == nil {
		directory = tracker.NewProjectDirectory(projects)
	} else {
		directory = tracker.ProjectDirectory{}
		o.WarnLLM("could not fetch projects", "task matches below show raw project ids")
	}

	tasks, err := client.ActiveTasks()
	if err != nil {
		return err
	}

	if len(args) > 0 {
		printMatches(o, tasks, directory, strings.Join(args, " "))

		return nil
	}

	return lookupPrompt(o, tasks, directory)
}

// lookupPrompt runs the interactive search loop.
func lookupPrompt(o *IO, tasks []todoist.Task, directory tracker.ProjectDirectory) error {
	prompt := liner.NewLiner()
	defer func() { _ = prompt.Close() }()

	prompt.SetCtrlCAborts(true)

	o.Println("interactive lookup; empty line or 'quit' exits")

	for {
		line, err := prompt.Prompt("lookup> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				return nil
			}

			return err
		}

		query := strings.TrimSpace(line)
		if query == "" || query == "quit" || query == "exit" || query == "q" {
			return nil
		}

		prompt.AppendHistory(line)
		printMatches(o, tasks, directory, query)
	}
}

// printMatches prints tasks whose content contains query (case-insensitive).
func printMatches(o *IO, tasks []todoist.Task, directory tracker.ProjectDirectory, query string) {
	queryLower := strings.ToLower(query)

	var matches []todoist.Task

	for _, task := range tasks {
		if strings.Contains(strings.ToLower(task.Content), queryLower) {
			matches = append(matches, task)
		}
	}

	if len(matches) == 0 {
		o.Printf("No active tasks matching %q.\n", query)

		return
	}

	o.Printf("Tasks matching %q (copy id into allowed_root_task_ids):\n\n", query)

	for _, task := range matches {
		project := directory.Name(task.ProjectID)
		if project == "Unknown" && task.ProjectID != "" && len(directory) == 0 {
			project = task.ProjectID
		}

		o.Println("  id:", task.ID)
		o.Println("  content:", strings.TrimSpace(task.Content))
		o.Println("  project:", project)
		o.Println()
	}
}
