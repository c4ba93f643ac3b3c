// Package main provides ttrack, a one-shot mirror of completed Todoist
// tasks into a local, allow-list-filtered activity log.
package main

import (
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jittania/todoist-tracker/internal/cli"
)

func main() {
	environ := os.Environ()
	env := make(map[string]string, len(environ))

	for _, e := range environ {
		if k, v, ok := strings.Cut(e, "="); ok {
			env[k] = v
		}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	exitCode := cli.Run(os.Stdin, os.Stdout, os.Stderr, os.Args, env, sigCh)

	os.Exit(exitCode)
}
