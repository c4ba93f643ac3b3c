package cli

import (
	"context"

	"github.com/jittania/todoist-tracker/internal/tracker"

	flag "github.com/spf13/pflag"
)

// RenderCmd returns the render command.
func RenderCmd(cfg *tracker.Config) *Command {
	return &Command{
		Flags: flag.NewFlagSet("render", flag.ContinueOnError),
		Usage: "render",
		Short: "Re-render the activity log from local data",
		Long: "Regenerate the activity document from the local event store and the\n" +
			"current allow-list. No network access; project names come from the last\n" +
			"sync. Removing an id from the allow-list suppresses its lineage here.",
		Exec: func(_ context.Context, io *IO, _ []string) error {
			return execRender(io, cfg)
		},
	}
}

func execRender(io *IO, cfg *tracker.Config) error {
	rendered, noop, err := tracker.Rerender(*cfg)
	if err != nil {
		return err
	}

	if noop {
		io.Println("allow-list is empty, document left untouched")

		return nil
	}

	io.Printf("rendered %d stored events\n", rendered)

	return nil
}
