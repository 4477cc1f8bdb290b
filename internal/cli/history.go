package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/albe2669/recipes/internal/history"
	"github.com/albe2669/recipes/internal/paths"
	"github.com/albe2669/recipes/internal/protocol"
)

// Represents the 'recipes history' command.
type HistoryCmd struct {
	Limit int `short:"n" default:"20" help:"Number of runs to show."`
}

// Executes the history command.
func (c *HistoryCmd) Run(ctx context.Context) error {
	var runs []history.Run

	if RootCmd.Daemon {
		var res protocol.HistoryResult
		if err := protocol.Call(ctx, socketPath(), protocol.CmdHistory, &protocol.HistoryRequest{Limit: c.Limit}, &res); err != nil {
			return err
		}
		runs = res.Runs
	} else {
		store, err := history.Open(paths.History())
		if err != nil {
			return err
		}
		defer store.Close()

		runs, err = store.List(ctx, c.Limit)
		if err != nil {
			return err
		}
	}

	return printRuns(os.Stdout, runs)
}

// Writes runs as an aligned table, newest first.
func printRuns(w io.Writer, runs []history.Run) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTARTED\tOPERATION\tSTATUS\tDURATION\tSOURCE\tTARGET")

	for _, r := range runs {
		status := string(r.Status)
		if r.Error != "" {
			status += ": " + r.Error
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID,
			r.StartedAt.Local().Format(time.DateTime),
			r.Operation,
			status,
			r.Duration.Round(time.Millisecond),
			r.Source,
			r.Target,
		)
	}

	return tw.Flush()
}
