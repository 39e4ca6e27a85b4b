package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"git.home.luguber.info/inful/docsplice/internal/convert"
	"git.home.luguber.info/inful/docsplice/internal/eventstore"
	ferrors "git.home.luguber.info/inful/docsplice/internal/foundation/errors"
	"git.home.luguber.info/inful/docsplice/internal/status"
)

// StatusCmd implements the 'status' command.
type StatusCmd struct {
	Check   bool   `help:"Exit non-zero when any page is missing or stale"`
	All     bool   `short:"a" help:"List current pages too"`
	Journal string `name:"journal" help:"Also summarize recent runs recorded in this SQLite database" placeholder:"PATH"`
	Runs    int    `name:"runs" help:"Number of recent runs to summarize" default:"5"`
	RunID   string `name:"run" help:"Show the failures of one run from the journal" placeholder:"RUN-ID"`
}

func (s *StatusCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.LoadConfig(g)
	if err != nil {
		return err
	}
	entries, err := status.Check(convert.MappingFor(cfg))
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, e := range entries {
		if e.State == status.StateCurrent && !s.All {
			continue
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", e.State, filepath.Base(e.Source), e.Output)
	}
	_ = tw.Flush()

	sum := status.Summarize(entries)
	fmt.Fprintf(os.Stdout, "%d current, %d stale, %d missing, %d orphan\n",
		sum[status.StateCurrent], sum[status.StateStale], sum[status.StateMissing], sum[status.StateOrphan])

	if s.Journal != "" {
		if err := s.printJournal(context.Background(), os.Stdout); err != nil {
			return err
		}
	}

	if s.Check && sum[status.StateStale]+sum[status.StateMissing] > 0 {
		return ferrors.NewError(ferrors.CategorySource, "pages are out of date").
			WithContext("stale", sum[status.StateStale]).
			WithContext("missing", sum[status.StateMissing]).
			Build()
	}
	return nil
}

// printJournal writes either the recent run table or, with --run, one run's failures.
func (s *StatusCmd) printJournal(ctx context.Context, w io.Writer) error {
	if _, err := os.Stat(s.Journal); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryJournal, "journal not readable").
			Fatal().
			WithContext("path", s.Journal).
			Build()
	}
	store, err := eventstore.NewSQLiteStore(s.Journal)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if s.RunID != "" {
		run, ok, err := eventstore.LoadRun(ctx, store, s.RunID)
		if err != nil {
			return err
		}
		if !ok {
			return ferrors.NewError(ferrors.CategoryJournal, "run not found in journal").
				WithContext("run_id", s.RunID).
				Build()
		}
		fmt.Fprintf(w, "\nRun %s (%s): %s, %d converted, %d deleted, %d failed\n",
			run.RunID, run.Trigger, run.Outcome, run.Converted, run.Deleted, len(run.Failures))
		for _, f := range run.Failures {
			fmt.Fprintf(w, "  failed: %s: [%s] %s\n", f.Source, f.Category, f.Error)
		}
		return nil
	}

	runs, err := eventstore.History(ctx, store, s.Runs)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "\nRecent runs:")
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, r := range runs {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d converted\t%d failed\n",
			r.StartedAt.Format(time.DateTime), r.RunID, r.Trigger, r.Outcome, r.Converted, len(r.Failures))
	}
	return tw.Flush()
}
