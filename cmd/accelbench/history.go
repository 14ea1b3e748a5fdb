package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/weiihann/accelbench/config"
	"github.com/weiihann/accelbench/history"
	"github.com/weiihann/accelbench/report"
)

func historyPath(cfg config.Config) string {
	if cfg.HistoryDB != "" {
		return cfg.HistoryDB
	}

	return history.DefaultPath()
}

func newHistoryCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List stored benchmark runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.load()
			if err != nil {
				return err
			}

			store, err := history.Open(historyPath(cfg))
			if err != nil {
				return err
			}
			defer store.Close()

			return listRuns(cmd.Context(), os.Stdout, store, limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20,
		"Maximum number of runs to list (0 = all)")

	return cmd
}

func listRuns(ctx context.Context, w io.Writer, store *history.Store, limit int) error {
	runs, err := store.List(ctx, limit)
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Fprintln(w, "no runs recorded")

		return nil
	}

	for _, run := range runs {
		fmt.Fprintf(w, "%s  %s  %s\n",
			run.ID, run.Timestamp.Format(time.RFC3339), run.Label)
	}

	return nil
}

func newCompareCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "compare [previous-id current-id]",
		Short: "Compare two stored runs (default: the latest two)",
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) != 0 && len(args) != 2 {
				return fmt.Errorf("expected zero or two run ids, got %d", len(args))
			}

			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.load()
			if err != nil {
				return err
			}

			store, err := history.Open(historyPath(cfg))
			if err != nil {
				return err
			}
			defer store.Close()

			return compareRuns(cmd.Context(), os.Stdout, store, args)
		},
	}
}

func compareRuns(
	ctx context.Context,
	w io.Writer,
	store *history.Store,
	ids []string,
) error {
	var prev, curr history.Run

	if len(ids) == 2 {
		p, err := store.Load(ctx, ids[0])
		if err != nil {
			return err
		}

		c, err := store.Load(ctx, ids[1])
		if err != nil {
			return err
		}

		prev, curr = *p, *c
	} else {
		runs, err := store.Latest(ctx, 2)
		if err != nil {
			return err
		}

		if len(runs) < 2 {
			return fmt.Errorf("need two stored runs to compare, have %d", len(runs))
		}

		prev, curr = runs[0], runs[1]
	}

	return report.GenerateComparison(w, prev, curr)
}
