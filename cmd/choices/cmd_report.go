package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/goliatone/go-choices/pkg/consistency"
	"github.com/spf13/cobra"
)

func newReportCmd(flags *rootFlags) *cobra.Command {
	var (
		orphans bool
		every   time.Duration
	)
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Check every declared relationship and print a consistency report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd, flags)
			if err != nil {
				return err
			}
			defer a.Close()

			opts := a.ReportOptions()
			if cmd.Flags().Changed("orphans") {
				opts = []consistency.ValidateOption{consistency.WithOrphanCheck(orphans)}
			}
			out := cmd.OutOrStdout()
			emit := func(r consistency.Report) error {
				if flags.jsonOutput {
					return writeJSON(out, r)
				}
				return printReport(out, r)
			}

			interval := every
			if interval == 0 {
				interval = a.Config.Consistency.PollInterval
			}
			if interval > 0 {
				err := a.Consistency.Poll(cmd.Context(), interval, emit, opts...)
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return nil
				}
				return err
			}
			return emit(a.Consistency.GenerateReport(cmd.Context(), opts...))
		},
	}
	cmd.Flags().BoolVar(&orphans, "orphans", false, "also report target records no source record references")
	cmd.Flags().DurationVar(&every, "every", 0, "re-run the report on this interval until interrupted")
	return cmd
}

func printReport(dst io.Writer, r consistency.Report) error {
	w := &stickyWriter{w: dst}
	p := newPalette(dst)
	fmt.Fprintln(w, p.title.Render(fmt.Sprintf("report %s at %s", r.ID, r.LastChecked.Format(time.RFC3339))))
	fmt.Fprintf(w, "relationships: %d valid of %d\n", r.ValidRelationships, r.TotalRelationships)
	fmt.Fprintf(w, "broken: %d  orphaned: %d  duplicates: %d\n", r.BrokenRelationships, r.OrphanedRecords, r.DuplicateKeys)
	for _, res := range r.Results {
		for _, b := range res.BrokenRelationships {
			fmt.Fprintf(w, "  %s: %s %s has %s=%s\n", res.RelationshipID, b.SourceEntity, b.SourceID, b.Field, b.Value)
		}
		for _, d := range res.DuplicateKeys {
			fmt.Fprintf(w, "  %s: %s key %s appears %d times\n", res.RelationshipID, d.Entity, d.Key, d.Occurrences)
		}
		for _, o := range res.OrphanedRecords {
			fmt.Fprintf(w, "  %s: %s %s is never referenced\n", res.RelationshipID, o.Entity, o.ID)
		}
		for _, warning := range res.Warnings {
			fmt.Fprintf(w, "  %s: %s: %s\n", res.RelationshipID, p.warn.Render("warning"), warning)
		}
	}
	for _, rec := range r.Recommendations {
		fmt.Fprintf(w, "%s: %s\n", p.bad.Render("recommendation"), rec)
	}
	return w.err
}
