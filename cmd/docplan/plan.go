package main

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/dusk-indust/docplan/internal/batch"
	"github.com/dusk-indust/docplan/internal/content"
	"github.com/dusk-indust/docplan/internal/export"
	"github.com/dusk-indust/docplan/internal/planner"
	"github.com/dusk-indust/docplan/internal/store"
)

var formats = []string{"outline", "json", "mermaid"}

func checkFormat(format string) error {
	for _, f := range formats {
		if f == format {
			return nil
		}
	}
	return fmt.Errorf("unknown format %q (want %s)", format, strings.Join(formats, ", "))
}

func runPlan(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("plan", flag.ContinueOnError)
	fs.SetOutput(e.stderr)
	format := fs.String("format", "outline", "output format: outline, json, or mermaid")
	save := fs.Bool("save", false, "persist planned items in the plan store")
	quiet := fs.Bool("quiet", false, "suppress progress output")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: docplan plan [-format outline|json|mermaid] [-save] <items-file>")
	}
	if err := checkFormat(*format); err != nil {
		return err
	}

	items, err := content.Load(fs.Arg(0))
	if err != nil {
		return err
	}
	p, err := e.planner()
	if err != nil {
		return err
	}
	timeout, err := e.cfg.ItemTimeout()
	if err != nil {
		return err
	}

	// Print progress from one goroutine so lines never interleave.
	pr := batch.NewProgressReporterSize(batch.EventsPerItem * len(items))
	drainDone := make(chan struct{})
	go func() {
		defer close(drainDone)
		for ev := range pr.Subscribe() {
			if !*quiet {
				fmt.Fprintln(e.stderr, batch.FormatProgress(ev))
			}
		}
	}()

	runner := batch.NewRunner(p,
		batch.WithWorkers(e.cfg.Workers),
		batch.WithItemTimeout(timeout),
		batch.WithProgress(pr.Emit),
		batch.WithLogger(e.logger.Named("batch")),
	)
	results, err := runner.Run(ctx, items)
	pr.Close()
	<-drainDone
	if err != nil {
		return fmt.Errorf("planning interrupted: %w", err)
	}
	plans := batch.Plans(results)

	ids := make(map[string]string, len(plans))
	if *save && len(plans) > 0 {
		st, err := e.openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()
		for _, dp := range plans {
			sp := store.NewStoredPlan(dp)
			if err := st.SavePlan(ctx, sp); err != nil {
				return fmt.Errorf("save %s: %w", dp.ItemID, err)
			}
			ids[dp.ItemID] = sp.ID
		}
	}

	if err := writePlans(e, *format, plans, ids); err != nil {
		return err
	}

	sum := batch.Summarize(results)
	if !*quiet {
		fmt.Fprintf(e.stderr, "%d planned, %d without plan, %d failed\n", sum.Planned, sum.NoPlan, sum.Failed)
	}
	if sum.Failed > 0 {
		return fmt.Errorf("%d item(s) failed", sum.Failed)
	}
	return nil
}

// writePlans renders plans to stdout. ids maps item IDs to store IDs for
// plans that were saved.
func writePlans(e *env, format string, plans []*planner.DocumentPlan, ids map[string]string) error {
	switch format {
	case "json":
		exports := make([]*export.PlanExport, 0, len(plans))
		for _, dp := range plans {
			exp := export.ExportPlan(dp)
			exp.ID = ids[dp.ItemID]
			exports = append(exports, exp)
		}
		data, err := export.MarshalPlans(exports)
		if err != nil {
			return fmt.Errorf("marshal JSON: %w", err)
		}
		_, err = e.stdout.Write(append(data, '\n'))
		return err
	case "mermaid":
		for i, dp := range plans {
			if i > 0 {
				fmt.Fprintln(e.stdout)
			}
			fmt.Fprintf(e.stdout, "%%%% %s\n", dp.ItemID)
			fmt.Fprint(e.stdout, export.GenerateMermaid(dp.Root))
		}
		return nil
	default:
		for i, dp := range plans {
			if i > 0 {
				fmt.Fprintln(e.stdout)
			}
			fmt.Fprint(e.stdout, export.PlanOutline(dp))
			if id := ids[dp.ItemID]; id != "" {
				fmt.Fprintf(e.stdout, "stored as %s\n", id)
			}
		}
		return nil
	}
}
