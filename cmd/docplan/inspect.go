package main

import (
	"context"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/dusk-indust/docplan/internal/planner"
	"github.com/dusk-indust/docplan/internal/rule"
)

func runRules(e *env) error {
	p, err := e.planner()
	if err != nil {
		return err
	}
	for i, r := range p.Catalog().Rules() {
		if i > 0 {
			fmt.Fprintln(e.stdout)
		}
		fmt.Fprintf(e.stdout, "%-22s %-12s weight %d\n", r.Name, r.Relation, r.Weight)
		fmt.Fprintf(e.stdout, "  nucleus:   %s\n", bindings(r.Nucleus))
		fmt.Fprintf(e.stdout, "  satellite: %s\n", bindings(r.Satellite))
		for _, g := range r.Guards {
			fmt.Fprintf(e.stdout, "  guard:     %s\n", g)
		}
	}
	return nil
}

func bindings(bs []rule.Binding) string {
	parts := make([]string, len(bs))
	for i, b := range bs {
		parts[i] = b.Name + "=" + b.Pattern.String()
	}
	return strings.Join(parts, " | ")
}

func runPlans(ctx context.Context, e *env) error {
	st, err := e.openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	sums, err := st.ListPlans(ctx)
	if err != nil {
		return err
	}
	if len(sums) == 0 {
		fmt.Fprintln(e.stdout, "No stored plans.")
		fmt.Fprintln(e.stdout, "Run 'docplan plan -save <items-file>' to store some.")
		return nil
	}
	for _, s := range sums {
		fmt.Fprintf(e.stdout, "%s  %-16s score %.2f  %d messages  %s\n",
			s.ID, s.ItemID, s.Score, s.Messages, s.CreatedAt.Local().Format(time.DateTime))
	}

	stats, err := st.Stats(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(e.stdout, "\n%d plans, %d messages, %d relations\n", stats.PlanCount, stats.MessageCount, stats.RelationCount)
	return nil
}

func runShow(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	fs.SetOutput(e.stderr)
	format := fs.String("format", "outline", "output format: outline, json, or mermaid")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: docplan show [-format outline|json|mermaid] <id>")
	}
	if err := checkFormat(*format); err != nil {
		return err
	}

	st, err := e.openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	id := fs.Arg(0)
	sp, err := st.GetPlan(ctx, id)
	if err != nil {
		return err
	}
	if sp == nil {
		return fmt.Errorf("plan %q not found", id)
	}
	return writePlans(e, *format, []*planner.DocumentPlan{sp.DocumentPlan()}, map[string]string{sp.ItemID: sp.ID})
}
