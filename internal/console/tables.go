package console

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cast"

	"github.com/leapstack-labs/leapcheck/pkg/core"
)

// RunSummary is the tally shown after a run.
type RunSummary struct {
	RunID           string
	Environment     string
	Duration        time.Duration
	Passed          int
	Failed          int
	Errored         int
	Skipped         int
	EmptyExpansions int
}

// RenderSummary writes the run summary table.
func RenderSummary(w io.Writer, s RunSummary) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Passed", "Failed", "Errored", "Skipped", "Empty patterns", "Duration"})
	t.AppendRow(table.Row{s.Passed, s.Failed, s.Errored, s.Skipped, s.EmptyExpansions, s.Duration.Round(time.Millisecond)})
	t.Render()
	_, _ = fmt.Fprintf(w, "Run %s (%s)\n", s.RunID, s.Environment)
}

// RenderSpecs writes one row per check spec.
func RenderSpecs(w io.Writer, specs []core.CheckSpec) {
	if len(specs) == 0 {
		_, _ = fmt.Fprintln(w, "(0 checks)")
		return
	}

	t := newTable(w)
	t.AppendHeader(table.Row{"Feature", "Entity", "Check", "Connection", "Owner", "Parameters"})
	for _, s := range specs {
		t.AppendRow(table.Row{s.FeatureName, s.Target(), s.CheckType, s.ConnectionRef, s.Owner, formatParams(s.Parameters)})
	}
	t.Render()
	_, _ = fmt.Fprintf(w, "(%d checks)\n", len(specs))
}

// RenderTables writes a table list, one name per row.
func RenderTables(w io.Writer, connection string, tables []string) {
	if len(tables) == 0 {
		_, _ = fmt.Fprintf(w, "(no tables in %s)\n", connection)
		return
	}
	t := newTable(w)
	t.AppendHeader(table.Row{"Table"})
	for _, name := range tables {
		t.AppendRow(table.Row{name})
	}
	t.Render()
	_, _ = fmt.Fprintf(w, "(%d tables)\n", len(tables))
}

// RenderRuns writes the journal's run history.
func RenderRuns(w io.Writer, runs []*core.Run) {
	if len(runs) == 0 {
		_, _ = fmt.Fprintln(w, "(no runs recorded)")
		return
	}
	t := newTable(w)
	t.AppendHeader(table.Row{"Run", "Environment", "Script", "Status", "Started", "Passed", "Failed", "Errored", "Skipped"})
	for _, r := range runs {
		t.AppendRow(table.Row{
			r.ID, r.Environment, r.Script, string(r.Status),
			r.StartedAt.Local().Format(time.DateTime),
			r.Passed, r.Failed, r.Errored, r.Skipped,
		})
	}
	t.Render()
}

// RenderResults writes the stored results of one run.
func RenderResults(w io.Writer, results []core.CheckResult) {
	if len(results) == 0 {
		_, _ = fmt.Fprintln(w, "(no results)")
		return
	}
	t := newTable(w)
	t.AppendHeader(table.Row{"Entity", "Check", "Outcome", "Status", "Value", "Goal", "Message"})
	for _, r := range results {
		t.AppendRow(table.Row{
			r.Entity, r.CheckType, string(r.State),
			cast.ToString(r.Status), cast.ToString(r.Value), cast.ToString(r.Goal), r.Message,
		})
	}
	t.Render()
}

// RenderList writes plain names, one per line.
func RenderList(w io.Writer, names []string) {
	for _, n := range names {
		_, _ = fmt.Fprintln(w, n)
	}
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	return t
}

func formatParams(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+params[k])
	}
	return strings.Join(parts, " ")
}
