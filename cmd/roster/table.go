package main

import (
	"io"
	"sort"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/baxromumarov/roster-scraper/internal/core"
)

type summaryRow struct {
	label string
	value interface{}
}

func enrichmentRows(s core.Summary) []summaryRow {
	return []summaryRow{
		{"Candidates enriched", s.Candidates},
		{"Records written", s.Records},
		{"Filtered", s.Filtered},
		{"Failures", s.Failures},
		{"Duration", s.Duration.Round(time.Millisecond).String()},
	}
}

func renderSummary(w io.Writer, rows []summaryRow) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Step", "Count"})
	for _, r := range rows {
		t.AppendRow(table.Row{r.label, r.value})
	}
	t.Render()
}

func renderReasons(w io.Writer, byReason map[string]int) {
	if len(byReason) == 0 {
		return
	}
	reasons := make([]string, 0, len(byReason))
	for reason := range byReason {
		reasons = append(reasons, reason)
	}
	sort.Strings(reasons)

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Filter reason", "Count"})
	for _, reason := range reasons {
		t.AppendRow(table.Row{reason, byReason[reason]})
	}
	t.Render()
}
