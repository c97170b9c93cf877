// ABOUTME: Report CLI command
// ABOUTME: Prints contacts-by-state or contacts-by-city as a chart or structured data
package cli

import (
	"context"
	"flag"
	"fmt"
	"text/tabwriter"

	"github.com/harperreed/ringbook/models"
	"github.com/harperreed/ringbook/viz"
)

type reportRow struct {
	Label   string `json:"label" yaml:"label"`
	Count   int    `json:"count" yaml:"count"`
	Percent string `json:"percent" yaml:"percent"`
}

func reportRows(buckets []models.ReportBucket) []reportRow {
	total := 0
	for _, b := range buckets {
		total += b.Count
	}
	rows := make([]reportRow, len(buckets))
	for i, b := range buckets {
		rows[i] = reportRow{Label: b.Label, Count: b.Count, Percent: viz.Percent(b.Count, total)}
	}
	return rows
}

// ReportCommand prints the aggregate report named by its first argument.
func ReportCommand(ctx context.Context, env *Env, args []string) error {
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	fs.SetOutput(env.out())
	format := fs.String("format", FormatTable, "Output format (table, json or yaml)")
	width := fs.Int("width", 40, "Chart width in cells")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := validFormat(*format); err != nil {
		return err
	}

	if fs.NArg() < 1 {
		return fmt.Errorf("report type required (state or city)")
	}

	var (
		title string
		fetch func(context.Context) ([]models.ReportBucket, error)
	)
	switch fs.Arg(0) {
	case "state":
		title, fetch = "Contacts by state", env.Contacts.ContactsByState
	case "city":
		title, fetch = "Contacts by city", env.Contacts.ContactsByCity
	default:
		return fmt.Errorf("unknown report %q (use state or city)", fs.Arg(0))
	}

	if err := env.RequireAuth(); err != nil {
		return err
	}

	buckets, err := fetch(ctx)
	if err != nil {
		return fmt.Errorf("failed to load report: %w", err)
	}

	if *format == FormatTable {
		_, _ = fmt.Fprintln(env.out(), viz.RenderPie(title, buckets, *width))
		return nil
	}
	return writeOutput(env.out(), *format, reportRows(buckets), func(*tabwriter.Writer) {})
}
