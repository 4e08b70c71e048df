package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/ka2n/fhirval/api/catalog"
	"github.com/ka2n/fhirval/api/outcome"
	"github.com/ka2n/fhirval/api/result"
	"github.com/samber/lo"
)

var rowHeader = table.Row{"#", "File", "ID", "Name", "Type", "Errors", "Warnings", "Info"}

// count colors n when it is non-zero
func count(n int, color text.Color, plain bool) string {
	s := strconv.Itoa(n)
	if plain || n == 0 {
		return s
	}
	return color.Sprint(s)
}

func tableRow(r result.Row, plain bool) table.Row {
	return table.Row{
		r.Index + 1,
		r.FileName,
		r.ResourceID,
		r.ResourceName,
		r.ResourceType,
		count(r.Tally.Errors, text.FgRed, plain),
		count(r.Tally.Warnings, text.FgYellow, plain),
		count(r.Tally.Info, text.FgCyan, plain),
	}
}

// writeResults renders rows as a table followed by a totals line
func writeResults(w io.Writer, rows []result.Row, plain bool) {
	writer := table.NewWriter()
	writer.SetOutputMirror(w)
	writer.SetStyle(table.StyleLight)
	if plain {
		writer.SetStyle(table.StyleDefault)
	}
	writer.AppendHeader(rowHeader)
	writer.SetColumnConfigs([]table.ColumnConfig{
		{Name: "File", WidthMax: 40},
		{Name: "Name", WidthMax: 30},
		{Name: "Errors", Align: text.AlignRight},
		{Name: "Warnings", Align: text.AlignRight},
		{Name: "Info", Align: text.AlignRight},
	})

	var total outcome.Tally
	for _, r := range rows {
		writer.AppendRow(tableRow(r, plain))
		total.Errors += r.Tally.Errors
		total.Warnings += r.Tally.Warnings
		total.Info += r.Tally.Info
	}

	writer.AppendSeparator()
	writer.AppendRow(table.Row{
		"", summaryStatus(total, plain), fmt.Sprintf("%d resources", len(rows)), "", "",
		total.Errors, total.Warnings, total.Info,
	})
	writer.Render()
}

func summaryStatus(t outcome.Tally, plain bool) string {
	status, color := "valid", text.FgGreen
	switch {
	case t.Errors > 0:
		status, color = "error", text.FgRed
	case t.Warnings > 0:
		status, color = "warning", text.FgYellow
	}
	if plain {
		return status
	}
	return color.Sprint(status)
}

// formatLine is the streaming form of one row
func formatLine(r result.Row) string {
	return fmt.Sprintf("%d\t%s\t%s\t%s\t%s\t%s", r.Index+1, r.FileName, r.ResourceID, r.ResourceName, r.ResourceType, r.Tally)
}

// writeProfiles renders the profile catalog
func writeProfiles(w io.Writer, profiles []catalog.Profile, plain bool) {
	if len(profiles) == 0 {
		fmt.Fprintln(w, "No profiles available")
		return
	}

	writer := table.NewWriter()
	writer.SetOutputMirror(w)
	writer.SetStyle(table.StyleLight)
	if plain {
		writer.SetStyle(table.StyleDefault)
	}
	writer.AppendHeader(table.Row{"Name", "URL"})
	writer.AppendRows(lo.Map(profiles, func(p catalog.Profile, _ int) table.Row {
		return table.Row{p.Label(), p.URL}
	}))
	writer.Render()
}
