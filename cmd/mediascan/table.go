package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// newListTable returns a writer preconfigured with the rounded style every
// mediascan listing shares. Columns named in numeric are right-aligned so
// counts and sizes line up; headers stay left-aligned either way.
func newListTable(headers table.Row, numeric ...int) table.Writer {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(headers)
	if len(numeric) > 0 {
		configs := make([]table.ColumnConfig, 0, len(numeric))
		for _, column := range numeric {
			configs = append(configs, table.ColumnConfig{
				Number:      column,
				Align:       text.AlignRight,
				AlignHeader: text.AlignLeft,
			})
		}
		tw.SetColumnConfigs(configs)
	}
	return tw
}

// renderPairs renders the two-column name/value layout shared by the scan
// summary, stats, show, and config validate.
func renderPairs(label string, pairs [][2]string, numeric bool) string {
	headers := table.Row{label, "Value"}
	var tw table.Writer
	if numeric {
		tw = newListTable(headers, 2)
	} else {
		tw = newListTable(headers)
	}
	for _, pair := range pairs {
		tw.AppendRow(table.Row{pair[0], pair[1]})
	}
	return tw.Render()
}
