package logger

import (
	"github.com/jedib0t/go-pretty/v6/table"
)

// Table collects rows and renders them with rounded borders. Callers decide
// where the rendered block goes.
type Table struct {
	headers []string
	tw      table.Writer
}

func NewTable(headers []string) *Table {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)

	return &Table{
		headers: headers,
		tw:      tw,
	}
}

func (t *Table) AddRow(cells ...string) {
	row := make(table.Row, len(t.headers))
	for i := range t.headers {
		if i < len(cells) {
			row[i] = cells[i]
		} else {
			row[i] = ""
		}
	}
	t.tw.AppendRow(row)
}

func (t *Table) Render() string {
	return t.tw.Render()
}
