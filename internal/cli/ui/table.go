package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// Table renders rows of labeled columns, aligned by the widest cell
type Table struct {
	headers []string
	rows    [][]string
}

// NewTable creates a table with the given header labels
func NewTable(headers ...string) *Table {
	return &Table{headers: headers}
}

// AddRow appends one row. Missing cells render empty; extra cells are
// dropped.
func (t *Table) AddRow(cells ...string) {
	t.rows = append(t.rows, cells)
}

// Render writes the table to w
func (t *Table) Render(w io.Writer) {
	if len(t.headers) == 0 {
		return
	}

	widths := make([]int, len(t.headers))
	for i, header := range t.headers {
		widths[i] = len(header)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	header := color.New(color.FgCyan, color.Bold)
	for i, label := range t.headers {
		header.Fprint(w, padRight(label, widths[i]))
		if i < len(t.headers)-1 {
			fmt.Fprint(w, "  ")
		}
	}
	fmt.Fprintln(w)

	rule := color.New(color.FgHiBlack)
	for i, width := range widths {
		rule.Fprint(w, strings.Repeat("─", width))
		if i < len(widths)-1 {
			fmt.Fprint(w, "  ")
		}
	}
	fmt.Fprintln(w)

	for _, row := range t.rows {
		for i := range t.headers {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			fmt.Fprint(w, padRight(cell, widths[i]))
			if i < len(t.headers)-1 {
				fmt.Fprint(w, "  ")
			}
		}
		fmt.Fprintln(w)
	}
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
