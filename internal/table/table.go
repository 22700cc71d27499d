// Package table renders boxed text tables. Cell widths ignore ANSI color
// sequences so colorized cells stay aligned.
package table

import (
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode/utf8"
)

type Alignment int

const (
	AlignLeft Alignment = iota
	AlignRight
	AlignCenter
)

var ansiPattern = regexp.MustCompile("\x1b\\[[0-9;]*m")

func stripAnsi(s string) string {
	return ansiPattern.ReplaceAllString(s, "")
}

func displayWidth(s string) int {
	return utf8.RuneCountInString(stripAnsi(s))
}

type Table struct {
	w               io.Writer
	header          []string
	rows            [][]string
	columnAlignment []Alignment
	headerAlignment []Alignment
}

func NewTable(w io.Writer) *Table {
	return &Table{w: w}
}

func (t *Table) WithHeader(header []string) *Table {
	t.header = header
	return t
}

// WithColumnAlignment sets the alignment of body cells. Columns without an
// entry are left aligned.
func (t *Table) WithColumnAlignment(alignment []Alignment) *Table {
	t.columnAlignment = alignment
	return t
}

// WithHeaderAlignment sets the alignment of header cells. Columns without an
// entry are centered.
func (t *Table) WithHeaderAlignment(alignment []Alignment) *Table {
	t.headerAlignment = alignment
	return t
}

func (t *Table) Append(row []string) *Table {
	t.rows = append(t.rows, row)
	return t
}

func (t *Table) WithRows(rows [][]string) *Table {
	t.rows = append(t.rows, rows...)
	return t
}

func (t *Table) columns() int {
	n := len(t.header)
	for _, row := range t.rows {
		if len(row) > n {
			n = len(row)
		}
	}
	return n
}

func (t *Table) widths() []int {
	widths := make([]int, t.columns())
	measure := func(row []string) {
		for i, cell := range row {
			if w := displayWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}
	measure(t.header)
	for _, row := range t.rows {
		measure(row)
	}
	return widths
}

func pad(cell string, width int, align Alignment) string {
	gap := width - displayWidth(cell)
	if gap <= 0 {
		return cell
	}
	switch align {
	case AlignRight:
		return strings.Repeat(" ", gap) + cell
	case AlignCenter:
		left := gap / 2
		return strings.Repeat(" ", left) + cell + strings.Repeat(" ", gap-left)
	default:
		return cell + strings.Repeat(" ", gap)
	}
}

func alignmentAt(alignment []Alignment, i int, fallback Alignment) Alignment {
	if i < len(alignment) {
		return alignment[i]
	}
	return fallback
}

// Render writes the table. Short rows are padded with empty cells.
func (t *Table) Render() error {
	widths := t.widths()
	var b strings.Builder
	border := func() {
		for _, width := range widths {
			b.WriteString("+")
			b.WriteString(strings.Repeat("-", width+2))
		}
		b.WriteString("+\n")
	}
	line := func(row []string, alignment []Alignment, fallback Alignment) {
		for i, width := range widths {
			var cell string
			if i < len(row) {
				cell = row[i]
			}
			fmt.Fprintf(&b, "| %s ", pad(cell, width, alignmentAt(alignment, i, fallback)))
		}
		b.WriteString("|\n")
	}

	border()
	if len(t.header) > 0 {
		line(t.header, t.headerAlignment, AlignCenter)
		border()
	}
	for _, row := range t.rows {
		line(row, t.columnAlignment, AlignLeft)
	}
	border()
	_, err := io.WriteString(t.w, b.String())
	return err
}
