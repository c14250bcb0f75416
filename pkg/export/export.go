// Package export writes assembled result tables for the plotting step.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/kilianp07/sweep/core/table"
)

// DefaultPlaceholder marks a cell with no known value.
const DefaultPlaceholder = "-"

// Format controls delimited output.
type Format struct {
	Delimiter   rune
	Placeholder string
	Header      bool
}

// DefaultFormat is comma separated without a header row.
func DefaultFormat() Format { return Format{Delimiter: ',', Placeholder: DefaultPlaceholder} }

// WriteDelimited writes one line per row: the X value then one field per
// column. Unknown cells are written as the placeholder so columns stay
// aligned.
func WriteDelimited(w io.Writer, t table.Table, f Format) error {
	if f.Delimiter == 0 {
		f.Delimiter = ','
	}
	cw := csv.NewWriter(w)
	cw.Comma = f.Delimiter
	if f.Header {
		if err := cw.Write(append([]string{t.XLabel}, t.Columns...)); err != nil {
			return err
		}
	}
	for _, row := range t.Rows {
		rec := make([]string, 0, len(row.Cells)+1)
		rec = append(rec, row.X.String())
		for _, c := range row.Cells {
			if c.Known {
				rec = append(rec, c.Value.String())
			} else {
				rec = append(rec, f.Placeholder)
			}
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

type jsonTable struct {
	Name    string           `json:"name"`
	Title   string           `json:"title"`
	XLabel  string           `json:"xlabel"`
	YLabel  string           `json:"ylabel"`
	Columns []string         `json:"columns"`
	Rows    []map[string]any `json:"rows"`
	Options []string         `json:"options,omitempty"`
}

// WriteJSON writes the table as a JSON object. Each row carries its
// composite key twice: "x" as displayed and "key" as the typed values
// chosen per ranged dimension. Unknown cells are null.
func WriteJSON(w io.Writer, t table.Table) error {
	out := jsonTable{
		Name: t.Name, Title: t.Title, XLabel: t.XLabel, YLabel: t.YLabel,
		Columns: t.Columns, Options: t.Options,
		Rows: make([]map[string]any, 0, len(t.Rows)),
	}
	for _, row := range t.Rows {
		parts := row.X.Parts()
		key := make([]any, len(parts))
		for i, p := range parts {
			key[i] = p.Interface()
		}
		r := map[string]any{"x": row.X.String(), "key": key}
		for i, c := range row.Cells {
			if c.Known {
				r[t.Columns[i]] = c.Value.Interface()
			} else {
				r[t.Columns[i]] = nil
			}
		}
		out.Rows = append(out.Rows, r)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// WriteOptions writes the sidecar read by the plotter: labels, column
// names and the pass-through options, one "key=value" per line.
func WriteOptions(w io.Writer, t table.Table) error {
	lines := []string{
		"title=" + t.Title,
		"xlabel=" + t.XLabel,
		"ylabel=" + t.YLabel,
	}
	for i, c := range t.Columns {
		lines = append(lines, fmt.Sprintf("y%d=%s", i+2, c))
	}
	if len(t.Options) > 0 {
		lines = append(lines, "options="+strings.Join(t.Options, " "))
	}
	_, err := io.WriteString(w, strings.Join(lines, "\n")+"\n")
	return err
}
