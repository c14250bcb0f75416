// Package table assembles per-instance measurements into the sorted data
// table consumed by the plotting step.
package table

import (
	"sort"

	"github.com/kilianp07/sweep/core/model"
)

// Cell is one measurement. Known is false when no value was obtained.
type Cell struct {
	Value model.Value
	Known bool
}

// Series is one column: measurements keyed by the composite key of the
// instance they came from.
type Series struct {
	Name   string
	Keys   []model.CompositeKey
	Values []Cell
}

// Add appends a measurement.
func (s *Series) Add(key model.CompositeKey, c Cell) {
	s.Keys = append(s.Keys, key)
	s.Values = append(s.Values, c)
}

func (s Series) lookup(key string) (Cell, bool) {
	for i, k := range s.Keys {
		if k.ID() == key {
			return s.Values[i], true
		}
	}
	return Cell{}, false
}

// Row is one X-axis value with one cell per column.
type Row struct {
	X     model.CompositeKey
	Cells []Cell
}

// Table is the assembled result.
type Table struct {
	Name    string
	Title   string
	XLabel  string
	YLabel  string
	Columns []string
	Rows    []Row
	// Options are passed through to the plotting step untouched.
	Options []string
}

// Assemble builds one row per distinct key across all series, sorted by
// key, and one column per series sorted by name. A series with no value
// for a key gets an unknown cell there.
func Assemble(series ...Series) Table {
	cols := make([]Series, len(series))
	copy(cols, series)
	sort.SliceStable(cols, func(i, j int) bool { return cols[i].Name < cols[j].Name })

	seen := map[string]bool{}
	var keys []model.CompositeKey
	for _, s := range cols {
		for _, k := range s.Keys {
			if !seen[k.ID()] {
				seen[k.ID()] = true
				keys = append(keys, k)
			}
		}
	}
	sort.SliceStable(keys, func(i, j int) bool { return keys[i].Compare(keys[j]) < 0 })

	t := Table{Columns: make([]string, len(cols))}
	for i, s := range cols {
		t.Columns[i] = s.Name
	}
	for _, k := range keys {
		row := Row{X: k, Cells: make([]Cell, len(cols))}
		for i, s := range cols {
			if c, ok := s.lookup(k.ID()); ok {
				row.Cells[i] = c
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// Column returns the cells of the named column in row order.
func (t Table) Column(name string) ([]Cell, bool) {
	for i, c := range t.Columns {
		if c != name {
			continue
		}
		out := make([]Cell, len(t.Rows))
		for r, row := range t.Rows {
			out[r] = row.Cells[i]
		}
		return out, true
	}
	return nil, false
}
