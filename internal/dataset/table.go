// Package dataset loads the crime records CSV into an immutable in-memory
// table and pages it out as JSON-ready records.
package dataset

import (
	"math"
)

const (
	ColumnLatitude  = "latitude"
	ColumnLongitude = "longitude"

	DefaultPage    = 1
	DefaultPerPage = 100
)

// RequiredColumns must be present in every dataset.
var RequiredColumns = []string{ColumnLatitude, ColumnLongitude}

// Value is a single cell: int64, float64, string or nil when missing.
type Value = any

// Record is one row keyed by column name. Missing cells are nil.
type Record map[string]any

// ColumnType is the inferred type of a column.
type ColumnType int

const (
	TypeString ColumnType = iota
	TypeInt
	TypeFloat
)

func (t ColumnType) String() string {
	switch t {
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	default:
		return "string"
	}
}

// Table is the loaded dataset. It is never mutated after Load returns, so
// any number of goroutines may read it concurrently.
type Table struct {
	columns []string
	types   []ColumnType
	index   map[string]int
	rows    [][]Value
	dropped int
}

func newTable(columns []string, types []ColumnType, rows [][]Value) *Table {
	index := make(map[string]int, len(columns))
	for i, c := range columns {
		index[c] = i
	}
	return &Table{columns: columns, types: types, index: index, rows: rows}
}

// Len returns the number of rows kept after filtering.
func (t *Table) Len() int { return len(t.rows) }

// Dropped returns how many rows the coordinate filter removed at load time.
func (t *Table) Dropped() int { return t.dropped }

// Columns returns a copy of the column names in source order.
func (t *Table) Columns() []string {
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

// Column returns the position of name.
func (t *Table) Column(name string) (int, bool) {
	i, ok := t.index[name]
	return i, ok
}

// ColumnType returns the inferred type of name.
func (t *Table) ColumnType(name string) (ColumnType, bool) {
	i, ok := t.index[name]
	if !ok {
		return TypeString, false
	}
	return t.types[i], true
}

// Cell returns the raw value at row i for column name, nil when missing.
func (t *Table) Cell(i int, name string) Value {
	c, ok := t.index[name]
	if !ok || i < 0 || i >= len(t.rows) {
		return nil
	}
	return normalize(t.rows[i][c])
}

// String returns the cell rendered as text, "" when missing.
func (t *Table) String(i int, name string) string {
	return formatValue(t.Cell(i, name))
}

// Row returns row i as a Record.
func (t *Table) Row(i int) Record {
	row := t.rows[i]
	rec := make(Record, len(t.columns))
	for c, name := range t.columns {
		rec[name] = normalize(row[c])
	}
	return rec
}

// Rows returns the records at the given row indices, skipping any that are
// out of range.
func (t *Table) Rows(indices []int) []Record {
	out := make([]Record, 0, len(indices))
	for _, i := range indices {
		if i < 0 || i >= len(t.rows) {
			continue
		}
		out = append(out, t.Row(i))
	}
	return out
}

// Slice returns the records for a 1-based page. A page past the end, or
// non-positive arguments, yield an empty slice rather than an error.
func (t *Table) Slice(page, perPage int) []Record {
	start, end, ok := bounds(page, perPage, len(t.rows))
	if !ok {
		return []Record{}
	}
	out := make([]Record, 0, end-start)
	for i := start; i < end; i++ {
		out = append(out, t.Row(i))
	}
	return out
}

// bounds computes [start, end) for a page clamped to n rows.
func bounds(page, perPage, n int) (start, end int, ok bool) {
	if page < 1 || perPage < 1 {
		return 0, 0, false
	}
	// (page-1)*perPage may overflow for hostile inputs.
	if page-1 > n/perPage {
		return 0, 0, false
	}
	start = (page - 1) * perPage
	if start >= n {
		return 0, 0, false
	}
	end = start + perPage
	if end > n || end < start {
		end = n
	}
	return start, end, true
}

// normalize maps NaN floats to nil so that no NaN reaches the JSON encoder.
func normalize(v Value) Value {
	if f, ok := v.(float64); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
		return nil
	}
	return v
}
