package table

import "fmt"

// Table is the canonical tabular value object for the whole pipeline: an
// ordered set of named columns over row-major cells. Cells hold string,
// float64, time.Time or nil. Every pipeline stage takes a Table and returns
// a new Table; no stage mutates a Table it did not construct.
type Table struct {
	Columns []string
	Index   []int
	Rows    [][]any
}

// New creates an empty table with the given column names.
func New(columns ...string) Table {
	return Table{Columns: append([]string(nil), columns...)}
}

// RowCount returns the number of rows.
func (t Table) RowCount() int {
	return len(t.Rows)
}

// ColumnCount returns the number of columns.
func (t Table) ColumnCount() int {
	return len(t.Columns)
}

// Col returns the position of a named column.
func (t Table) Col(name string) (int, bool) {
	for i, c := range t.Columns {
		if c == name {
			return i, true
		}
	}
	return -1, false
}

// HasColumn reports whether the table carries the named column.
func (t Table) HasColumn(name string) bool {
	_, ok := t.Col(name)
	return ok
}

// AppendRow adds a row and assigns it the next free index label.
func (t *Table) AppendRow(cells ...any) error {
	if len(cells) != len(t.Columns) {
		return fmt.Errorf("row has %d cells, table has %d columns", len(cells), len(t.Columns))
	}
	next := 0
	if n := len(t.Index); n > 0 {
		next = t.Index[n-1] + 1
	}
	t.Rows = append(t.Rows, cells)
	t.Index = append(t.Index, next)
	return nil
}

// Cell returns the value at (row, column name).
func (t Table) Cell(row int, name string) (any, bool) {
	i, ok := t.Col(name)
	if !ok || row < 0 || row >= len(t.Rows) {
		return nil, false
	}
	return t.Rows[row][i], true
}

// Values returns a copy of the named column's cells.
func (t Table) Values(name string) ([]any, bool) {
	i, ok := t.Col(name)
	if !ok {
		return nil, false
	}
	out := make([]any, len(t.Rows))
	for r, row := range t.Rows {
		out[r] = row[i]
	}
	return out, true
}

// Floats returns the named column as float64s. Numeric columns are coerced
// at ingestion, so a nil or non-numeric cell here is an error.
func (t Table) Floats(name string) ([]float64, error) {
	i, ok := t.Col(name)
	if !ok {
		return nil, fmt.Errorf("column %q not found", name)
	}
	out := make([]float64, len(t.Rows))
	for r, row := range t.Rows {
		f, ok := row[i].(float64)
		if !ok {
			return nil, fmt.Errorf("column %q row %d is not numeric (%T)", name, r, row[i])
		}
		out[r] = f
	}
	return out, nil
}

// Clone returns a deep copy.
func (t Table) Clone() Table {
	out := Table{
		Columns: append([]string(nil), t.Columns...),
		Index:   append([]int(nil), t.Index...),
		Rows:    make([][]any, len(t.Rows)),
	}
	for r, row := range t.Rows {
		out.Rows[r] = append([]any(nil), row...)
	}
	return out
}

// Select returns a new table restricted to the given columns, in the given
// order. Unknown columns are skipped.
func (t Table) Select(columns []string) Table {
	idx := make([]int, 0, len(columns))
	names := make([]string, 0, len(columns))
	for _, c := range columns {
		if i, ok := t.Col(c); ok {
			idx = append(idx, i)
			names = append(names, c)
		}
	}
	out := Table{
		Columns: names,
		Index:   append([]int(nil), t.Index...),
		Rows:    make([][]any, len(t.Rows)),
	}
	for r, row := range t.Rows {
		cells := make([]any, len(idx))
		for j, i := range idx {
			cells[j] = row[i]
		}
		out.Rows[r] = cells
	}
	return out
}

// FilterRows returns a new table keeping rows for which keep returns true.
// Index labels of kept rows are preserved.
func (t Table) FilterRows(keep func(row int) bool) Table {
	out := Table{Columns: append([]string(nil), t.Columns...)}
	for r := range t.Rows {
		if !keep(r) {
			continue
		}
		out.Rows = append(out.Rows, append([]any(nil), t.Rows[r]...))
		label := r
		if r < len(t.Index) {
			label = t.Index[r]
		}
		out.Index = append(out.Index, label)
	}
	return out
}

// Rename returns a new table with columns renamed per the mapping. Columns
// absent from the mapping keep their name.
func (t Table) Rename(mapping map[string]string) Table {
	out := t.Clone()
	for i, c := range out.Columns {
		if renamed, ok := mapping[c]; ok {
			out.Columns[i] = renamed
		}
	}
	return out
}

// WithColumn returns a new table with the named column replaced by values.
func (t Table) WithColumn(name string, values []float64) (Table, error) {
	i, ok := t.Col(name)
	if !ok {
		return Table{}, fmt.Errorf("column %q not found", name)
	}
	if len(values) != len(t.Rows) {
		return Table{}, fmt.Errorf("column %q: %d values for %d rows", name, len(values), len(t.Rows))
	}
	out := t.Clone()
	for r := range out.Rows {
		out.Rows[r][i] = values[r]
	}
	return out, nil
}
