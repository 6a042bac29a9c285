package table

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// DateLayout is the wire format for date cells in the split representation.
const DateLayout = "2006-01-02"

// splitDocument is the "split" orientation: column names, index labels and a
// row-major value matrix. It is the only wire format tables use.
type splitDocument struct {
	Columns []string `json:"columns"`
	Index   []int    `json:"index"`
	Data    [][]any  `json:"data"`
}

// Encode serializes a table into split-orient JSON. Cells in dateCol are
// written as YYYY-MM-DD strings. The input table is not modified; pass an
// empty dateCol when the table has no date column.
func Encode(t Table, dateCol string) ([]byte, error) {
	dateIdx := -1
	if dateCol != "" {
		if i, ok := t.Col(dateCol); ok {
			dateIdx = i
		}
	}

	doc := splitDocument{
		Columns: t.Columns,
		Index:   t.Index,
		Data:    make([][]any, len(t.Rows)),
	}
	if doc.Columns == nil {
		doc.Columns = []string{}
	}
	if doc.Index == nil {
		doc.Index = []int{}
	}
	for r, row := range t.Rows {
		cells := make([]any, len(row))
		copy(cells, row)
		if dateIdx >= 0 {
			if ts, ok := cells[dateIdx].(time.Time); ok {
				cells[dateIdx] = ts.Format(DateLayout)
			}
		}
		doc.Data[r] = cells
	}
	return json.Marshal(doc)
}

// Decode restores a table from split-orient JSON. Numbers are parsed in
// high-precision mode (json.Number, then a full 64-bit parse) so float cells
// survive the round trip exactly. Cells in dateCol are parsed back into
// time.Time values.
func Decode(data []byte, dateCol string) (Table, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var doc splitDocument
	if err := dec.Decode(&doc); err != nil {
		return Table{}, fmt.Errorf("decode split document: %w", err)
	}

	t := Table{
		Columns: doc.Columns,
		Index:   doc.Index,
		Rows:    make([][]any, len(doc.Data)),
	}
	dateIdx := -1
	if dateCol != "" {
		for i, c := range doc.Columns {
			if c == dateCol {
				dateIdx = i
			}
		}
	}
	for r, row := range doc.Data {
		if len(row) != len(doc.Columns) {
			return Table{}, fmt.Errorf("row %d has %d cells, expected %d", r, len(row), len(doc.Columns))
		}
		cells := make([]any, len(row))
		for i, cell := range row {
			v, err := decodeCell(cell)
			if err != nil {
				return Table{}, fmt.Errorf("row %d column %q: %w", r, doc.Columns[i], err)
			}
			cells[i] = v
		}
		if dateIdx >= 0 {
			if s, ok := cells[dateIdx].(string); ok {
				ts, err := time.Parse(DateLayout, s)
				if err != nil {
					return Table{}, fmt.Errorf("row %d: bad date %q: %w", r, s, err)
				}
				cells[dateIdx] = ts
			}
		}
		t.Rows[r] = cells
	}
	return t, nil
}

func decodeCell(cell any) (any, error) {
	switch v := cell.(type) {
	case nil, string, bool:
		return v, nil
	case json.Number:
		f, err := strconv.ParseFloat(v.String(), 64)
		if err != nil {
			return nil, err
		}
		return f, nil
	default:
		return nil, fmt.Errorf("unsupported cell type %T", cell)
	}
}
