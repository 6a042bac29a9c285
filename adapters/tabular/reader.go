// Package tabular reads CSV and Excel uploads into the in-memory table
// representation, coercing numeric-looking cells to floats.
package tabular

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"geolens/domain/table"
)

// Reader parses uploaded files by extension.
type Reader struct{}

// NewReader creates a tabular file reader.
func NewReader() *Reader {
	return &Reader{}
}

// Read parses the named upload into a table. The extension selects the
// format; anything other than .csv and .xlsx is rejected.
func (r *Reader) Read(filename string, data []byte) (table.Table, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return r.readCSV(bytes.NewReader(data))
	case ".xlsx":
		return r.readExcel(bytes.NewReader(data))
	default:
		return table.Table{}, fmt.Errorf("unsupported file type: %s", filepath.Ext(filename))
	}
}

func (r *Reader) readCSV(src io.Reader) (table.Table, error) {
	rows, err := csv.NewReader(src).ReadAll()
	if err != nil {
		return table.Table{}, fmt.Errorf("read csv: %w", err)
	}
	return buildTable(rows)
}

func (r *Reader) readExcel(src io.Reader) (table.Table, error) {
	f, err := excelize.OpenReader(src)
	if err != nil {
		return table.Table{}, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	// First sheet only; the upload format is a single data sheet.
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return table.Table{}, fmt.Errorf("xlsx file has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return table.Table{}, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	return buildTable(rows)
}

// buildTable converts raw string rows into a typed table. The first row is
// the header; short rows are padded with missing cells.
func buildTable(rows [][]string) (table.Table, error) {
	if len(rows) < 2 {
		return table.Table{}, fmt.Errorf("file must have a header row and at least one data row")
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.TrimSpace(h)
	}

	t := table.New(headers...)
	for _, row := range rows[1:] {
		cells := make([]any, len(headers))
		for c := range headers {
			if c < len(row) {
				cells[c] = coerceCell(strings.TrimSpace(row[c]))
			}
		}
		if err := t.AppendRow(cells...); err != nil {
			return table.Table{}, err
		}
	}
	return t, nil
}

// coerceCell turns a raw string cell into a typed value. Empty cells become
// nil (missing); numeric-looking cells become floats; everything else stays
// a string. Date parsing is deferred to ingestion, which knows which column
// holds dates.
func coerceCell(s string) any {
	if s == "" {
		return nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}
