package ingest

import (
	"sort"

	"geolens/domain/core"
	"geolens/domain/schema"
	"geolens/domain/table"
	"geolens/internal/logging"
)

// ExtractCoordinateTable builds the per-location lookup table behind the
// map: one row per unique location id carrying group membership, longitude,
// latitude and the map marker size. Rows for the same location are expected
// to agree on these attributes; when they do not, the first occurrence wins
// and a warning is logged. That is unsound for moving sensors and accepted
// for fixed monitoring stations.
func ExtractCoordinateTable(t table.Table, s schema.Schema, logger *logging.Logger) table.Table {
	grab := append([]string{}, s.PlotGroupCols...)
	grab = append(grab, s.LocIDCol, s.LongLatCols[0], s.LongLatCols[1])
	if t.HasColumn(schema.MarkerSizeColumn) {
		grab = append(grab, schema.MarkerSizeColumn)
	}

	sub := t.Select(grab)
	locCol, _ := sub.Col(s.LocIDCol)

	out := table.New(sub.Columns...)
	firstRow := make(map[string]int)
	for _, row := range sub.Rows {
		id := core.CanonicalCell(row[locCol])
		if seen, ok := firstRow[id]; ok {
			for c := range row {
				if core.CanonicalCell(row[c]) != core.CanonicalCell(out.Rows[seen][c]) {
					logger.Warn("location %s: column %s varies across rows, keeping first value", id, sub.Columns[c])
				}
			}
			continue
		}
		firstRow[id] = out.RowCount()
		_ = out.AppendRow(append([]any(nil), row...)...)
	}
	return out
}

// ResolveGroupColors assigns one color per category for every plotting-group
// column. A companion predefined-colors column wins (first value per
// category); otherwise colors come from the fixed palette over
// lexicographically sorted categories, cycling past the palette length.
func ResolveGroupColors(t table.Table, s schema.Schema) map[string]map[string]string {
	out := make(map[string]map[string]string, len(s.PlotGroupCols))
	for _, group := range s.PlotGroupCols {
		companion := s.ColorCompanion(group)
		if t.HasColumn(companion) {
			out[group] = firstValueByCategory(t, group, companion)
		} else {
			out[group] = paletteColors(t, group)
		}
	}
	return out
}

// ResolveMarkers maps each location id to the first marker symbol seen for
// it. Uploads without a markers column produce an empty map.
func ResolveMarkers(t table.Table, s schema.Schema) map[string]string {
	if !t.HasColumn(schema.MarkerColumn) {
		return map[string]string{}
	}
	return firstValueByCategory(t, s.LocIDCol, schema.MarkerColumn)
}

// UniqueLocationIDs lists location ids in first-occurrence order.
func UniqueLocationIDs(t table.Table, s schema.Schema) []string {
	values, ok := t.Values(s.LocIDCol)
	if !ok {
		return nil
	}
	seen := make(map[string]bool)
	var out []string
	for _, v := range values {
		id := core.CanonicalCell(v)
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// firstValueByCategory groups keyCol and takes the first valueCol cell per
// category.
func firstValueByCategory(t table.Table, keyCol, valueCol string) map[string]string {
	keys, _ := t.Values(keyCol)
	values, _ := t.Values(valueCol)
	out := make(map[string]string)
	for i := range keys {
		k := core.CanonicalCell(keys[i])
		if _, ok := out[k]; !ok {
			out[k] = core.CanonicalCell(values[i])
		}
	}
	return out
}

// paletteColors deterministically assigns palette colors to the sorted
// distinct categories of a column.
func paletteColors(t table.Table, col string) map[string]string {
	values, _ := t.Values(col)
	seen := make(map[string]bool)
	var categories []string
	for _, v := range values {
		c := core.CanonicalCell(v)
		if !seen[c] {
			seen[c] = true
			categories = append(categories, c)
		}
	}
	sort.Strings(categories)

	out := make(map[string]string, len(categories))
	for i, c := range categories {
		out[c] = discreteColorPalette[i%len(discreteColorPalette)]
	}
	return out
}
