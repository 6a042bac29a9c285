package schema

import (
	"sort"
	"strings"

	"geolens/domain/table"
)

// RenameAnalytes strips the analyte-role prefixes from numeric column names
// (everything up to and including "-ANALYTE_") and, for current-format
// uploads, the LABELS_ marker from plotting-group columns. It returns a new
// table and a new schema; neither input is mutated. Downstream code never
// sees raw prefixes.
func RenameAnalytes(t table.Table, s Schema) (table.Table, Schema) {
	mapping := make(map[string]string, len(s.NumericAllCols)+len(s.PlotGroupCols))
	for _, c := range s.NumericAllCols {
		mapping[c] = analyteDisplayName(c)
	}
	if s.Format == FormatCurrent {
		for _, c := range s.PlotGroupCols {
			mapping[c] = strings.TrimPrefix(c, labelsPrefix)
		}
	}

	renamed := t.Rename(mapping)

	out := s
	out.NumericAllCols = applyMapping(s.NumericAllCols, mapping)
	out.NumericSimpleCols = applyMapping(s.NumericSimpleCols, mapping)
	out.NumericCLRCols = applyMapping(s.NumericCLRCols, mapping)
	out.PlotGroupCols = applyMapping(s.PlotGroupCols, mapping)
	out.MetaCols = applyMapping(s.MetaCols, mapping)
	sort.Strings(out.MetaCols)
	return renamed, out
}

// analyteDisplayName is the text after the role delimiter, e.g.
// "CLR-ANALYTE_Zn" -> "Zn".
func analyteDisplayName(col string) string {
	if i := strings.LastIndex(col, analyteDelim); i >= 0 {
		return col[i+len(analyteDelim):]
	}
	return col
}

func applyMapping(cols []string, mapping map[string]string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		if renamed, ok := mapping[c]; ok {
			out[i] = renamed
		} else {
			out[i] = c
		}
	}
	return out
}
