package schema

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"geolens/domain/core"
	"geolens/domain/table"
)

var legacyGroupPattern = regexp.MustCompile(`^PLOTTING-GROUPS-DOMAIN-([0-9]?)_LABELS$`)

// Classify infers the column schema of a raw dataset from its header.
//
// Exactly one LOCATION-ID_* column is required; DATETIME is optional;
// LONGITUDE/LATITUDE are required. Plotting groups follow the current
// LABELS_<name> convention, falling back to the legacy ordinal
// PLOTTING-GROUPS-DOMAIN-<n>_LABELS convention when the current one yields
// zero matches (the result is then tagged FormatLegacy). CLR-ANALYTE_* and
// NUMERIC-ANALYTE_* columns are the numeric analytes; everything else is meta.
func Classify(t table.Table) (Schema, error) {
	var s Schema
	s.Format = FormatCurrent

	var locCandidates []string
	for _, c := range t.Columns {
		if strings.HasPrefix(c, locIDPrefix) {
			locCandidates = append(locCandidates, c)
		}
	}
	switch len(locCandidates) {
	case 0:
		return Schema{}, core.ErrNoLocationColumn
	case 1:
		s.LocIDCol = locCandidates[0]
	default:
		return Schema{}, core.ErrAmbiguousLocation
	}

	if t.HasColumn(DateColumn) {
		s.DateCol = DateColumn
	}

	if !t.HasColumn(LongitudeColumn) || !t.HasColumn(LatitudeColumn) {
		return Schema{}, core.ErrMissingCoordinates
	}
	s.LongLatCols = [2]string{LongitudeColumn, LatitudeColumn}

	s.PlotGroupCols = currentGroupColumns(t.Columns)
	if len(s.PlotGroupCols) == 0 {
		if legacy := legacyGroupColumns(t.Columns); len(legacy) > 0 {
			s.PlotGroupCols = legacy
			s.Format = FormatLegacy
		}
	}
	if s.PlotGroupCols == nil {
		s.PlotGroupCols = []string{}
	}

	for _, c := range t.Columns {
		switch {
		case strings.HasPrefix(c, clrPrefix):
			s.NumericCLRCols = append(s.NumericCLRCols, c)
		case strings.HasPrefix(c, simplePrefix):
			s.NumericSimpleCols = append(s.NumericSimpleCols, c)
		}
	}
	s.NumericAllCols = append(append([]string{}, s.NumericSimpleCols...), s.NumericCLRCols...)

	s.MetaCols = metaColumns(t.Columns, s.NumericAllCols)
	return s, nil
}

// currentGroupColumns picks LABELS_<name> columns in table order.
func currentGroupColumns(columns []string) []string {
	var out []string
	for _, c := range columns {
		if strings.HasPrefix(c, labelsPrefix) && len(c) > len(labelsPrefix) {
			out = append(out, c)
		}
	}
	return out
}

// legacyGroupColumns picks the ordinal-suffixed legacy convention, ascending
// by suffix.
func legacyGroupColumns(columns []string) []string {
	type ordinalCol struct {
		name string
		ord  int
	}
	var matches []ordinalCol
	for _, c := range columns {
		m := legacyGroupPattern.FindStringSubmatch(c)
		if m == nil {
			continue
		}
		ord := 0
		if m[1] != "" {
			ord, _ = strconv.Atoi(m[1])
		}
		matches = append(matches, ordinalCol{name: c, ord: ord})
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].ord < matches[j].ord })
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.name
	}
	return out
}

// metaColumns is every column that is not a numeric analyte, in name order.
func metaColumns(columns, numericAll []string) []string {
	numeric := make(map[string]bool, len(numericAll))
	for _, c := range numericAll {
		numeric[c] = true
	}
	var out []string
	for _, c := range columns {
		if !numeric[c] {
			out = append(out, c)
		}
	}
	sort.Strings(out)
	return out
}
