// Package schema infers the semantic role of raw dataset columns from the
// upload naming conventions and carries the result as a typed, immutable
// value. Downstream components accept a Schema, never raw column-name
// pattern matching.
package schema

// Column naming conventions of the upload format.
const (
	DateColumn       = "DATETIME"
	LongitudeColumn  = "LONGITUDE"
	LatitudeColumn   = "LATITUDE"
	MarkerColumn     = "MARKERS-PLOT-DOMAIN"
	MarkerSizeColumn = "MAP-MARKER-SIZE"

	locIDPrefix     = "LOCATION-ID_"
	clrPrefix       = "CLR-ANALYTE_"
	simplePrefix    = "NUMERIC-ANALYTE_"
	analyteDelim    = "-ANALYTE_"
	labelsPrefix    = "LABELS_"      // current-format plotting groups
	colorsPrefix    = "COLORS_"      // current-format predefined colors
	legacyColorsSuf = "_COLORS"      // legacy predefined colors
	legacyLabelsSuf = "_LABELS"      // legacy plotting groups
)

// Format tags which naming convention generation the upload follows. It is
// resolved once at ingestion instead of a boolean threaded through every call.
type Format string

const (
	FormatCurrent Format = "current"
	FormatLegacy  Format = "legacy"
)

// Schema is the classified column layout of one uploaded dataset.
type Schema struct {
	Format Format `json:"format"`

	LocIDCol      string    `json:"loc_id"`
	DateCol       string    `json:"date,omitempty"` // empty: no date column
	PlotGroupCols []string  `json:"plot_groups"`
	LongLatCols   [2]string `json:"long_lat"`

	// MetaCols and NumericAllCols partition the (renamed) table's columns:
	// they are disjoint and their union covers every column.
	MetaCols          []string `json:"meta"`
	NumericAllCols    []string `json:"numeric_all"`
	NumericSimpleCols []string `json:"numeric_simple"`
	NumericCLRCols    []string `json:"numeric_clr"`
}

// HasDateColumn reports whether the upload carried an observation date.
func (s Schema) HasDateColumn() bool {
	return s.DateCol != ""
}

// IsLegacy reports whether the legacy plotting-group convention was detected.
func (s Schema) IsLegacy() bool {
	return s.Format == FormatLegacy
}

// ColorCompanion returns the predefined-colors column name paired with a
// plotting-group column, per the format's convention.
func (s Schema) ColorCompanion(groupCol string) string {
	if s.Format == FormatLegacy {
		prefix, ok := cutSuffix(groupCol, legacyLabelsSuf)
		if !ok {
			prefix = groupCol
		}
		return prefix + legacyColorsSuf
	}
	return colorsPrefix + groupCol
}

func cutSuffix(s, suffix string) (string, bool) {
	if len(s) >= len(suffix) && s[len(s)-len(suffix):] == suffix {
		return s[:len(s)-len(suffix)], true
	}
	return s, false
}
