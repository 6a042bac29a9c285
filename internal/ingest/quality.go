package ingest

import (
	"context"
	"fmt"
	"regexp"
	"sync"

	"golang.org/x/sync/errgroup"

	"geolens/domain/core"
	"geolens/domain/schema"
	"geolens/domain/table"
)

var hexColorPattern = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// RunQualityGate runs every data-quality check against a classified, renamed
// dataset. All checks run (concurrently) and all findings are collected, so
// the user sees the complete list at once; any finding blocks ingestion.
func RunQualityGate(ctx context.Context, t table.Table, s schema.Schema) error {
	var mu sync.Mutex
	var violations []core.QualityViolation
	report := func(check, format string, args ...any) {
		mu.Lock()
		defer mu.Unlock()
		violations = append(violations, core.QualityViolation{
			Check:  check,
			Detail: fmt.Sprintf(format, args...),
		})
	}

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error { checkCoordinates(t, s, report); return nil })
	g.Go(func() error { checkNumericMissing(t, s, report); return nil })
	g.Go(func() error { checkCLRPositive(t, s, report); return nil })
	g.Go(func() error { checkColorCodes(t, s, report); return nil })
	_ = g.Wait()

	if len(violations) > 0 {
		return &core.QualityGateError{Violations: violations}
	}
	return nil
}

// checkCoordinates flags latitude/longitude values outside valid bounds.
func checkCoordinates(t table.Table, s schema.Schema, report func(string, string, ...any)) {
	lons, err := t.Floats(s.LongLatCols[0])
	if err != nil {
		report("lat_lon", "longitude column not numeric: %v", err)
		return
	}
	lats, err := t.Floats(s.LongLatCols[1])
	if err != nil {
		report("lat_lon", "latitude column not numeric: %v", err)
		return
	}
	for i := range lons {
		if lons[i] < -180 || lons[i] > 180 {
			report("lat_lon", "row %d: longitude %v out of bounds", i, lons[i])
		}
		if lats[i] < -90 || lats[i] > 90 {
			report("lat_lon", "row %d: latitude %v out of bounds", i, lats[i])
		}
	}
}

// checkNumericMissing flags missing or non-numeric cells in analyte columns.
func checkNumericMissing(t table.Table, s schema.Schema, report func(string, string, ...any)) {
	for _, col := range s.NumericAllCols {
		values, ok := t.Values(col)
		if !ok {
			continue
		}
		for i, v := range values {
			if _, isFloat := v.(float64); !isFloat {
				report("numeric_missing", "column %s row %d: missing or non-numeric value", col, i)
			}
		}
	}
}

// checkCLRPositive flags non-positive values in compositional columns; the
// CLR transform requires strictly positive inputs.
func checkCLRPositive(t table.Table, s schema.Schema, report func(string, string, ...any)) {
	for _, col := range s.NumericCLRCols {
		values, ok := t.Values(col)
		if !ok {
			continue
		}
		for i, v := range values {
			f, isFloat := v.(float64)
			if !isFloat || f <= 0 {
				report("clr_positive", "column %s row %d: compositional value must be > 0", col, i)
			}
		}
	}
}

// checkColorCodes flags malformed values in predefined-color companion
// columns.
func checkColorCodes(t table.Table, s schema.Schema, report func(string, string, ...any)) {
	for _, group := range s.PlotGroupCols {
		companion := s.ColorCompanion(group)
		values, ok := t.Values(companion)
		if !ok {
			continue
		}
		seen := make(map[string]bool)
		for _, v := range values {
			code := core.CanonicalCell(v)
			if code == "" || hexColorPattern.MatchString(code) || seen[code] {
				continue
			}
			seen[code] = true
			report("color_codes", "column %s: invalid color code %q", companion, code)
		}
	}
}
