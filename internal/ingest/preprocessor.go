// Package ingest turns a raw uploaded table into a fully classified,
// validated session: schema inference, analyte renaming, derived lookups,
// content hashing and the data-quality gate.
package ingest

import (
	"context"
	"time"

	"geolens/domain/core"
	"geolens/domain/schema"
	"geolens/domain/session"
	"geolens/domain/table"
	"geolens/internal/logging"
)

// DefaultNeighbors is the initial neighbor count offered to the UI.
const DefaultNeighbors = 15

var dateLayouts = []string{
	table.DateLayout,
	"2006-01-02 15:04:05",
	time.RFC3339,
	"01/02/2006",
}

// Preprocessor runs the ingestion pipeline.
type Preprocessor struct {
	logger *logging.Logger
	now    func() time.Time
}

// NewPreprocessor creates a preprocessor.
func NewPreprocessor(logger *logging.Logger) *Preprocessor {
	return &Preprocessor{logger: logger, now: time.Now}
}

// Preprocess classifies and validates a raw dataset and assembles the
// initial session state. Any schema error or quality violation aborts before
// anything is persisted; the returned state carries no working data.
func (p *Preprocessor) Preprocess(ctx context.Context, raw table.Table) (session.State, error) {
	contentHash := core.HashTable(raw)

	classified, err := schema.Classify(raw)
	if err != nil {
		return session.State{}, err
	}
	master, sch := schema.RenameAnalytes(raw, classified)

	// Normalize column order to meta + numeric, dropping nothing the
	// schema knows about.
	master = master.Select(append(append([]string{}, sch.MetaCols...), sch.NumericAllCols...))

	if sch.HasDateColumn() {
		master = p.parseDateColumn(master, sch.DateCol)
	}

	if err := RunQualityGate(ctx, master, sch); err != nil {
		return session.State{}, err
	}

	coordinate := ExtractCoordinateTable(master, sch, p.logger)
	colors := ResolveGroupColors(master, sch)
	markers := ResolveMarkers(master, sch)
	locIDs := UniqueLocationIDs(master, sch)

	meta, err := session.NewMetaData(sch, markers, colors, locIDs, coordinate)
	if err != nil {
		return session.State{}, err
	}
	dfMaster, err := table.Encode(master, sch.DateCol)
	if err != nil {
		return session.State{}, err
	}

	return session.State{
		DFMaster:     dfMaster,
		MetaData:     meta,
		DataHash:     session.DataHash{DataHash: contentHash},
		WorkingData:  nil, // cleared on every new upload
		PlottingData: initialPlottingData(sch, locIDs),
		Version:      session.Version,
	}, nil
}

// parseDateColumn coerces the date column into time values. A cell that
// parses under no known layout falls back to the current time with a
// warning instead of aborting ingestion.
func (p *Preprocessor) parseDateColumn(t table.Table, dateCol string) table.Table {
	out := t.Clone()
	col, ok := out.Col(dateCol)
	if !ok {
		return out
	}
	for r, row := range out.Rows {
		switch v := row[col].(type) {
		case time.Time:
			continue
		case string:
			if ts, ok := parseDate(v); ok {
				out.Rows[r][col] = ts
				continue
			}
		default:
			_ = v
		}
		p.logger.Warn("could not parse date column %s row %d, setting to current date", dateCol, r)
		out.Rows[r][col] = p.now()
	}
	return out
}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// initialPlottingData seeds the UI selection state: every analyte and every
// location selected, first group column on both plot dropdowns.
func initialPlottingData(sch schema.Schema, locIDs []string) session.PlottingData {
	firstGroup := ""
	if len(sch.PlotGroupCols) > 0 {
		firstGroup = sch.PlotGroupCols[0]
	}
	groupOptions := append([]string{}, sch.PlotGroupCols...)
	return session.PlottingData{
		MapGroupOptions:   groupOptions,
		MapGroupValue:     firstGroup,
		PlotGroup1Options: groupOptions,
		PlotGroup1Value:   firstGroup,
		PlotGroup2Options: groupOptions,
		PlotGroup2Value:   firstGroup,
		FeatureOptions:    append([]string{}, sch.NumericAllCols...),
		FeatureValue:      append([]string{}, sch.NumericAllCols...),
		LocIDOptions:      append([]string{}, locIDs...),
		LocIDValue:        append([]string{}, locIDs...),
		PMAPNeighbors:     DefaultNeighbors,
	}
}
