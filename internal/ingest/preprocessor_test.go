package ingest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geolens/domain/core"
	"geolens/domain/table"
	"geolens/internal/logging"
)

func rawUpload(t *testing.T) table.Table {
	t.Helper()
	tbl := table.New(
		"LOCATION-ID_1",
		"DATETIME",
		"LABELS_Lithology",
		"COLORS_Lithology",
		"MARKERS-PLOT-DOMAIN",
		"LONGITUDE",
		"LATITUDE",
		"CLR-ANALYTE_X",
		"NUMERIC-ANALYTE_Y",
	)
	rows := [][]any{
		{"A", "2023-04-01", "basalt", "#ff0000", "circle", -120.1, 45.1, 1.0, 10.0},
		{"A", "2023-04-02", "basalt", "#ff0000", "circle", -120.1, 45.1, 2.0, 11.0},
		{"B", "2023-04-03", "shale", "#00ff00", "square", -121.5, 46.2, 3.0, 12.0},
	}
	for _, r := range rows {
		require.NoError(t, tbl.AppendRow(r...))
	}
	return tbl
}

func newTestPreprocessor() *Preprocessor {
	return NewPreprocessor(logging.New(logging.LevelError))
}

func TestPreprocessCanonicalUpload(t *testing.T) {
	raw := rawUpload(t)
	state, err := newTestPreprocessor().Preprocess(context.Background(), raw)
	require.NoError(t, err)

	assert.Equal(t, 1, state.Version)
	assert.Nil(t, state.WorkingData)
	assert.Equal(t, core.HashTable(raw), state.DataHash.DataHash)

	// Analyte prefixes are gone on the stored master.
	master, err := state.MasterTable()
	require.NoError(t, err)
	assert.True(t, master.HasColumn("X"))
	assert.True(t, master.HasColumn("Y"))
	assert.True(t, master.HasColumn("Lithology"))
	assert.False(t, master.HasColumn("CLR-ANALYTE_X"))

	// Column order is meta block then numeric block.
	assert.Equal(t, append(state.MetaData.ColsKeyPlot.Meta, state.MetaData.ColsKeyPlot.NumericAll...), master.Columns)

	// Date cells parsed.
	cell, ok := master.Cell(0, "DATETIME")
	require.True(t, ok)
	assert.Equal(t, time.Date(2023, 4, 1, 0, 0, 0, 0, time.UTC), cell)

	assert.Equal(t, []string{"A", "B"}, state.MetaData.LocIDAll)
	assert.Equal(t, []string{"Y", "X"}, state.MetaData.ColsNumericAll)
	assert.Equal(t, map[string]string{"A": "circle", "B": "square"}, state.MetaData.DictMarkerMap)
	// Predefined colors win over the palette.
	assert.Equal(t, map[string]string{"basalt": "#ff0000", "shale": "#00ff00"}, state.MetaData.DictGenericColors["Lithology"])

	pd := state.PlottingData
	assert.Equal(t, []string{"Y", "X"}, pd.FeatureValue)
	assert.Equal(t, []string{"A", "B"}, pd.LocIDValue)
	assert.Equal(t, "Lithology", pd.MapGroupValue)
	assert.Equal(t, DefaultNeighbors, pd.PMAPNeighbors)
}

func TestPreprocessCoordinateTable(t *testing.T) {
	state, err := newTestPreprocessor().Preprocess(context.Background(), rawUpload(t))
	require.NoError(t, err)

	coord, err := table.Decode(state.MetaData.DFCoordinate, "")
	require.NoError(t, err)
	assert.Equal(t, 2, coord.RowCount(), "one row per location")
	assert.True(t, coord.HasColumn("LONGITUDE"))
	assert.True(t, coord.HasColumn("Lithology"))
}

func TestPreprocessHashPredatesRenaming(t *testing.T) {
	raw := rawUpload(t)
	state, err := newTestPreprocessor().Preprocess(context.Background(), raw)
	require.NoError(t, err)

	master, err := state.MasterTable()
	require.NoError(t, err)
	assert.NotEqual(t, core.HashTable(master), state.DataHash.DataHash,
		"stored hash fingerprints the raw upload, not the renamed master")
}

func TestPreprocessUnparseableDateFallsBack(t *testing.T) {
	raw := rawUpload(t)
	dateCol, _ := raw.Col("DATETIME")
	raw.Rows[1][dateCol] = "not-a-date"

	fixed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	p := newTestPreprocessor()
	p.now = func() time.Time { return fixed }

	state, err := p.Preprocess(context.Background(), raw)
	require.NoError(t, err)

	master, err := state.MasterTable()
	require.NoError(t, err)
	cell, ok := master.Cell(1, "DATETIME")
	require.True(t, ok)
	// The split codec keeps dates at day precision.
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), cell)
}

func TestPreprocessRejectsBadSchema(t *testing.T) {
	tbl := table.New("LONGITUDE", "LATITUDE", "CLR-ANALYTE_X")
	require.NoError(t, tbl.AppendRow(-120.0, 45.0, 1.0))

	_, err := newTestPreprocessor().Preprocess(context.Background(), tbl)
	assert.True(t, core.IsSchemaError(err))
}

func TestPreprocessBlocksOnQualityViolations(t *testing.T) {
	raw := rawUpload(t)
	latCol, _ := raw.Col("LATITUDE")
	clrCol, _ := raw.Col("CLR-ANALYTE_X")
	raw.Rows[0][latCol] = 95.0 // out of bounds
	raw.Rows[2][clrCol] = 0.0  // CLR requires > 0

	_, err := newTestPreprocessor().Preprocess(context.Background(), raw)
	require.Error(t, err)

	var gateErr *core.QualityGateError
	require.ErrorAs(t, err, &gateErr)
	assert.ErrorIs(t, err, core.ErrQualityGateFailed)

	checks := map[string]bool{}
	for _, v := range gateErr.Violations {
		checks[v.Check] = true
	}
	assert.True(t, checks["lat_lon"])
	assert.True(t, checks["clr_positive"])
}

func TestPreprocessFlagsMissingNumeric(t *testing.T) {
	raw := rawUpload(t)
	yCol, _ := raw.Col("NUMERIC-ANALYTE_Y")
	raw.Rows[1][yCol] = nil

	_, err := newTestPreprocessor().Preprocess(context.Background(), raw)
	var gateErr *core.QualityGateError
	require.ErrorAs(t, err, &gateErr)

	found := false
	for _, v := range gateErr.Violations {
		if v.Check == "numeric_missing" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestPreprocessFlagsBadColorCode(t *testing.T) {
	raw := rawUpload(t)
	colorCol, _ := raw.Col("COLORS_Lithology")
	raw.Rows[2][colorCol] = "green"

	_, err := newTestPreprocessor().Preprocess(context.Background(), raw)
	var gateErr *core.QualityGateError
	require.ErrorAs(t, err, &gateErr)
	require.Len(t, gateErr.Violations, 1)
	assert.Equal(t, "color_codes", gateErr.Violations[0].Check)
	assert.Contains(t, gateErr.Violations[0].Detail, "green")
}
