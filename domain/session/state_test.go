package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geolens/domain/core"
	"geolens/domain/schema"
	"geolens/domain/table"
)

func testState(t *testing.T) State {
	t.Helper()

	master := table.New("LOCATION-ID_1", "X")
	require.NoError(t, master.AppendRow("A", 1.25))
	require.NoError(t, master.AppendRow("B", 2.5))

	coord := table.New("LOCATION-ID_1", "LONGITUDE", "LATITUDE")
	require.NoError(t, coord.AppendRow("A", -120.0, 45.0))

	s := schema.Schema{
		Format:            schema.FormatCurrent,
		LocIDCol:          "LOCATION-ID_1",
		PlotGroupCols:     []string{"Lithology"},
		LongLatCols:       [2]string{"LONGITUDE", "LATITUDE"},
		MetaCols:          []string{"LOCATION-ID_1"},
		NumericAllCols:    []string{"X"},
		NumericSimpleCols: []string{},
		NumericCLRCols:    []string{"X"},
	}

	meta, err := NewMetaData(s,
		map[string]string{"A": "circle"},
		map[string]map[string]string{"Lithology": {"basalt": "#AA0DFE"}},
		[]string{"A", "B"},
		coord,
	)
	require.NoError(t, err)

	blob, err := table.Encode(master, "")
	require.NoError(t, err)

	return State{
		DFMaster: blob,
		MetaData: meta,
		DataHash: DataHash{DataHash: core.HashTable(master)},
		PlottingData: PlottingData{
			FeatureOptions: []string{"X"},
			FeatureValue:   []string{"X"},
			LocIDOptions:   []string{"A", "B"},
			LocIDValue:     []string{"A", "B"},
			PMAPNeighbors:  15,
		},
		Version: Version,
	}
}

func TestStateEncodeDecodeRoundTrip(t *testing.T) {
	state := testState(t)

	blob, err := state.Encode()
	require.NoError(t, err)

	got, err := Decode(blob)
	require.NoError(t, err)

	assert.Equal(t, state.MetaData, got.MetaData)
	assert.Equal(t, state.DataHash, got.DataHash)
	assert.Nil(t, got.WorkingData)
	assert.Equal(t, state.PlottingData, got.PlottingData)
	assert.Equal(t, Version, got.Version)

	master, err := got.MasterTable()
	require.NoError(t, err)
	x, err := master.Floats("X")
	require.NoError(t, err)
	assert.Equal(t, []float64{1.25, 2.5}, x)
}

func TestDecodeRejectsUnknownVersion(t *testing.T) {
	state := testState(t)
	state.Version = 99
	blob, err := state.Encode()
	require.NoError(t, err)

	_, err = Decode(blob)
	assert.Error(t, err)
}

func TestMetaDataSchemaRoundTrip(t *testing.T) {
	state := testState(t)
	s := state.MetaData.Schema()
	assert.Equal(t, "LOCATION-ID_1", s.LocIDCol)
	assert.Equal(t, []string{"Lithology"}, s.PlotGroupCols)
	assert.Equal(t, []string{"X"}, s.NumericCLRCols)
}

func TestCacheKeyTracksSelection(t *testing.T) {
	state := testState(t)

	sel := Selection{Features: []string{"X"}, LocIDs: []string{"A"}, NNeighbors: 15}
	key := state.CacheKey(sel)
	assert.Equal(t, key, state.CacheKey(sel))

	sel2 := sel
	sel2.NNeighbors = 5
	assert.NotEqual(t, key, state.CacheKey(sel2))

	// Group dropdowns do not participate: the projection ignores them.
	sel3 := sel
	sel3.MapGroup = "Lithology"
	assert.Equal(t, key, state.CacheKey(sel3))
}

func TestApplyWorkingDataSwapsAtomically(t *testing.T) {
	state := testState(t)

	loading := table.New("PC1", "PC2", "analyte")
	require.NoError(t, loading.AppendRow(0.7, 0.3, "X"))
	wd, err := PackageWorkingData(table.New("PC1", "PC2"), table.New("PMAP1", "PMAP2"), loading, [2]float64{0.8, 0.15}, "")
	require.NoError(t, err)

	sel := Selection{
		Features:   []string{"X"},
		LocIDs:     []string{"A"},
		MapGroup:   "Lithology",
		PlotGroup1: "Lithology",
		PlotGroup2: "Lithology",
		NNeighbors: 5,
	}
	next := state.ApplyWorkingData(wd, sel)

	// The original state is untouched.
	assert.Nil(t, state.WorkingData)
	assert.Equal(t, []string{"A", "B"}, state.PlottingData.LocIDValue)

	require.NotNil(t, next.WorkingData)
	assert.Equal(t, [2]float64{0.8, 0.15}, next.WorkingData.ExplVar)
	assert.Equal(t, []string{"A"}, next.PlottingData.LocIDValue)
	assert.Equal(t, 5, next.PlottingData.PMAPNeighbors)
	// Options survive; only values move.
	assert.Equal(t, []string{"A", "B"}, next.PlottingData.LocIDOptions)
}
