package projection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geolens/domain/core"
	"geolens/domain/schema"
	"geolens/domain/table"
)

func testSchema() schema.Schema {
	return schema.Schema{
		Format:            schema.FormatCurrent,
		LocIDCol:          "LOCATION-ID_1",
		PlotGroupCols:     []string{"Lithology"},
		LongLatCols:       [2]string{"LONGITUDE", "LATITUDE"},
		MetaCols:          []string{"LATITUDE", "LOCATION-ID_1", "LONGITUDE", "Lithology"},
		NumericAllCols:    []string{"Y", "X", "Z"},
		NumericSimpleCols: []string{"Y"},
		NumericCLRCols:    []string{"X", "Z"},
	}
}

func testMaster(t *testing.T) table.Table {
	t.Helper()
	tbl := table.New("LATITUDE", "LOCATION-ID_1", "LONGITUDE", "Lithology", "Y", "X", "Z")
	rows := [][]any{
		{45.1, "A", -120.1, "basalt", 1.0, 2.0, 7.0},
		{45.2, "A", -120.2, "basalt", 2.5, 3.5, 5.0},
		{45.3, "B", -120.3, "shale", 4.0, 1.5, 9.0},
		{45.4, "B", -120.4, "shale", 3.0, 6.0, 2.0},
		{45.5, "C", -120.5, "basalt", 5.5, 4.0, 8.0},
		{45.6, "C", -120.6, "shale", 2.0, 7.5, 3.0},
		{45.7, "A", -120.7, "basalt", 6.0, 2.5, 6.5},
	}
	for _, r := range rows {
		require.NoError(t, tbl.AppendRow(r...))
	}
	return tbl
}

func TestRunProducesBothProjections(t *testing.T) {
	master := testMaster(t)
	s := testSchema()
	hash := core.HashTable(master)

	out, err := Run(master, s, Params{
		Features:   []string{"Y", "X", "Z"},
		LocIDs:     []string{"A", "B", "C"},
		NNeighbors: 2,
	}, hash)
	require.NoError(t, err)

	wantCols := []string{"PC1", "PC2", "LATITUDE", "LOCATION-ID_1", "LONGITUDE", "Lithology"}
	assert.Equal(t, wantCols, out.DFPlotPCA.Columns)
	assert.Equal(t, []string{"PMAP1", "PMAP2", "LATITUDE", "LOCATION-ID_1", "LONGITUDE", "Lithology"}, out.DFPlotPMAP.Columns)
	assert.Equal(t, master.RowCount(), out.DFPlotPCA.RowCount())
	assert.Equal(t, master.RowCount(), out.DFPlotPMAP.RowCount())

	assert.Equal(t, []string{"PC1", "PC2", "analyte"}, out.LoadingMatrix.Columns)
	assert.Equal(t, 3, out.LoadingMatrix.RowCount())

	total := out.ExplVar[0] + out.ExplVar[1]
	assert.Greater(t, out.ExplVar[0], 0.0)
	assert.GreaterOrEqual(t, out.ExplVar[0], out.ExplVar[1])
	assert.LessOrEqual(t, total, 1.0+1e-9)

	assert.Equal(t, core.ProjectionCacheKey([]string{"Y", "X", "Z"}, []string{"A", "B", "C"}, 2, hash), out.CacheKey)
}

func TestRunIsDeterministic(t *testing.T) {
	master := testMaster(t)
	s := testSchema()
	p := Params{Features: []string{"Y", "X", "Z"}, LocIDs: []string{"A", "B", "C"}, NNeighbors: 2}
	hash := core.HashTable(master)

	a, err := Run(master, s, p, hash)
	require.NoError(t, err)
	b, err := Run(master, s, p, hash)
	require.NoError(t, err)

	assert.Equal(t, a.DFPlotPMAP.Rows, b.DFPlotPMAP.Rows)
	assert.Equal(t, a.DFPlotPCA.Rows, b.DFPlotPCA.Rows)
}

func TestRunSubsetsLocationIDs(t *testing.T) {
	master := testMaster(t)
	s := testSchema()

	out, err := Run(master, s, Params{
		Features:   []string{"Y", "X", "Z"},
		LocIDs:     []string{"A", "B"},
		NNeighbors: 2,
	}, core.HashTable(master))
	require.NoError(t, err)

	// Rows 0,1,2,3,6 carry location A or B.
	assert.Equal(t, 5, out.DFPlotPCA.RowCount())
	assert.Equal(t, []int{0, 1, 2, 3, 6}, out.DFPlotPCA.Index)
	ids, ok := out.DFPlotPCA.Values("LOCATION-ID_1")
	require.True(t, ok)
	assert.NotContains(t, ids, "C")
}

func TestRunInsufficientFeatures(t *testing.T) {
	master := testMaster(t)
	_, err := Run(master, testSchema(), Params{
		Features:   []string{"Y"},
		LocIDs:     []string{"A", "B", "C"},
		NNeighbors: 2,
	}, core.HashTable(master))
	assert.ErrorIs(t, err, core.ErrInsufficientFeatures)
	assert.True(t, core.IsProjectionError(err))
}

func TestRunInsufficientSamples(t *testing.T) {
	master := testMaster(t)
	_, err := Run(master, testSchema(), Params{
		Features:   []string{"Y", "X", "Z"},
		LocIDs:     []string{"A"},
		NNeighbors: 5,
	}, core.HashTable(master))
	assert.ErrorIs(t, err, core.ErrInsufficientSamples)
}

func TestRunRejectsNonPositiveCLRSubset(t *testing.T) {
	master := testMaster(t)
	require.NoError(t, master.AppendRow(45.8, "A", -120.8, "basalt", 1.0, -2.0, 3.0))

	_, err := Run(master, testSchema(), Params{
		Features:   []string{"Y", "X", "Z"},
		LocIDs:     []string{"A", "B", "C"},
		NNeighbors: 2,
	}, core.HashTable(master))
	assert.ErrorIs(t, err, core.ErrNonPositiveCLRValue)
}
