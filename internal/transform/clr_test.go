package transform

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geolens/domain/core"
	"geolens/domain/table"
)

func TestCenterLogRatioRowsSumToZero(t *testing.T) {
	matrix := [][]float64{
		{1, 2, 3},
		{10, 20, 70},
		{0.5, 0.25, 0.25},
	}
	centerLogRatio(matrix)

	for i, row := range matrix {
		sum := 0.0
		for _, v := range row {
			sum += v
		}
		assert.InDelta(t, 0, sum, 1e-9, "row %d", i)
	}
}

func TestCenterLogRatioScaleInvariant(t *testing.T) {
	a := [][]float64{{1, 2, 3}}
	b := [][]float64{{100, 200, 300}}
	centerLogRatio(a)
	centerLogRatio(b)
	for j := range a[0] {
		assert.InDelta(t, a[0][j], b[0][j], 1e-9)
	}
}

func clrTable(t *testing.T) table.Table {
	t.Helper()
	tbl := table.New("X", "Z", "Y")
	require.NoError(t, tbl.AppendRow(1.0, 2.0, 5.0))
	require.NoError(t, tbl.AppendRow(3.0, 1.0, 7.0))
	require.NoError(t, tbl.AppendRow(2.0, 4.0, 9.0))
	require.NoError(t, tbl.AppendRow(5.0, 3.0, 11.0))
	return tbl
}

func TestCLRScaleStandardizesAllNumericColumns(t *testing.T) {
	out, err := CLRScale(clrTable(t), []string{"Y", "X", "Z"}, []string{"X", "Z"})
	require.NoError(t, err)

	for _, col := range []string{"X", "Y", "Z"} {
		values, err := out.Floats(col)
		require.NoError(t, err)

		mean, variance := 0.0, 0.0
		for _, v := range values {
			mean += v
		}
		mean /= float64(len(values))
		for _, v := range values {
			variance += (v - mean) * (v - mean)
		}
		variance /= float64(len(values))

		assert.InDelta(t, 0, mean, 1e-9, "column %s mean", col)
		assert.InDelta(t, 1, math.Sqrt(variance), 1e-9, "column %s std", col)
	}
}

func TestCLRScaleRejectsZero(t *testing.T) {
	tbl := table.New("X", "Z")
	require.NoError(t, tbl.AppendRow(1.0, 0.0))

	_, err := CLRScale(tbl, []string{"X", "Z"}, []string{"X", "Z"})
	assert.ErrorIs(t, err, core.ErrNonPositiveCLRValue)
	assert.True(t, core.IsTransformError(err))
}

func TestCLRScaleRejectsMissing(t *testing.T) {
	tbl := table.New("X", "Z")
	require.NoError(t, tbl.AppendRow(1.0, nil))

	_, err := CLRScale(tbl, []string{"X", "Z"}, []string{"X", "Z"})
	assert.ErrorIs(t, err, core.ErrNonPositiveCLRValue)
}

func TestCLRScaleConstantColumn(t *testing.T) {
	tbl := table.New("Y")
	require.NoError(t, tbl.AppendRow(4.0))
	require.NoError(t, tbl.AppendRow(4.0))

	out, err := CLRScale(tbl, []string{"Y"}, nil)
	require.NoError(t, err)

	values, err := out.Floats("Y")
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0}, values)
}

func TestCLRScaleDoesNotMutateInput(t *testing.T) {
	tbl := clrTable(t)
	_, err := CLRScale(tbl, []string{"X"}, []string{"X"})
	require.NoError(t, err)

	v, _ := tbl.Cell(0, "X")
	assert.Equal(t, 1.0, v)
}
