// Package transform applies the centered-log-ratio transform to closed
// compositional columns and z-score standardization to the full numeric
// selection. The fit is always on the current row/column subset, never on the
// full original dataset, so it is recomputed per query and never cached.
package transform

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"

	"geolens/domain/core"
	"geolens/domain/table"
)

// CLRScale returns a new table in which clrCols have been CLR-transformed
// (closure, natural log, per-row geometric-mean centering) and every column
// in numericAll has then been standardized to zero mean and unit variance.
//
// Zeros in the compositional columns are coerced to missing first; any
// missing value is then fatal, per the transform's precondition.
func CLRScale(t table.Table, numericAll, clrCols []string) (table.Table, error) {
	out := t.Clone()

	if len(clrCols) > 0 {
		clrMatrix, err := compositionalMatrix(out, clrCols)
		if err != nil {
			return table.Table{}, err
		}
		centerLogRatio(clrMatrix)
		for j, col := range clrCols {
			column := make([]float64, len(clrMatrix))
			for i := range clrMatrix {
				column[i] = clrMatrix[i][j]
			}
			if out, err = out.WithColumn(col, column); err != nil {
				return table.Table{}, err
			}
		}
	}

	for _, col := range numericAll {
		values, err := out.Floats(col)
		if err != nil {
			return table.Table{}, fmt.Errorf("%w: %v", core.ErrTransform, err)
		}
		if out, err = out.WithColumn(col, standardize(values)); err != nil {
			return table.Table{}, err
		}
	}
	return out, nil
}

// compositionalMatrix extracts the CLR columns row-major, turning
// non-positive cells into NaN and rejecting the subset if any cell ends up
// missing.
func compositionalMatrix(t table.Table, clrCols []string) ([][]float64, error) {
	matrix := make([][]float64, t.RowCount())
	for i := range matrix {
		matrix[i] = make([]float64, len(clrCols))
	}
	for j, col := range clrCols {
		values, err := t.Floats(col)
		if err != nil {
			return nil, fmt.Errorf("%w: column %q: %v", core.ErrNonPositiveCLRValue, col, err)
		}
		for i, v := range values {
			if v <= 0 || math.IsNaN(v) {
				return nil, fmt.Errorf("%w: column %q row %d", core.ErrNonPositiveCLRValue, col, i)
			}
			matrix[i][j] = v
		}
	}
	return matrix, nil
}

// centerLogRatio applies closure, log and per-row centering in place. A
// transformed row of strictly positive inputs sums to (approximately) zero.
func centerLogRatio(matrix [][]float64) {
	for _, row := range matrix {
		sum := 0.0
		for _, v := range row {
			sum += v
		}
		mean := 0.0
		for j, v := range row {
			row[j] = math.Log(v / sum)
			mean += row[j]
		}
		nvars := len(row)
		if nvars == 0 {
			nvars = 1
		}
		mean /= float64(nvars)
		for j := range row {
			row[j] -= mean
		}
	}
}

// standardize z-scores a column with the population standard deviation. A
// constant column keeps its centered values (scale 1) instead of dividing by
// zero.
func standardize(values []float64) []float64 {
	mean, _ := stats.Mean(values)
	std, _ := stats.StandardDeviationPopulation(values)
	if std == 0 {
		std = 1
	}
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = (v - mean) / std
	}
	return out
}
