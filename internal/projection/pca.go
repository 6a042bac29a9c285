package projection

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"geolens/domain/core"
	"geolens/domain/table"
)

// pcaResult carries the linear projection of one analyte subset.
type pcaResult struct {
	scores  *mat.Dense // n x 2
	loading table.Table
	explVar [2]float64
}

// runPCA fits a 2-component principal-component projection on the analyte
// columns of a transformed subset. Scores are computed on mean-centered
// data; the loading matrix holds the component weight per analyte.
func runPCA(t table.Table, analytes []string) (pcaResult, error) {
	if len(analytes) < 2 {
		return pcaResult{}, core.ErrInsufficientFeatures
	}
	x, err := denseMatrix(t, analytes)
	if err != nil {
		return pcaResult{}, err
	}

	var pc stat.PC
	if ok := pc.PrincipalComponents(x, nil); !ok {
		return pcaResult{}, fmt.Errorf("%w: principal components did not converge", core.ErrProjection)
	}
	var vecs mat.Dense
	pc.VectorsTo(&vecs)
	vars := pc.VarsTo(nil)
	if _, vcols := vecs.Dims(); vcols < 2 {
		return pcaResult{}, core.ErrInsufficientSamples
	}

	n, d := x.Dims()
	centered := mat.NewDense(n, d, nil)
	for j := 0; j < d; j++ {
		col := mat.Col(nil, j, x)
		mean := stat.Mean(col, nil)
		for i := 0; i < n; i++ {
			centered.Set(i, j, x.At(i, j)-mean)
		}
	}

	components := vecs.Slice(0, d, 0, 2)
	var scores mat.Dense
	scores.Mul(centered, components)

	total := 0.0
	for _, v := range vars {
		total += v
	}
	var explVar [2]float64
	if total > 0 {
		explVar = [2]float64{vars[0] / total, vars[1] / total}
	}

	loading := table.New("PC1", "PC2", "analyte")
	for i, name := range analytes {
		if err := loading.AppendRow(components.At(i, 0), components.At(i, 1), name); err != nil {
			return pcaResult{}, err
		}
	}

	return pcaResult{scores: &scores, loading: loading, explVar: explVar}, nil
}

// denseMatrix extracts the named columns into a gonum matrix, row-major.
func denseMatrix(t table.Table, columns []string) (*mat.Dense, error) {
	n := t.RowCount()
	d := len(columns)
	if n == 0 || d == 0 {
		return nil, core.ErrInsufficientSamples
	}
	x := mat.NewDense(n, d, nil)
	for j, col := range columns {
		values, err := t.Floats(col)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", core.ErrProjection, err)
		}
		for i, v := range values {
			x.Set(i, j, v)
		}
	}
	return x, nil
}
