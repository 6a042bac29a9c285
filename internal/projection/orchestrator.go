// Package projection orchestrates one dimension-reduction run: subset the
// master table by the user's location and feature selections, apply the
// compositional transform, and package a linear and a nonlinear 2-D
// projection for plotting.
package projection

import (
	"gonum.org/v1/gonum/mat"

	"geolens/domain/core"
	"geolens/domain/schema"
	"geolens/domain/table"
	"geolens/internal/transform"
)

// Params is the user-controlled query of one run.
type Params struct {
	Features   []string
	LocIDs     []string
	NNeighbors int
}

// Output packages both projected tables, the loading matrix and the
// explained-variance pair of the linear projection, plus the cache key that
// identifies the run.
type Output struct {
	DFPlotPCA     table.Table
	DFPlotPMAP    table.Table
	LoadingMatrix table.Table
	ExplVar       [2]float64
	CacheKey      string
}

// Run executes the full orchestration. On any failure the caller keeps its
// previous working data; no partial output is ever returned.
func Run(master table.Table, s schema.Schema, p Params, hash core.ContentHash) (Output, error) {
	sub := subsetLocIDs(master, s.LocIDCol, p.LocIDs)

	sub, analytes, clrSub := subsetNumericFeatures(sub, s, p.Features)
	if len(analytes) < 2 {
		return Output{}, core.ErrInsufficientFeatures
	}
	if sub.RowCount() < p.NNeighbors+1 {
		return Output{}, core.ErrInsufficientSamples
	}

	transformed, err := transform.CLRScale(sub, analytes, clrSub)
	if err != nil {
		return Output{}, err
	}

	pca, err := runPCA(transformed, analytes)
	if err != nil {
		return Output{}, err
	}

	x, err := denseMatrix(transformed, analytes)
	if err != nil {
		return Output{}, err
	}
	embedded, err := neighborEmbedding(x, pca.scores, p.NNeighbors)
	if err != nil {
		return Output{}, err
	}

	metaCols := retainedMeta(transformed, s)
	dfPCA, err := biplotTable(pca.scores, transformed, metaCols, "PC")
	if err != nil {
		return Output{}, err
	}
	dfPMAP, err := biplotTable(embedded, transformed, metaCols, "PMAP")
	if err != nil {
		return Output{}, err
	}

	return Output{
		DFPlotPCA:     dfPCA,
		DFPlotPMAP:    dfPMAP,
		LoadingMatrix: pca.loading,
		ExplVar:       pca.explVar,
		CacheKey:      core.ProjectionCacheKey(p.Features, p.LocIDs, p.NNeighbors, hash),
	}, nil
}

// subsetLocIDs keeps the rows whose location id is in the selection. All
// columns are preserved.
func subsetLocIDs(t table.Table, locIDCol string, locIDs []string) table.Table {
	want := make(map[string]bool, len(locIDs))
	for _, id := range locIDs {
		want[id] = true
	}
	col, ok := t.Col(locIDCol)
	if !ok {
		return t.FilterRows(func(int) bool { return false })
	}
	return t.FilterRows(func(r int) bool {
		return want[core.CanonicalCell(t.Rows[r][col])]
	})
}

// subsetNumericFeatures keeps meta columns plus the selected analytes,
// preserving the master table's original column order, and splits the
// selection back into all/clr lists.
func subsetNumericFeatures(t table.Table, s schema.Schema, features []string) (table.Table, []string, []string) {
	selected := make(map[string]bool, len(features))
	for _, f := range features {
		selected[f] = true
	}
	numeric := make(map[string]bool, len(s.NumericAllCols))
	for _, c := range s.NumericAllCols {
		numeric[c] = true
	}

	var simpleSub, clrSub []string
	for _, c := range s.NumericSimpleCols {
		if selected[c] {
			simpleSub = append(simpleSub, c)
		}
	}
	for _, c := range s.NumericCLRCols {
		if selected[c] {
			clrSub = append(clrSub, c)
		}
	}
	allSub := append(append([]string{}, simpleSub...), clrSub...)

	keep := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		if !numeric[c] || selected[c] {
			keep = append(keep, c)
		}
	}
	return t.Select(keep), allSub, clrSub
}

// retainedMeta lists the schema's meta columns still present in the subset,
// in subset column order.
func retainedMeta(t table.Table, s schema.Schema) []string {
	meta := make(map[string]bool, len(s.MetaCols))
	for _, c := range s.MetaCols {
		meta[c] = true
	}
	var out []string
	for _, c := range t.Columns {
		if meta[c] {
			out = append(out, c)
		}
	}
	return out
}

// biplotTable joins the two projected axes with the retained meta columns
// and min-max scales the axes for plotting.
func biplotTable(scores *mat.Dense, full table.Table, metaCols []string, prefix string) (table.Table, error) {
	n, _ := scores.Dims()
	axis1 := make([]float64, n)
	axis2 := make([]float64, n)
	for i := 0; i < n; i++ {
		axis1[i] = scores.At(i, 0)
		axis2[i] = scores.At(i, 1)
	}
	axis1 = PCScaler(axis1)
	axis2 = PCScaler(axis2)

	meta := full.Select(metaCols)
	out := table.Table{
		Columns: append([]string{prefix + "1", prefix + "2"}, meta.Columns...),
		Index:   append([]int(nil), full.Index...),
		Rows:    make([][]any, n),
	}
	for i := 0; i < n; i++ {
		row := make([]any, 0, 2+len(meta.Columns))
		row = append(row, axis1[i], axis2[i])
		row = append(row, meta.Rows[i]...)
		out.Rows[i] = row
	}
	return out, nil
}
