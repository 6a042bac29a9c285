package projection

import (
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"

	"geolens/domain/core"
)

// embedSeed fixes the random state of the neighbor embedding so identical
// inputs always produce identical coordinates.
const embedSeed = 42

const (
	embedIterations = 300
	repulsionSample = 5
	initScale       = 0.01
)

// neighborEmbedding computes a nonlinear neighbor-preserving 2-D embedding of
// the transformed analyte matrix: pair attraction along the k-nearest-neighbor
// graph, sampled repulsion everywhere else, annealed step size. Initialization
// comes from the linear projection so runs are fully deterministic.
func neighborEmbedding(x *mat.Dense, pcaScores *mat.Dense, nNeighbors int) (*mat.Dense, error) {
	n, _ := x.Dims()
	if n < nNeighbors+1 {
		return nil, core.ErrInsufficientSamples
	}

	neighbors := nearestNeighbors(x, nNeighbors)
	rng := rand.New(rand.NewSource(embedSeed))

	// Seed coordinates from the PCA scores, shrunk toward the origin.
	y := mat.NewDense(n, 2, nil)
	for i := 0; i < n; i++ {
		y.Set(i, 0, pcaScores.At(i, 0)*initScale)
		y.Set(i, 1, pcaScores.At(i, 1)*initScale)
	}

	for iter := 0; iter < embedIterations; iter++ {
		lr := 1.0 - float64(iter)/float64(embedIterations)
		if lr < 0.01 {
			lr = 0.01
		}
		for i := 0; i < n; i++ {
			var gx, gy float64

			for _, j := range neighbors[i] {
				dx := y.At(i, 0) - y.At(j, 0)
				dy := y.At(i, 1) - y.At(j, 1)
				d2 := dx*dx + dy*dy
				w := 10.0 / (10.0 + d2)
				gx -= w * dx
				gy -= w * dy
			}

			for s := 0; s < repulsionSample; s++ {
				j := rng.Intn(n)
				if j == i {
					continue
				}
				dx := y.At(i, 0) - y.At(j, 0)
				dy := y.At(i, 1) - y.At(j, 1)
				d2 := dx*dx + dy*dy
				w := 1.0 / (1.0 + d2)
				gx += 0.5 * w * dx
				gy += 0.5 * w * dy
			}

			y.Set(i, 0, y.At(i, 0)+lr*0.1*gx)
			y.Set(i, 1, y.At(i, 1)+lr*0.1*gy)
		}
	}
	return y, nil
}

// nearestNeighbors returns the k nearest rows of each row under squared
// euclidean distance. Ties break on row order, keeping the graph stable.
func nearestNeighbors(x *mat.Dense, k int) [][]int {
	n, d := x.Dims()
	type candidate struct {
		idx  int
		dist float64
	}
	out := make([][]int, n)
	for i := 0; i < n; i++ {
		dists := make([]candidate, 0, n-1)
		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			var d2 float64
			for c := 0; c < d; c++ {
				diff := x.At(i, c) - x.At(j, c)
				d2 += diff * diff
			}
			dists = append(dists, candidate{idx: j, dist: d2})
		}
		sort.SliceStable(dists, func(a, b int) bool { return dists[a].dist < dists[b].dist })
		kk := k
		if kk > len(dists) {
			kk = len(dists)
		}
		idx := make([]int, kk)
		for j := 0; j < kk; j++ {
			idx[j] = dists[j].idx
		}
		out[i] = idx
	}
	return out
}
