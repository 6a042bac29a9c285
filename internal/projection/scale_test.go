package projection

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPCScalerDividesByRange(t *testing.T) {
	got := PCScaler([]float64{10, 20, 30, 40, 50})
	assert.InDeltaSlice(t, []float64{0.25, 0.5, 0.75, 1.0, 1.25}, got, 1e-9)
}

func TestPCScalerConstantSeries(t *testing.T) {
	got := PCScaler([]float64{3, 3, 3})
	assert.Equal(t, []float64{3, 3, 3}, got)
}

func TestPCScalerEmpty(t *testing.T) {
	assert.Empty(t, PCScaler(nil))
}

func TestPCScalerNegativeValues(t *testing.T) {
	got := PCScaler([]float64{-2, 0, 2})
	assert.InDeltaSlice(t, []float64{-0.5, 0, 0.5}, got, 1e-9)
}
