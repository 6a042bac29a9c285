package projection

import "github.com/montanaflynn/stats"

// PCScaler min-max scales a projected axis by dividing it by its range. A
// zero-range axis (all values equal) is returned unchanged to avoid a
// division by zero.
func PCScaler(series []float64) []float64 {
	if len(series) == 0 {
		return series
	}
	max, _ := stats.Max(series)
	min, _ := stats.Min(series)
	span := max - min
	if span == 0 {
		return append([]float64(nil), series...)
	}
	out := make([]float64, len(series))
	for i, v := range series {
		out[i] = v / span
	}
	return out
}
