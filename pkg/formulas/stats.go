package formulas

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Mean calculates the arithmetic mean of a slice of float64 values
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// StdDev calculates the sample standard deviation of a slice of float64 values.
// Fewer than two observations have no spread and return 0.
func StdDev(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	return stat.StdDev(data, nil)
}

// Min returns the smallest value, or 0 for an empty slice
func Min(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return floats.Min(data)
}

// Max returns the largest value, or 0 for an empty slice
func Max(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return floats.Max(data)
}

// ArgMax returns the index of the maximum value.
// Ties resolve to the first maximising index; an empty slice returns -1.
func ArgMax(data []float64) int {
	if len(data) == 0 {
		return -1
	}
	return floats.MaxIdx(data)
}

// Ints converts integer observations (scores, fund changes) for the helpers above
func Ints(data []int) []float64 {
	out := make([]float64, len(data))
	for i, v := range data {
		out[i] = float64(v)
	}
	return out
}

// Summary bundles the descriptive statistics reported for a batch of runs
type Summary struct {
	Min    float64 `json:"min" msgpack:"min"`
	Mean   float64 `json:"mean" msgpack:"mean"`
	Max    float64 `json:"max" msgpack:"max"`
	StdDev float64 `json:"std_dev" msgpack:"std_dev"`
	Count  int     `json:"count" msgpack:"count"`
}

// Summarize computes min/mean/max/stddev over data
func Summarize(data []float64) Summary {
	return Summary{
		Min:    Min(data),
		Mean:   Mean(data),
		Max:    Max(data),
		StdDev: StdDev(data),
		Count:  len(data),
	}
}
