package fincalc

import (
	"math"
	"math/rand"
	"sort"
)

// SensitivityPoint is one cell of a one-dimensional sweep.
type SensitivityPoint struct {
	ParamValue float64 `json:"param_value"`
	Value      float64 `json:"value"`
}

// SensitivityAnalysis re-runs a valuation closure across a grid of values for
// one parameter. Every grid point is a fresh call; nothing is cached.
func SensitivityAnalysis(paramValues []float64, valuationFn func(float64) float64) []SensitivityPoint {
	out := make([]SensitivityPoint, 0, len(paramValues))
	for _, p := range paramValues {
		out = append(out, SensitivityPoint{ParamValue: p, Value: valuationFn(p)})
	}
	return out
}

// TwoWaySensitivity sweeps two parameters jointly. The result is row-major:
// result[i][j] = fn(rowValues[i], colValues[j]).
func TwoWaySensitivity(rowValues, colValues []float64, valuationFn func(row, col float64) float64) [][]float64 {
	out := make([][]float64, len(rowValues))
	for i, r := range rowValues {
		out[i] = make([]float64, len(colValues))
		for j, c := range colValues {
			out[i][j] = valuationFn(r, c)
		}
	}
	return out
}

// Distribution specifies an independent normal for one sampled parameter.
type Distribution struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
}

// MonteCarloResult summarizes the simulated valuation distribution.
type MonteCarloResult struct {
	Iterations  int                `json:"iterations"`
	Mean        float64            `json:"mean"`
	StdDev      float64            `json:"std_dev"`
	Min         float64            `json:"min"`
	Max         float64            `json:"max"`
	Percentiles map[int]float64    `json:"percentiles"` // 10/25/50/75/90
	Sample      []float64          `json:"sample"`      // first 100 raw draws
	Assumptions map[string]float64 `json:"assumptions"` // base case echoed back
}

// DefaultMonteCarloIterations matches the platform's standard run size.
const DefaultMonteCarloIterations = 10000

// MonteCarloValuation samples each parameter in dists from an independent
// normal around the base assumptions and re-values through valuationFn.
//
// Known simplification carried over deliberately: parameters are sampled
// independently, with no correlation matrix. Growth and margins move together
// in the real world; this model does not capture that.
func MonteCarloValuation(
	base map[string]float64,
	dists map[string]Distribution,
	valuationFn func(map[string]float64) float64,
	iterations int,
	rng *rand.Rand,
) MonteCarloResult {
	if iterations <= 0 {
		iterations = DefaultMonteCarloIterations
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}

	draws := make([]float64, 0, iterations)
	params := make(map[string]float64, len(base))

	for i := 0; i < iterations; i++ {
		for k, v := range base {
			params[k] = v
		}
		for k, d := range dists {
			params[k] = d.Mean + d.StdDev*rng.NormFloat64()
		}
		draws = append(draws, valuationFn(params))
	}

	res := MonteCarloResult{
		Iterations:  iterations,
		Percentiles: make(map[int]float64, 5),
		Assumptions: base,
	}

	sum := 0.0
	for _, v := range draws {
		sum += v
	}
	res.Mean = sum / float64(iterations)

	variance := 0.0
	for _, v := range draws {
		variance += (v - res.Mean) * (v - res.Mean)
	}
	res.StdDev = math.Sqrt(variance / float64(iterations))

	sorted := make([]float64, len(draws))
	copy(sorted, draws)
	sort.Float64s(sorted)
	res.Min = sorted[0]
	res.Max = sorted[len(sorted)-1]
	for _, p := range []int{10, 25, 50, 75, 90} {
		res.Percentiles[p] = Percentile(sorted, float64(p))
	}

	sampleN := 100
	if len(draws) < sampleN {
		sampleN = len(draws)
	}
	res.Sample = draws[:sampleN]

	return res
}
