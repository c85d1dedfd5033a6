package fincalc

import (
	"math/rand"
	"testing"
)

func TestSensitivityAnalysisGrid(t *testing.T) {
	calls := 0
	points := SensitivityAnalysis([]float64{0.08, 0.09, 0.10}, func(w float64) float64 {
		calls++
		return 100.0 / w
	})

	if calls != 3 {
		t.Errorf("every grid point must be a fresh call, got %d calls", calls)
	}
	if len(points) != 3 {
		t.Fatalf("expected 3 points, got %d", len(points))
	}
	if !almostEqual(points[0].Value, 1250.0, eps) {
		t.Errorf("point 0 expected 1250, got %f", points[0].Value)
	}
	if points[2].ParamValue != 0.10 {
		t.Errorf("param values must be echoed back in order")
	}
}

func TestTwoWaySensitivityRowMajor(t *testing.T) {
	grid := TwoWaySensitivity([]float64{1, 2}, []float64{10, 20, 30}, func(r, c float64) float64 {
		return r * c
	})

	if len(grid) != 2 || len(grid[0]) != 3 {
		t.Fatalf("expected 2x3 grid, got %dx%d", len(grid), len(grid[0]))
	}
	if grid[1][2] != 60 {
		t.Errorf("grid[1][2] expected 60, got %f", grid[1][2])
	}
}

func TestMonteCarloValuation(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	base := map[string]float64{"growth": 5.0, "margin": 20.0}
	dists := map[string]Distribution{
		"growth": {Mean: 5.0, StdDev: 1.0},
	}

	// Valuation is linear in growth, so the simulated mean should sit near
	// the distribution mean and the untouched parameter must pass through.
	res := MonteCarloValuation(base, dists, func(p map[string]float64) float64 {
		if p["margin"] != 20.0 {
			t.Fatal("non-varying parameter must keep its base value")
		}
		return 100.0 * p["growth"]
	}, 5000, rng)

	if res.Iterations != 5000 {
		t.Errorf("iterations expected 5000, got %d", res.Iterations)
	}
	if !almostEqual(res.Mean, 500.0, 10.0) {
		t.Errorf("mean expected ~500, got %f", res.Mean)
	}
	if !almostEqual(res.StdDev, 100.0, 10.0) {
		t.Errorf("stddev expected ~100, got %f", res.StdDev)
	}
	if len(res.Sample) != 100 {
		t.Errorf("raw sample expected 100 draws, got %d", len(res.Sample))
	}
	if res.Percentiles[10] >= res.Percentiles[50] || res.Percentiles[50] >= res.Percentiles[90] {
		t.Error("percentiles must be ordered")
	}
	if res.Min > res.Percentiles[10] || res.Max < res.Percentiles[90] {
		t.Error("min/max must bound the percentiles")
	}
}

func TestMonteCarloDefaultIterations(t *testing.T) {
	res := MonteCarloValuation(map[string]float64{"x": 1}, nil, func(p map[string]float64) float64 {
		return p["x"]
	}, 0, rand.New(rand.NewSource(1)))
	if res.Iterations != DefaultMonteCarloIterations {
		t.Errorf("expected default %d iterations, got %d", DefaultMonteCarloIterations, res.Iterations)
	}
	// No distributions: every draw is the base case
	if res.StdDev != 0 || res.Mean != 1 {
		t.Errorf("degenerate run expected mean 1 stddev 0, got %f/%f", res.Mean, res.StdDev)
	}
}
