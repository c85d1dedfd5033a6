package fincalc

import (
	"math"
	"sort"
)

// Comparable is one observation in a trading-comp or precedent-transaction
// set. Zero means "not reported" and the observation is skipped for that
// multiple; negative multiples are treated the same way.
type Comparable struct {
	Name      string  `json:"name"`
	EVRevenue float64 `json:"ev_revenue"`
	EVEBITDA  float64 `json:"ev_ebitda"`
	PERatio   float64 `json:"pe_ratio"`

	// Transaction-only fields
	PremiumPct float64 `json:"premium_pct,omitempty"`
	BuyerType  string  `json:"buyer_type,omitempty"` // "strategic" or "financial"
	DealDate   string  `json:"deal_date,omitempty"`
}

// MultipleStats summarizes one multiple type across a comp set.
type MultipleStats struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	StdDev float64 `json:"std_dev"`
	Count  int     `json:"count"`
}

// MultipleSummary groups the per-multiple stats for a comp set. A multiple
// with zero observations is nil, never a zero-filled stats object: absent
// data must not read as data.
type MultipleSummary struct {
	EVRevenue *MultipleStats `json:"ev_revenue"`
	EVEBITDA  *MultipleStats `json:"ev_ebitda"`
	PERatio   *MultipleStats `json:"pe_ratio"`
}

// SummarizeMultiples computes mean/median/min/max/stddev per multiple type,
// skipping comps that do not report the multiple.
func SummarizeMultiples(comps []Comparable) MultipleSummary {
	var rev, ebitda, pe []float64
	for _, c := range comps {
		if c.EVRevenue > 0 {
			rev = append(rev, c.EVRevenue)
		}
		if c.EVEBITDA > 0 {
			ebitda = append(ebitda, c.EVEBITDA)
		}
		if c.PERatio > 0 {
			pe = append(pe, c.PERatio)
		}
	}
	return MultipleSummary{
		EVRevenue: describe(rev),
		EVEBITDA:  describe(ebitda),
		PERatio:   describe(pe),
	}
}

func describe(values []float64) *MultipleStats {
	n := len(values)
	if n == 0 {
		return nil
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	sum := 0.0
	for _, v := range sorted {
		sum += v
	}
	mean := sum / float64(n)

	variance := 0.0
	for _, v := range sorted {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(n)

	return &MultipleStats{
		Mean:   mean,
		Median: median(sorted),
		Min:    sorted[0],
		Max:    sorted[n-1],
		StdDev: math.Sqrt(variance),
		Count:  n,
	}
}

// median assumes a sorted slice.
func median(sorted []float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2.0
}

// Percentile returns the p-th percentile (0..100) of a sorted slice using
// linear interpolation between closest ranks.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}
	rank := p / 100.0 * float64(n-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo]*(1.0-frac) + sorted[hi]*frac
}
