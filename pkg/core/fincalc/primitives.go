package fincalc

import (
	"errors"
	"math"
)

// Unit convention for this package:
//   - Rate-building and adjustment functions (WACC, CostOfEquity, premiums,
//     growth rates, tax rates) work in PERCENT (12 means 12%).
//   - Discounting functions (NPV, IRR, TerminalValuePerpetuity,
//     EnterpriseValueFromDCF) work in DECIMAL rates (0.12 means 12%).
// The orchestration layer converts at the boundary (wacc / 100).

const (
	irrMaxIterations = 1000
	irrTolerance     = 1e-6
)

// ErrIRRNotConverged is returned when neither Newton-Raphson nor the bisection
// fallback finds a root. Callers must not treat the partial rate as a result.
var ErrIRRNotConverged = errors.New("fincalc: IRR did not converge")

// ErrDiscountBelowGrowth guards the Gordon growth model: the perpetuity formula
// is undefined when the discount rate does not exceed the growth rate.
var ErrDiscountBelowGrowth = errors.New("fincalc: discount rate must exceed terminal growth rate")

// WACC computes the Weighted Average Cost of Capital from percent-denominated
// component costs and a D/E ratio.
//
// Weights follow from D/E = x: We = 1/(1+x), Wd = x/(1+x). The debt leg is
// tax-shielded. Inputs are not validated; negative rates are the caller's
// responsibility.
func WACC(costEquityPct, costDebtPct, taxRatePct, debtToEquity float64) float64 {
	we := 1.0 / (1.0 + debtToEquity)
	wd := debtToEquity / (1.0 + debtToEquity)
	return costEquityPct*we + costDebtPct*(1.0-taxRatePct/100.0)*wd
}

// CostOfEquity applies CAPM: Rf + beta * ERP. Percent in, percent out.
func CostOfEquity(riskFreePct, beta, marketRiskPremiumPct float64) float64 {
	return riskFreePct + beta*marketRiskPremiumPct
}

// NPV discounts a cash-flow series at a decimal rate. Index 0 is treated as
// period 0 and is not discounted.
func NPV(cashFlows []float64, rate float64) float64 {
	npv := 0.0
	for t, cf := range cashFlows {
		npv += cf / math.Pow(1.0+rate, float64(t))
	}
	return npv
}

// IRR solves for the decimal rate at which NPV(cashFlows) = 0.
//
// Newton-Raphson from the supplied guess (use 0.1 when indifferent), capped at
// 1000 iterations with 1e-6 tolerance. If Newton stalls or diverges, a
// bisection fallback scans [-0.99, 10] for a bracketing sign change. A series
// whose NPV never crosses zero has no IRR; that is reported as
// ErrIRRNotConverged rather than a silently wrong rate.
func IRR(cashFlows []float64, guess float64) (float64, error) {
	rate := guess

	for i := 0; i < irrMaxIterations; i++ {
		npv := NPV(cashFlows, rate)
		if math.Abs(npv) < irrTolerance {
			return rate, nil
		}

		// Analytic derivative of the NPV polynomial
		deriv := 0.0
		for t := 1; t < len(cashFlows); t++ {
			deriv -= float64(t) * cashFlows[t] / math.Pow(1.0+rate, float64(t+1))
		}
		if deriv == 0 || math.IsNaN(deriv) || math.IsInf(deriv, 0) {
			break
		}

		next := rate - npv/deriv
		if math.IsNaN(next) || math.IsInf(next, 0) || next <= -1.0 {
			break
		}
		rate = next
	}

	return irrBisect(cashFlows)
}

// irrBisect brackets a root over [-0.99, 10] and bisects. Step of 0.01 is
// coarse enough to be cheap and fine enough for any realistic deal IRR.
func irrBisect(cashFlows []float64) (float64, error) {
	lo, hi := -0.99, 10.0
	fLo := NPV(cashFlows, lo)

	step := 0.01
	for x := lo + step; x <= hi; x += step {
		fx := NPV(cashFlows, x)
		if fLo*fx <= 0 {
			// Bracketed; bisect down to tolerance
			a, b := x-step, x
			for i := 0; i < irrMaxIterations; i++ {
				mid := (a + b) / 2.0
				fm := NPV(cashFlows, mid)
				if math.Abs(fm) < irrTolerance || (b-a)/2.0 < irrTolerance {
					return mid, nil
				}
				if fLo*fm < 0 {
					b = mid
				} else {
					a = mid
					fLo = fm
				}
			}
			return (a + b) / 2.0, nil
		}
		fLo = fx
	}

	return 0, ErrIRRNotConverged
}

// TerminalValuePerpetuity computes the Gordon growth terminal value
// FCF * (1+g) / (r - g) with decimal rates. Errors when r <= g.
func TerminalValuePerpetuity(finalFCF, discountRate, growthRate float64) (float64, error) {
	if discountRate <= growthRate {
		return 0, ErrDiscountBelowGrowth
	}
	return finalFCF * (1.0 + growthRate) / (discountRate - growthRate), nil
}

// TerminalValueExitMultiple values the terminal year as EBITDA * multiple.
func TerminalValueExitMultiple(finalEBITDA, multiple float64) float64 {
	return finalEBITDA * multiple
}

// ProjectRevenue compounds a base revenue through percent growth rates, one
// projected value per year. When years exceeds the supplied rates, the last
// rate carries forward for the remaining years.
func ProjectRevenue(base float64, growthRatesPct []float64, years int) []float64 {
	out := make([]float64, 0, years)
	rev := base
	for y := 0; y < years; y++ {
		rate := 0.0
		if len(growthRatesPct) > 0 {
			if y < len(growthRatesPct) {
				rate = growthRatesPct[y]
			} else {
				rate = growthRatesPct[len(growthRatesPct)-1]
			}
		}
		rev = rev * (1.0 + rate/100.0)
		out = append(out, rev)
	}
	return out
}

// FreeCashFlow rolls EBITDA down to unlevered free cash flow:
// EBIT*(1-t) + D&A - capex - change in NWC. Tax in percent.
func FreeCashFlow(ebitda, depreciation, taxRatePct, capex, nwcChange float64) float64 {
	ebit := ebitda - depreciation
	nopat := ebit * (1.0 - taxRatePct/100.0)
	return nopat + depreciation - capex - nwcChange
}

// DCFBreakdown carries the full audit trail of an enterprise-value
// calculation: every discount factor and present value, not just the total.
type DCFBreakdown struct {
	DiscountFactors []float64
	PresentValues   []float64
	PVCashFlows     float64
	PVTerminal      float64
	EnterpriseValue float64
}

// EnterpriseValueFromDCF discounts projected cash flows and a terminal value
// at a decimal WACC. Year t (0-based) uses factor 1/(1+w)^(t+1); the terminal
// value is discounted at the final period's factor.
func EnterpriseValueFromDCF(cashFlows []float64, terminalValue, wacc float64) DCFBreakdown {
	b := DCFBreakdown{
		DiscountFactors: make([]float64, len(cashFlows)),
		PresentValues:   make([]float64, len(cashFlows)),
	}

	lastFactor := 1.0
	for t, cf := range cashFlows {
		factor := 1.0 / math.Pow(1.0+wacc, float64(t+1))
		b.DiscountFactors[t] = factor
		b.PresentValues[t] = cf * factor
		b.PVCashFlows += b.PresentValues[t]
		lastFactor = factor
	}

	b.PVTerminal = terminalValue * lastFactor
	b.EnterpriseValue = b.PVCashFlows + b.PVTerminal
	return b
}

// EquityValue bridges enterprise value to equity value.
func EquityValue(enterpriseValue, cash, debt, minorityInterest, preferredStock float64) float64 {
	return enterpriseValue + cash - debt - minorityInterest - preferredStock
}

// LBOReturnsResult holds the sponsor return metrics for one deal.
type LBOReturnsResult struct {
	MOIC          float64
	IRRPct        float64
	CashOnCashPct float64
	IRRConverged  bool
}

// LBOReturns computes MOIC, IRR and cash-on-cash for an equity investment.
//
// MOIC = (exit + distributions) / initial. IRR runs over an annual series of
// length holdYears+1: the investment at year 0, distributions in their years,
// and the exit proceeds in the final year. When that series has no root,
// IRRConverged is false and IRRPct is 0 (callers decide whether to surface or
// suppress).
func LBOReturns(initialEquity, exitEquity float64, holdYears int, distributions []float64) LBOReturnsResult {
	if holdYears < 1 {
		holdYears = 1
	}

	totalDist := 0.0
	for _, d := range distributions {
		totalDist += d
	}

	res := LBOReturnsResult{}
	if initialEquity != 0 {
		res.MOIC = (exitEquity + totalDist) / initialEquity
		res.CashOnCashPct = (exitEquity + totalDist - initialEquity) / initialEquity * 100.0
	}

	flows := make([]float64, holdYears+1)
	flows[0] = -initialEquity
	for i, d := range distributions {
		if i < holdYears {
			flows[i+1] += d
		}
	}
	flows[holdYears] += exitEquity

	irr, err := IRR(flows, 0.1)
	if err == nil {
		res.IRRPct = irr * 100.0
		res.IRRConverged = true
	}
	return res
}

// ApplyControlPremium grosses a value up by a percent premium.
func ApplyControlPremium(value, premiumPct float64) float64 {
	return value * (1.0 + premiumPct/100.0)
}

// ApplyMarketabilityDiscount haircuts a value by a percent discount.
func ApplyMarketabilityDiscount(value, discountPct float64) float64 {
	return value * (1.0 - discountPct/100.0)
}

// ApplySizePremium haircuts a value for small-company risk: a size premium
// on the required return lowers what the implied comp-set value is worth for
// a smaller target.
func ApplySizePremium(value, premiumPct float64) float64 {
	return value * (1.0 - premiumPct/100.0)
}
