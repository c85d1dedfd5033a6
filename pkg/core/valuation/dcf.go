package valuation

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"mna_valuation/pkg/core/fincalc"
	"mna_valuation/pkg/models"
)

// DCFInputs enumerates every assumption a DCF run recognizes. Percent fields
// are percent-denominated. Zero-valued cost-of-capital inputs are filled from
// the market data accessor.
type DCFInputs struct {
	ValuationModelID uuid.UUID
	OrganizationID   uuid.UUID
	Scenario         models.DCFScenario

	// Operating assumptions
	BaseRevenue       float64
	RevenueGrowthPct  []float64 // per year; last rate reused past the slice
	ProjectionYears   int
	EBITDAMarginPct   float64
	DepreciationPct   float64 // % of revenue
	CapexPct          float64 // % of revenue
	NWCPctOfRevChange float64 // % of period-over-period revenue change
	TaxRatePct        float64

	// Cost of capital
	RiskFreeRatePct      float64
	Beta                 float64
	MarketRiskPremiumPct float64
	CostOfDebtPct        float64
	CreditRating         string // benchmark lookup when CostOfDebtPct is 0
	DebtToEquity         float64

	// Terminal value
	TerminalMethod    models.TerminalValueMethod
	TerminalGrowthPct float64
	ExitMultiple      float64

	// Equity bridge
	Cash             float64
	Debt             float64
	MinorityInterest float64
	PreferredStock   float64
}

// DCFService assembles inputs, runs the primitives library and persists one
// DCFModel row per call.
type DCFService struct {
	store  Store
	market MarketData
}

// NewDCFService wires the service. market may not be nil; store may be.
func NewDCFService(store Store, market MarketData) *DCFService {
	return &DCFService{store: store, market: market}
}

// fillMarketDefaults resolves zero-valued cost-of-capital inputs from the
// market data accessor and applies structural defaults.
func (s *DCFService) fillMarketDefaults(ctx context.Context, in *DCFInputs) {
	if in.RiskFreeRatePct == 0 {
		in.RiskFreeRatePct = s.market.RiskFreeRate(ctx, "10y")
	}
	if in.MarketRiskPremiumPct == 0 {
		in.MarketRiskPremiumPct = s.market.MarketRiskPremium(ctx)
	}
	if in.Beta == 0 {
		in.Beta = 1.0
	}
	if in.CostOfDebtPct == 0 {
		rating := in.CreditRating
		if rating == "" {
			rating = "BBB"
		}
		in.CostOfDebtPct = s.market.CostOfDebtBenchmark(ctx, rating)
	}
	if in.ProjectionYears == 0 {
		in.ProjectionYears = 5
	}
	if in.Scenario == "" {
		in.Scenario = models.ScenarioBase
	}
	if in.TerminalMethod == "" {
		in.TerminalMethod = models.TVPerpetuityGrowth
	}
}

// CreateDCFModel derives cost of equity -> WACC -> year-by-year projections
// -> free cash flows -> terminal value -> enterprise and equity value, and
// persists the full projection arrays for auditability.
func (s *DCFService) CreateDCFModel(ctx context.Context, in DCFInputs) (*models.DCFModel, error) {
	s.fillMarketDefaults(ctx, &in)

	model, err := buildDCF(in)
	if err != nil {
		return nil, err
	}
	if err := model.Validate(); err != nil {
		return nil, err
	}

	if s.store != nil {
		if err := s.store.CreateDCFModel(ctx, model); err != nil {
			return nil, fmt.Errorf("persist dcf model: %w", err)
		}
	}

	log.Printf("[DCF] scenario=%s wacc=%.2f%% ev=%.0f equity=%.0f",
		model.Scenario, model.WACC, model.EnterpriseValue, model.EquityValue)
	return model, nil
}

// buildDCF derives the discount rate then delegates to buildDCFAtWACC.
// Pure; inputs must already carry market defaults.
func buildDCF(in DCFInputs) (*models.DCFModel, error) {
	ke := fincalc.CostOfEquity(in.RiskFreeRatePct, in.Beta, in.MarketRiskPremiumPct)
	wacc := fincalc.WACC(ke, in.CostOfDebtPct, in.TaxRatePct, in.DebtToEquity)
	return buildDCFAtWACC(in, ke, wacc)
}

// buildDCFAtWACC runs the projection and discounting pipeline at an explicit
// WACC, which is what sensitivity sweeps override.
func buildDCFAtWACC(in DCFInputs, costOfEquityPct, waccPct float64) (*models.DCFModel, error) {
	// 1. Operating projections
	revenues := fincalc.ProjectRevenue(in.BaseRevenue, in.RevenueGrowthPct, in.ProjectionYears)

	n := in.ProjectionYears
	ebitda := make([]float64, n)
	ebit := make([]float64, n)
	nopat := make([]float64, n)
	capex := make([]float64, n)
	depreciation := make([]float64, n)
	nwcChanges := make([]float64, n)
	fcf := make([]float64, n)

	prevRevenue := in.BaseRevenue
	for y := 0; y < n; y++ {
		rev := revenues[y]
		ebitda[y] = rev * in.EBITDAMarginPct / 100.0
		depreciation[y] = rev * in.DepreciationPct / 100.0
		ebit[y] = ebitda[y] - depreciation[y]
		nopat[y] = ebit[y] * (1.0 - in.TaxRatePct/100.0)
		capex[y] = rev * in.CapexPct / 100.0
		nwcChanges[y] = (rev - prevRevenue) * in.NWCPctOfRevChange / 100.0
		fcf[y] = fincalc.FreeCashFlow(ebitda[y], depreciation[y], in.TaxRatePct, capex[y], nwcChanges[y])
		prevRevenue = rev
	}

	// 2. Terminal value
	var terminalValue float64
	switch in.TerminalMethod {
	case models.TVExitMultiple:
		terminalValue = fincalc.TerminalValueExitMultiple(ebitda[n-1], in.ExitMultiple)
	default:
		tv, err := fincalc.TerminalValuePerpetuity(fcf[n-1], waccPct/100.0, in.TerminalGrowthPct/100.0)
		if err != nil {
			return nil, fmt.Errorf("terminal value: %w", err)
		}
		terminalValue = tv
	}

	// 3. Discount and bridge
	breakdown := fincalc.EnterpriseValueFromDCF(fcf, terminalValue, waccPct/100.0)
	equity := fincalc.EquityValue(breakdown.EnterpriseValue, in.Cash, in.Debt, in.MinorityInterest, in.PreferredStock)

	return &models.DCFModel{
		ID:               uuid.New(),
		ValuationModelID: in.ValuationModelID,
		OrganizationID:   in.OrganizationID,
		Scenario:         in.Scenario,

		RiskFreeRate:      in.RiskFreeRatePct,
		Beta:              in.Beta,
		MarketRiskPremium: in.MarketRiskPremiumPct,
		CostOfEquity:      costOfEquityPct,
		CostOfDebt:        in.CostOfDebtPct,
		TaxRate:           in.TaxRatePct,
		DebtToEquity:      in.DebtToEquity,
		WACC:              waccPct,

		TerminalMethod: in.TerminalMethod,
		TerminalGrowth: in.TerminalGrowthPct,
		ExitMultiple:   in.ExitMultiple,
		TerminalValue:  terminalValue,

		ProjectionYears:       n,
		RevenueProjections:    revenues,
		EBITDAProjections:     ebitda,
		EBITProjections:       ebit,
		NOPATProjections:      nopat,
		CapexProjections:      capex,
		DepreciationProj:      depreciation,
		WorkingCapitalChanges: nwcChanges,
		FreeCashFlows:         fcf,
		DiscountFactors:       breakdown.DiscountFactors,
		PresentValues:         breakdown.PresentValues,

		EnterpriseValue: breakdown.EnterpriseValue,
		EquityValue:     equity,

		CreatedAt: time.Now(),
	}, nil
}

// Sensitivity parameters recognized by RunSensitivity.
const (
	ParamWACC           = "wacc"
	ParamTerminalGrowth = "terminal_growth"
	ParamRevenueGrowth  = "revenue_growth"
)

// RunSensitivity re-derives terminal value and enterprise value across a grid
// of percent values for one named parameter. A grid point that violates the
// r > g guard contributes zero instead of aborting the sweep; a zero cell in
// a sensitivity table reads as "model undefined here", which is the
// convention analysts expect.
func (s *DCFService) RunSensitivity(ctx context.Context, in DCFInputs, param string, values []float64) ([]fincalc.SensitivityPoint, error) {
	s.fillMarketDefaults(ctx, &in)

	ke := fincalc.CostOfEquity(in.RiskFreeRatePct, in.Beta, in.MarketRiskPremiumPct)

	var fn func(float64) float64
	switch param {
	case ParamWACC:
		fn = func(v float64) float64 {
			model, err := buildDCFAtWACC(in, ke, v)
			if err != nil {
				return 0
			}
			return model.EnterpriseValue
		}
	case ParamTerminalGrowth:
		fn = func(v float64) float64 {
			run := in
			run.TerminalGrowthPct = v
			model, err := buildDCF(run)
			if err != nil {
				return 0
			}
			return model.EnterpriseValue
		}
	case ParamRevenueGrowth:
		fn = func(v float64) float64 {
			run := in
			run.RevenueGrowthPct = []float64{v}
			model, err := buildDCF(run)
			if err != nil {
				return 0
			}
			return model.EnterpriseValue
		}
	default:
		return nil, fmt.Errorf("unsupported sensitivity parameter %q", param)
	}

	return fincalc.SensitivityAnalysis(values, fn), nil
}
