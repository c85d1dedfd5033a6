package valuation

import (
	"context"

	"mna_valuation/pkg/models"
)

// Store is the persistence surface the orchestration services write through.
// A nil Store runs every methodology in memory without persisting, which is
// what the demo binary and the sensitivity sweeps use.
type Store interface {
	CreateValuationModel(ctx context.Context, v *models.ValuationModel) error
	UpdateValuationModel(ctx context.Context, v *models.ValuationModel) error
	CreateDCFModel(ctx context.Context, d *models.DCFModel) error
	CreateComparableAnalysis(ctx context.Context, c *models.ComparableCompanyAnalysis) error
	CreatePrecedentAnalysis(ctx context.Context, p *models.PrecedentTransactionAnalysis) error
	CreateLBOModel(ctx context.Context, l *models.LBOModel) error
}

// MarketData supplies cost-of-capital inputs when a run leaves them zero.
// All rates are percent.
type MarketData interface {
	RiskFreeRate(ctx context.Context, term string) float64
	MarketRiskPremium(ctx context.Context) float64
	CostOfDebtBenchmark(ctx context.Context, rating string) float64
}

// Below this many observations the median of a comp set stops being
// meaningful; analyses still complete but carry a warning flag.
const smallSampleThreshold = 3
