package valuation

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"mna_valuation/pkg/core/fincalc"
	"mna_valuation/pkg/models"
)

// PrecedentInputs drives a Precedent Transaction Analysis run.
type PrecedentInputs struct {
	ValuationModelID uuid.UUID
	OrganizationID   uuid.UUID

	Transactions []fincalc.Comparable

	TargetRevenue float64
	TargetEBITDA  float64
	NetDebt       float64

	// Percent adjustment for where we are in the deal cycle relative to the
	// transaction set's vintage. Replaces the comps premium chain: deal
	// multiples already embed control premiums.
	MarketTimingAdjPct float64
}

// PrecedentService runs precedent-transaction valuations.
type PrecedentService struct {
	store Store
}

// NewPrecedentService wires the service; store may be nil.
func NewPrecedentService(store Store) *PrecedentService {
	return &PrecedentService{store: store}
}

// CreatePrecedentAnalysis applies the same median-of-set multiple selection
// as the comp analysis, sourced from historical M&A transactions, and
// additionally averages the observed deal premiums by buyer type.
func (s *PrecedentService) CreatePrecedentAnalysis(ctx context.Context, in PrecedentInputs) (*models.PrecedentTransactionAnalysis, error) {
	summary := fincalc.SummarizeMultiples(in.Transactions)

	analysis := &models.PrecedentTransactionAnalysis{
		ID:                 uuid.New(),
		ValuationModelID:   in.ValuationModelID,
		OrganizationID:     in.OrganizationID,
		Transactions:       in.Transactions,
		Summary:            summary,
		MarketTimingAdjPct: in.MarketTimingAdjPct,
		SampleSizeWarning:  len(in.Transactions) < smallSampleThreshold,
		CreatedAt:          time.Now(),
	}

	// 1. Buyer-type premium statistics
	analysis.AvgStrategicPremiumPct = averagePremium(in.Transactions, "strategic")
	analysis.AvgFinancialPremiumPct = averagePremium(in.Transactions, "financial")

	// 2. Median selection
	var implied []float64
	if summary.EVRevenue != nil && in.TargetRevenue > 0 {
		analysis.SelectedEVRevenue = summary.EVRevenue.Median
		implied = append(implied, analysis.SelectedEVRevenue*in.TargetRevenue)
	}
	if summary.EVEBITDA != nil && in.TargetEBITDA > 0 {
		analysis.SelectedEVEBITDA = summary.EVEBITDA.Median
		implied = append(implied, analysis.SelectedEVEBITDA*in.TargetEBITDA)
	}
	if len(implied) == 0 {
		return nil, ErrNoUsableMultiple
	}

	ev := 0.0
	for _, v := range implied {
		ev += v
	}
	ev /= float64(len(implied))

	// 3. Market-timing adjustment instead of size/marketability/control
	ev = ev * (1.0 + in.MarketTimingAdjPct/100.0)

	analysis.ImpliedEnterpriseValue = ev
	analysis.ImpliedEquityValue = ev - in.NetDebt

	if s.store != nil {
		if err := s.store.CreatePrecedentAnalysis(ctx, analysis); err != nil {
			return nil, fmt.Errorf("persist precedent analysis: %w", err)
		}
	}

	if analysis.SampleSizeWarning {
		log.Printf("[PRECEDENT] small transaction set (n=%d), median selection flagged", len(in.Transactions))
	}
	return analysis, nil
}

// averagePremium averages the observed deal premium across transactions of
// one buyer type; zero when the type is unrepresented.
func averagePremium(txns []fincalc.Comparable, buyerType string) float64 {
	sum, n := 0.0, 0
	for _, t := range txns {
		if strings.EqualFold(t.BuyerType, buyerType) && t.PremiumPct != 0 {
			sum += t.PremiumPct
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
