package valuation

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	hjson "github.com/hjson/hjson-go/v4"

	"mna_valuation/pkg/core/fincalc"
	"mna_valuation/pkg/models"
)

// CompsInputs drives a Comparable Company Analysis run.
type CompsInputs struct {
	ValuationModelID uuid.UUID
	OrganizationID   uuid.UUID

	Comparables []fincalc.Comparable

	// Target metrics (LTM)
	TargetRevenue float64
	TargetEBITDA  float64
	NetDebt       float64

	// Adjustment chain, percent. Applied size premium -> marketability
	// discount -> control premium, in that order.
	SizePremiumPct           float64
	MarketabilityDiscountPct float64
	ControlPremiumPct        float64
}

// CompsService runs trading-comp valuations.
type CompsService struct {
	store Store
}

// NewCompsService wires the service; store may be nil.
func NewCompsService(store Store) *CompsService {
	return &CompsService{store: store}
}

// ErrNoUsableMultiple is returned when neither EV/Revenue nor EV/EBITDA can
// be applied to the target.
var ErrNoUsableMultiple = fmt.Errorf("valuation: comp set yields no usable multiple for the target")

// CreateComparableAnalysis summarizes the comp set, selects the MEDIAN of
// each multiple (conservative against outlier comps), derives the implied
// enterprise value and bridges to equity.
//
// When both the revenue- and EBITDA-implied values are available they are
// averaged; with fewer than three comps the median is statistically shaky, so
// the run completes but carries SampleSizeWarning.
func (s *CompsService) CreateComparableAnalysis(ctx context.Context, in CompsInputs) (*models.ComparableCompanyAnalysis, error) {
	summary := fincalc.SummarizeMultiples(in.Comparables)

	analysis := &models.ComparableCompanyAnalysis{
		ID:                   uuid.New(),
		ValuationModelID:     in.ValuationModelID,
		OrganizationID:       in.OrganizationID,
		Comparables:          in.Comparables,
		Summary:              summary,
		SizePremiumPct:       in.SizePremiumPct,
		MarketabilityDiscPct: in.MarketabilityDiscountPct,
		ControlPremiumPct:    in.ControlPremiumPct,
		SampleSizeWarning:    len(in.Comparables) < smallSampleThreshold,
		CreatedAt:            time.Now(),
	}

	// 1. Median selection, always derived from the set
	var implied []float64
	if summary.EVRevenue != nil && in.TargetRevenue > 0 {
		analysis.SelectedEVRevenue = summary.EVRevenue.Median
		implied = append(implied, analysis.SelectedEVRevenue*in.TargetRevenue)
	}
	if summary.EVEBITDA != nil && in.TargetEBITDA > 0 {
		analysis.SelectedEVEBITDA = summary.EVEBITDA.Median
		implied = append(implied, analysis.SelectedEVEBITDA*in.TargetEBITDA)
	}
	if summary.PERatio != nil {
		analysis.SelectedPE = summary.PERatio.Median
	}
	if len(implied) == 0 {
		return nil, ErrNoUsableMultiple
	}

	// 2. Average the available implied values
	ev := 0.0
	for _, v := range implied {
		ev += v
	}
	ev /= float64(len(implied))

	// 3. Adjustment chain, fixed order
	ev = fincalc.ApplySizePremium(ev, in.SizePremiumPct)
	ev = fincalc.ApplyMarketabilityDiscount(ev, in.MarketabilityDiscountPct)
	ev = fincalc.ApplyControlPremium(ev, in.ControlPremiumPct)

	analysis.ImpliedEnterpriseValue = ev
	analysis.ImpliedEquityValue = ev - in.NetDebt

	if s.store != nil {
		if err := s.store.CreateComparableAnalysis(ctx, analysis); err != nil {
			return nil, fmt.Errorf("persist comparable analysis: %w", err)
		}
	}

	if analysis.SampleSizeWarning {
		log.Printf("[COMPS] small comp set (n=%d), median selection flagged", len(in.Comparables))
	}
	return analysis, nil
}

// ParseComparableSet reads an analyst-supplied comp set file. Strict JSON is
// tried first; hjson second, because hand-maintained sets routinely carry
// comments and trailing commas.
func ParseComparableSet(data []byte) ([]fincalc.Comparable, error) {
	var comps []fincalc.Comparable
	if err := json.Unmarshal(data, &comps); err == nil {
		return comps, nil
	}

	if err := hjson.Unmarshal(data, &comps); err != nil {
		return nil, fmt.Errorf("comp set is neither valid JSON nor HJSON: %w", err)
	}
	return comps, nil
}
