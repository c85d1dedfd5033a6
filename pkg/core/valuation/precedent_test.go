package valuation

import (
	"context"
	"math"
	"testing"

	"mna_valuation/pkg/core/fincalc"
)

func precedentSet() []fincalc.Comparable {
	return []fincalc.Comparable{
		{Name: "Deal1", EVEBITDA: 11, BuyerType: "strategic", PremiumPct: 35},
		{Name: "Deal2", EVEBITDA: 13, BuyerType: "strategic", PremiumPct: 25},
		{Name: "Deal3", EVEBITDA: 12, BuyerType: "financial", PremiumPct: 18},
	}
}

func TestCreatePrecedentAnalysis(t *testing.T) {
	svc := NewPrecedentService(nil)

	analysis, err := svc.CreatePrecedentAnalysis(context.Background(), PrecedentInputs{
		Transactions:       precedentSet(),
		TargetEBITDA:       100,
		NetDebt:            100,
		MarketTimingAdjPct: -10,
	})
	if err != nil {
		t.Fatalf("CreatePrecedentAnalysis failed: %v", err)
	}

	// Median EV/EBITDA of {11,12,13} is 12; timing haircut -10% -> 1080
	if analysis.SelectedEVEBITDA != 12 {
		t.Errorf("selected multiple expected 12, got %f", analysis.SelectedEVEBITDA)
	}
	if math.Abs(analysis.ImpliedEnterpriseValue-1080) > eps {
		t.Errorf("implied EV expected 1080, got %f", analysis.ImpliedEnterpriseValue)
	}
	if math.Abs(analysis.ImpliedEquityValue-980) > eps {
		t.Errorf("implied equity expected 980, got %f", analysis.ImpliedEquityValue)
	}

	// Buyer-type premium averages
	if math.Abs(analysis.AvgStrategicPremiumPct-30) > eps {
		t.Errorf("strategic premium expected 30, got %f", analysis.AvgStrategicPremiumPct)
	}
	if math.Abs(analysis.AvgFinancialPremiumPct-18) > eps {
		t.Errorf("financial premium expected 18, got %f", analysis.AvgFinancialPremiumPct)
	}
	if analysis.SampleSizeWarning {
		t.Error("three transactions must not flag the sample size")
	}
}

func TestCreatePrecedentAnalysisMissingBuyerType(t *testing.T) {
	svc := NewPrecedentService(nil)

	analysis, err := svc.CreatePrecedentAnalysis(context.Background(), PrecedentInputs{
		Transactions: []fincalc.Comparable{
			{Name: "Deal1", EVEBITDA: 10, BuyerType: "strategic", PremiumPct: 20},
			{Name: "Deal2", EVEBITDA: 12},
		},
		TargetEBITDA: 50,
	})
	if err != nil {
		t.Fatalf("CreatePrecedentAnalysis failed: %v", err)
	}
	if analysis.AvgFinancialPremiumPct != 0 {
		t.Errorf("unrepresented buyer type must average 0, got %f", analysis.AvgFinancialPremiumPct)
	}
	if !analysis.SampleSizeWarning {
		t.Error("n=2 must carry the small-sample warning")
	}
}
