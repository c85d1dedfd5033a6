package valuation

import (
	"context"
	"math"
	"testing"

	"mna_valuation/pkg/core/fincalc"
)

func TestCreateComparableAnalysisMedianSelection(t *testing.T) {
	svc := NewCompsService(nil)

	// Medians: EV/EBITDA 10. Target EBITDA 100 -> implied EV 1000 before
	// adjustments; 20% marketability discount then 30% control premium
	// gives 1040 (the documented chain order).
	analysis, err := svc.CreateComparableAnalysis(context.Background(), CompsInputs{
		Comparables: []fincalc.Comparable{
			{Name: "PeerA", EVEBITDA: 8},
			{Name: "PeerB", EVEBITDA: 10},
			{Name: "PeerC", EVEBITDA: 12},
		},
		TargetEBITDA:             100,
		NetDebt:                  40,
		MarketabilityDiscountPct: 20,
		ControlPremiumPct:        30,
	})
	if err != nil {
		t.Fatalf("CreateComparableAnalysis failed: %v", err)
	}

	if analysis.SelectedEVEBITDA != 10 {
		t.Errorf("selected multiple must be the set median, got %f", analysis.SelectedEVEBITDA)
	}
	if math.Abs(analysis.ImpliedEnterpriseValue-1040) > eps {
		t.Errorf("implied EV expected 1040, got %f", analysis.ImpliedEnterpriseValue)
	}
	if math.Abs(analysis.ImpliedEquityValue-1000) > eps {
		t.Errorf("implied equity expected 1000, got %f", analysis.ImpliedEquityValue)
	}
	if analysis.SampleSizeWarning {
		t.Error("three comps must not trigger the small-sample warning")
	}
}

func TestCreateComparableAnalysisAveragesBothMultiples(t *testing.T) {
	svc := NewCompsService(nil)

	// EV/Revenue median 2 x 500 = 1000; EV/EBITDA median 12 x 100 = 1200;
	// averaged to 1100 with no adjustments
	analysis, err := svc.CreateComparableAnalysis(context.Background(), CompsInputs{
		Comparables: []fincalc.Comparable{
			{Name: "A", EVRevenue: 1.5, EVEBITDA: 10},
			{Name: "B", EVRevenue: 2.0, EVEBITDA: 12},
			{Name: "C", EVRevenue: 2.5, EVEBITDA: 14},
		},
		TargetRevenue: 500,
		TargetEBITDA:  100,
	})
	if err != nil {
		t.Fatalf("CreateComparableAnalysis failed: %v", err)
	}
	if math.Abs(analysis.ImpliedEnterpriseValue-1100) > eps {
		t.Errorf("averaged EV expected 1100, got %f", analysis.ImpliedEnterpriseValue)
	}
}

func TestCreateComparableAnalysisSmallSampleFlag(t *testing.T) {
	svc := NewCompsService(nil)

	analysis, err := svc.CreateComparableAnalysis(context.Background(), CompsInputs{
		Comparables:  []fincalc.Comparable{{Name: "Only", EVEBITDA: 9}},
		TargetEBITDA: 100,
	})
	if err != nil {
		t.Fatalf("small set must still complete: %v", err)
	}
	if !analysis.SampleSizeWarning {
		t.Error("n=1 must carry the small-sample warning")
	}
	if analysis.SelectedEVEBITDA != 9 {
		t.Errorf("median of one observation is that observation, got %f", analysis.SelectedEVEBITDA)
	}
}

func TestCreateComparableAnalysisNoUsableMultiple(t *testing.T) {
	svc := NewCompsService(nil)

	// Comps report only P/E; target supplies no metrics either
	_, err := svc.CreateComparableAnalysis(context.Background(), CompsInputs{
		Comparables: []fincalc.Comparable{{Name: "A", PERatio: 18}},
	})
	if err != ErrNoUsableMultiple {
		t.Errorf("expected ErrNoUsableMultiple, got %v", err)
	}
}

func TestParseComparableSetStrictJSON(t *testing.T) {
	comps, err := ParseComparableSet([]byte(`[{"name":"A","ev_ebitda":9.5}]`))
	if err != nil {
		t.Fatalf("strict JSON must parse: %v", err)
	}
	if len(comps) != 1 || comps[0].EVEBITDA != 9.5 {
		t.Errorf("parsed set wrong: %+v", comps)
	}
}

func TestParseComparableSetHJSON(t *testing.T) {
	// Hand-maintained sets carry comments and trailing commas
	src := `[
		{
			name: PeerA
			ev_ebitda: 10.5 # LTM
		},
	]`
	comps, err := ParseComparableSet([]byte(src))
	if err != nil {
		t.Fatalf("hjson must parse: %v", err)
	}
	if len(comps) != 1 || comps[0].Name != "PeerA" || comps[0].EVEBITDA != 10.5 {
		t.Errorf("parsed set wrong: %+v", comps)
	}
}

func TestParseComparableSetGarbage(t *testing.T) {
	if _, err := ParseComparableSet([]byte("<html>")); err == nil {
		t.Error("garbage input must be rejected")
	}
}
