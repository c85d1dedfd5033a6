package valuation

import (
	"context"
	"math"
	"testing"
)

func TestCreateLBOModel(t *testing.T) {
	svc := NewLBOService(nil)

	model, err := svc.CreateLBOModel(context.Background(), LBOInputs{
		PurchasePrice: 1000,
		EquityPct:     40,
		EntryEBITDA:   100,
		HoldYears:     5,
	})
	if err != nil {
		t.Fatalf("CreateLBOModel failed: %v", err)
	}

	// Funding identity
	if model.EquityInvestment != 400 || model.TotalDebt != 600 {
		t.Errorf("capital structure expected 400/600, got %f/%f", model.EquityInvestment, model.TotalDebt)
	}
	if err := model.ValidateCapitalStructure(); err != nil {
		t.Errorf("capital structure invariant violated: %v", err)
	}

	// Fixed 70/20/10 tranching
	if model.SeniorDebt != 420 || model.SubordinatedDebt != 120 || model.MezzanineDebt != 60 {
		t.Errorf("tranches expected 420/120/60, got %f/%f/%f",
			model.SeniorDebt, model.SubordinatedDebt, model.MezzanineDebt)
	}

	// Exit multiple defaults to the entry multiple (10x); flat EBITDA
	if model.EntryMultiple != 10 || model.ExitMultiple != 10 {
		t.Errorf("multiples expected 10/10, got %f/%f", model.EntryMultiple, model.ExitMultiple)
	}
	if model.ExitEV != 1000 {
		t.Errorf("exit EV expected 1000, got %f", model.ExitEV)
	}

	// Straight-line schedule ends at zero
	if len(model.DebtSchedule) != 5 || model.DebtSchedule[4] != 0 {
		t.Errorf("debt schedule must amortize to zero: %v", model.DebtSchedule)
	}
	if math.Abs(model.DebtSchedule[0]-480) > eps {
		t.Errorf("year 1 balance expected 480, got %f", model.DebtSchedule[0])
	}

	// Returns: 400 -> 1000 over 5 years
	if math.Abs(model.MOIC-2.5) > eps {
		t.Errorf("MOIC expected 2.5, got %f", model.MOIC)
	}
	wantIRR := (math.Pow(2.5, 0.2) - 1) * 100
	if math.Abs(model.IRRPct-wantIRR) > 0.05 {
		t.Errorf("IRR expected ~%f%%, got %f%%", wantIRR, model.IRRPct)
	}
	if math.Abs(model.CashOnCashPct-150) > eps {
		t.Errorf("cash-on-cash expected 150%%, got %f", model.CashOnCashPct)
	}
}

func TestCreateLBOModelMissingEBITDAGuard(t *testing.T) {
	svc := NewLBOService(nil)

	// Unset entry EBITDA must not divide by zero: entry multiple is 0
	model, err := svc.CreateLBOModel(context.Background(), LBOInputs{
		PurchasePrice: 500,
		EquityPct:     50,
		ExitEBITDA:    60,
		ExitMultiple:  9,
		HoldYears:     4,
	})
	if err != nil {
		t.Fatalf("CreateLBOModel failed: %v", err)
	}
	if model.EntryMultiple != 0 {
		t.Errorf("entry multiple expected 0 guard, got %f", model.EntryMultiple)
	}
	if model.ExitEV != 540 {
		t.Errorf("exit EV expected 540, got %f", model.ExitEV)
	}
}

func TestCreateLBOModelGrowsExitEBITDA(t *testing.T) {
	svc := NewLBOService(nil)

	model, err := svc.CreateLBOModel(context.Background(), LBOInputs{
		PurchasePrice:    1000,
		EquityPct:        40,
		EntryEBITDA:      100,
		HoldYears:        3,
		RevenueGrowthPct: 10,
	})
	if err != nil {
		t.Fatalf("CreateLBOModel failed: %v", err)
	}
	want := 100 * math.Pow(1.10, 3)
	if math.Abs(model.ExitEBITDA-want) > eps {
		t.Errorf("exit EBITDA expected %f, got %f", want, model.ExitEBITDA)
	}
}

func TestCreateLBOModelRejectsZeroPrice(t *testing.T) {
	svc := NewLBOService(nil)
	if _, err := svc.CreateLBOModel(context.Background(), LBOInputs{}); err == nil {
		t.Fatal("zero purchase price must be rejected")
	}
}

func TestRunLBOSensitivity(t *testing.T) {
	svc := NewLBOService(nil)

	in := LBOInputs{
		PurchasePrice: 1000,
		EquityPct:     40,
		EntryEBITDA:   100,
		HoldYears:     5,
	}
	multiples := []float64{8, 10, 12}
	growth := []float64{0, 5, 10}

	grid := svc.RunLBOSensitivity(context.Background(), in, multiples, growth)
	if len(grid) != 3 || len(grid[0]) != 3 {
		t.Fatalf("expected 3x3 grid, got %dx%d", len(grid), len(grid[0]))
	}

	// IRR rises with both exit multiple and growth
	for i := 1; i < 3; i++ {
		if grid[i][0] <= grid[i-1][0] {
			t.Errorf("IRR must increase in exit multiple: %v", grid)
		}
		if grid[0][i] <= grid[0][i-1] {
			t.Errorf("IRR must increase in growth: %v", grid)
		}
	}

	// 10x at 0% growth reproduces the base model's IRR
	wantIRR := (math.Pow(2.5, 0.2) - 1) * 100
	if math.Abs(grid[1][0]-wantIRR) > 0.05 {
		t.Errorf("grid center expected ~%f, got %f", wantIRR, grid[1][0])
	}
}
