package valuation

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/google/uuid"

	"mna_valuation/pkg/core/fincalc"
	"mna_valuation/pkg/models"
)

// Debt tranching of total debt. Fixed platform policy, not an input.
const (
	seniorDebtShare       = 0.70
	subordinatedDebtShare = 0.20
	mezzanineDebtShare    = 0.10
)

// LBOInputs drives one leveraged-buyout run.
type LBOInputs struct {
	ValuationModelID uuid.UUID
	OrganizationID   uuid.UUID

	PurchasePrice float64
	EquityPct     float64 // percent of purchase price funded with equity
	EntryEBITDA   float64
	HoldYears     int

	// Exit assumptions. ExitEBITDA of 0 projects entry EBITDA forward at
	// RevenueGrowthPct; ExitMultiple of 0 defaults to the entry multiple.
	ExitEBITDA       float64
	ExitMultiple     float64
	RevenueGrowthPct float64

	// Interim equity distributions (dividends), one per hold year or fewer.
	Distributions []float64
}

// LBOService runs buyout models.
type LBOService struct {
	store Store
}

// NewLBOService wires the service; store may be nil.
func NewLBOService(store Store) *LBOService {
	return &LBOService{store: store}
}

// CreateLBOModel builds the capital structure (fixed 70/20/10 tranching),
// amortizes debt straight-line across the hold period, values the exit at
// exit EBITDA x exit multiple and computes sponsor returns.
func (s *LBOService) CreateLBOModel(ctx context.Context, in LBOInputs) (*models.LBOModel, error) {
	if in.PurchasePrice <= 0 {
		return nil, fmt.Errorf("valuation: purchase price must be positive")
	}
	if in.HoldYears <= 0 {
		in.HoldYears = 5
	}

	// 1. Sources of funds
	equity := in.PurchasePrice * in.EquityPct / 100.0
	totalDebt := in.PurchasePrice - equity

	// 2. Entry multiple, guarded against a missing EBITDA
	entryMultiple := 0.0
	if in.EntryEBITDA > 0 {
		entryMultiple = in.PurchasePrice / in.EntryEBITDA
	}

	// 3. Exit assumptions
	exitMultiple := in.ExitMultiple
	if exitMultiple == 0 {
		exitMultiple = entryMultiple
	}
	exitEBITDA := in.ExitEBITDA
	if exitEBITDA == 0 {
		exitEBITDA = in.EntryEBITDA * math.Pow(1.0+in.RevenueGrowthPct/100.0, float64(in.HoldYears))
	}

	// 4. Straight-line debt schedule: equal paydown each year of the hold
	schedule := make([]float64, in.HoldYears)
	annualPaydown := totalDebt / float64(in.HoldYears)
	remaining := totalDebt
	for y := 0; y < in.HoldYears; y++ {
		remaining -= annualPaydown
		if remaining < 0 {
			remaining = 0
		}
		schedule[y] = remaining
	}

	// 5. Exit and returns
	exitEV := fincalc.TerminalValueExitMultiple(exitEBITDA, exitMultiple)
	exitEquity := exitEV - schedule[in.HoldYears-1]
	returns := fincalc.LBOReturns(equity, exitEquity, in.HoldYears, in.Distributions)
	if !returns.IRRConverged {
		log.Printf("[LBO] IRR did not converge for model %s; reporting 0", in.ValuationModelID)
	}

	model := &models.LBOModel{
		ID:               uuid.New(),
		ValuationModelID: in.ValuationModelID,
		OrganizationID:   in.OrganizationID,

		PurchasePrice:    in.PurchasePrice,
		EquityPct:        in.EquityPct,
		EquityInvestment: equity,
		TotalDebt:        totalDebt,

		SeniorDebt:       totalDebt * seniorDebtShare,
		SubordinatedDebt: totalDebt * subordinatedDebtShare,
		MezzanineDebt:    totalDebt * mezzanineDebtShare,

		EntryEBITDA:   in.EntryEBITDA,
		EntryMultiple: entryMultiple,
		ExitEBITDA:    exitEBITDA,
		ExitMultiple:  exitMultiple,
		HoldYears:     in.HoldYears,

		DebtSchedule:  schedule,
		ExitEV:        exitEV,
		ExitEquity:    exitEquity,
		MOIC:          returns.MOIC,
		IRRPct:        returns.IRRPct,
		CashOnCashPct: returns.CashOnCashPct,

		CreatedAt: time.Now(),
	}

	if err := model.ValidateCapitalStructure(); err != nil {
		return nil, err
	}
	if s.store != nil {
		if err := s.store.CreateLBOModel(ctx, model); err != nil {
			return nil, fmt.Errorf("persist lbo model: %w", err)
		}
	}

	log.Printf("[LBO] price=%.0f equity=%.0f moic=%.2fx irr=%.1f%%",
		model.PurchasePrice, model.EquityInvestment, model.MOIC, model.IRRPct)
	return model, nil
}

// RunLBOSensitivity sweeps IRR over exit multiple (rows) x revenue growth
// (columns). Cells where the IRR has no root are zero.
func (s *LBOService) RunLBOSensitivity(ctx context.Context, in LBOInputs, exitMultiples, growthRates []float64) [][]float64 {
	if in.HoldYears <= 0 {
		in.HoldYears = 5
	}

	equity := in.PurchasePrice * in.EquityPct / 100.0

	return fincalc.TwoWaySensitivity(exitMultiples, growthRates, func(mult, growth float64) float64 {
		exitEBITDA := in.EntryEBITDA * math.Pow(1.0+growth/100.0, float64(in.HoldYears))
		exitEV := fincalc.TerminalValueExitMultiple(exitEBITDA, mult)

		// Straight-line paydown over the hold leaves no debt at exit
		returns := fincalc.LBOReturns(equity, exitEV, in.HoldYears, in.Distributions)
		if !returns.IRRConverged {
			return 0
		}
		return returns.IRRPct
	})
}
