package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"

	"mna_valuation/pkg/core/fincalc"
	"mna_valuation/pkg/core/marketdata"
	"mna_valuation/pkg/core/report"
	"mna_valuation/pkg/core/valuation"
	"mna_valuation/pkg/models"
)

// Runs all four methodologies against a sample target without a database.
// The market data provider points nowhere, so the run also demonstrates the
// fallback-to-default path.
func main() {
	reportPath := flag.String("report", "", "write a PDF report to this path")
	flag.Parse()

	ctx := context.Background()
	market := marketdata.NewService(marketdata.NewScrapingProvider(""), nil, uuid.Nil)

	dcfSvc := valuation.NewDCFService(nil, market)
	compsSvc := valuation.NewCompsService(nil)
	precedentSvc := valuation.NewPrecedentService(nil)
	lboSvc := valuation.NewLBOService(nil)
	master := valuation.NewMasterService(nil, dcfSvc, compsSvc, precedentSvc, lboSvc)

	res, err := master.CreateComprehensiveValuation(ctx, valuation.ComprehensiveInputs{
		TargetCompany: "Demo Target Inc",
		DCF: &valuation.DCFInputs{
			BaseRevenue:       1200,
			RevenueGrowthPct:  []float64{10, 8, 6, 5, 4},
			ProjectionYears:   5,
			EBITDAMarginPct:   24,
			DepreciationPct:   4,
			CapexPct:          5,
			NWCPctOfRevChange: 10,
			TaxRatePct:        25,
			Beta:              1.15,
			DebtToEquity:      0.4,
			TerminalGrowthPct: 2.0,
			Cash:              80,
			Debt:              350,
		},
		Comps: &valuation.CompsInputs{
			Comparables: []fincalc.Comparable{
				{Name: "PeerOne", EVRevenue: 2.1, EVEBITDA: 9.5, PERatio: 17},
				{Name: "PeerTwo", EVRevenue: 2.6, EVEBITDA: 11.0, PERatio: 21},
				{Name: "PeerThree", EVRevenue: 3.0, EVEBITDA: 12.5, PERatio: 24},
				{Name: "PeerFour", EVRevenue: 2.4, EVEBITDA: 10.0, PERatio: 19},
			},
			TargetRevenue:            1200,
			TargetEBITDA:             288,
			NetDebt:                  270,
			MarketabilityDiscountPct: 10,
			ControlPremiumPct:        25,
		},
		Precedent: &valuation.PrecedentInputs{
			Transactions: []fincalc.Comparable{
				{Name: "DealAlpha", EVEBITDA: 11.5, BuyerType: "strategic", PremiumPct: 32},
				{Name: "DealBeta", EVEBITDA: 13.0, BuyerType: "strategic", PremiumPct: 26},
				{Name: "DealGamma", EVEBITDA: 12.0, BuyerType: "financial", PremiumPct: 19},
			},
			TargetEBITDA:       288,
			NetDebt:            270,
			MarketTimingAdjPct: -5,
		},
		LBO: &valuation.LBOInputs{
			PurchasePrice:    2900,
			EquityPct:        40,
			EntryEBITDA:      288,
			HoldYears:        5,
			RevenueGrowthPct: 6,
		},
	})
	if err != nil {
		log.Fatalf("[FATAL] comprehensive valuation failed: %v", err)
	}

	v := res.Valuation
	fmt.Println("=== Comprehensive Valuation ===")
	fmt.Printf("Target:       %s\n", v.TargetCompany)
	fmt.Printf("Base case:    %s\n", report.FormatCurrency(v.BaseCaseValue))
	fmt.Printf("Range:        %s - %s\n",
		report.FormatCurrency(v.PessimisticValue), report.FormatCurrency(v.OptimisticValue))
	fmt.Printf("EV/EBITDA:    %s\n", report.FormatMultiple(v.ImpliedEVEBITDA))
	fmt.Println()
	fmt.Printf("DCF:          %s (WACC %s)\n",
		report.FormatCurrency(res.DCF.EnterpriseValue), report.FormatPct(res.DCF.WACC))
	fmt.Printf("Comps:        %s (median EV/EBITDA %s)\n",
		report.FormatCurrency(res.Comps.ImpliedEnterpriseValue), report.FormatMultiple(res.Comps.SelectedEVEBITDA))
	fmt.Printf("Precedent:    %s (strategic premium %s)\n",
		report.FormatCurrency(res.Precedent.ImpliedEnterpriseValue), report.FormatPct(res.Precedent.AvgStrategicPremiumPct))
	fmt.Printf("LBO:          %.2fx MOIC, %s IRR\n", res.LBO.MOIC, report.FormatPct(res.LBO.IRRPct))

	// WACC sensitivity off the same inputs
	points, err := dcfSvc.RunSensitivity(ctx, valuation.DCFInputs{
		BaseRevenue:       1200,
		RevenueGrowthPct:  []float64{10, 8, 6, 5, 4},
		ProjectionYears:   5,
		EBITDAMarginPct:   24,
		DepreciationPct:   4,
		CapexPct:          5,
		NWCPctOfRevChange: 10,
		TaxRatePct:        25,
		TerminalGrowthPct: 2.0,
	}, valuation.ParamWACC, []float64{8, 9, 10, 11, 12})
	if err != nil {
		log.Fatalf("[FATAL] sensitivity failed: %v", err)
	}
	fmt.Println("\n=== WACC Sensitivity (EV) ===")
	for _, p := range points {
		fmt.Printf("  %5.1f%%  %s\n", p.ParamValue, report.FormatCurrency(p.Value))
	}

	if *reportPath != "" {
		tree := &models.ValuationTree{
			Model:      v,
			DCFModels:  []*models.DCFModel{res.DCF},
			Comps:      []*models.ComparableCompanyAnalysis{res.Comps},
			Precedents: []*models.PrecedentTransactionAnalysis{res.Precedent},
			LBOs:       []*models.LBOModel{res.LBO},
		}
		_, data, err := report.NewGenerator().Generate(tree, models.ReportPDF)
		if err != nil {
			log.Fatalf("[FATAL] report generation failed: %v", err)
		}
		if err := os.WriteFile(*reportPath, data, 0o644); err != nil {
			log.Fatalf("[FATAL] %v", err)
		}
		fmt.Printf("\nReport written to %s (%d bytes)\n", *reportPath, len(data))
	}
}
