package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"mna_valuation/pkg/core/fincalc"
)

// ValuationStatus walks draft -> in_review -> approved -> final -> archived.
type ValuationStatus string

const (
	StatusDraft    ValuationStatus = "draft"
	StatusInReview ValuationStatus = "in_review"
	StatusApproved ValuationStatus = "approved"
	StatusFinal    ValuationStatus = "final"
	StatusArchived ValuationStatus = "archived"
)

// ErrInvalidTransition is returned for any status move outside the lifecycle.
var ErrInvalidTransition = errors.New("models: invalid status transition")

var statusNext = map[ValuationStatus]ValuationStatus{
	StatusDraft:    StatusInReview,
	StatusInReview: StatusApproved,
	StatusApproved: StatusFinal,
	StatusFinal:    StatusArchived,
}

// CanTransition reports whether to is the next lifecycle stage after s.
// Archiving is additionally allowed from any stage; a rejected review drops
// back to draft.
func (s ValuationStatus) CanTransition(to ValuationStatus) bool {
	if to == StatusArchived && s != StatusArchived {
		return true
	}
	if s == StatusInReview && to == StatusDraft {
		return true
	}
	return statusNext[s] == to
}

// DCFScenario labels one run of the DCF model.
type DCFScenario string

const (
	ScenarioBase       DCFScenario = "base"
	ScenarioOptimistic DCFScenario = "optimistic"
	ScenarioPessimist  DCFScenario = "pessimistic"
	ScenarioDownside   DCFScenario = "downside"
	ScenarioCustom     DCFScenario = "custom"
)

// TerminalValueMethod selects how the DCF terminal year is capitalized.
type TerminalValueMethod string

const (
	TVPerpetuityGrowth TerminalValueMethod = "perpetuity_growth"
	TVExitMultiple     TerminalValueMethod = "exit_multiple"
)

// Methodology names the valuation approaches a root model can compose.
type Methodology string

const (
	MethodDCF       Methodology = "dcf"
	MethodComps     Methodology = "comparable_company"
	MethodPrecedent Methodology = "precedent_transaction"
	MethodLBO       Methodology = "lbo"
	MethodComposite Methodology = "comprehensive"
)

// ValuationModel is the root record for one target company. Sub-model rows
// reference it by ValuationModelID; soft-deleting the root cascades.
type ValuationModel struct {
	ID             uuid.UUID  `json:"id"`
	OrganizationID uuid.UUID  `json:"organization_id"`
	DealID         *uuid.UUID `json:"deal_id,omitempty"`

	TargetCompany      string          `json:"target_company"`
	PrimaryMethodology Methodology     `json:"primary_methodology"`
	Status             ValuationStatus `json:"status"`

	// Enterprise-value triple across methodologies
	BaseCaseValue    float64 `json:"base_case_value"`
	OptimisticValue  float64 `json:"optimistic_value"`
	PessimisticValue float64 `json:"pessimistic_value"`

	// Headline multiples at the base case
	ImpliedEVRevenue float64 `json:"implied_ev_revenue"`
	ImpliedEVEBITDA  float64 `json:"implied_ev_ebitda"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// Transition advances the lifecycle, rejecting out-of-order moves.
func (v *ValuationModel) Transition(to ValuationStatus) error {
	if !v.Status.CanTransition(to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, v.Status, to)
	}
	v.Status = to
	v.UpdatedAt = time.Now()
	return nil
}

// DCFModel is one scenario of a discounted-cash-flow run with the complete
// projection audit trail.
type DCFModel struct {
	ID               uuid.UUID   `json:"id"`
	ValuationModelID uuid.UUID   `json:"valuation_model_id"`
	OrganizationID   uuid.UUID   `json:"organization_id"`
	Scenario         DCFScenario `json:"scenario"`

	// WACC components (percent)
	RiskFreeRate      float64 `json:"risk_free_rate"`
	Beta              float64 `json:"beta"`
	MarketRiskPremium float64 `json:"market_risk_premium"`
	CostOfEquity      float64 `json:"cost_of_equity"`
	CostOfDebt        float64 `json:"cost_of_debt"`
	TaxRate           float64 `json:"tax_rate"`
	DebtToEquity      float64 `json:"debt_to_equity"`
	WACC              float64 `json:"wacc"`

	// Terminal value
	TerminalMethod TerminalValueMethod `json:"terminal_method"`
	TerminalGrowth float64             `json:"terminal_growth"` // percent
	ExitMultiple   float64             `json:"exit_multiple"`
	TerminalValue  float64             `json:"terminal_value"`

	// Year-by-year projections, all length == ProjectionYears
	ProjectionYears       int       `json:"projection_years"`
	RevenueProjections    []float64 `json:"revenue_projections"`
	EBITDAProjections     []float64 `json:"ebitda_projections"`
	EBITProjections       []float64 `json:"ebit_projections"`
	NOPATProjections      []float64 `json:"nopat_projections"`
	CapexProjections      []float64 `json:"capex_projections"`
	DepreciationProj      []float64 `json:"depreciation_projections"`
	WorkingCapitalChanges []float64 `json:"working_capital_changes"`
	FreeCashFlows         []float64 `json:"free_cash_flows"`
	DiscountFactors       []float64 `json:"discount_factors"`
	PresentValues         []float64 `json:"present_values"`

	EnterpriseValue float64 `json:"enterprise_value"`
	EquityValue     float64 `json:"equity_value"`

	CreatedAt time.Time  `json:"created_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// Validate enforces the projection-array invariant: every array must align
// index-for-index with the projection horizon.
func (d *DCFModel) Validate() error {
	arrays := map[string][]float64{
		"revenue_projections":      d.RevenueProjections,
		"ebitda_projections":       d.EBITDAProjections,
		"ebit_projections":         d.EBITProjections,
		"nopat_projections":        d.NOPATProjections,
		"capex_projections":        d.CapexProjections,
		"depreciation_projections": d.DepreciationProj,
		"working_capital_changes":  d.WorkingCapitalChanges,
		"free_cash_flows":          d.FreeCashFlows,
		"discount_factors":         d.DiscountFactors,
		"present_values":           d.PresentValues,
	}
	for name, arr := range arrays {
		if len(arr) != d.ProjectionYears {
			return fmt.Errorf("models: %s length %d != projection_years %d", name, len(arr), d.ProjectionYears)
		}
	}
	return nil
}

// ComparableCompanyAnalysis summarizes a trading-comp set and the implied
// valuation. Selected multiples are always derived from the set, never
// free-standing inputs.
type ComparableCompanyAnalysis struct {
	ID               uuid.UUID `json:"id"`
	ValuationModelID uuid.UUID `json:"valuation_model_id"`
	OrganizationID   uuid.UUID `json:"organization_id"`

	Comparables []fincalc.Comparable    `json:"comparables"`
	Summary     fincalc.MultipleSummary `json:"summary"`

	// Median-of-set selections, after adjustment chain
	SelectedEVRevenue float64 `json:"selected_ev_revenue"`
	SelectedEVEBITDA  float64 `json:"selected_ev_ebitda"`
	SelectedPE        float64 `json:"selected_pe"`

	SizePremiumPct         float64 `json:"size_premium_pct"`
	MarketabilityDiscPct   float64 `json:"marketability_discount_pct"`
	ControlPremiumPct      float64 `json:"control_premium_pct"`
	ImpliedEnterpriseValue float64 `json:"implied_enterprise_value"`
	ImpliedEquityValue     float64 `json:"implied_equity_value"`

	// Set when the comp set is too small for the median to mean much (n < 3)
	SampleSizeWarning bool `json:"sample_size_warning"`

	CreatedAt time.Time  `json:"created_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// PrecedentTransactionAnalysis mirrors the comp analysis but sources
// historical M&A transactions, with buyer-type premium statistics.
type PrecedentTransactionAnalysis struct {
	ID               uuid.UUID `json:"id"`
	ValuationModelID uuid.UUID `json:"valuation_model_id"`
	OrganizationID   uuid.UUID `json:"organization_id"`

	Transactions []fincalc.Comparable    `json:"transactions"`
	Summary      fincalc.MultipleSummary `json:"summary"`

	SelectedEVRevenue float64 `json:"selected_ev_revenue"`
	SelectedEVEBITDA  float64 `json:"selected_ev_ebitda"`

	AvgStrategicPremiumPct float64 `json:"avg_strategic_premium_pct"`
	AvgFinancialPremiumPct float64 `json:"avg_financial_premium_pct"`
	MarketTimingAdjPct     float64 `json:"market_timing_adjustment_pct"`

	ImpliedEnterpriseValue float64 `json:"implied_enterprise_value"`
	ImpliedEquityValue     float64 `json:"implied_equity_value"`
	SampleSizeWarning      bool    `json:"sample_size_warning"`

	CreatedAt time.Time  `json:"created_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// LBOModel captures the transaction structure, debt schedule and returns of
// a leveraged buyout run.
type LBOModel struct {
	ID               uuid.UUID `json:"id"`
	ValuationModelID uuid.UUID `json:"valuation_model_id"`
	OrganizationID   uuid.UUID `json:"organization_id"`

	PurchasePrice    float64 `json:"purchase_price"`
	EquityPct        float64 `json:"equity_pct"` // percent of purchase price
	EquityInvestment float64 `json:"equity_investment"`
	TotalDebt        float64 `json:"total_debt"`

	// Fixed 70/20/10 tranching of TotalDebt
	SeniorDebt       float64 `json:"senior_debt"`
	SubordinatedDebt float64 `json:"subordinated_debt"`
	MezzanineDebt    float64 `json:"mezzanine_debt"`
	SellerNote       float64 `json:"seller_note"`

	EntryEBITDA   float64 `json:"entry_ebitda"`
	EntryMultiple float64 `json:"entry_multiple"`
	ExitEBITDA    float64 `json:"exit_ebitda"`
	ExitMultiple  float64 `json:"exit_multiple"`
	HoldYears     int     `json:"hold_years"`

	DebtSchedule  []float64 `json:"debt_schedule"` // end-of-year balances
	ExitEV        float64   `json:"exit_ev"`
	ExitEquity    float64   `json:"exit_equity"`
	MOIC          float64   `json:"moic"`
	IRRPct        float64   `json:"irr_pct"`
	CashOnCashPct float64   `json:"cash_on_cash_pct"`

	CreatedAt time.Time  `json:"created_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// ValidateCapitalStructure enforces the funding identity:
// equity = price * pct and debt = price - equity.
func (l *LBOModel) ValidateCapitalStructure() error {
	wantEquity := l.PurchasePrice * l.EquityPct / 100.0
	if diff := l.EquityInvestment - wantEquity; diff > 1e-6 || diff < -1e-6 {
		return fmt.Errorf("models: equity_investment %f != purchase_price * equity_pct %f", l.EquityInvestment, wantEquity)
	}
	wantDebt := l.PurchasePrice - l.EquityInvestment
	if diff := l.TotalDebt - wantDebt; diff > 1e-6 || diff < -1e-6 {
		return fmt.Errorf("models: total_debt %f != purchase_price - equity_investment %f", l.TotalDebt, wantDebt)
	}
	return nil
}

// ReportFormat is the artifact type of a generated valuation report.
type ReportFormat string

const (
	ReportPDF  ReportFormat = "pdf"
	ReportHTML ReportFormat = "html"
)

// ValuationReport references a generated artifact for one ValuationModel.
// Its status mirrors the parent's approval workflow.
type ValuationReport struct {
	ID               uuid.UUID       `json:"id"`
	ValuationModelID uuid.UUID       `json:"valuation_model_id"`
	OrganizationID   uuid.UUID       `json:"organization_id"`
	Format           ReportFormat    `json:"format"`
	Status           ValuationStatus `json:"status"`
	FileURL          string          `json:"file_url"`
	SizeBytes        int             `json:"size_bytes"`
	GeneratedAt      time.Time       `json:"generated_at"`
	DeletedAt        *time.Time      `json:"deleted_at,omitempty"`
}

// MarketDataSnapshot is the point-in-time cache of external market inputs.
// A snapshot older than 24 hours is considered stale.
type MarketDataSnapshot struct {
	ID             uuid.UUID `json:"id"`
	OrganizationID uuid.UUID `json:"organization_id"`

	TreasuryYield10Y  float64            `json:"treasury_yield_10y"` // percent
	IndexLevel        float64            `json:"index_level"`
	IndexPERatio      float64            `json:"index_pe_ratio"`
	MarketRiskPremium float64            `json:"market_risk_premium"` // percent
	IGSpread          float64            `json:"ig_spread"`           // percent
	HYSpread          float64            `json:"hy_spread"`           // percent
	IndustryMultiples map[string]float64 `json:"industry_multiples"`  // industry -> EV/EBITDA

	FetchedAt time.Time `json:"fetched_at"`
	IsDefault bool      `json:"is_default"` // true when provider was down and hardcoded values were used
}

// Stale reports whether the snapshot has aged past the refresh window.
func (m *MarketDataSnapshot) Stale() bool {
	return time.Since(m.FetchedAt) > 24*time.Hour
}
