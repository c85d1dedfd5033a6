package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"mna_valuation/pkg/models"
)

// ErrNotFound is returned when a valuation does not exist for the
// organization or has been soft-deleted.
var ErrNotFound = errors.New("store: valuation not found")

// ValuationRepo persists valuation models and their sub-models.
type ValuationRepo struct {
	pool *pgxpool.Pool
}

// NewValuationRepo creates a repository bound to a connection pool.
func NewValuationRepo(pool *pgxpool.Pool) *ValuationRepo {
	return &ValuationRepo{pool: pool}
}

// CreateValuationModel inserts the root record.
func (r *ValuationRepo) CreateValuationModel(ctx context.Context, v *models.ValuationModel) error {
	query := `
		INSERT INTO valuation_models (
			id, organization_id, deal_id, target_company, primary_methodology,
			status, base_case_value, optimistic_value, pessimistic_value,
			implied_ev_revenue, implied_ev_ebitda, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`

	_, err := r.pool.Exec(ctx, query,
		v.ID, v.OrganizationID, v.DealID, v.TargetCompany, v.PrimaryMethodology,
		v.Status, v.BaseCaseValue, v.OptimisticValue, v.PessimisticValue,
		v.ImpliedEVRevenue, v.ImpliedEVEBITDA, v.CreatedAt, v.UpdatedAt)
	if err != nil {
		return fmt.Errorf("store: failed to insert valuation model: %w", err)
	}
	return nil
}

// UpdateValuationModel rewrites the mutable fields of the root record.
func (r *ValuationRepo) UpdateValuationModel(ctx context.Context, v *models.ValuationModel) error {
	query := `
		UPDATE valuation_models SET
			status = $3, base_case_value = $4, optimistic_value = $5,
			pessimistic_value = $6, implied_ev_revenue = $7,
			implied_ev_ebitda = $8, updated_at = $9
		WHERE id = $1 AND organization_id = $2 AND deleted_at IS NULL`

	tag, err := r.pool.Exec(ctx, query,
		v.ID, v.OrganizationID, v.Status, v.BaseCaseValue, v.OptimisticValue,
		v.PessimisticValue, v.ImpliedEVRevenue, v.ImpliedEVEBITDA, time.Now())
	if err != nil {
		return fmt.Errorf("store: failed to update valuation model: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetValuationModel loads the root record, scoped to an organization.
func (r *ValuationRepo) GetValuationModel(ctx context.Context, orgID, id uuid.UUID) (*models.ValuationModel, error) {
	query := `
		SELECT id, organization_id, deal_id, target_company, primary_methodology,
			status, base_case_value, optimistic_value, pessimistic_value,
			implied_ev_revenue, implied_ev_ebitda, created_at, updated_at
		FROM valuation_models
		WHERE id = $1 AND organization_id = $2 AND deleted_at IS NULL`

	v := &models.ValuationModel{}
	err := r.pool.QueryRow(ctx, query, id, orgID).Scan(
		&v.ID, &v.OrganizationID, &v.DealID, &v.TargetCompany, &v.PrimaryMethodology,
		&v.Status, &v.BaseCaseValue, &v.OptimisticValue, &v.PessimisticValue,
		&v.ImpliedEVRevenue, &v.ImpliedEVEBITDA, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store: failed to load valuation model: %w", err)
	}
	return v, nil
}

// TransitionStatus loads the root, validates the lifecycle move and writes
// the new status back.
func (r *ValuationRepo) TransitionStatus(ctx context.Context, orgID, id uuid.UUID, to models.ValuationStatus) (*models.ValuationModel, error) {
	v, err := r.GetValuationModel(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if err := v.Transition(to); err != nil {
		return nil, err
	}

	query := `
		UPDATE valuation_models SET status = $3, updated_at = $4
		WHERE id = $1 AND organization_id = $2 AND deleted_at IS NULL`
	if _, err := r.pool.Exec(ctx, query, id, orgID, v.Status, v.UpdatedAt); err != nil {
		return nil, fmt.Errorf("store: failed to persist status: %w", err)
	}
	return v, nil
}

// SoftDeleteValuation marks the root and every sub-model row deleted.
func (r *ValuationRepo) SoftDeleteValuation(ctx context.Context, orgID, id uuid.UUID) error {
	now := time.Now()

	tag, err := r.pool.Exec(ctx, `
		UPDATE valuation_models SET deleted_at = $3
		WHERE id = $1 AND organization_id = $2 AND deleted_at IS NULL`, id, orgID, now)
	if err != nil {
		return fmt.Errorf("store: failed to soft-delete valuation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	// Cascade to children
	children := []string{
		"dcf_models",
		"comparable_company_analyses",
		"precedent_transaction_analyses",
		"lbo_models",
		"valuation_reports",
	}
	for _, table := range children {
		query := fmt.Sprintf(`
			UPDATE %s SET deleted_at = $3
			WHERE valuation_model_id = $1 AND organization_id = $2 AND deleted_at IS NULL`, table)
		if _, err := r.pool.Exec(ctx, query, id, orgID, now); err != nil {
			return fmt.Errorf("store: failed to cascade delete to %s: %w", table, err)
		}
	}
	return nil
}

// dcfProjections is the JSONB shape of the year-by-year arrays.
type dcfProjections struct {
	Revenue        []float64 `json:"revenue"`
	EBITDA         []float64 `json:"ebitda"`
	EBIT           []float64 `json:"ebit"`
	NOPAT          []float64 `json:"nopat"`
	Capex          []float64 `json:"capex"`
	Depreciation   []float64 `json:"depreciation"`
	WorkingCapital []float64 `json:"working_capital_changes"`
	FreeCashFlows  []float64 `json:"free_cash_flows"`
	Discount       []float64 `json:"discount_factors"`
	PresentValues  []float64 `json:"present_values"`
}

// CreateDCFModel inserts one DCF scenario row.
func (r *ValuationRepo) CreateDCFModel(ctx context.Context, d *models.DCFModel) error {
	proj, err := json.Marshal(dcfProjections{
		Revenue:        d.RevenueProjections,
		EBITDA:         d.EBITDAProjections,
		EBIT:           d.EBITProjections,
		NOPAT:          d.NOPATProjections,
		Capex:          d.CapexProjections,
		Depreciation:   d.DepreciationProj,
		WorkingCapital: d.WorkingCapitalChanges,
		FreeCashFlows:  d.FreeCashFlows,
		Discount:       d.DiscountFactors,
		PresentValues:  d.PresentValues,
	})
	if err != nil {
		return fmt.Errorf("store: failed to marshal projections: %w", err)
	}

	query := `
		INSERT INTO dcf_models (
			id, valuation_model_id, organization_id, scenario,
			risk_free_rate, beta, market_risk_premium, cost_of_equity,
			cost_of_debt, tax_rate, debt_to_equity, wacc,
			terminal_method, terminal_growth, exit_multiple, terminal_value,
			projection_years, projections, enterprise_value, equity_value, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21)`

	_, err = r.pool.Exec(ctx, query,
		d.ID, d.ValuationModelID, d.OrganizationID, d.Scenario,
		d.RiskFreeRate, d.Beta, d.MarketRiskPremium, d.CostOfEquity,
		d.CostOfDebt, d.TaxRate, d.DebtToEquity, d.WACC,
		d.TerminalMethod, d.TerminalGrowth, d.ExitMultiple, d.TerminalValue,
		d.ProjectionYears, proj, d.EnterpriseValue, d.EquityValue, d.CreatedAt)
	if err != nil {
		return fmt.Errorf("store: failed to insert dcf model: %w", err)
	}
	return nil
}

// CreateComparableAnalysis inserts one trading-comp analysis row.
func (r *ValuationRepo) CreateComparableAnalysis(ctx context.Context, c *models.ComparableCompanyAnalysis) error {
	comps, err := json.Marshal(c.Comparables)
	if err != nil {
		return fmt.Errorf("store: failed to marshal comparables: %w", err)
	}
	summary, err := json.Marshal(c.Summary)
	if err != nil {
		return fmt.Errorf("store: failed to marshal summary: %w", err)
	}

	query := `
		INSERT INTO comparable_company_analyses (
			id, valuation_model_id, organization_id, comparables, summary,
			selected_ev_revenue, selected_ev_ebitda, selected_pe,
			size_premium_pct, marketability_discount_pct, control_premium_pct,
			implied_enterprise_value, implied_equity_value, sample_size_warning, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`

	_, err = r.pool.Exec(ctx, query,
		c.ID, c.ValuationModelID, c.OrganizationID, comps, summary,
		c.SelectedEVRevenue, c.SelectedEVEBITDA, c.SelectedPE,
		c.SizePremiumPct, c.MarketabilityDiscPct, c.ControlPremiumPct,
		c.ImpliedEnterpriseValue, c.ImpliedEquityValue, c.SampleSizeWarning, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("store: failed to insert comparable analysis: %w", err)
	}
	return nil
}

// CreatePrecedentAnalysis inserts one precedent-transaction analysis row.
func (r *ValuationRepo) CreatePrecedentAnalysis(ctx context.Context, p *models.PrecedentTransactionAnalysis) error {
	txns, err := json.Marshal(p.Transactions)
	if err != nil {
		return fmt.Errorf("store: failed to marshal transactions: %w", err)
	}
	summary, err := json.Marshal(p.Summary)
	if err != nil {
		return fmt.Errorf("store: failed to marshal summary: %w", err)
	}

	query := `
		INSERT INTO precedent_transaction_analyses (
			id, valuation_model_id, organization_id, transactions, summary,
			selected_ev_revenue, selected_ev_ebitda,
			avg_strategic_premium_pct, avg_financial_premium_pct,
			market_timing_adjustment_pct, implied_enterprise_value,
			implied_equity_value, sample_size_warning, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`

	_, err = r.pool.Exec(ctx, query,
		p.ID, p.ValuationModelID, p.OrganizationID, txns, summary,
		p.SelectedEVRevenue, p.SelectedEVEBITDA,
		p.AvgStrategicPremiumPct, p.AvgFinancialPremiumPct,
		p.MarketTimingAdjPct, p.ImpliedEnterpriseValue,
		p.ImpliedEquityValue, p.SampleSizeWarning, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("store: failed to insert precedent analysis: %w", err)
	}
	return nil
}

// CreateLBOModel inserts one LBO run row.
func (r *ValuationRepo) CreateLBOModel(ctx context.Context, l *models.LBOModel) error {
	schedule, err := json.Marshal(l.DebtSchedule)
	if err != nil {
		return fmt.Errorf("store: failed to marshal debt schedule: %w", err)
	}

	query := `
		INSERT INTO lbo_models (
			id, valuation_model_id, organization_id,
			purchase_price, equity_pct, equity_investment, total_debt,
			senior_debt, subordinated_debt, mezzanine_debt, seller_note,
			entry_ebitda, entry_multiple, exit_ebitda, exit_multiple, hold_years,
			debt_schedule, exit_ev, exit_equity, moic, irr_pct, cash_on_cash_pct, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23)`

	_, err = r.pool.Exec(ctx, query,
		l.ID, l.ValuationModelID, l.OrganizationID,
		l.PurchasePrice, l.EquityPct, l.EquityInvestment, l.TotalDebt,
		l.SeniorDebt, l.SubordinatedDebt, l.MezzanineDebt, l.SellerNote,
		l.EntryEBITDA, l.EntryMultiple, l.ExitEBITDA, l.ExitMultiple, l.HoldYears,
		schedule, l.ExitEV, l.ExitEquity, l.MOIC, l.IRRPct, l.CashOnCashPct, l.CreatedAt)
	if err != nil {
		return fmt.Errorf("store: failed to insert lbo model: %w", err)
	}
	return nil
}

// GetValuationTree loads the root and all of its sub-models.
func (r *ValuationRepo) GetValuationTree(ctx context.Context, orgID, id uuid.UUID) (*models.ValuationTree, error) {
	root, err := r.GetValuationModel(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	tree := &models.ValuationTree{Model: root}

	if tree.DCFModels, err = r.loadDCFModels(ctx, orgID, id); err != nil {
		return nil, err
	}
	if tree.Comps, err = r.loadComps(ctx, orgID, id); err != nil {
		return nil, err
	}
	if tree.Precedents, err = r.loadPrecedents(ctx, orgID, id); err != nil {
		return nil, err
	}
	if tree.LBOs, err = r.loadLBOs(ctx, orgID, id); err != nil {
		return nil, err
	}
	return tree, nil
}

func (r *ValuationRepo) loadDCFModels(ctx context.Context, orgID, id uuid.UUID) ([]*models.DCFModel, error) {
	query := `
		SELECT id, valuation_model_id, organization_id, scenario,
			risk_free_rate, beta, market_risk_premium, cost_of_equity,
			cost_of_debt, tax_rate, debt_to_equity, wacc,
			terminal_method, terminal_growth, exit_multiple, terminal_value,
			projection_years, projections, enterprise_value, equity_value, created_at
		FROM dcf_models
		WHERE valuation_model_id = $1 AND organization_id = $2 AND deleted_at IS NULL
		ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query, id, orgID)
	if err != nil {
		return nil, fmt.Errorf("store: failed to load dcf models: %w", err)
	}
	defer rows.Close()

	var out []*models.DCFModel
	for rows.Next() {
		d := &models.DCFModel{}
		var projJSON []byte
		err := rows.Scan(
			&d.ID, &d.ValuationModelID, &d.OrganizationID, &d.Scenario,
			&d.RiskFreeRate, &d.Beta, &d.MarketRiskPremium, &d.CostOfEquity,
			&d.CostOfDebt, &d.TaxRate, &d.DebtToEquity, &d.WACC,
			&d.TerminalMethod, &d.TerminalGrowth, &d.ExitMultiple, &d.TerminalValue,
			&d.ProjectionYears, &projJSON, &d.EnterpriseValue, &d.EquityValue, &d.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("store: failed to scan dcf model: %w", err)
		}
		var proj dcfProjections
		if err := json.Unmarshal(projJSON, &proj); err != nil {
			return nil, fmt.Errorf("store: failed to unmarshal projections: %w", err)
		}
		d.RevenueProjections = proj.Revenue
		d.EBITDAProjections = proj.EBITDA
		d.EBITProjections = proj.EBIT
		d.NOPATProjections = proj.NOPAT
		d.CapexProjections = proj.Capex
		d.DepreciationProj = proj.Depreciation
		d.WorkingCapitalChanges = proj.WorkingCapital
		d.FreeCashFlows = proj.FreeCashFlows
		d.DiscountFactors = proj.Discount
		d.PresentValues = proj.PresentValues
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *ValuationRepo) loadComps(ctx context.Context, orgID, id uuid.UUID) ([]*models.ComparableCompanyAnalysis, error) {
	query := `
		SELECT id, valuation_model_id, organization_id, comparables, summary,
			selected_ev_revenue, selected_ev_ebitda, selected_pe,
			size_premium_pct, marketability_discount_pct, control_premium_pct,
			implied_enterprise_value, implied_equity_value, sample_size_warning, created_at
		FROM comparable_company_analyses
		WHERE valuation_model_id = $1 AND organization_id = $2 AND deleted_at IS NULL
		ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query, id, orgID)
	if err != nil {
		return nil, fmt.Errorf("store: failed to load comparable analyses: %w", err)
	}
	defer rows.Close()

	var out []*models.ComparableCompanyAnalysis
	for rows.Next() {
		c := &models.ComparableCompanyAnalysis{}
		var compsJSON, summaryJSON []byte
		err := rows.Scan(
			&c.ID, &c.ValuationModelID, &c.OrganizationID, &compsJSON, &summaryJSON,
			&c.SelectedEVRevenue, &c.SelectedEVEBITDA, &c.SelectedPE,
			&c.SizePremiumPct, &c.MarketabilityDiscPct, &c.ControlPremiumPct,
			&c.ImpliedEnterpriseValue, &c.ImpliedEquityValue, &c.SampleSizeWarning, &c.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("store: failed to scan comparable analysis: %w", err)
		}
		if err := json.Unmarshal(compsJSON, &c.Comparables); err != nil {
			return nil, fmt.Errorf("store: failed to unmarshal comparables: %w", err)
		}
		if err := json.Unmarshal(summaryJSON, &c.Summary); err != nil {
			return nil, fmt.Errorf("store: failed to unmarshal summary: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *ValuationRepo) loadPrecedents(ctx context.Context, orgID, id uuid.UUID) ([]*models.PrecedentTransactionAnalysis, error) {
	query := `
		SELECT id, valuation_model_id, organization_id, transactions, summary,
			selected_ev_revenue, selected_ev_ebitda,
			avg_strategic_premium_pct, avg_financial_premium_pct,
			market_timing_adjustment_pct, implied_enterprise_value,
			implied_equity_value, sample_size_warning, created_at
		FROM precedent_transaction_analyses
		WHERE valuation_model_id = $1 AND organization_id = $2 AND deleted_at IS NULL
		ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query, id, orgID)
	if err != nil {
		return nil, fmt.Errorf("store: failed to load precedent analyses: %w", err)
	}
	defer rows.Close()

	var out []*models.PrecedentTransactionAnalysis
	for rows.Next() {
		p := &models.PrecedentTransactionAnalysis{}
		var txnsJSON, summaryJSON []byte
		err := rows.Scan(
			&p.ID, &p.ValuationModelID, &p.OrganizationID, &txnsJSON, &summaryJSON,
			&p.SelectedEVRevenue, &p.SelectedEVEBITDA,
			&p.AvgStrategicPremiumPct, &p.AvgFinancialPremiumPct,
			&p.MarketTimingAdjPct, &p.ImpliedEnterpriseValue,
			&p.ImpliedEquityValue, &p.SampleSizeWarning, &p.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("store: failed to scan precedent analysis: %w", err)
		}
		if err := json.Unmarshal(txnsJSON, &p.Transactions); err != nil {
			return nil, fmt.Errorf("store: failed to unmarshal transactions: %w", err)
		}
		if err := json.Unmarshal(summaryJSON, &p.Summary); err != nil {
			return nil, fmt.Errorf("store: failed to unmarshal summary: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *ValuationRepo) loadLBOs(ctx context.Context, orgID, id uuid.UUID) ([]*models.LBOModel, error) {
	query := `
		SELECT id, valuation_model_id, organization_id,
			purchase_price, equity_pct, equity_investment, total_debt,
			senior_debt, subordinated_debt, mezzanine_debt, seller_note,
			entry_ebitda, entry_multiple, exit_ebitda, exit_multiple, hold_years,
			debt_schedule, exit_ev, exit_equity, moic, irr_pct, cash_on_cash_pct, created_at
		FROM lbo_models
		WHERE valuation_model_id = $1 AND organization_id = $2 AND deleted_at IS NULL
		ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query, id, orgID)
	if err != nil {
		return nil, fmt.Errorf("store: failed to load lbo models: %w", err)
	}
	defer rows.Close()

	var out []*models.LBOModel
	for rows.Next() {
		l := &models.LBOModel{}
		var scheduleJSON []byte
		err := rows.Scan(
			&l.ID, &l.ValuationModelID, &l.OrganizationID,
			&l.PurchasePrice, &l.EquityPct, &l.EquityInvestment, &l.TotalDebt,
			&l.SeniorDebt, &l.SubordinatedDebt, &l.MezzanineDebt, &l.SellerNote,
			&l.EntryEBITDA, &l.EntryMultiple, &l.ExitEBITDA, &l.ExitMultiple, &l.HoldYears,
			&scheduleJSON, &l.ExitEV, &l.ExitEquity, &l.MOIC, &l.IRRPct, &l.CashOnCashPct, &l.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("store: failed to scan lbo model: %w", err)
		}
		if err := json.Unmarshal(scheduleJSON, &l.DebtSchedule); err != nil {
			return nil, fmt.Errorf("store: failed to unmarshal debt schedule: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
