package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Migrate creates the valuation tables if they do not exist. Projection
// arrays and comp sets live in JSONB columns; scalar outputs get real
// columns so they can be queried and indexed.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS valuation_models (
			id UUID PRIMARY KEY,
			organization_id UUID NOT NULL,
			deal_id UUID,
			target_company TEXT NOT NULL,
			primary_methodology TEXT NOT NULL,
			status TEXT NOT NULL,
			base_case_value DOUBLE PRECISION NOT NULL DEFAULT 0,
			optimistic_value DOUBLE PRECISION NOT NULL DEFAULT 0,
			pessimistic_value DOUBLE PRECISION NOT NULL DEFAULT 0,
			implied_ev_revenue DOUBLE PRECISION NOT NULL DEFAULT 0,
			implied_ev_ebitda DOUBLE PRECISION NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL,
			deleted_at TIMESTAMPTZ
		);`,
		`CREATE INDEX IF NOT EXISTS idx_valuation_models_org
			ON valuation_models (organization_id) WHERE deleted_at IS NULL;`,
		`CREATE TABLE IF NOT EXISTS dcf_models (
			id UUID PRIMARY KEY,
			valuation_model_id UUID NOT NULL REFERENCES valuation_models(id),
			organization_id UUID NOT NULL,
			scenario TEXT NOT NULL,
			risk_free_rate DOUBLE PRECISION NOT NULL,
			beta DOUBLE PRECISION NOT NULL,
			market_risk_premium DOUBLE PRECISION NOT NULL,
			cost_of_equity DOUBLE PRECISION NOT NULL,
			cost_of_debt DOUBLE PRECISION NOT NULL,
			tax_rate DOUBLE PRECISION NOT NULL,
			debt_to_equity DOUBLE PRECISION NOT NULL,
			wacc DOUBLE PRECISION NOT NULL,
			terminal_method TEXT NOT NULL,
			terminal_growth DOUBLE PRECISION NOT NULL,
			exit_multiple DOUBLE PRECISION NOT NULL,
			terminal_value DOUBLE PRECISION NOT NULL,
			projection_years INT NOT NULL,
			projections JSONB NOT NULL,
			enterprise_value DOUBLE PRECISION NOT NULL,
			equity_value DOUBLE PRECISION NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			deleted_at TIMESTAMPTZ
		);`,
		`CREATE TABLE IF NOT EXISTS comparable_company_analyses (
			id UUID PRIMARY KEY,
			valuation_model_id UUID NOT NULL REFERENCES valuation_models(id),
			organization_id UUID NOT NULL,
			comparables JSONB NOT NULL,
			summary JSONB NOT NULL,
			selected_ev_revenue DOUBLE PRECISION NOT NULL,
			selected_ev_ebitda DOUBLE PRECISION NOT NULL,
			selected_pe DOUBLE PRECISION NOT NULL,
			size_premium_pct DOUBLE PRECISION NOT NULL,
			marketability_discount_pct DOUBLE PRECISION NOT NULL,
			control_premium_pct DOUBLE PRECISION NOT NULL,
			implied_enterprise_value DOUBLE PRECISION NOT NULL,
			implied_equity_value DOUBLE PRECISION NOT NULL,
			sample_size_warning BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL,
			deleted_at TIMESTAMPTZ
		);`,
		`CREATE TABLE IF NOT EXISTS precedent_transaction_analyses (
			id UUID PRIMARY KEY,
			valuation_model_id UUID NOT NULL REFERENCES valuation_models(id),
			organization_id UUID NOT NULL,
			transactions JSONB NOT NULL,
			summary JSONB NOT NULL,
			selected_ev_revenue DOUBLE PRECISION NOT NULL,
			selected_ev_ebitda DOUBLE PRECISION NOT NULL,
			avg_strategic_premium_pct DOUBLE PRECISION NOT NULL,
			avg_financial_premium_pct DOUBLE PRECISION NOT NULL,
			market_timing_adjustment_pct DOUBLE PRECISION NOT NULL,
			implied_enterprise_value DOUBLE PRECISION NOT NULL,
			implied_equity_value DOUBLE PRECISION NOT NULL,
			sample_size_warning BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL,
			deleted_at TIMESTAMPTZ
		);`,
		`CREATE TABLE IF NOT EXISTS lbo_models (
			id UUID PRIMARY KEY,
			valuation_model_id UUID NOT NULL REFERENCES valuation_models(id),
			organization_id UUID NOT NULL,
			purchase_price DOUBLE PRECISION NOT NULL,
			equity_pct DOUBLE PRECISION NOT NULL,
			equity_investment DOUBLE PRECISION NOT NULL,
			total_debt DOUBLE PRECISION NOT NULL,
			senior_debt DOUBLE PRECISION NOT NULL,
			subordinated_debt DOUBLE PRECISION NOT NULL,
			mezzanine_debt DOUBLE PRECISION NOT NULL,
			seller_note DOUBLE PRECISION NOT NULL DEFAULT 0,
			entry_ebitda DOUBLE PRECISION NOT NULL,
			entry_multiple DOUBLE PRECISION NOT NULL,
			exit_ebitda DOUBLE PRECISION NOT NULL,
			exit_multiple DOUBLE PRECISION NOT NULL,
			hold_years INT NOT NULL,
			debt_schedule JSONB NOT NULL,
			exit_ev DOUBLE PRECISION NOT NULL,
			exit_equity DOUBLE PRECISION NOT NULL,
			moic DOUBLE PRECISION NOT NULL,
			irr_pct DOUBLE PRECISION NOT NULL,
			cash_on_cash_pct DOUBLE PRECISION NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			deleted_at TIMESTAMPTZ
		);`,
		`CREATE TABLE IF NOT EXISTS valuation_reports (
			id UUID PRIMARY KEY,
			valuation_model_id UUID NOT NULL REFERENCES valuation_models(id),
			organization_id UUID NOT NULL,
			format TEXT NOT NULL,
			status TEXT NOT NULL,
			file_url TEXT NOT NULL,
			size_bytes INT NOT NULL DEFAULT 0,
			generated_at TIMESTAMPTZ NOT NULL,
			deleted_at TIMESTAMPTZ
		);`,
		`CREATE TABLE IF NOT EXISTS market_data_snapshots (
			id UUID PRIMARY KEY,
			organization_id UUID NOT NULL,
			treasury_yield_10y DOUBLE PRECISION NOT NULL,
			index_level DOUBLE PRECISION NOT NULL,
			index_pe_ratio DOUBLE PRECISION NOT NULL,
			market_risk_premium DOUBLE PRECISION NOT NULL,
			ig_spread DOUBLE PRECISION NOT NULL,
			hy_spread DOUBLE PRECISION NOT NULL,
			industry_multiples JSONB NOT NULL,
			fetched_at TIMESTAMPTZ NOT NULL,
			is_default BOOLEAN NOT NULL DEFAULT FALSE
		);`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_org_fetched
			ON market_data_snapshots (organization_id, fetched_at DESC);`,
	}

	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("store: migration failed: %w", err)
		}
	}
	return nil
}
