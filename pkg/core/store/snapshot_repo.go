package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"mna_valuation/pkg/models"
)

// SnapshotRepo persists market data snapshots. It satisfies the market data
// service's SnapshotStore interface.
type SnapshotRepo struct {
	pool *pgxpool.Pool
}

func NewSnapshotRepo(pool *pgxpool.Pool) *SnapshotRepo {
	return &SnapshotRepo{pool: pool}
}

// Save inserts a snapshot row. Snapshots are append-only; Latest picks the
// newest by fetch time.
func (r *SnapshotRepo) Save(ctx context.Context, snap *models.MarketDataSnapshot) error {
	multiples, err := json.Marshal(snap.IndustryMultiples)
	if err != nil {
		return fmt.Errorf("store: failed to marshal industry multiples: %w", err)
	}

	query := `
		INSERT INTO market_data_snapshots (
			id, organization_id, treasury_yield_10y, index_level, index_pe_ratio,
			market_risk_premium, ig_spread, hy_spread, industry_multiples,
			fetched_at, is_default
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`

	_, err = r.pool.Exec(ctx, query,
		snap.ID, snap.OrganizationID, snap.TreasuryYield10Y, snap.IndexLevel,
		snap.IndexPERatio, snap.MarketRiskPremium, snap.IGSpread, snap.HYSpread,
		multiples, snap.FetchedAt, snap.IsDefault)
	if err != nil {
		return fmt.Errorf("store: failed to insert snapshot: %w", err)
	}
	return nil
}

// Latest returns the most recent snapshot for an organization, or nil when
// none has been saved yet.
func (r *SnapshotRepo) Latest(ctx context.Context, orgID uuid.UUID) (*models.MarketDataSnapshot, error) {
	query := `
		SELECT id, organization_id, treasury_yield_10y, index_level, index_pe_ratio,
			market_risk_premium, ig_spread, hy_spread, industry_multiples,
			fetched_at, is_default
		FROM market_data_snapshots
		WHERE organization_id = $1
		ORDER BY fetched_at DESC
		LIMIT 1`

	snap := &models.MarketDataSnapshot{}
	var multiplesJSON []byte
	err := r.pool.QueryRow(ctx, query, orgID).Scan(
		&snap.ID, &snap.OrganizationID, &snap.TreasuryYield10Y, &snap.IndexLevel,
		&snap.IndexPERatio, &snap.MarketRiskPremium, &snap.IGSpread, &snap.HYSpread,
		&multiplesJSON, &snap.FetchedAt, &snap.IsDefault)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("store: failed to load snapshot: %w", err)
	}
	if err := json.Unmarshal(multiplesJSON, &snap.IndustryMultiples); err != nil {
		return nil, fmt.Errorf("store: failed to unmarshal industry multiples: %w", err)
	}
	return snap, nil
}
