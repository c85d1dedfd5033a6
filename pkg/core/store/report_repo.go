package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"mna_valuation/pkg/models"
)

// ReportRepo persists report metadata. Artifact bytes live on disk or in
// object storage; only the reference is recorded here.
type ReportRepo struct {
	pool *pgxpool.Pool
}

func NewReportRepo(pool *pgxpool.Pool) *ReportRepo {
	return &ReportRepo{pool: pool}
}

// Create inserts a report record.
func (r *ReportRepo) Create(ctx context.Context, rep *models.ValuationReport) error {
	query := `
		INSERT INTO valuation_reports (
			id, valuation_model_id, organization_id, format, status,
			file_url, size_bytes, generated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`

	_, err := r.pool.Exec(ctx, query,
		rep.ID, rep.ValuationModelID, rep.OrganizationID, rep.Format, rep.Status,
		rep.FileURL, rep.SizeBytes, rep.GeneratedAt)
	if err != nil {
		return fmt.Errorf("store: failed to insert report: %w", err)
	}
	return nil
}

// ListByValuation returns all live reports for a valuation, newest first.
func (r *ReportRepo) ListByValuation(ctx context.Context, orgID, valuationID uuid.UUID) ([]*models.ValuationReport, error) {
	query := `
		SELECT id, valuation_model_id, organization_id, format, status,
			file_url, size_bytes, generated_at
		FROM valuation_reports
		WHERE valuation_model_id = $1 AND organization_id = $2 AND deleted_at IS NULL
		ORDER BY generated_at DESC`

	rows, err := r.pool.Query(ctx, query, valuationID, orgID)
	if err != nil {
		return nil, fmt.Errorf("store: failed to list reports: %w", err)
	}
	defer rows.Close()

	var out []*models.ValuationReport
	for rows.Next() {
		rep := &models.ValuationReport{}
		err := rows.Scan(
			&rep.ID, &rep.ValuationModelID, &rep.OrganizationID, &rep.Format,
			&rep.Status, &rep.FileURL, &rep.SizeBytes, &rep.GeneratedAt)
		if err != nil {
			return nil, fmt.Errorf("store: failed to scan report: %w", err)
		}
		out = append(out, rep)
	}
	return out, rows.Err()
}
