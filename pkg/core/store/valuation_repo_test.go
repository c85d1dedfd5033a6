package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"mna_valuation/pkg/core/fincalc"
	"mna_valuation/pkg/models"
)

// Integration tests against a real Postgres. Set DATABASE_URL to run, e.g.
//
//	DATABASE_URL=postgres://localhost/mna_valuation_test go test ./pkg/core/store/
func testPool(t *testing.T) *ValuationRepo {
	t.Helper()
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set; skipping store integration tests")
	}

	ctx := context.Background()
	pool, err := Connect(ctx, dbURL)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, Migrate(ctx, pool))
	return NewValuationRepo(pool)
}

func seedValuation(t *testing.T, repo *ValuationRepo) *models.ValuationModel {
	t.Helper()
	v := &models.ValuationModel{
		ID:                 uuid.New(),
		OrganizationID:     uuid.New(),
		TargetCompany:      "Store Test Co",
		PrimaryMethodology: models.MethodComposite,
		Status:             models.StatusDraft,
		BaseCaseValue:      1000,
		CreatedAt:          time.Now(),
		UpdatedAt:          time.Now(),
	}
	require.NoError(t, repo.CreateValuationModel(context.Background(), v))
	return v
}

func TestValuationRoundTrip(t *testing.T) {
	repo := testPool(t)
	ctx := context.Background()
	v := seedValuation(t, repo)

	got, err := repo.GetValuationModel(ctx, v.OrganizationID, v.ID)
	require.NoError(t, err)
	require.Equal(t, v.TargetCompany, got.TargetCompany)
	require.Equal(t, models.StatusDraft, got.Status)
	require.InDelta(t, 1000.0, got.BaseCaseValue, 1e-9)

	// Scoped lookups must not cross organizations
	_, err = repo.GetValuationModel(ctx, uuid.New(), v.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStatusTransitionPersisted(t *testing.T) {
	repo := testPool(t)
	ctx := context.Background()
	v := seedValuation(t, repo)

	updated, err := repo.TransitionStatus(ctx, v.OrganizationID, v.ID, models.StatusInReview)
	require.NoError(t, err)
	require.Equal(t, models.StatusInReview, updated.Status)

	// Skipping review straight to final is rejected and nothing is written
	_, err = repo.TransitionStatus(ctx, v.OrganizationID, v.ID, models.StatusFinal)
	require.ErrorIs(t, err, models.ErrInvalidTransition)

	got, err := repo.GetValuationModel(ctx, v.OrganizationID, v.ID)
	require.NoError(t, err)
	require.Equal(t, models.StatusInReview, got.Status)
}

func TestSoftDeleteCascades(t *testing.T) {
	repo := testPool(t)
	ctx := context.Background()
	v := seedValuation(t, repo)

	comp := &models.ComparableCompanyAnalysis{
		ID:               uuid.New(),
		ValuationModelID: v.ID,
		OrganizationID:   v.OrganizationID,
		Comparables:      []fincalc.Comparable{{Name: "Peer", EVEBITDA: 10}},
		SelectedEVEBITDA: 10,
		CreatedAt:        time.Now(),
	}
	require.NoError(t, repo.CreateComparableAnalysis(ctx, comp))

	require.NoError(t, repo.SoftDeleteValuation(ctx, v.OrganizationID, v.ID))

	_, err := repo.GetValuationModel(ctx, v.OrganizationID, v.ID)
	require.ErrorIs(t, err, ErrNotFound)

	// Children disappear with the root
	_, err = repo.GetValuationTree(ctx, v.OrganizationID, v.ID)
	require.ErrorIs(t, err, ErrNotFound)

	// Deleting twice reports not found
	require.ErrorIs(t, repo.SoftDeleteValuation(ctx, v.OrganizationID, v.ID), ErrNotFound)
}

func TestValuationTreeAssembly(t *testing.T) {
	repo := testPool(t)
	ctx := context.Background()
	v := seedValuation(t, repo)

	years := 3
	dcf := &models.DCFModel{
		ID:                    uuid.New(),
		ValuationModelID:      v.ID,
		OrganizationID:        v.OrganizationID,
		Scenario:              models.ScenarioBase,
		TerminalMethod:        models.TVPerpetuityGrowth,
		ProjectionYears:       years,
		RevenueProjections:    []float64{110, 121, 133.1},
		EBITDAProjections:     []float64{22, 24.2, 26.62},
		EBITProjections:       []float64{18, 20, 22},
		NOPATProjections:      []float64{13.5, 15, 16.5},
		CapexProjections:      []float64{5, 5, 5},
		DepreciationProj:      []float64{4, 4, 4},
		WorkingCapitalChanges: []float64{1, 1, 1},
		FreeCashFlows:         []float64{11.5, 13, 14.5},
		DiscountFactors:       []float64{0.92, 0.84, 0.77},
		PresentValues:         []float64{10.6, 10.9, 11.2},
		WACC:                  9.3,
		EnterpriseValue:       500,
		CreatedAt:             time.Now(),
	}
	require.NoError(t, dcf.Validate())
	require.NoError(t, repo.CreateDCFModel(ctx, dcf))

	lbo := &models.LBOModel{
		ID:               uuid.New(),
		ValuationModelID: v.ID,
		OrganizationID:   v.OrganizationID,
		PurchasePrice:    1000,
		EquityPct:        40,
		EquityInvestment: 400,
		TotalDebt:        600,
		SeniorDebt:       420,
		SubordinatedDebt: 120,
		MezzanineDebt:    60,
		HoldYears:        5,
		DebtSchedule:     []float64{480, 360, 240, 120, 0},
		MOIC:             2.5,
		CreatedAt:        time.Now(),
	}
	require.NoError(t, repo.CreateLBOModel(ctx, lbo))

	tree, err := repo.GetValuationTree(ctx, v.OrganizationID, v.ID)
	require.NoError(t, err)
	require.Len(t, tree.DCFModels, 1)
	require.Len(t, tree.LBOs, 1)
	require.Empty(t, tree.Comps)

	// JSONB round trip preserves the projection arrays
	got := tree.DCFModels[0]
	require.NoError(t, got.Validate())
	require.InDeltaSlice(t, dcf.FreeCashFlows, got.FreeCashFlows, 1e-9)
	require.InDeltaSlice(t, lbo.DebtSchedule, tree.LBOs[0].DebtSchedule, 1e-9)
}

func TestSnapshotLatest(t *testing.T) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set; skipping store integration tests")
	}

	ctx := context.Background()
	pool, err := Connect(ctx, dbURL)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, Migrate(ctx, pool))

	repo := NewSnapshotRepo(pool)
	orgID := uuid.New()

	got, err := repo.Latest(ctx, orgID)
	require.NoError(t, err)
	require.Nil(t, got)

	older := &models.MarketDataSnapshot{
		ID:                uuid.New(),
		OrganizationID:    orgID,
		TreasuryYield10Y:  4.2,
		IndustryMultiples: map[string]float64{"technology": 15},
		FetchedAt:         time.Now().Add(-48 * time.Hour),
	}
	newer := &models.MarketDataSnapshot{
		ID:                uuid.New(),
		OrganizationID:    orgID,
		TreasuryYield10Y:  4.6,
		IndustryMultiples: map[string]float64{"technology": 15.5},
		FetchedAt:         time.Now(),
	}
	require.NoError(t, repo.Save(ctx, older))
	require.NoError(t, repo.Save(ctx, newer))

	got, err = repo.Latest(ctx, orgID)
	require.NoError(t, err)
	require.InDelta(t, 4.6, got.TreasuryYield10Y, 1e-9)
	require.False(t, got.Stale())
}
