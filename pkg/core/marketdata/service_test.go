package marketdata

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"

	"mna_valuation/pkg/models"
)

// fakeProvider drives the accessor without network I/O.
type fakeProvider struct {
	down   bool
	yield  float64
	level  float64
	pe     float64
	ig, hy float64
	closes map[string][]float64
}

var errProviderDown = errors.New("provider down")

func (f *fakeProvider) TreasuryYield10Y(ctx context.Context) (float64, error) {
	if f.down {
		return 0, errProviderDown
	}
	return f.yield, nil
}

func (f *fakeProvider) IndexSnapshot(ctx context.Context) (float64, float64, error) {
	if f.down {
		return 0, 0, errProviderDown
	}
	return f.level, f.pe, nil
}

func (f *fakeProvider) CreditSpreads(ctx context.Context) (float64, float64, error) {
	if f.down {
		return 0, 0, errProviderDown
	}
	return f.ig, f.hy, nil
}

func (f *fakeProvider) DailyCloses(ctx context.Context, ticker string, days int) ([]float64, error) {
	if f.down {
		return nil, errProviderDown
	}
	closes, ok := f.closes[ticker]
	if !ok {
		return nil, errors.New("unknown ticker")
	}
	return closes, nil
}

// memStore is an in-memory SnapshotStore.
type memStore struct {
	snap  *models.MarketDataSnapshot
	saves int
}

func (m *memStore) Latest(ctx context.Context, orgID uuid.UUID) (*models.MarketDataSnapshot, error) {
	if m.snap == nil {
		return nil, errors.New("no snapshot")
	}
	return m.snap, nil
}

func (m *memStore) Save(ctx context.Context, snap *models.MarketDataSnapshot) error {
	m.snap = snap
	m.saves++
	return nil
}

func TestFallbackDefaultsWhenProviderDown(t *testing.T) {
	svc := NewService(&fakeProvider{down: true}, nil, uuid.New())

	snap := svc.FetchCurrentMarketData(context.Background())
	if !snap.IsDefault {
		t.Fatal("snapshot must be flagged as default when provider is down")
	}
	if snap.TreasuryYield10Y != 4.5 {
		t.Errorf("default 10y yield expected 4.5, got %f", snap.TreasuryYield10Y)
	}
	if snap.IndexLevel != 4500 || snap.IndexPERatio != 20 {
		t.Errorf("default index expected 4500/20, got %f/%f", snap.IndexLevel, snap.IndexPERatio)
	}
	if snap.IGSpread != 1.5 || snap.HYSpread != 4.5 {
		t.Errorf("default spreads expected 1.5/4.5, got %f/%f", snap.IGSpread, snap.HYSpread)
	}
}

func TestRiskFreeRateFallbackScenario(t *testing.T) {
	// Scenario D: provider unavailable, risk-free rate is exactly 4.5
	svc := NewService(&fakeProvider{down: true}, nil, uuid.New())
	if got := svc.RiskFreeRate(context.Background(), "10y"); got != 4.5 {
		t.Errorf("risk-free fallback expected exactly 4.5, got %f", got)
	}
}

func TestLiveSnapshotPassedThrough(t *testing.T) {
	svc := NewService(&fakeProvider{yield: 4.1, level: 5100, pe: 22, ig: 1.2, hy: 3.9}, nil, uuid.New())

	snap := svc.FetchCurrentMarketData(context.Background())
	if snap.IsDefault {
		t.Fatal("live snapshot must not be flagged default")
	}
	if snap.TreasuryYield10Y != 4.1 || snap.IndexLevel != 5100 {
		t.Errorf("live values lost: %f/%f", snap.TreasuryYield10Y, snap.IndexLevel)
	}
}

func TestLatestSnapshotRefreshesWhenStale(t *testing.T) {
	store := &memStore{snap: &models.MarketDataSnapshot{
		TreasuryYield10Y: 3.0,
		FetchedAt:        time.Now().Add(-25 * time.Hour),
	}}
	svc := NewService(&fakeProvider{yield: 4.2, level: 5000, pe: 21, ig: 1.3, hy: 4.0}, store, uuid.New())

	snap := svc.LatestSnapshot(context.Background())
	if snap.TreasuryYield10Y != 4.2 {
		t.Errorf("stale snapshot must be refreshed, got yield %f", snap.TreasuryYield10Y)
	}
	if store.saves != 1 {
		t.Errorf("refreshed snapshot must be persisted, saves=%d", store.saves)
	}
}

func TestLatestSnapshotServesFreshFromStore(t *testing.T) {
	store := &memStore{snap: &models.MarketDataSnapshot{
		TreasuryYield10Y: 3.7,
		FetchedAt:        time.Now().Add(-1 * time.Hour),
	}}
	// Provider down must not matter while the cache is fresh
	svc := NewService(&fakeProvider{down: true}, store, uuid.New())

	snap := svc.LatestSnapshot(context.Background())
	if snap.TreasuryYield10Y != 3.7 {
		t.Errorf("fresh snapshot must come from the store, got %f", snap.TreasuryYield10Y)
	}
	if store.saves != 0 {
		t.Error("fresh snapshot must not trigger a save")
	}
}

func TestCostOfDebtBenchmark(t *testing.T) {
	svc := NewService(&fakeProvider{down: true}, nil, uuid.New())
	ctx := context.Background()

	// AAA = 4.5 + 0.5, CCC = 4.5 + 7.0
	if got := svc.CostOfDebtBenchmark(ctx, "AAA"); got != 5.0 {
		t.Errorf("AAA benchmark expected 5.0, got %f", got)
	}
	if got := svc.CostOfDebtBenchmark(ctx, "ccc"); got != 11.5 {
		t.Errorf("CCC benchmark expected 11.5, got %f", got)
	}
	// Unknown rating takes BBB
	if got := svc.CostOfDebtBenchmark(ctx, "ZZ"); got != 6.0 {
		t.Errorf("unknown rating expected BBB 6.0, got %f", got)
	}
}

func TestIndustryMultiplesDefault(t *testing.T) {
	svc := NewService(&fakeProvider{down: true}, nil, uuid.New())
	ctx := context.Background()

	if got := svc.IndustryMultiples(ctx, "Technology"); got != 15.0 {
		t.Errorf("technology multiple expected 15.0, got %f", got)
	}
	if got := svc.IndustryMultiples(ctx, "shipbuilding"); got != DefaultIndustryMultiple {
		t.Errorf("unlisted industry expected %f, got %f", DefaultIndustryMultiple, got)
	}
}

func TestCalculateBeta(t *testing.T) {
	// Stock moves exactly 2x the market each day: beta = 2
	market := []float64{100, 101, 100, 102, 101, 103}
	stock := make([]float64, len(market))
	stock[0] = 50
	for i := 1; i < len(market); i++ {
		r := market[i]/market[i-1] - 1
		stock[i] = stock[i-1] * (1 + 2*r)
	}

	svc := NewService(&fakeProvider{closes: map[string][]float64{
		"TGT": stock,
		"SPX": market,
	}}, nil, uuid.New())

	beta := svc.CalculateBeta(context.Background(), "TGT", "SPX", 30)
	if math.Abs(beta-2.0) > 0.01 {
		t.Errorf("beta expected ~2.0, got %f", beta)
	}
}

func TestCalculateBetaFallsBackToOne(t *testing.T) {
	svc := NewService(&fakeProvider{down: true}, nil, uuid.New())
	if beta := svc.CalculateBeta(context.Background(), "TGT", "SPX", 30); beta != 1.0 {
		t.Errorf("beta fallback expected 1.0, got %f", beta)
	}

	// Flat market has zero variance
	svc = NewService(&fakeProvider{closes: map[string][]float64{
		"TGT": {50, 51, 52, 53},
		"SPX": {100, 100, 100, 100},
	}}, nil, uuid.New())
	if beta := svc.CalculateBeta(context.Background(), "TGT", "SPX", 30); beta != 1.0 {
		t.Errorf("degenerate variance must fall back to 1.0, got %f", beta)
	}
}
