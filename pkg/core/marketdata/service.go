package marketdata

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"mna_valuation/pkg/models"
)

// SnapshotStore persists point-in-time market snapshots. Implemented by
// store.SnapshotRepo; nil means the service runs cache-less.
type SnapshotStore interface {
	Latest(ctx context.Context, orgID uuid.UUID) (*models.MarketDataSnapshot, error)
	Save(ctx context.Context, snap *models.MarketDataSnapshot) error
}

// Service is the market data accessor. Every public method degrades to the
// documented defaults instead of surfacing provider failures.
type Service struct {
	provider  Provider
	snapshots SnapshotStore
	orgID     uuid.UUID
}

// NewService wires the accessor. provider may not be nil; snapshots may be.
func NewService(provider Provider, snapshots SnapshotStore, orgID uuid.UUID) *Service {
	return &Service{provider: provider, snapshots: snapshots, orgID: orgID}
}

// defaultSnapshot builds the fallback snapshot. IsDefault marks it so the
// fallback stays visible to callers and tests.
func (s *Service) defaultSnapshot() *models.MarketDataSnapshot {
	multiples := make(map[string]float64, len(defaultIndustryMultiples))
	for k, v := range defaultIndustryMultiples {
		multiples[k] = v
	}
	return &models.MarketDataSnapshot{
		ID:                uuid.New(),
		OrganizationID:    s.orgID,
		TreasuryYield10Y:  DefaultTreasuryYield10Y,
		IndexLevel:        DefaultIndexLevel,
		IndexPERatio:      DefaultIndexPERatio,
		MarketRiskPremium: DefaultMarketRiskPremium,
		IGSpread:          DefaultIGSpread,
		HYSpread:          DefaultHYSpread,
		IndustryMultiples: multiples,
		FetchedAt:         time.Now(),
		IsDefault:         true,
	}
}

// fetchLive assembles a snapshot from the provider, propagating the first
// failure. The fallback decision is FetchCurrentMarketData's alone.
func (s *Service) fetchLive(ctx context.Context) (*models.MarketDataSnapshot, error) {
	yield, err := s.provider.TreasuryYield10Y(ctx)
	if err != nil {
		return nil, err
	}
	level, pe, err := s.provider.IndexSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	ig, hy, err := s.provider.CreditSpreads(ctx)
	if err != nil {
		return nil, err
	}

	multiples := make(map[string]float64, len(defaultIndustryMultiples))
	for k, v := range defaultIndustryMultiples {
		multiples[k] = v
	}

	return &models.MarketDataSnapshot{
		ID:                uuid.New(),
		OrganizationID:    s.orgID,
		TreasuryYield10Y:  yield,
		IndexLevel:        level,
		IndexPERatio:      pe,
		MarketRiskPremium: DefaultMarketRiskPremium,
		IGSpread:          ig,
		HYSpread:          hy,
		IndustryMultiples: multiples,
		FetchedAt:         time.Now(),
	}, nil
}

// FetchCurrentMarketData pulls a fresh snapshot, substituting the hardcoded
// defaults on any provider failure. It never returns an error to the caller.
func (s *Service) FetchCurrentMarketData(ctx context.Context) *models.MarketDataSnapshot {
	snap, err := s.fetchLive(ctx)
	if err != nil {
		log.Printf("[MARKETDATA] provider unavailable, serving defaults: %v", err)
		return s.defaultSnapshot()
	}
	return snap
}

// LatestSnapshot returns the stored snapshot, refreshing it when older than
// 24 hours or absent. Concurrent refreshes may race; last write wins, which
// is acceptable for a daily-granularity cache.
func (s *Service) LatestSnapshot(ctx context.Context) *models.MarketDataSnapshot {
	if s.snapshots != nil {
		snap, err := s.snapshots.Latest(ctx, s.orgID)
		if err == nil && snap != nil && !snap.Stale() {
			return snap
		}
	}

	snap := s.FetchCurrentMarketData(ctx)
	if s.snapshots != nil {
		if err := s.snapshots.Save(ctx, snap); err != nil {
			log.Printf("[MARKETDATA] failed to persist snapshot: %v", err)
		}
	}
	return snap
}

// RiskFreeRate returns the treasury yield in percent for the given term.
// Only the 10-year point is sourced live; other terms apply a fixed curve
// offset to it.
func (s *Service) RiskFreeRate(ctx context.Context, term string) float64 {
	snap := s.LatestSnapshot(ctx)
	base := snap.TreasuryYield10Y
	switch term {
	case "2y":
		return base - 0.3
	case "5y":
		return base - 0.15
	case "30y":
		return base + 0.2
	default: // "10y" and anything unrecognized
		return base
	}
}

// MarketRiskPremium returns the equity risk premium in percent.
func (s *Service) MarketRiskPremium(ctx context.Context) float64 {
	return s.LatestSnapshot(ctx).MarketRiskPremium
}

// IndustryMultiples returns the EV/EBITDA benchmark for an industry, with a
// flat default for industries outside the table.
func (s *Service) IndustryMultiples(ctx context.Context, industry string) float64 {
	snap := s.LatestSnapshot(ctx)
	if m, ok := snap.IndustryMultiples[strings.ToLower(industry)]; ok {
		return m
	}
	return DefaultIndustryMultiple
}

// CostOfDebtBenchmark returns risk-free + rating spread, in percent.
// Unknown ratings take the BBB spread.
func (s *Service) CostOfDebtBenchmark(ctx context.Context, rating string) float64 {
	spread, ok := ratingSpreads[strings.ToUpper(rating)]
	if !ok {
		spread = ratingSpreads["BBB"]
	}
	return s.RiskFreeRate(ctx, "10y") + spread
}
