package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusLifecycle(t *testing.T) {
	v := &ValuationModel{Status: StatusDraft}

	require.NoError(t, v.Transition(StatusInReview))
	require.NoError(t, v.Transition(StatusApproved))
	require.NoError(t, v.Transition(StatusFinal))
	require.NoError(t, v.Transition(StatusArchived))
	assert.Equal(t, StatusArchived, v.Status)
}

func TestStatusRejectsSkips(t *testing.T) {
	v := &ValuationModel{Status: StatusDraft}

	err := v.Transition(StatusApproved)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, StatusDraft, v.Status, "failed transition must not mutate status")

	assert.Error(t, v.Transition(StatusFinal))
	assert.Error(t, (&ValuationModel{Status: StatusArchived}).Transition(StatusDraft))
}

func TestStatusSpecialMoves(t *testing.T) {
	// Rejected review drops back to draft
	v := &ValuationModel{Status: StatusInReview}
	require.NoError(t, v.Transition(StatusDraft))

	// Archive allowed from any live stage
	for _, s := range []ValuationStatus{StatusDraft, StatusInReview, StatusApproved, StatusFinal} {
		m := &ValuationModel{Status: s}
		assert.NoError(t, m.Transition(StatusArchived), "archive from %s", s)
	}
}

func TestDCFModelValidate(t *testing.T) {
	d := &DCFModel{ProjectionYears: 2}
	for _, arr := range []*[]float64{
		&d.RevenueProjections, &d.EBITDAProjections, &d.EBITProjections,
		&d.NOPATProjections, &d.CapexProjections, &d.DepreciationProj,
		&d.WorkingCapitalChanges, &d.FreeCashFlows, &d.DiscountFactors,
		&d.PresentValues,
	} {
		*arr = []float64{1, 2}
	}
	require.NoError(t, d.Validate())

	d.FreeCashFlows = []float64{1}
	assert.Error(t, d.Validate(), "misaligned projection array must fail validation")
}

func TestLBOCapitalStructureInvariant(t *testing.T) {
	l := &LBOModel{
		PurchasePrice:    1000,
		EquityPct:        40,
		EquityInvestment: 400,
		TotalDebt:        600,
	}
	require.NoError(t, l.ValidateCapitalStructure())

	l.TotalDebt = 500
	assert.Error(t, l.ValidateCapitalStructure())

	l.TotalDebt = 600
	l.EquityInvestment = 300
	assert.Error(t, l.ValidateCapitalStructure())
}

func TestSnapshotStaleness(t *testing.T) {
	fresh := &MarketDataSnapshot{FetchedAt: time.Now().Add(-1 * time.Hour)}
	assert.False(t, fresh.Stale())

	old := &MarketDataSnapshot{FetchedAt: time.Now().Add(-25 * time.Hour)}
	assert.True(t, old.Stale())
}
