package valuation

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mna_valuation/pkg/core/valuation"
)

type stubMarket struct{}

func (stubMarket) RiskFreeRate(ctx context.Context, term string) float64 { return 4.5 }

func (stubMarket) MarketRiskPremium(ctx context.Context) float64 { return 6.0 }

func (stubMarket) CostOfDebtBenchmark(ctx context.Context, r string) float64 { return 6.0 }

func newTestHandler() *Handler {
	market := stubMarket{}
	dcf := valuation.NewDCFService(nil, market)
	comps := valuation.NewCompsService(nil)
	precedent := valuation.NewPrecedentService(nil)
	lbo := valuation.NewLBOService(nil)
	master := valuation.NewMasterService(nil, dcf, comps, precedent, lbo)
	return NewHandler(master, dcf, lbo, nil, nil, "", uuid.New())
}

func postJSON(t *testing.T, handler http.HandlerFunc, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestHandleComprehensive(t *testing.T) {
	h := newTestHandler()

	rec := postJSON(t, h.HandleComprehensive, map[string]interface{}{
		"target_company": "API Test Co",
		"comps": map[string]interface{}{
			"comparables": []map[string]interface{}{
				{"name": "A", "ev_ebitda": 8},
				{"name": "B", "ev_ebitda": 10},
				{"name": "C", "ev_ebitda": 12},
			},
			"target_ebitda": 100,
		},
		"lbo": map[string]interface{}{
			"purchase_price": 1000,
			"equity_pct":     40,
			"entry_ebitda":   100,
			"hold_years":     5,
		},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res struct {
		Valuation struct {
			TargetCompany string  `json:"target_company"`
			BaseCaseValue float64 `json:"base_case_value"`
			Status        string  `json:"status"`
		} `json:"valuation"`
		Comps *json.RawMessage `json:"comps"`
		LBO   *json.RawMessage `json:"lbo"`
		DCF   *json.RawMessage `json:"dcf"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "API Test Co", res.Valuation.TargetCompany)
	assert.Equal(t, "draft", res.Valuation.Status)
	// (1000 + 1000) / 2: comps median 10 x 100, LBO purchase price
	assert.InDelta(t, 1000.0, res.Valuation.BaseCaseValue, 1e-6)
	assert.NotNil(t, res.Comps)
	assert.NotNil(t, res.LBO)
	assert.Nil(t, res.DCF)
}

func TestHandleComprehensiveRejectsEmpty(t *testing.T) {
	h := newTestHandler()
	rec := postJSON(t, h.HandleComprehensive, map[string]interface{}{})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestHandleComprehensiveBadOrgID(t *testing.T) {
	h := newTestHandler()
	rec := postJSON(t, h.HandleComprehensive, map[string]interface{}{
		"target_company":  "X",
		"organization_id": "not-a-uuid",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleDCF(t *testing.T) {
	h := newTestHandler()

	rec := postJSON(t, h.HandleDCF, map[string]interface{}{
		"base_revenue":        1000,
		"revenue_growth_pct":  []float64{10, 8, 6},
		"projection_years":    5,
		"ebitda_margin_pct":   25,
		"depreciation_pct":    4,
		"capex_pct":           5,
		"tax_rate_pct":        25,
		"beta":                1.2,
		"debt_to_equity":      0.5,
		"terminal_growth_pct": 2.0,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var model struct {
		WACC            float64 `json:"wacc"`
		EnterpriseValue float64 `json:"enterprise_value"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &model))
	assert.InDelta(t, 9.3, model.WACC, 1e-6)
	assert.Greater(t, model.EnterpriseValue, 0.0)
}

func TestHandleDCFTerminalGuard(t *testing.T) {
	h := newTestHandler()
	rec := postJSON(t, h.HandleDCF, map[string]interface{}{
		"base_revenue":        100,
		"revenue_growth_pct":  []float64{5},
		"ebitda_margin_pct":   20,
		"terminal_growth_pct": 50,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestHandleLBO(t *testing.T) {
	h := newTestHandler()

	rec := postJSON(t, h.HandleLBO, map[string]interface{}{
		"purchase_price": 1000,
		"equity_pct":     40,
		"entry_ebitda":   100,
		"hold_years":     5,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var model struct {
		MOIC       float64 `json:"moic"`
		SeniorDebt float64 `json:"senior_debt"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &model))
	assert.InDelta(t, 2.5, model.MOIC, 1e-6)
	assert.InDelta(t, 420.0, model.SeniorDebt, 1e-6)
}

func TestHandleMethodNotAllowed(t *testing.T) {
	h := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	h.HandleLBO(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandleCORSPreflight(t *testing.T) {
	h := newTestHandler()
	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	rec := httptest.NewRecorder()
	h.HandleComprehensive(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestPersistenceEndpointsWithoutDB(t *testing.T) {
	h := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/?id="+uuid.NewString(), nil)
	rec := httptest.NewRecorder()
	h.HandleGet(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = postJSON(t, h.HandleStatus, map[string]interface{}{
		"id": uuid.NewString(), "status": "in_review",
	})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = postJSON(t, h.HandleReport, map[string]interface{}{
		"id": uuid.NewString(),
	})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
