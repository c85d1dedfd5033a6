package valuation

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"mna_valuation/pkg/core/fincalc"
	"mna_valuation/pkg/core/report"
	"mna_valuation/pkg/core/store"
	"mna_valuation/pkg/core/valuation"
	"mna_valuation/pkg/models"
)

// Handler serves the valuation endpoints. repo and reports are nil when the
// server runs without a database; persistence-dependent endpoints then
// return 503.
type Handler struct {
	master  *valuation.MasterService
	dcf     *valuation.DCFService
	lbo     *valuation.LBOService
	repo    *store.ValuationRepo
	reports *store.ReportRepo
	gen     *report.Generator

	reportDir  string
	defaultOrg uuid.UUID
}

func NewHandler(master *valuation.MasterService, dcf *valuation.DCFService, lbo *valuation.LBOService,
	repo *store.ValuationRepo, reports *store.ReportRepo, reportDir string, defaultOrg uuid.UUID) *Handler {
	return &Handler{
		master:     master,
		dcf:        dcf,
		lbo:        lbo,
		repo:       repo,
		reports:    reports,
		gen:        report.NewGenerator(),
		reportDir:  reportDir,
		defaultOrg: defaultOrg,
	}
}

// cors writes the CORS preamble and reports whether the request was a
// preflight that has been fully handled.
func cors(w http.ResponseWriter, r *http.Request) bool {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return true
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// DCFRequest mirrors valuation.DCFInputs for the wire.
type DCFRequest struct {
	Scenario          string    `json:"scenario"`
	BaseRevenue       float64   `json:"base_revenue"`
	RevenueGrowthPct  []float64 `json:"revenue_growth_pct"`
	ProjectionYears   int       `json:"projection_years"`
	EBITDAMarginPct   float64   `json:"ebitda_margin_pct"`
	DepreciationPct   float64   `json:"depreciation_pct"`
	CapexPct          float64   `json:"capex_pct"`
	NWCPctOfRevChange float64   `json:"nwc_pct_of_revenue_change"`
	TaxRatePct        float64   `json:"tax_rate_pct"`

	RiskFreeRatePct      float64 `json:"risk_free_rate_pct"`
	Beta                 float64 `json:"beta"`
	MarketRiskPremiumPct float64 `json:"market_risk_premium_pct"`
	CostOfDebtPct        float64 `json:"cost_of_debt_pct"`
	CreditRating         string  `json:"credit_rating"`
	DebtToEquity         float64 `json:"debt_to_equity"`

	TerminalMethod    string  `json:"terminal_method"`
	TerminalGrowthPct float64 `json:"terminal_growth_pct"`
	ExitMultiple      float64 `json:"exit_multiple"`

	Cash             float64 `json:"cash"`
	Debt             float64 `json:"debt"`
	MinorityInterest float64 `json:"minority_interest"`
	PreferredStock   float64 `json:"preferred_stock"`
}

func (r *DCFRequest) toInputs() valuation.DCFInputs {
	return valuation.DCFInputs{
		Scenario:             models.DCFScenario(r.Scenario),
		BaseRevenue:          r.BaseRevenue,
		RevenueGrowthPct:     r.RevenueGrowthPct,
		ProjectionYears:      r.ProjectionYears,
		EBITDAMarginPct:      r.EBITDAMarginPct,
		DepreciationPct:      r.DepreciationPct,
		CapexPct:             r.CapexPct,
		NWCPctOfRevChange:    r.NWCPctOfRevChange,
		TaxRatePct:           r.TaxRatePct,
		RiskFreeRatePct:      r.RiskFreeRatePct,
		Beta:                 r.Beta,
		MarketRiskPremiumPct: r.MarketRiskPremiumPct,
		CostOfDebtPct:        r.CostOfDebtPct,
		CreditRating:         r.CreditRating,
		DebtToEquity:         r.DebtToEquity,
		TerminalMethod:       models.TerminalValueMethod(r.TerminalMethod),
		TerminalGrowthPct:    r.TerminalGrowthPct,
		ExitMultiple:         r.ExitMultiple,
		Cash:                 r.Cash,
		Debt:                 r.Debt,
		MinorityInterest:     r.MinorityInterest,
		PreferredStock:       r.PreferredStock,
	}
}

// CompsRequest mirrors valuation.CompsInputs.
type CompsRequest struct {
	Comparables              []fincalc.Comparable `json:"comparables"`
	TargetRevenue            float64              `json:"target_revenue"`
	TargetEBITDA             float64              `json:"target_ebitda"`
	NetDebt                  float64              `json:"net_debt"`
	SizePremiumPct           float64              `json:"size_premium_pct"`
	MarketabilityDiscountPct float64              `json:"marketability_discount_pct"`
	ControlPremiumPct        float64              `json:"control_premium_pct"`
}

func (r *CompsRequest) toInputs() valuation.CompsInputs {
	return valuation.CompsInputs{
		Comparables:              r.Comparables,
		TargetRevenue:            r.TargetRevenue,
		TargetEBITDA:             r.TargetEBITDA,
		NetDebt:                  r.NetDebt,
		SizePremiumPct:           r.SizePremiumPct,
		MarketabilityDiscountPct: r.MarketabilityDiscountPct,
		ControlPremiumPct:        r.ControlPremiumPct,
	}
}

// PrecedentRequest mirrors valuation.PrecedentInputs.
type PrecedentRequest struct {
	Transactions       []fincalc.Comparable `json:"transactions"`
	TargetRevenue      float64              `json:"target_revenue"`
	TargetEBITDA       float64              `json:"target_ebitda"`
	NetDebt            float64              `json:"net_debt"`
	MarketTimingAdjPct float64              `json:"market_timing_adjustment_pct"`
}

func (r *PrecedentRequest) toInputs() valuation.PrecedentInputs {
	return valuation.PrecedentInputs{
		Transactions:       r.Transactions,
		TargetRevenue:      r.TargetRevenue,
		TargetEBITDA:       r.TargetEBITDA,
		NetDebt:            r.NetDebt,
		MarketTimingAdjPct: r.MarketTimingAdjPct,
	}
}

// LBORequest mirrors valuation.LBOInputs.
type LBORequest struct {
	PurchasePrice    float64 `json:"purchase_price"`
	EquityPct        float64 `json:"equity_pct"`
	EntryEBITDA      float64 `json:"entry_ebitda"`
	ExitEBITDA       float64 `json:"exit_ebitda"`
	ExitMultiple     float64 `json:"exit_multiple"`
	HoldYears        int     `json:"hold_years"`
	RevenueGrowthPct float64 `json:"revenue_growth_pct"`

	Distributions []float64 `json:"distributions"`
}

func (r *LBORequest) toInputs() valuation.LBOInputs {
	return valuation.LBOInputs{
		PurchasePrice:    r.PurchasePrice,
		EquityPct:        r.EquityPct,
		EntryEBITDA:      r.EntryEBITDA,
		ExitEBITDA:       r.ExitEBITDA,
		ExitMultiple:     r.ExitMultiple,
		HoldYears:        r.HoldYears,
		RevenueGrowthPct: r.RevenueGrowthPct,
		Distributions:    r.Distributions,
	}
}

// ComprehensiveRequest selects methodologies by presence of their sub-object.
type ComprehensiveRequest struct {
	OrganizationID string            `json:"organization_id"`
	DealID         string            `json:"deal_id"`
	TargetCompany  string            `json:"target_company"`
	DCF            *DCFRequest       `json:"dcf"`
	Comps          *CompsRequest     `json:"comps"`
	Precedent      *PrecedentRequest `json:"precedent"`
	LBO            *LBORequest       `json:"lbo"`
}

func (h *Handler) orgID(raw string) (uuid.UUID, error) {
	if raw == "" {
		return h.defaultOrg, nil
	}
	return uuid.Parse(raw)
}

// HandleComprehensive runs POST /api/valuation/comprehensive.
func (h *Handler) HandleComprehensive(w http.ResponseWriter, r *http.Request) {
	if cors(w, r) {
		return
	}
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("POST required"))
		return
	}

	var req ComprehensiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	orgID, err := h.orgID(req.OrganizationID)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid organization_id: %w", err))
		return
	}

	in := valuation.ComprehensiveInputs{
		OrganizationID: orgID,
		TargetCompany:  req.TargetCompany,
	}
	if req.DealID != "" {
		dealID, err := uuid.Parse(req.DealID)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid deal_id: %w", err))
			return
		}
		in.DealID = &dealID
	}
	if req.DCF != nil {
		dcf := req.DCF.toInputs()
		in.DCF = &dcf
	}
	if req.Comps != nil {
		comps := req.Comps.toInputs()
		in.Comps = &comps
	}
	if req.Precedent != nil {
		prec := req.Precedent.toInputs()
		in.Precedent = &prec
	}
	if req.LBO != nil {
		lbo := req.LBO.toInputs()
		in.LBO = &lbo
	}

	result, err := h.master.CreateComprehensiveValuation(r.Context(), in)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// HandleDCF runs POST /api/valuation/dcf: a standalone DCF without a root
// valuation record.
func (h *Handler) HandleDCF(w http.ResponseWriter, r *http.Request) {
	if cors(w, r) {
		return
	}
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("POST required"))
		return
	}

	var req struct {
		DCFRequest
		OrganizationID string `json:"organization_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	orgID, err := h.orgID(req.OrganizationID)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid organization_id: %w", err))
		return
	}

	in := req.toInputs()
	in.OrganizationID = orgID
	model, err := h.dcf.CreateDCFModel(r.Context(), in)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	writeJSON(w, http.StatusOK, model)
}

// HandleLBO runs POST /api/valuation/lbo.
func (h *Handler) HandleLBO(w http.ResponseWriter, r *http.Request) {
	if cors(w, r) {
		return
	}
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("POST required"))
		return
	}

	var req struct {
		LBORequest
		OrganizationID string `json:"organization_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	orgID, err := h.orgID(req.OrganizationID)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid organization_id: %w", err))
		return
	}

	in := req.toInputs()
	in.OrganizationID = orgID
	model, err := h.lbo.CreateLBOModel(r.Context(), in)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	writeJSON(w, http.StatusOK, model)
}

// HandleGet runs GET /api/valuation/get?id=...&organization_id=...
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	if cors(w, r) {
		return
	}
	if h.repo == nil {
		writeError(w, http.StatusServiceUnavailable, fmt.Errorf("persistence not configured"))
		return
	}

	id, err := uuid.Parse(r.URL.Query().Get("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid id: %w", err))
		return
	}
	orgID, err := h.orgID(r.URL.Query().Get("organization_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid organization_id: %w", err))
		return
	}

	tree, err := h.repo.GetValuationTree(r.Context(), orgID, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, tree)
}

// HandleStatus runs POST /api/valuation/status to advance the lifecycle.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	if cors(w, r) {
		return
	}
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("POST required"))
		return
	}
	if h.repo == nil {
		writeError(w, http.StatusServiceUnavailable, fmt.Errorf("persistence not configured"))
		return
	}

	var req struct {
		ID             string `json:"id"`
		OrganizationID string `json:"organization_id"`
		Status         string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	id, err := uuid.Parse(req.ID)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid id: %w", err))
		return
	}
	orgID, err := h.orgID(req.OrganizationID)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid organization_id: %w", err))
		return
	}

	updated, err := h.repo.TransitionStatus(r.Context(), orgID, id, models.ValuationStatus(req.Status))
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, err)
		case errors.Is(err, models.ErrInvalidTransition):
			writeError(w, http.StatusConflict, err)
		default:
			writeError(w, http.StatusInternalServerError, err)
		}
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// HandleDelete runs POST /api/valuation/delete to soft-delete a valuation
// and its sub-models.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if cors(w, r) {
		return
	}
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("POST required"))
		return
	}
	if h.repo == nil {
		writeError(w, http.StatusServiceUnavailable, fmt.Errorf("persistence not configured"))
		return
	}

	var req struct {
		ID             string `json:"id"`
		OrganizationID string `json:"organization_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	id, err := uuid.Parse(req.ID)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid id: %w", err))
		return
	}
	orgID, err := h.orgID(req.OrganizationID)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid organization_id: %w", err))
		return
	}

	if err := h.repo.SoftDeleteValuation(r.Context(), orgID, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// HandleReport runs POST /api/valuation/report: renders the tree to PDF or
// HTML, writes the artifact and records it.
func (h *Handler) HandleReport(w http.ResponseWriter, r *http.Request) {
	if cors(w, r) {
		return
	}
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("POST required"))
		return
	}
	if h.repo == nil {
		writeError(w, http.StatusServiceUnavailable, fmt.Errorf("persistence not configured"))
		return
	}

	var req struct {
		ID             string `json:"id"`
		OrganizationID string `json:"organization_id"`
		Format         string `json:"format"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	id, err := uuid.Parse(req.ID)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid id: %w", err))
		return
	}
	orgID, err := h.orgID(req.OrganizationID)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid organization_id: %w", err))
		return
	}
	format := models.ReportFormat(req.Format)
	if format == "" {
		format = models.ReportPDF
	}

	tree, err := h.repo.GetValuationTree(r.Context(), orgID, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	rec, data, err := h.gen.Generate(tree, format)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}

	if err := os.MkdirAll(h.reportDir, 0o755); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	name := fmt.Sprintf("%s-%s.%s", tree.Model.TargetCompany, rec.ID, format)
	path := filepath.Join(h.reportDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	rec.FileURL = path

	if h.reports != nil {
		if err := h.reports.Create(r.Context(), rec); err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
	}

	log.Printf("[REPORT] %s %s -> %s (%d bytes)", tree.Model.TargetCompany, format, path, rec.SizeBytes)
	writeJSON(w, http.StatusOK, rec)
}
