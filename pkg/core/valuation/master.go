package valuation

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"mna_valuation/pkg/models"
)

// ComprehensiveInputs selects which methodologies a comprehensive run
// executes: a nil sub-input skips that methodology.
type ComprehensiveInputs struct {
	OrganizationID uuid.UUID
	DealID         *uuid.UUID
	TargetCompany  string

	DCF       *DCFInputs
	Comps     *CompsInputs
	Precedent *PrecedentInputs
	LBO       *LBOInputs
}

// ComprehensiveResult bundles the root record with whichever sub-models ran.
type ComprehensiveResult struct {
	Valuation *models.ValuationModel               `json:"valuation"`
	DCF       *models.DCFModel                     `json:"dcf,omitempty"`
	Comps     *models.ComparableCompanyAnalysis    `json:"comps,omitempty"`
	Precedent *models.PrecedentTransactionAnalysis `json:"precedent,omitempty"`
	LBO       *models.LBOModel                     `json:"lbo,omitempty"`
}

// MasterService composes the per-methodology services into one comprehensive
// valuation record. Constructed once per process and passed by reference;
// there is no package-level instance.
type MasterService struct {
	store     Store
	dcf       *DCFService
	comps     *CompsService
	precedent *PrecedentService
	lbo       *LBOService
}

// NewMasterService wires the composite service.
func NewMasterService(store Store, dcf *DCFService, comps *CompsService, precedent *PrecedentService, lbo *LBOService) *MasterService {
	return &MasterService{store: store, dcf: dcf, comps: comps, precedent: precedent, lbo: lbo}
}

// CreateComprehensiveValuation creates the root ValuationModel, runs every
// methodology whose inputs are supplied, and rolls the results up.
//
// The base case is the SIMPLE average of the methodology enterprise values,
// not a weighted blend; the LBO contributes its purchase price as that
// methodology's value. Optimistic/pessimistic are the max/min across
// methodologies.
func (s *MasterService) CreateComprehensiveValuation(ctx context.Context, in ComprehensiveInputs) (*ComprehensiveResult, error) {
	if in.TargetCompany == "" {
		return nil, fmt.Errorf("valuation: target company is required")
	}

	root := &models.ValuationModel{
		ID:                 uuid.New(),
		OrganizationID:     in.OrganizationID,
		DealID:             in.DealID,
		TargetCompany:      in.TargetCompany,
		PrimaryMethodology: models.MethodComposite,
		Status:             models.StatusDraft,
		CreatedAt:          time.Now(),
		UpdatedAt:          time.Now(),
	}
	if s.store != nil {
		if err := s.store.CreateValuationModel(ctx, root); err != nil {
			return nil, fmt.Errorf("persist valuation model: %w", err)
		}
	}

	result := &ComprehensiveResult{Valuation: root}
	var methodValues []float64

	if in.DCF != nil {
		run := *in.DCF
		run.ValuationModelID = root.ID
		run.OrganizationID = in.OrganizationID
		dcf, err := s.dcf.CreateDCFModel(ctx, run)
		if err != nil {
			return nil, fmt.Errorf("dcf methodology: %w", err)
		}
		result.DCF = dcf
		methodValues = append(methodValues, dcf.EnterpriseValue)
	}

	if in.Comps != nil {
		run := *in.Comps
		run.ValuationModelID = root.ID
		run.OrganizationID = in.OrganizationID
		comps, err := s.comps.CreateComparableAnalysis(ctx, run)
		if err != nil {
			return nil, fmt.Errorf("comparable methodology: %w", err)
		}
		result.Comps = comps
		methodValues = append(methodValues, comps.ImpliedEnterpriseValue)
	}

	if in.Precedent != nil {
		run := *in.Precedent
		run.ValuationModelID = root.ID
		run.OrganizationID = in.OrganizationID
		prec, err := s.precedent.CreatePrecedentAnalysis(ctx, run)
		if err != nil {
			return nil, fmt.Errorf("precedent methodology: %w", err)
		}
		result.Precedent = prec
		methodValues = append(methodValues, prec.ImpliedEnterpriseValue)
	}

	if in.LBO != nil {
		run := *in.LBO
		run.ValuationModelID = root.ID
		run.OrganizationID = in.OrganizationID
		lbo, err := s.lbo.CreateLBOModel(ctx, run)
		if err != nil {
			return nil, fmt.Errorf("lbo methodology: %w", err)
		}
		result.LBO = lbo
		methodValues = append(methodValues, lbo.PurchasePrice)
	}

	if len(methodValues) == 0 {
		return nil, fmt.Errorf("valuation: no methodology inputs supplied")
	}

	// Roll-up
	sum, min, max := 0.0, methodValues[0], methodValues[0]
	for _, v := range methodValues {
		sum += v
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	root.BaseCaseValue = sum / float64(len(methodValues))
	root.OptimisticValue = max
	root.PessimisticValue = min

	// Headline multiples off the comp targets when available, else the DCF
	// first projection year
	switch {
	case in.Comps != nil && in.Comps.TargetRevenue > 0:
		root.ImpliedEVRevenue = root.BaseCaseValue / in.Comps.TargetRevenue
	case result.DCF != nil && len(result.DCF.RevenueProjections) > 0 && result.DCF.RevenueProjections[0] > 0:
		root.ImpliedEVRevenue = root.BaseCaseValue / result.DCF.RevenueProjections[0]
	}
	switch {
	case in.Comps != nil && in.Comps.TargetEBITDA > 0:
		root.ImpliedEVEBITDA = root.BaseCaseValue / in.Comps.TargetEBITDA
	case result.DCF != nil && len(result.DCF.EBITDAProjections) > 0 && result.DCF.EBITDAProjections[0] > 0:
		root.ImpliedEVEBITDA = root.BaseCaseValue / result.DCF.EBITDAProjections[0]
	}

	root.UpdatedAt = time.Now()
	if s.store != nil {
		if err := s.store.UpdateValuationModel(ctx, root); err != nil {
			return nil, fmt.Errorf("update valuation model: %w", err)
		}
	}

	log.Printf("[MASTER] %s: %d methodologies, base=%.0f range=[%.0f, %.0f]",
		in.TargetCompany, len(methodValues), root.BaseCaseValue, root.PessimisticValue, root.OptimisticValue)
	return result, nil
}
