package models

// ValuationTree is a root ValuationModel together with every sub-model that
// references it. The store assembles it; the report generator renders it.
type ValuationTree struct {
	Model      *ValuationModel                 `json:"model"`
	DCFModels  []*DCFModel                     `json:"dcf_models,omitempty"`
	Comps      []*ComparableCompanyAnalysis    `json:"comparable_analyses,omitempty"`
	Precedents []*PrecedentTransactionAnalysis `json:"precedent_analyses,omitempty"`
	LBOs       []*LBOModel                     `json:"lbo_models,omitempty"`
	Reports    []*ValuationReport              `json:"reports,omitempty"`
}
