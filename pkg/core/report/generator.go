package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/google/uuid"

	"mna_valuation/pkg/models"
)

// Generator renders valuation trees into report artifacts.
type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// Generate renders the tree in the requested format and returns the artifact
// bytes plus the metadata record to persist. The record carries no FileURL;
// the caller decides where the bytes land.
func (g *Generator) Generate(tree *models.ValuationTree, format models.ReportFormat) (*models.ValuationReport, []byte, error) {
	if tree == nil || tree.Model == nil {
		return nil, nil, fmt.Errorf("report: valuation tree is empty")
	}

	var (
		data []byte
		err  error
	)
	switch format {
	case models.ReportPDF:
		data, err = g.renderPDF(tree)
	case models.ReportHTML:
		data, err = RenderHTML(tree)
	default:
		return nil, nil, fmt.Errorf("report: unsupported format %q", format)
	}
	if err != nil {
		return nil, nil, err
	}

	rec := &models.ValuationReport{
		ID:               uuid.New(),
		ValuationModelID: tree.Model.ID,
		OrganizationID:   tree.Model.OrganizationID,
		Format:           format,
		Status:           tree.Model.Status,
		SizeBytes:        len(data),
		GeneratedAt:      time.Now(),
	}
	return rec, data, nil
}

func (g *Generator) renderPDF(tree *models.ValuationTree) ([]byte, error) {
	v := tree.Model
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Valuation Report: %s", v.TargetCompany), false)

	// 1. Cover
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 22)
	pdf.CellFormat(0, 14, "Valuation Report", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 16)
	pdf.CellFormat(0, 10, v.TargetCompany, "", 1, "C", false, 0, "")
	pdf.Ln(4)
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Prepared %s", v.UpdatedAt.Format("January 2, 2006")), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Status: %s", v.Status), "", 1, "C", false, 0, "")
	pdf.Ln(10)

	// 2. Summary triple
	g.sectionTitle(pdf, "Valuation Summary")
	g.kvRow(pdf, "Pessimistic", FormatCurrency(v.PessimisticValue))
	g.kvRow(pdf, "Base Case", FormatCurrency(v.BaseCaseValue))
	g.kvRow(pdf, "Optimistic", FormatCurrency(v.OptimisticValue))
	if v.ImpliedEVEBITDA > 0 {
		g.kvRow(pdf, "Implied EV/EBITDA", FormatMultiple(v.ImpliedEVEBITDA))
	}
	if v.ImpliedEVRevenue > 0 {
		g.kvRow(pdf, "Implied EV/Revenue", FormatMultiple(v.ImpliedEVRevenue))
	}
	pdf.Ln(6)

	// 3. Methodology sections
	for _, d := range tree.DCFModels {
		g.dcfSection(pdf, d)
	}
	for _, c := range tree.Comps {
		g.compsSection(pdf, c)
	}
	for _, p := range tree.Precedents {
		g.precedentSection(pdf, p)
	}
	for _, l := range tree.LBOs {
		g.lboSection(pdf, l)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("report: pdf rendering failed: %w", err)
	}
	return buf.Bytes(), nil
}

func (g *Generator) sectionTitle(pdf *fpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(0, 9, title, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
}

func (g *Generator) kvRow(pdf *fpdf.Fpdf, key, value string) {
	pdf.CellFormat(70, 6, key, "", 0, "L", false, 0, "")
	pdf.CellFormat(0, 6, value, "", 1, "L", false, 0, "")
}

func (g *Generator) dcfSection(pdf *fpdf.Fpdf, d *models.DCFModel) {
	pdf.AddPage()
	g.sectionTitle(pdf, fmt.Sprintf("Discounted Cash Flow (%s scenario)", d.Scenario))

	g.kvRow(pdf, "Risk-free rate", FormatPct(d.RiskFreeRate))
	g.kvRow(pdf, "Beta", fmt.Sprintf("%.2f", d.Beta))
	g.kvRow(pdf, "Market risk premium", FormatPct(d.MarketRiskPremium))
	g.kvRow(pdf, "Cost of equity", FormatPct(d.CostOfEquity))
	g.kvRow(pdf, "Cost of debt", FormatPct(d.CostOfDebt))
	g.kvRow(pdf, "WACC", FormatPct(d.WACC))
	pdf.Ln(4)

	// Projection table
	headers := []string{"Year", "Revenue", "EBITDA", "FCF", "PV"}
	widths := []float64{18, 38, 38, 38, 38}
	pdf.SetFont("Helvetica", "B", 9)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Helvetica", "", 9)
	for i := 0; i < d.ProjectionYears; i++ {
		cells := []string{
			fmt.Sprintf("%d", i+1),
			FormatCurrency(d.RevenueProjections[i]),
			FormatCurrency(d.EBITDAProjections[i]),
			FormatCurrency(d.FreeCashFlows[i]),
			FormatCurrency(d.PresentValues[i]),
		}
		for j, cell := range cells {
			pdf.CellFormat(widths[j], 6, cell, "1", 0, "R", false, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "", 10)
	g.kvRow(pdf, "Terminal value", FormatCurrency(d.TerminalValue))
	g.kvRow(pdf, "Enterprise value", FormatCurrency(d.EnterpriseValue))
	g.kvRow(pdf, "Equity value", FormatCurrency(d.EquityValue))
	pdf.Ln(4)
}

func (g *Generator) compsSection(pdf *fpdf.Fpdf, c *models.ComparableCompanyAnalysis) {
	pdf.AddPage()
	g.sectionTitle(pdf, "Comparable Company Analysis")

	g.multipleTable(pdf, "Company", func(yield func(name string, evRev, evEBITDA, pe float64)) {
		for _, comp := range c.Comparables {
			yield(comp.Name, comp.EVRevenue, comp.EVEBITDA, comp.PERatio)
		}
	})

	g.kvRow(pdf, "Selected EV/Revenue (median)", FormatMultiple(c.SelectedEVRevenue))
	g.kvRow(pdf, "Selected EV/EBITDA (median)", FormatMultiple(c.SelectedEVEBITDA))
	g.kvRow(pdf, "Size premium", FormatPct(c.SizePremiumPct))
	g.kvRow(pdf, "Marketability discount", FormatPct(c.MarketabilityDiscPct))
	g.kvRow(pdf, "Control premium", FormatPct(c.ControlPremiumPct))
	g.kvRow(pdf, "Implied enterprise value", FormatCurrency(c.ImpliedEnterpriseValue))
	g.kvRow(pdf, "Implied equity value", FormatCurrency(c.ImpliedEquityValue))
	if c.SampleSizeWarning {
		pdf.SetFont("Helvetica", "I", 9)
		pdf.CellFormat(0, 6, "Note: fewer than three comparables; medians may not be representative.", "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
	}
	pdf.Ln(4)
}

func (g *Generator) precedentSection(pdf *fpdf.Fpdf, p *models.PrecedentTransactionAnalysis) {
	pdf.AddPage()
	g.sectionTitle(pdf, "Precedent Transaction Analysis")

	g.multipleTable(pdf, "Transaction", func(yield func(name string, evRev, evEBITDA, pe float64)) {
		for _, txn := range p.Transactions {
			yield(txn.Name, txn.EVRevenue, txn.EVEBITDA, txn.PERatio)
		}
	})

	g.kvRow(pdf, "Selected EV/EBITDA (median)", FormatMultiple(p.SelectedEVEBITDA))
	g.kvRow(pdf, "Avg strategic premium", FormatPct(p.AvgStrategicPremiumPct))
	g.kvRow(pdf, "Avg financial premium", FormatPct(p.AvgFinancialPremiumPct))
	g.kvRow(pdf, "Market timing adjustment", FormatPct(p.MarketTimingAdjPct))
	g.kvRow(pdf, "Implied enterprise value", FormatCurrency(p.ImpliedEnterpriseValue))
	g.kvRow(pdf, "Implied equity value", FormatCurrency(p.ImpliedEquityValue))
	pdf.Ln(4)
}

func (g *Generator) lboSection(pdf *fpdf.Fpdf, l *models.LBOModel) {
	pdf.AddPage()
	g.sectionTitle(pdf, "Leveraged Buyout Analysis")

	g.kvRow(pdf, "Purchase price", FormatCurrency(l.PurchasePrice))
	g.kvRow(pdf, fmt.Sprintf("Equity investment (%s)", FormatPct(l.EquityPct)), FormatCurrency(l.EquityInvestment))
	g.kvRow(pdf, "Senior debt", FormatCurrency(l.SeniorDebt))
	g.kvRow(pdf, "Subordinated debt", FormatCurrency(l.SubordinatedDebt))
	g.kvRow(pdf, "Mezzanine debt", FormatCurrency(l.MezzanineDebt))
	pdf.Ln(2)
	g.kvRow(pdf, "Entry multiple", FormatMultiple(l.EntryMultiple))
	g.kvRow(pdf, "Exit multiple", FormatMultiple(l.ExitMultiple))
	g.kvRow(pdf, "Hold period", fmt.Sprintf("%d years", l.HoldYears))
	pdf.Ln(2)
	g.kvRow(pdf, "MOIC", fmt.Sprintf("%.2fx", l.MOIC))
	g.kvRow(pdf, "IRR", FormatPct(l.IRRPct))
	g.kvRow(pdf, "Cash-on-cash", FormatPct(l.CashOnCashPct))
	pdf.Ln(4)
}

func (g *Generator) multipleTable(pdf *fpdf.Fpdf, nameHeader string, rows func(yield func(name string, evRev, evEBITDA, pe float64))) {
	headers := []string{nameHeader, "EV/Revenue", "EV/EBITDA", "P/E"}
	widths := []float64{60, 40, 40, 30}
	pdf.SetFont("Helvetica", "B", 9)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Helvetica", "", 9)
	rows(func(name string, evRev, evEBITDA, pe float64) {
		pdf.CellFormat(widths[0], 6, name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 6, FormatMultiple(evRev), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[2], 6, FormatMultiple(evEBITDA), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 6, FormatMultiple(pe), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	})
	pdf.Ln(4)
	pdf.SetFont("Helvetica", "", 10)
}
