package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"mna_valuation/pkg/core/fincalc"
	"mna_valuation/pkg/models"
)

// BuildMarkdown renders the full valuation tree as a markdown document.
// The same document feeds the HTML report and review notes.
func BuildMarkdown(tree *models.ValuationTree) string {
	var b strings.Builder
	v := tree.Model

	fmt.Fprintf(&b, "# Valuation Report: %s\n\n", v.TargetCompany)
	fmt.Fprintf(&b, "Prepared %s | Status: %s | Methodology: %s\n\n",
		v.UpdatedAt.Format("January 2, 2006"), v.Status, v.PrimaryMethodology)

	b.WriteString("## Valuation Summary\n\n")
	b.WriteString("| Case | Enterprise Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Pessimistic | %s |\n", FormatCurrency(v.PessimisticValue))
	fmt.Fprintf(&b, "| Base | %s |\n", FormatCurrency(v.BaseCaseValue))
	fmt.Fprintf(&b, "| Optimistic | %s |\n\n", FormatCurrency(v.OptimisticValue))

	if v.ImpliedEVEBITDA > 0 || v.ImpliedEVRevenue > 0 {
		fmt.Fprintf(&b, "Implied multiples at the base case: %s EV/EBITDA, %s EV/Revenue.\n\n",
			FormatMultiple(v.ImpliedEVEBITDA), FormatMultiple(v.ImpliedEVRevenue))
	}

	for _, d := range tree.DCFModels {
		writeDCFSection(&b, d)
	}
	for _, c := range tree.Comps {
		writeCompsSection(&b, c)
	}
	for _, p := range tree.Precedents {
		writePrecedentSection(&b, p)
	}
	for _, l := range tree.LBOs {
		writeLBOSection(&b, l)
	}

	return b.String()
}

func writeDCFSection(b *strings.Builder, d *models.DCFModel) {
	fmt.Fprintf(b, "## Discounted Cash Flow (%s)\n\n", d.Scenario)

	b.WriteString("### Discount Rate\n\n")
	b.WriteString("| Component | Value |\n|---|---|\n")
	fmt.Fprintf(b, "| Risk-free rate | %s |\n", FormatPct(d.RiskFreeRate))
	fmt.Fprintf(b, "| Beta | %.2f |\n", d.Beta)
	fmt.Fprintf(b, "| Market risk premium | %s |\n", FormatPct(d.MarketRiskPremium))
	fmt.Fprintf(b, "| Cost of equity | %s |\n", FormatPct(d.CostOfEquity))
	fmt.Fprintf(b, "| Cost of debt | %s |\n", FormatPct(d.CostOfDebt))
	fmt.Fprintf(b, "| D/E ratio | %.2f |\n", d.DebtToEquity)
	fmt.Fprintf(b, "| WACC | %s |\n\n", FormatPct(d.WACC))

	b.WriteString("### Projections\n\n")
	b.WriteString("| Year | Revenue | EBITDA | FCF | PV |\n|---|---|---|---|---|\n")
	for i := 0; i < d.ProjectionYears; i++ {
		fmt.Fprintf(b, "| %d | %s | %s | %s | %s |\n", i+1,
			FormatCurrency(d.RevenueProjections[i]),
			FormatCurrency(d.EBITDAProjections[i]),
			FormatCurrency(d.FreeCashFlows[i]),
			FormatCurrency(d.PresentValues[i]))
	}
	b.WriteString("\n")

	if d.TerminalMethod == models.TVPerpetuityGrowth {
		fmt.Fprintf(b, "Terminal value %s at %s perpetual growth.\n\n",
			FormatCurrency(d.TerminalValue), FormatPct(d.TerminalGrowth))
	} else {
		fmt.Fprintf(b, "Terminal value %s at a %s exit multiple.\n\n",
			FormatCurrency(d.TerminalValue), FormatMultiple(d.ExitMultiple))
	}
	fmt.Fprintf(b, "Enterprise value: **%s**. Equity value: **%s**.\n\n",
		FormatCurrency(d.EnterpriseValue), FormatCurrency(d.EquityValue))
}

func writeCompsSection(b *strings.Builder, c *models.ComparableCompanyAnalysis) {
	b.WriteString("## Comparable Company Analysis\n\n")
	writeCompTable(b, c.Comparables)

	fmt.Fprintf(b, "Selected (median) multiples: %s EV/Revenue, %s EV/EBITDA.\n\n",
		FormatMultiple(c.SelectedEVRevenue), FormatMultiple(c.SelectedEVEBITDA))
	if c.SizePremiumPct != 0 || c.MarketabilityDiscPct != 0 || c.ControlPremiumPct != 0 {
		fmt.Fprintf(b, "Adjustments: size premium %s, marketability discount %s, control premium %s.\n\n",
			FormatPct(c.SizePremiumPct), FormatPct(c.MarketabilityDiscPct), FormatPct(c.ControlPremiumPct))
	}
	fmt.Fprintf(b, "Implied enterprise value: **%s**. Implied equity value: **%s**.\n\n",
		FormatCurrency(c.ImpliedEnterpriseValue), FormatCurrency(c.ImpliedEquityValue))
	if c.SampleSizeWarning {
		b.WriteString("> Note: fewer than three comparables; medians may not be representative.\n\n")
	}
}

func writePrecedentSection(b *strings.Builder, p *models.PrecedentTransactionAnalysis) {
	b.WriteString("## Precedent Transaction Analysis\n\n")
	writeCompTable(b, p.Transactions)

	fmt.Fprintf(b, "Selected (median) multiples: %s EV/Revenue, %s EV/EBITDA.\n\n",
		FormatMultiple(p.SelectedEVRevenue), FormatMultiple(p.SelectedEVEBITDA))
	fmt.Fprintf(b, "Average premiums: strategic buyers %s, financial buyers %s.\n\n",
		FormatPct(p.AvgStrategicPremiumPct), FormatPct(p.AvgFinancialPremiumPct))
	if p.MarketTimingAdjPct != 0 {
		fmt.Fprintf(b, "Market timing adjustment: %s.\n\n", FormatPct(p.MarketTimingAdjPct))
	}
	fmt.Fprintf(b, "Implied enterprise value: **%s**. Implied equity value: **%s**.\n\n",
		FormatCurrency(p.ImpliedEnterpriseValue), FormatCurrency(p.ImpliedEquityValue))
	if p.SampleSizeWarning {
		b.WriteString("> Note: fewer than three transactions; medians may not be representative.\n\n")
	}
}

func writeLBOSection(b *strings.Builder, l *models.LBOModel) {
	b.WriteString("## Leveraged Buyout Analysis\n\n")

	b.WriteString("| Structure | Amount |\n|---|---|\n")
	fmt.Fprintf(b, "| Purchase price | %s |\n", FormatCurrency(l.PurchasePrice))
	fmt.Fprintf(b, "| Equity investment (%s) | %s |\n", FormatPct(l.EquityPct), FormatCurrency(l.EquityInvestment))
	fmt.Fprintf(b, "| Senior debt | %s |\n", FormatCurrency(l.SeniorDebt))
	fmt.Fprintf(b, "| Subordinated debt | %s |\n", FormatCurrency(l.SubordinatedDebt))
	fmt.Fprintf(b, "| Mezzanine debt | %s |\n\n", FormatCurrency(l.MezzanineDebt))

	fmt.Fprintf(b, "Entry at %s on %s EBITDA; exit at %s after %d years.\n\n",
		FormatMultiple(l.EntryMultiple), FormatCurrency(l.EntryEBITDA),
		FormatMultiple(l.ExitMultiple), l.HoldYears)
	fmt.Fprintf(b, "Returns: **%.2fx MOIC**, **%s IRR**, %s cash-on-cash.\n\n",
		l.MOIC, FormatPct(l.IRRPct), FormatPct(l.CashOnCashPct))
}

func writeCompTable(b *strings.Builder, set []fincalc.Comparable) {
	b.WriteString("| Name | EV/Revenue | EV/EBITDA | P/E |\n|---|---|---|---|\n")
	for _, c := range set {
		fmt.Fprintf(b, "| %s | %s | %s | %s |\n", c.Name,
			FormatMultiple(c.EVRevenue), FormatMultiple(c.EVEBITDA), FormatMultiple(c.PERatio))
	}
	b.WriteString("\n")
}

// RenderHTML converts the markdown report to a standalone HTML document.
func RenderHTML(tree *models.ValuationTree) ([]byte, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.Table))

	var body bytes.Buffer
	if err := md.Convert([]byte(BuildMarkdown(tree)), &body); err != nil {
		return nil, fmt.Errorf("report: markdown conversion failed: %w", err)
	}

	var out bytes.Buffer
	fmt.Fprintf(&out, "<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>Valuation Report: %s</title>\n</head>\n<body>\n",
		tree.Model.TargetCompany)
	out.Write(body.Bytes())
	out.WriteString("</body>\n</html>\n")
	return out.Bytes(), nil
}
