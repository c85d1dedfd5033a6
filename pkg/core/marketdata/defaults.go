package marketdata

// Hardcoded fallbacks used whenever the external provider is unreachable.
// Availability over accuracy: a valuation run must never fail because a quote
// site is down, so every accessor degrades to these documented constants.
const (
	DefaultTreasuryYield10Y  = 4.5
	DefaultIndexLevel        = 4500.0
	DefaultIndexPERatio      = 20.0
	DefaultMarketRiskPremium = 6.0
	DefaultIGSpread          = 1.5
	DefaultHYSpread          = 4.5
	DefaultBeta              = 1.0
)

// ratingSpreads maps a credit rating to the spread (percent) added to the
// risk-free rate when benchmarking cost of debt. Fixed lookup, not fetched.
var ratingSpreads = map[string]float64{
	"AAA": 0.5,
	"AA":  0.8,
	"A":   1.0,
	"BBB": 1.5,
	"BB":  3.0,
	"B":   4.5,
	"CCC": 7.0,
}

// defaultIndustryMultiples is the static EV/EBITDA table served when no live
// snapshot carries industry data.
var defaultIndustryMultiples = map[string]float64{
	"technology":         15.0,
	"healthcare":         12.5,
	"industrials":        10.0,
	"consumer":           11.0,
	"financial_services": 9.0,
	"energy":             6.5,
	"materials":          7.5,
	"telecom":            8.0,
	"utilities":          9.5,
}

// DefaultIndustryMultiple is used for industries missing from the table.
const DefaultIndustryMultiple = 10.0
