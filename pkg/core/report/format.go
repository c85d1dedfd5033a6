package report

import "fmt"

// FormatCurrency collapses large dollar amounts to K/M/B so tables stay
// readable. Values are model currency (millions are common but not assumed).
func FormatCurrency(v float64) string {
	abs := v
	if abs < 0 {
		abs = -abs
	}
	switch {
	case abs >= 1e9:
		return fmt.Sprintf("$%.2fB", v/1e9)
	case abs >= 1e6:
		return fmt.Sprintf("$%.2fM", v/1e6)
	case abs >= 1e3:
		return fmt.Sprintf("$%.1fK", v/1e3)
	default:
		return fmt.Sprintf("$%.2f", v)
	}
}

// FormatPct renders a percent-unit rate, e.g. 9.25 -> "9.25%".
func FormatPct(v float64) string {
	return fmt.Sprintf("%.2f%%", v)
}

// FormatMultiple renders a valuation multiple, e.g. 10.5 -> "10.5x".
func FormatMultiple(v float64) string {
	return fmt.Sprintf("%.1fx", v)
}
