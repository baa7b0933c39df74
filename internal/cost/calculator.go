// Package cost derives per-row transaction costs from jurisdiction rules.
package cost

import (
	"log/slog"
	"math"
	"strings"
)

// Calculate returns the transaction cost for a resolved country plus the
// row's notional and rate. Countries are matched case-insensitively
// against a closed rule table; anything unrecognized costs zero. Numeric
// faults never propagate: a zero cost is returned instead.
func Calculate(country string, notional, rate float64) float64 {
	if !isFinite(notional) || !isFinite(rate) {
		slog.Error("Non-numeric inputs for cost calculation",
			"country", country, "notional", notional, "rate", rate)
		return 0
	}

	switch strings.ToUpper(country) {
	case "GB":
		return notional*rate - notional
	case "NL":
		if rate == 0 {
			slog.Warn("Zero rate for NL cost calculation, setting cost to 0")
			return 0
		}
		return math.Abs(notional*(1/rate) - notional)
	default:
		slog.Debug("No cost rule for country, setting cost to 0", "country", country)
		return 0
	}
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
