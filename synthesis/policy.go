package synthesis

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Policy holds the thresholds used to classify records.
type Policy struct {
	// AmountTolerance is the largest difference still treated as a match.
	AmountTolerance decimal.Decimal

	// OverdueGraceDays is how long past its due date an unpaid invoice may
	// run before it is classified overdue.
	OverdueGraceDays int

	// CriticalOverdueDays marks overdue findings as critical beyond this age.
	CriticalOverdueDays int

	// SignificantVariancePct flags budget lines whose variance exceeds this
	// percentage of budget, in either direction.
	SignificantVariancePct decimal.Decimal

	// SlowProcessingDays flags paid claims that took longer than this.
	SlowProcessingDays int

	// ClaimLimits maps expense category (case-insensitive) to a per-claim limit.
	ClaimLimits map[string]decimal.Decimal

	// DefaultClaimLimit applies to categories missing from ClaimLimits.
	// Zero means no default.
	DefaultClaimLimit decimal.Decimal

	// AsOf is the reference date for ageing. Zero disables overdue checks.
	AsOf time.Time
}

// DefaultPolicy returns the standard thresholds with AsOf set to today.
func DefaultPolicy() Policy {
	return Policy{
		AmountTolerance:        decimal.Zero,
		OverdueGraceDays:       0,
		CriticalOverdueDays:    60,
		SignificantVariancePct: decimal.NewFromInt(10),
		SlowProcessingDays:     14,
		ClaimLimits:            map[string]decimal.Decimal{},
		AsOf:                   time.Now().UTC().Truncate(24 * time.Hour),
	}
}

// ClaimLimit resolves the limit for a category.
func (p Policy) ClaimLimit(category string) (decimal.Decimal, bool) {
	for name, limit := range p.ClaimLimits {
		if strings.EqualFold(name, category) {
			return limit, true
		}
	}
	if p.DefaultClaimLimit.IsPositive() {
		return p.DefaultClaimLimit, true
	}
	return decimal.Zero, false
}
