package synthesis

import (
	"github.com/poiesic/finrag/core"
	"github.com/shopspring/decimal"
)

// Severity ranks a reconciliation finding.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
)

// Finding types.
const (
	FindingAmountMismatch = "Amount Mismatch"
	FindingMissingPayment = "Missing Payment Record"
	FindingOverdue        = "Overdue Payment"
)

// Finding is one receivable reconciliation problem.
type Finding struct {
	Type        string
	Kind        core.Discrepancy
	Severity    Severity
	Invoice     string
	Customer    string
	Expected    decimal.Decimal
	Received    decimal.Decimal
	Difference  decimal.Decimal // Received minus Expected
	DaysOverdue int             // Set for overdue findings only
}

// FindDiscrepancies reconciles every invoice against its payments.
//
// An invoice can produce both a mismatch or missing-payment finding and an
// overdue finding. Payments are checked for joinability first; an
// unreconcilable payment fails the whole run.
func FindDiscrepancies(set *core.RecordSet, policy Policy) ([]Finding, error) {
	j := newJoins(set)
	for _, p := range set.Payments {
		ref, err := j.counterpart(p)
		if err != nil {
			return nil, err
		}
		if _, err := ComparePayment(p, ref, policy); err != nil {
			return nil, err
		}
	}

	var findings []Finding
	for _, r := range set.Receivables {
		if payment := j.firstPayment(r.ID); payment != nil {
			cmp := CompareAmounts(r.Amount, payment.Amount, policy.AmountTolerance)
			if cmp.Mismatched() {
				findings = append(findings, Finding{
					Type:       FindingAmountMismatch,
					Kind:       core.DiscrepancyAmountMismatch,
					Severity:   SeverityHigh,
					Invoice:    r.ID,
					Customer:   r.Customer,
					Expected:   r.Amount,
					Received:   payment.Amount,
					Difference: cmp.Delta,
				})
			}
		} else if r.IsPaid() {
			findings = append(findings, Finding{
				Type:       FindingMissingPayment,
				Kind:       core.DiscrepancyMissingPayment,
				Severity:   SeverityCritical,
				Invoice:    r.ID,
				Customer:   r.Customer,
				Expected:   r.Amount,
				Received:   decimal.Zero,
				Difference: r.Amount.Neg(),
			})
		}

		if r.IsPaid() {
			continue
		}
		days := DaysPastDue(r.DueDate, policy.AsOf)
		if days <= policy.OverdueGraceDays {
			continue
		}
		severity := SeverityMedium
		if days > policy.CriticalOverdueDays {
			severity = SeverityCritical
		}
		findings = append(findings, Finding{
			Type:        FindingOverdue,
			Kind:        core.DiscrepancyOverdue,
			Severity:    severity,
			Invoice:     r.ID,
			Customer:    r.Customer,
			Expected:    r.Amount,
			Received:    decimal.Zero,
			Difference:  r.Amount.Neg(),
			DaysOverdue: days,
		})
	}
	return findings, nil
}

// CountBySeverity tallies findings per severity.
func CountBySeverity(findings []Finding) map[Severity]int {
	out := make(map[Severity]int, 3)
	for _, f := range findings {
		out[f.Severity]++
	}
	return out
}
