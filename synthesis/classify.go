// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package synthesis

import (
	"fmt"
	"strings"
	"time"

	"github.com/poiesic/finrag/core"
	"github.com/shopspring/decimal"
)

// Comparison is the outcome of comparing an amount with its counterpart.
type Comparison struct {
	Kind     core.Discrepancy
	Expected decimal.Decimal
	Actual   decimal.Decimal
	Delta    decimal.Decimal // Actual minus Expected
}

// Mismatched reports whether the comparison found a difference.
func (c Comparison) Mismatched() bool {
	return c.Kind == core.DiscrepancyAmountMismatch
}

// CompareAmounts classifies actual against expected. The amounts mismatch
// when they differ by more than tolerance.
func CompareAmounts(expected, actual, tolerance decimal.Decimal) Comparison {
	delta := actual.Sub(expected)
	kind := core.DiscrepancyNone
	if delta.Abs().GreaterThan(tolerance.Abs()) {
		kind = core.DiscrepancyAmountMismatch
	}
	return Comparison{Kind: kind, Expected: expected, Actual: actual, Delta: delta}
}

// Reference is the record a payment is reconciled against.
type Reference struct {
	RecordType core.RecordType
	RecordID   string
	// Key is the identifier the reference is joined on: a ledger entry's
	// RefID or a receivable's ARID.
	Key      string
	Amount   decimal.Decimal
	Currency string
}

// ReceivableReference reconciles against an invoice.
func ReceivableReference(r *core.Receivable) Reference {
	return Reference{
		RecordType: core.RecordTypeReceivable,
		RecordID:   r.ID,
		Key:        r.ID,
		Amount:     r.Amount,
		Currency:   r.Currency,
	}
}

// LedgerReference reconciles against the ledger entry booking a payment.
func LedgerReference(l *core.LedgerEntry) Reference {
	return Reference{
		RecordType: core.RecordTypeLedger,
		RecordID:   l.ID,
		Key:        l.RefID,
		Amount:     l.Total(),
		Currency:   l.Currency,
	}
}

// ComparePayment compares a payment with its counterpart record. The
// counterpart must be keyed on the payment ID or the payment's receivable
// and be in the same currency.
func ComparePayment(payment *core.Payment, ref Reference, policy Policy) (Comparison, error) {
	if ref.Key == "" || (ref.Key != payment.ID && ref.Key != payment.ReceivableID) {
		return Comparison{}, &core.DiscrepancyComputationError{
			RecordType: core.RecordTypePayment,
			RecordID:   payment.ID,
			Reason:     fmt.Sprintf("%s %s is keyed on %q, not %s or %s", ref.RecordType, ref.RecordID, ref.Key, payment.ID, payment.ReceivableID),
		}
	}
	if payment.Currency != "" && ref.Currency != "" && !strings.EqualFold(payment.Currency, ref.Currency) {
		return Comparison{}, &core.DiscrepancyComputationError{
			RecordType: core.RecordTypePayment,
			RecordID:   payment.ID,
			Reason:     fmt.Sprintf("currency %s does not match %s %s in %s", payment.Currency, ref.RecordType, ref.RecordID, ref.Currency),
		}
	}
	return CompareAmounts(ref.Amount, payment.Amount, policy.AmountTolerance), nil
}

// DaysPastDue returns whole days from due to asOf, or zero if not yet due.
func DaysPastDue(due, asOf time.Time) int {
	if asOf.IsZero() || due.IsZero() || !asOf.After(due) {
		return 0
	}
	return int(asOf.Sub(due).Hours() / 24)
}

// ClassifyReceivable classifies an invoice by payment state and age. It
// returns the classification and, when overdue, the days past due.
//
//   - paid with no payment on file: missing-payment
//   - unpaid, no payment, more than OverdueGraceDays past due: overdue
func ClassifyReceivable(r *core.Receivable, hasPayment bool, policy Policy) (core.Discrepancy, int) {
	if hasPayment {
		return core.DiscrepancyNone, 0
	}
	if r.IsPaid() {
		return core.DiscrepancyMissingPayment, 0
	}
	days := DaysPastDue(r.DueDate, policy.AsOf)
	if days > policy.OverdueGraceDays {
		return core.DiscrepancyOverdue, days
	}
	return core.DiscrepancyNone, 0
}

// ClassifyClaim reports over-limit iff amount exceeds a positive limit.
func ClassifyClaim(amount, limit decimal.Decimal) core.Discrepancy {
	if limit.IsPositive() && amount.GreaterThan(limit) {
		return core.DiscrepancyOverLimit
	}
	return core.DiscrepancyNone
}

// claimLimit resolves a claim's limit: its own column first, then policy.
func claimLimit(c *core.ExpenseClaim, policy Policy) (decimal.Decimal, bool) {
	if c.PolicyLimit.IsPositive() {
		return c.PolicyLimit, true
	}
	return policy.ClaimLimit(c.Category)
}

// classifyClaimRecord falls back to the source flag when no limit is known.
func classifyClaimRecord(c *core.ExpenseClaim, policy Policy) (core.Discrepancy, decimal.Decimal) {
	if limit, ok := claimLimit(c, policy); ok {
		return ClassifyClaim(c.Amount, limit), limit
	}
	if c.OverPolicyLimit {
		return core.DiscrepancyOverLimit, decimal.Zero
	}
	return core.DiscrepancyNone, decimal.Zero
}

// SignificantVariance reports whether a budget line's variance exceeds the
// policy threshold in either direction.
func SignificantVariance(b *core.BudgetLine, policy Policy) bool {
	return b.VariancePct().Abs().GreaterThan(policy.SignificantVariancePct)
}

// ClaimOverLimit reports whether a claim exceeds its resolved policy limit.
func ClaimOverLimit(c *core.ExpenseClaim, policy Policy) bool {
	kind, _ := classifyClaimRecord(c, policy)
	return kind == core.DiscrepancyOverLimit
}
