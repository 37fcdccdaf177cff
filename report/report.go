// Package report renders the plain-text reconciliation report.
//
// The report summarizes receivables, budget performance and expense claims,
// lists every discrepancy finding and closes with recommendations.
package report

import (
	"bufio"
	"cmp"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/poiesic/finrag/core"
	"github.com/poiesic/finrag/synthesis"
	"github.com/shopspring/decimal"
)

const (
	width = 80

	// TopCategories is the number of expense categories listed.
	TopCategories = 5
)

var hundred = decimal.NewFromInt(100)

// Write renders the report for set and its findings to w.
// The generated timestamp is policy.AsOf.
func Write(w io.Writer, set *core.RecordSet, findings []synthesis.Finding, policy synthesis.Policy) error {
	bw := bufio.NewWriter(w)
	r := &writer{w: bw}

	r.rule("=")
	r.printf("COMPREHENSIVE FINANCE REPORT\n")
	r.printf("Generated: %s\n", policy.AsOf.Format("2006-01-02 15:04:05"))
	r.rule("=")
	r.printf("\n")

	r.receivables(set, findings)
	if len(set.Budget) > 0 {
		r.budget(set.Budget)
	}
	if len(set.Claims) > 0 {
		r.claims(set.Claims, policy)
	}
	if len(findings) > 0 {
		r.findings(findings)
	}
	r.recommendations(set, findings, policy)

	return bw.Flush()
}

// WriteFindings renders only the discrepancy findings, led by a count per
// severity.
func WriteFindings(w io.Writer, findings []synthesis.Finding) error {
	bw := bufio.NewWriter(w)
	r := &writer{w: bw}

	counts := synthesis.CountBySeverity(findings)
	r.printf("Found %d discrepancies (critical %d, high %d, medium %d)\n\n", len(findings),
		counts[synthesis.SeverityCritical], counts[synthesis.SeverityHigh], counts[synthesis.SeverityMedium])
	if len(findings) > 0 {
		r.findings(findings)
	}

	return bw.Flush()
}

// Money formats an amount as dollars with thousands separators.
func Money(d decimal.Decimal) string {
	return "$" + humanize.FormatFloat("#,###.##", d.Round(2).InexactFloat64())
}

type writer struct {
	w *bufio.Writer
}

func (r *writer) printf(format string, args ...any) {
	// bufio.Writer keeps the first error and returns it from Flush
	fmt.Fprintf(r.w, format, args...)
}

func (r *writer) rule(ch string) {
	r.printf("%s\n", strings.Repeat(ch, width))
}

func (r *writer) section(title string) {
	r.printf("%s\n", title)
	r.rule("-")
}

func (r *writer) receivables(set *core.RecordSet, findings []synthesis.Finding) {
	outstanding := decimal.Zero
	for _, ar := range set.Receivables {
		if !ar.IsPaid() {
			outstanding = outstanding.Add(ar.Amount)
		}
	}

	r.section("ACCOUNTS RECEIVABLE SUMMARY")
	r.printf("Total Invoices: %s\n", humanize.Comma(int64(len(set.Receivables))))
	r.printf("Total Payments: %s\n", humanize.Comma(int64(len(set.Payments))))
	r.printf("Total Outstanding: %s\n", Money(outstanding))
	r.printf("Discrepancies Found: %d\n\n", len(findings))
}

type deptTotals struct {
	budget, actual, variance decimal.Decimal
}

func (r *writer) budget(lines []*core.BudgetLine) {
	var total deptTotals
	byDept := make(map[string]*deptTotals)
	for _, b := range lines {
		total.budget = total.budget.Add(b.Budget)
		total.actual = total.actual.Add(b.Actual)
		total.variance = total.variance.Add(b.Variance)

		d, ok := byDept[b.Dept]
		if !ok {
			d = &deptTotals{}
			byDept[b.Dept] = d
		}
		d.budget = d.budget.Add(b.Budget)
		d.actual = d.actual.Add(b.Actual)
		d.variance = d.variance.Add(b.Variance)
	}

	r.section("BUDGET PERFORMANCE SUMMARY")
	r.printf("Total Budget: %s\n", Money(total.budget))
	r.printf("Total Actual: %s\n", Money(total.actual))
	r.printf("Total Variance: %s (%s%%)\n\n", Money(total.variance), percent(total.variance, total.budget).StringFixed(1))

	r.printf("Budget by Department:\n")
	for _, dept := range sortedKeys(byDept) {
		d := byDept[dept]
		pct := percent(d.variance, d.budget)
		sign := ""
		if !pct.IsNegative() {
			sign = "+"
		}
		r.printf("  %s: Budget %s, Actual %s, Variance %s%s%%\n",
			dept, Money(d.budget), Money(d.actual), sign, pct.StringFixed(1))
	}
	r.printf("\n")
}

type claimTotals struct {
	count  int
	amount decimal.Decimal
}

func (r *writer) claims(claims []*core.ExpenseClaim, policy synthesis.Policy) {
	total := decimal.Zero
	var overLimit claimTotals
	byStatus := make(map[string]*claimTotals)
	byCategory := make(map[string]decimal.Decimal)
	for _, c := range claims {
		total = total.Add(c.Amount)

		s, ok := byStatus[c.Status]
		if !ok {
			s = &claimTotals{}
			byStatus[c.Status] = s
		}
		s.count++
		s.amount = s.amount.Add(c.Amount)

		byCategory[c.Category] = byCategory[c.Category].Add(c.Amount)

		if synthesis.ClaimOverLimit(c, policy) {
			overLimit.count++
			overLimit.amount = overLimit.amount.Add(c.Amount)
		}
	}

	r.section("EXPENSE CLAIMS SUMMARY")
	r.printf("Total Claims: %s\n", humanize.Comma(int64(len(claims))))
	r.printf("Total Amount: %s\n", Money(total))

	r.printf("\nBy Status:\n")
	for _, status := range sortedKeys(byStatus) {
		s := byStatus[status]
		r.printf("  %s: %d claims, %s\n", status, s.count, Money(s.amount))
	}

	r.printf("\nOver Policy Limit: %d claims, %s\n", overLimit.count, Money(overLimit.amount))

	categories := sortedKeys(byCategory)
	slices.SortStableFunc(categories, func(a, b string) int {
		return byCategory[b].Cmp(byCategory[a])
	})
	r.printf("\nTop Expense Categories:\n")
	for _, category := range categories[:min(TopCategories, len(categories))] {
		r.printf("  %s: %s\n", category, Money(byCategory[category]))
	}
	r.printf("\n")
}

func (r *writer) findings(findings []synthesis.Finding) {
	r.section("PAYMENT DISCREPANCIES")
	for _, f := range findings {
		r.printf("\n[%s] %s\n", f.Severity, f.Type)
		r.printf("  Invoice: %s\n", f.Invoice)
		r.printf("  Customer: %s\n", f.Customer)
		r.printf("  Expected: %s\n", Money(f.Expected))
		r.printf("  Received: %s\n", Money(f.Received))
		r.printf("  Difference: %s\n", Money(f.Difference))
		if f.Kind == core.DiscrepancyOverdue {
			r.printf("  Days Overdue: %d\n", f.DaysOverdue)
		}
	}
}

func (r *writer) recommendations(set *core.RecordSet, findings []synthesis.Finding, policy synthesis.Policy) {
	var recs []string

	if critical := synthesis.CountBySeverity(findings)[synthesis.SeverityCritical]; critical > 0 {
		recs = append(recs, fmt.Sprintf("URGENT: Address %d critical payment discrepancies immediately", critical))
	}

	overBudget := make(map[string]bool)
	for _, b := range set.Budget {
		if b.Variance.IsPositive() {
			overBudget[b.Dept] = true
		}
	}
	if len(overBudget) > 0 {
		recs = append(recs, fmt.Sprintf("Review spending in %d departments over budget", len(overBudget)))
	}

	pending, overLimit := 0, 0
	for _, c := range set.Claims {
		if strings.EqualFold(c.Status, core.ClaimSubmitted) {
			pending++
		}
		if synthesis.ClaimOverLimit(c, policy) {
			overLimit++
		}
	}
	if pending > 0 {
		recs = append(recs, fmt.Sprintf("Process %d pending expense claims", pending))
	}
	if overLimit > 0 {
		recs = append(recs, fmt.Sprintf("Review %d claims exceeding policy limits", overLimit))
	}

	r.printf("\n")
	r.rule("=")
	r.section("RECOMMENDATIONS")
	for i, rec := range recs {
		r.printf("%d. %s\n", i+1, rec)
	}
	r.printf("\n")
	r.rule("=")
}

// percent returns part as a percentage of whole, zero when whole is zero.
func percent(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, cmp.Compare[string])
	return keys
}
