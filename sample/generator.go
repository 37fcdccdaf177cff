// Package sample generates synthetic finance records for demos and tests.
//
// Generated data mirrors a small company's books: invoices to a handful of
// customers, payments with occasional short payments, one ledger posting per
// invoice, quarterly department budgets and employee expense claims, some of
// them over policy limit. The same seed always yields the same records.
package sample

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/poiesic/finrag/core"
	"github.com/shopspring/decimal"
)

var (
	customers = []string{
		"Acme Corp", "TechStart Inc", "Global Solutions", "Innovate Ltd",
		"Prime Retail", "BlueSky Industries", "NextGen Systems", "Alpha Enterprises",
	}
	departments = []string{"Sales", "Marketing", "IT", "Operations", "HR", "Finance"}
	quarters    = []string{"Q1", "Q2", "Q3", "Q4"}
	methods     = []string{"Wire", "Check", "ACH"}

	receivableStatuses = weighted[string]{
		{core.StatusPaid, 0.5}, {core.StatusPending, 0.2}, {core.StatusOverdue, 0.2}, {core.StatusPartial, 0.1},
	}
	claimStatuses = weighted[string]{
		{core.ClaimSubmitted, 0.15}, {core.ClaimApproved, 0.5}, {core.ClaimRejected, 0.1}, {core.ClaimPaid, 0.25},
	}
)

// Categories lists the expense categories with their usual amount range.
var Categories = []Category{
	{"Travel", 200, 2000, []string{"Flight to client site", "Hotel accommodation", "Rental car", "Train ticket", "Taxi fare"}},
	{"Meals", 20, 150, []string{"Client dinner", "Team lunch", "Conference meals", "Business breakfast"}},
	{"Supplies", 50, 500, []string{"Office supplies", "Printer cartridges", "Stationery", "Cleaning supplies"}},
	{"Equipment", 500, 3000, []string{"Laptop computer", "Monitor", "Desk phone", "Ergonomic chair"}},
	{"Training", 300, 2500, []string{"Professional certification", "Conference registration", "Online course", "Workshop attendance"}},
	{"Software", 100, 1000, []string{"License renewal", "Software subscription", "Development tools"}},
	{"Consulting", 1000, 5000, []string{"Strategy consulting", "Technical advisory", "Legal services", "Audit services"}},
}

// Category is an expense category and the range its claims fall in.
type Category struct {
	Name         string
	Min, Max     float64
	Descriptions []string
}

// Options sizes the generated data set.
type Options struct {
	Receivables int
	Claims      int
	BudgetYears int
	Year        int // First fiscal year; invoices and claims fall in it

	MismatchRate  float64 // Share of payments short-paid
	UnpaidPayRate float64 // Share of unpaid invoices that still get a payment
	OverLimitRate float64 // Share of claims inflated over policy
}

// DefaultOptions returns the standard demo sizes.
func DefaultOptions() Options {
	return Options{
		Receivables:   100,
		Claims:        200,
		BudgetYears:   2,
		Year:          2024,
		MismatchRate:  0.15,
		UnpaidPayRate: 0.3,
		OverLimitRate: 0.1,
	}
}

// Generator produces reproducible record sets.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator creates a generator seeded with seed.
func NewGenerator(seed uint64) *Generator {
	return &Generator{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Generate builds a complete record set.
func (g *Generator) Generate(opts Options) *core.RecordSet {
	receivables := g.receivables(opts)
	return &core.RecordSet{
		Receivables: receivables,
		Payments:    g.payments(receivables, opts),
		Ledger:      g.ledger(receivables),
		Budget:      g.budget(opts),
		Claims:      g.claims(opts),
	}
}

func (g *Generator) receivables(opts Options) []*core.Receivable {
	out := make([]*core.Receivable, opts.Receivables)
	for i := range out {
		invoiced := g.date(opts.Year)
		due := invoiced.AddDate(0, 0, 30)
		r := &core.Receivable{
			ID:          fmt.Sprintf("AR%04d", i+1),
			Customer:    pick(g.rng, customers),
			InvoiceDate: invoiced,
			DueDate:     due,
			Amount:      g.amount(500, 5000),
			Currency:    "USD",
			Status:      receivableStatuses.pick(g.rng),
			Terms:       "Net 30",
		}
		if r.Status == core.StatusPaid {
			r.ReceivedDate = due.AddDate(0, 0, g.rng.IntN(15)-5)
		}
		out[i] = r
	}
	return out
}

func (g *Generator) payments(receivables []*core.Receivable, opts Options) []*core.Payment {
	var out []*core.Payment
	for _, r := range receivables {
		if !r.IsPaid() && g.rng.Float64() >= opts.UnpaidPayRate {
			continue
		}

		amount := r.Amount
		if g.rng.Float64() < opts.MismatchRate {
			amount = r.Amount.Mul(decimal.NewFromFloat(g.uniform(0.9, 0.99))).Round(2)
		}
		paid := r.ReceivedDate
		if paid.IsZero() {
			paid = r.DueDate.AddDate(0, 0, g.rng.IntN(10))
		}

		out = append(out, &core.Payment{
			ID:           fmt.Sprintf("PAY%04d", len(out)+1),
			ReceivableID: r.ID,
			PaymentDate:  paid,
			Amount:       amount,
			Customer:     r.Customer,
			Method:       pick(g.rng, methods),
			Reference:    fmt.Sprintf("REF%05d", 10000+g.rng.IntN(90000)),
		})
	}
	return out
}

func (g *Generator) ledger(receivables []*core.Receivable) []*core.LedgerEntry {
	out := make([]*core.LedgerEntry, len(receivables))
	for i, r := range receivables {
		out[i] = &core.LedgerEntry{
			ID:            fmt.Sprintf("GL%04d", i+1),
			RefID:         r.ID,
			TxnDate:       r.InvoiceDate,
			AccountNumber: "1200",
			AccountName:   "Accounts Receivable",
			Debit:         r.Amount,
			Credit:        decimal.Zero,
			Dept:          "Sales",
			CostCenter:    fmt.Sprintf("CC%02d", 1+g.rng.IntN(4)),
			Description:   "Invoice " + r.Customer,
			Currency:      "USD",
		}
	}
	return out
}

func (g *Generator) budget(opts Options) []*core.BudgetLine {
	var out []*core.BudgetLine
	for year := opts.Year; year < opts.Year+opts.BudgetYears; year++ {
		for _, dept := range departments {
			for _, quarter := range quarters {
				base := g.uniform(50000, 200000)
				forecast := base * g.uniform(0.95, 1.1)
				actual := forecast * g.uniform(0.9, 1.15)

				budget := decimal.NewFromFloat(base).Round(2)
				spent := decimal.NewFromFloat(actual).Round(2)
				variance := spent.Sub(budget)
				out = append(out, &core.BudgetLine{
					FiscalYear: year,
					Dept:       dept,
					Quarter:    quarter,
					Budget:     budget,
					Forecast:   decimal.NewFromFloat(forecast).Round(2),
					Actual:     spent,
					Variance:   variance,
					Notes:      budgetNote(variance, budget),
				})
			}
		}
	}
	return out
}

// budgetNote explains variances beyond ten percent either way.
func budgetNote(variance, budget decimal.Decimal) string {
	pct := variance.Div(budget).Mul(decimal.NewFromInt(100))
	switch {
	case pct.GreaterThan(decimal.NewFromInt(10)):
		return fmt.Sprintf("Over budget by %s%% - investigate spending", pct.StringFixed(1))
	case pct.LessThan(decimal.NewFromInt(-10)):
		return fmt.Sprintf("Under budget by %s%% - strong cost control", pct.Abs().StringFixed(1))
	default:
		return "Within acceptable variance range"
	}
}

func (g *Generator) claims(opts Options) []*core.ExpenseClaim {
	out := make([]*core.ExpenseClaim, opts.Claims)
	for i := range out {
		submitted := g.date(opts.Year)
		status := claimStatuses.pick(g.rng)
		c := &core.ExpenseClaim{
			ID:         fmt.Sprintf("CLM%04d", i+1),
			EmployeeID: fmt.Sprintf("EMP%03d", 1+g.rng.IntN(49)),
			SubmitDate: submitted,
			Currency:   "USD",
			Status:     status,
		}
		if status == core.ClaimApproved || status == core.ClaimPaid {
			c.ApprovedBy = fmt.Sprintf("MGR%03d", 1+g.rng.IntN(9))
		}
		if status == core.ClaimPaid {
			c.PayDate = submitted.AddDate(0, 0, 7+g.rng.IntN(14))
		}

		category := pick(g.rng, Categories)
		amount := g.uniform(category.Min, category.Max)
		c.OverPolicyLimit = g.rng.Float64() < opts.OverLimitRate
		if c.OverPolicyLimit {
			amount *= 1.5
		}
		c.Category = category.Name
		c.Description = pick(g.rng, category.Descriptions)
		c.Amount = decimal.NewFromFloat(amount).Round(2)
		out[i] = c
	}
	return out
}

// date returns a day in year, avoiding month ends.
func (g *Generator) date(year int) time.Time {
	return time.Date(year, time.Month(1+g.rng.IntN(12)), 1+g.rng.IntN(28), 0, 0, 0, 0, time.UTC)
}

func (g *Generator) uniform(lo, hi float64) float64 {
	return lo + g.rng.Float64()*(hi-lo)
}

func (g *Generator) amount(lo, hi float64) decimal.Decimal {
	return decimal.NewFromFloat(g.uniform(lo, hi)).Round(2)
}

func pick[T any](rng *rand.Rand, items []T) T {
	return items[rng.IntN(len(items))]
}

type weighted[T any] []struct {
	value  T
	weight float64
}

func (w weighted[T]) pick(rng *rand.Rand) T {
	x := rng.Float64()
	for _, item := range w {
		if x < item.weight {
			return item.value
		}
		x -= item.weight
	}
	return w[len(w)-1].value
}
