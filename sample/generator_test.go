package sample

import (
	"testing"

	"github.com/poiesic/finrag/core"
	"github.com/poiesic/finrag/synthesis"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_Sizes(t *testing.T) {
	opts := DefaultOptions()
	set := NewGenerator(42).Generate(opts)

	assert.Len(t, set.Receivables, 100)
	assert.Len(t, set.Ledger, 100)
	assert.Len(t, set.Claims, 200)
	assert.Len(t, set.Budget, opts.BudgetYears*len(departments)*len(quarters))
	assert.NotEmpty(t, set.Payments)
	assert.LessOrEqual(t, len(set.Payments), len(set.Receivables))
}

func TestGenerate_Deterministic(t *testing.T) {
	a := NewGenerator(7).Generate(DefaultOptions())
	b := NewGenerator(7).Generate(DefaultOptions())
	assert.Equal(t, a, b)

	c := NewGenerator(8).Generate(DefaultOptions())
	assert.NotEqual(t, a, c)
}

func TestGenerate_Invariants(t *testing.T) {
	opts := DefaultOptions()
	set := NewGenerator(1).Generate(opts)

	paid := 0
	for _, r := range set.Receivables {
		assert.Equal(t, 2024, r.InvoiceDate.Year())
		assert.Equal(t, r.InvoiceDate.AddDate(0, 0, 30), r.DueDate)
		assert.True(t, r.Amount.GreaterThanOrEqual(decimal.NewFromInt(500)))
		assert.True(t, r.Amount.LessThanOrEqual(decimal.NewFromInt(5000)))
		if r.IsPaid() {
			paid++
			assert.False(t, r.ReceivedDate.IsZero())
		} else {
			assert.True(t, r.ReceivedDate.IsZero())
		}
	}

	byID := make(map[string]*core.Receivable)
	for _, r := range set.Receivables {
		byID[r.ID] = r
	}
	mismatches := 0
	for _, p := range set.Payments {
		r, ok := byID[p.ReceivableID]
		require.True(t, ok, "payment %s names unknown receivable", p.ID)
		assert.Equal(t, r.Customer, p.Customer)
		if !p.Amount.Equal(r.Amount) {
			mismatches++
			assert.True(t, p.Amount.LessThan(r.Amount), "mismatches are short payments")
		}
	}
	assert.GreaterOrEqual(t, len(set.Payments), paid, "every paid invoice has a payment")
	assert.Positive(t, mismatches)

	for i, l := range set.Ledger {
		assert.Equal(t, set.Receivables[i].ID, l.RefID)
		assert.True(t, l.Debit.Equal(set.Receivables[i].Amount))
	}

	for _, b := range set.Budget {
		assert.True(t, b.Variance.Equal(b.Actual.Sub(b.Budget)))
		assert.NotEmpty(t, b.Notes)
	}

	overLimit := 0
	for _, c := range set.Claims {
		if c.OverPolicyLimit {
			overLimit++
		}
		if c.Status == core.ClaimPaid {
			assert.False(t, c.PayDate.IsZero())
			assert.NotEmpty(t, c.ApprovedBy)
		}
		if c.Status == core.ClaimSubmitted || c.Status == core.ClaimRejected {
			assert.Empty(t, c.ApprovedBy)
		}
	}
	assert.Positive(t, overLimit)
}

func TestGenerate_SynthesizesCleanly(t *testing.T) {
	set := NewGenerator(3).Generate(DefaultOptions())

	docs, err := synthesis.NewSynthesizer(synthesis.DefaultPolicy()).Synthesize(set)
	require.NoError(t, err)
	assert.Len(t, docs, set.Len())

	_, err = synthesis.FindDiscrepancies(set, synthesis.DefaultPolicy())
	require.NoError(t, err)
}

func TestBudgetNote(t *testing.T) {
	tests := []struct {
		variance string
		want     string
	}{
		{"150", "Over budget by 15.0% - investigate spending"},
		{"-120", "Under budget by 12.0% - strong cost control"},
		{"50", "Within acceptable variance range"},
	}

	for _, tt := range tests {
		t.Run(tt.variance, func(t *testing.T) {
			got := budgetNote(decimal.RequireFromString(tt.variance), decimal.NewFromInt(1000))
			assert.Equal(t, tt.want, got)
		})
	}
}
