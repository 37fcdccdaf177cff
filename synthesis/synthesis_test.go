package synthesis

import (
	"testing"
	"time"

	"github.com/poiesic/finrag/core"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(s string) time.Time {
	t, err := time.Parse(core.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testPolicy() Policy {
	p := DefaultPolicy()
	p.AsOf = date("2024-06-30")
	p.ClaimLimits = map[string]decimal.Decimal{"travel": dec("1000")}
	return p
}

func fixtureSet() *core.RecordSet {
	return &core.RecordSet{
		Receivables: []*core.Receivable{
			{ID: "AR1", Customer: "Acme Corp", InvoiceDate: date("2024-01-01"), DueDate: date("2024-01-31"), Amount: dec("500"), Currency: "USD", Status: core.StatusPaid, Terms: "Net 30"},
			{ID: "AR2", Customer: "TechStart Inc", InvoiceDate: date("2024-03-01"), DueDate: date("2024-03-31"), Amount: dec("750"), Currency: "USD", Status: core.StatusOverdue, Terms: "Net 30"},
			{ID: "AR3", Customer: "Prime Retail", InvoiceDate: date("2024-02-01"), DueDate: date("2024-03-02"), Amount: dec("200"), Currency: "USD", Status: core.StatusPaid, Terms: "Net 30"},
		},
		Payments: []*core.Payment{
			{ID: "P100", ReceivableID: "AR1", PaymentDate: date("2024-01-30"), Amount: dec("500"), Customer: "Acme Corp", Method: "Wire", Reference: "REF1"},
		},
		Ledger: []*core.LedgerEntry{
			{ID: "GL1", RefID: "P100", TxnDate: date("2024-01-30"), AccountNumber: "1000", AccountName: "Cash", Debit: dec("480"), Credit: decimal.Zero, Dept: "Sales", Currency: "USD"},
			{ID: "GL2", RefID: "AR2", TxnDate: date("2024-03-01"), AccountNumber: "1200", AccountName: "Accounts Receivable", Debit: dec("750"), Credit: decimal.Zero, Dept: "Sales", Currency: "USD"},
		},
		Budget: []*core.BudgetLine{
			{FiscalYear: 2024, Dept: "IT", Quarter: "Q1", Budget: dec("100000"), Forecast: dec("105000"), Actual: dec("115000"), Variance: dec("15000")},
		},
		Claims: []*core.ExpenseClaim{
			{ID: "C5", EmployeeID: "EMP001", SubmitDate: date("2024-04-01"), Category: "Travel", Amount: dec("1200"), Currency: "USD", Status: core.ClaimPaid, PayDate: date("2024-04-25")},
			{ID: "C6", EmployeeID: "EMP002", SubmitDate: date("2024-04-02"), Category: "Meals", Amount: dec("80"), Currency: "USD", Status: core.ClaimSubmitted},
		},
	}
}

func TestCompareAmounts(t *testing.T) {
	tests := []struct {
		name      string
		expected  string
		actual    string
		tolerance string
		wantKind  core.Discrepancy
		wantDelta string
	}{
		{"equal", "500", "500", "0", core.DiscrepancyNone, "0"},
		{"overpaid", "480", "500", "0", core.DiscrepancyAmountMismatch, "20"},
		{"underpaid", "500", "480", "0", core.DiscrepancyAmountMismatch, "-20"},
		{"within tolerance", "500", "499.995", "0.01", core.DiscrepancyNone, "-0.005"},
		{"at tolerance", "500", "499.99", "0.01", core.DiscrepancyNone, "-0.01"},
		{"beyond tolerance", "500", "499.98", "0.01", core.DiscrepancyAmountMismatch, "-0.02"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CompareAmounts(dec(tt.expected), dec(tt.actual), dec(tt.tolerance))
			assert.Equal(t, tt.wantKind, got.Kind)
			assert.True(t, dec(tt.wantDelta).Equal(got.Delta), "delta %s", got.Delta)
		})
	}
}

func TestComparePayment(t *testing.T) {
	payment := &core.Payment{ID: "P100", ReceivableID: "AR1", Amount: dec("500")}
	policy := testPolicy()

	t.Run("ledger keyed on payment", func(t *testing.T) {
		ref := LedgerReference(&core.LedgerEntry{ID: "GL1", RefID: "P100", Debit: dec("480"), Currency: "USD"})
		cmp, err := ComparePayment(payment, ref, policy)
		require.NoError(t, err)
		assert.Equal(t, core.DiscrepancyAmountMismatch, cmp.Kind)
		assert.True(t, dec("20").Equal(cmp.Delta.Abs()))
	})

	t.Run("receivable keyed on invoice", func(t *testing.T) {
		ref := ReceivableReference(&core.Receivable{ID: "AR1", Amount: dec("500"), Currency: "USD"})
		cmp, err := ComparePayment(payment, ref, policy)
		require.NoError(t, err)
		assert.Equal(t, core.DiscrepancyNone, cmp.Kind)
	})

	t.Run("misaligned identifiers", func(t *testing.T) {
		ref := LedgerReference(&core.LedgerEntry{ID: "GL9", RefID: "P999", Debit: dec("500")})
		_, err := ComparePayment(payment, ref, policy)
		var dce *core.DiscrepancyComputationError
		require.ErrorAs(t, err, &dce)
		assert.Equal(t, "P100", dce.RecordID)
		assert.ErrorIs(t, err, core.ErrDiscrepancyComputation)
	})

	t.Run("currency mismatch", func(t *testing.T) {
		eur := &core.Payment{ID: "P100", ReceivableID: "AR1", Amount: dec("500"), Currency: "EUR"}
		ref := ReceivableReference(&core.Receivable{ID: "AR1", Amount: dec("500"), Currency: "USD"})
		_, err := ComparePayment(eur, ref, policy)
		assert.ErrorIs(t, err, core.ErrDiscrepancyComputation)
	})
}

func TestClassifyReceivable(t *testing.T) {
	policy := testPolicy()
	tests := []struct {
		name       string
		status     string
		due        string
		hasPayment bool
		grace      int
		want       core.Discrepancy
		wantDays   int
	}{
		{"unpaid past due", core.StatusPending, "2024-05-31", false, 0, core.DiscrepancyOverdue, 30},
		{"unpaid within grace", core.StatusPending, "2024-05-31", false, 30, core.DiscrepancyNone, 0},
		{"unpaid not yet due", core.StatusPending, "2024-07-31", false, 0, core.DiscrepancyNone, 0},
		{"unpaid with payment", core.StatusPartial, "2024-05-31", true, 0, core.DiscrepancyNone, 0},
		{"paid without payment", core.StatusPaid, "2024-05-31", false, 0, core.DiscrepancyMissingPayment, 0},
		{"paid with payment", core.StatusPaid, "2024-05-31", true, 0, core.DiscrepancyNone, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := policy
			p.OverdueGraceDays = tt.grace
			r := &core.Receivable{ID: "AR", Status: tt.status, DueDate: date(tt.due)}
			got, days := ClassifyReceivable(r, tt.hasPayment, p)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantDays, days)
		})
	}

	t.Run("zero as-of disables ageing", func(t *testing.T) {
		r := &core.Receivable{ID: "AR", Status: core.StatusPending, DueDate: date("2020-01-01")}
		got, _ := ClassifyReceivable(r, false, Policy{})
		assert.Equal(t, core.DiscrepancyNone, got)
	})
}

func TestClassifyClaim(t *testing.T) {
	assert.Equal(t, core.DiscrepancyOverLimit, ClassifyClaim(dec("1200"), dec("1000")))
	assert.Equal(t, core.DiscrepancyNone, ClassifyClaim(dec("1000"), dec("1000")))
	assert.Equal(t, core.DiscrepancyNone, ClassifyClaim(dec("999.99"), dec("1000")))
	assert.Equal(t, core.DiscrepancyNone, ClassifyClaim(dec("5000"), decimal.Zero))
}

func TestPolicyClaimLimit(t *testing.T) {
	p := testPolicy()

	limit, ok := p.ClaimLimit("TRAVEL")
	require.True(t, ok)
	assert.True(t, dec("1000").Equal(limit))

	_, ok = p.ClaimLimit("Meals")
	assert.False(t, ok)

	p.DefaultClaimLimit = dec("250")
	limit, ok = p.ClaimLimit("Meals")
	require.True(t, ok)
	assert.True(t, dec("250").Equal(limit))
}

func TestSynthesize(t *testing.T) {
	set := fixtureSet()
	docs, err := NewSynthesizer(testPolicy()).Synthesize(set)
	require.NoError(t, err)

	// One document per record, in table order
	require.Len(t, docs, set.Len())
	wantOrder := []string{"AR1", "AR2", "AR3", "P100", "GL1", "GL2", "2024-IT-Q1", "C5", "C6"}
	byID := make(map[string]*core.Document, len(docs))
	for i, doc := range docs {
		assert.Equal(t, wantOrder[i], doc.RecordId)
		require.NoError(t, core.ValidateDocument(doc))
		byID[doc.RecordId] = doc
	}

	payment := byID["P100"]
	assert.Equal(t, core.DiscrepancyAmountMismatch, payment.Discrepancy())
	assert.Equal(t, "20.00", payment.Metadata[core.MetaDelta])
	assert.Contains(t, payment.Text, "Payment P100 of $500.00 from Acme Corp on 2024-01-30, status: received.")
	assert.Contains(t, payment.Text, "DISCREPANCY")
	assert.Contains(t, payment.Text, "ledger GL1")

	overdue := byID["AR2"]
	assert.Equal(t, core.DiscrepancyOverdue, overdue.Discrepancy())
	assert.Equal(t, "overdue", overdue.Metadata[core.MetaStatus])
	assert.Equal(t, "91", overdue.Metadata[core.MetaDaysOverdue])
	assert.Contains(t, overdue.Text, "OVERDUE: Payment is 91 days overdue")
	assert.Contains(t, overdue.Text, "No payment record found for this invoice.")

	missing := byID["AR3"]
	assert.Equal(t, core.DiscrepancyMissingPayment, missing.Discrepancy())

	paid := byID["AR1"]
	assert.Equal(t, core.DiscrepancyNone, paid.Discrepancy())
	assert.Equal(t, "Acme Corp", paid.Metadata[core.MetaCustomer])

	ledger := byID["GL2"]
	assert.Equal(t, core.DiscrepancyNone, ledger.Discrepancy())
	assert.Equal(t, "Sales", ledger.Metadata[core.MetaDept])

	budget := byID["2024-IT-Q1"]
	assert.Equal(t, "15.0", budget.Metadata[core.MetaVariancePct])
	assert.Equal(t, "over budget", budget.Metadata[core.MetaStatus])
	assert.Contains(t, budget.Text, "SIGNIFICANT VARIANCE")

	claim := byID["C5"]
	assert.Equal(t, core.DiscrepancyOverLimit, claim.Discrepancy())
	assert.Equal(t, "200.00", claim.Metadata[core.MetaDelta])
	assert.Contains(t, claim.Text, "WARNING: This claim exceeds policy limits")
	assert.Contains(t, claim.Text, "SLOW PROCESSING")
	assert.Equal(t, "Travel", claim.Metadata[core.MetaCategory])

	meals := byID["C6"]
	assert.Equal(t, core.DiscrepancyNone, meals.Discrepancy())
	assert.NotContains(t, meals.Metadata, core.MetaDelta)
}

func TestSynthesize_Deterministic(t *testing.T) {
	s := NewSynthesizer(testPolicy())
	first, err := s.Synthesize(fixtureSet())
	require.NoError(t, err)
	second, err := s.Synthesize(fixtureSet())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestSynthesize_ClaimFlagFallback(t *testing.T) {
	set := fixtureSet()
	set.Claims = []*core.ExpenseClaim{
		{ID: "C7", EmployeeID: "EMP003", SubmitDate: date("2024-04-02"), Category: "Software", Amount: dec("900"), Currency: "USD", Status: core.ClaimApproved, OverPolicyLimit: true},
	}

	docs, err := NewSynthesizer(testPolicy()).Synthesize(set)
	require.NoError(t, err)
	assert.Equal(t, core.DiscrepancyOverLimit, docs[len(docs)-1].Discrepancy())
}

func TestSynthesize_UnjoinablePayment(t *testing.T) {
	set := fixtureSet()
	set.Payments = append(set.Payments, &core.Payment{ID: "P200", ReceivableID: "AR404", PaymentDate: date("2024-02-01"), Amount: dec("10")})

	docs, err := NewSynthesizer(testPolicy()).Synthesize(set)
	assert.Nil(t, docs)
	var dce *core.DiscrepancyComputationError
	require.ErrorAs(t, err, &dce)
	assert.Equal(t, "P200", dce.RecordID)
}

func TestFindDiscrepancies(t *testing.T) {
	set := fixtureSet()
	policy := testPolicy()

	findings, err := FindDiscrepancies(set, policy)
	require.NoError(t, err)

	// AR1 matches its payment; AR2 is overdue; AR3 is paid with no payment
	require.Len(t, findings, 2)
	assert.Equal(t, FindingOverdue, findings[0].Type)
	assert.Equal(t, "AR2", findings[0].Invoice)
	assert.Equal(t, 91, findings[0].DaysOverdue)
	assert.Equal(t, SeverityCritical, findings[0].Severity)

	assert.Equal(t, FindingMissingPayment, findings[1].Type)
	assert.Equal(t, SeverityCritical, findings[1].Severity)
	assert.True(t, dec("-200").Equal(findings[1].Difference))

	t.Run("mismatch and medium overdue", func(t *testing.T) {
		set := fixtureSet()
		set.Payments[0].Amount = dec("450")
		set.Receivables[1].DueDate = date("2024-06-10")

		findings, err := FindDiscrepancies(set, policy)
		require.NoError(t, err)
		require.Len(t, findings, 3)
		assert.Equal(t, FindingAmountMismatch, findings[0].Type)
		assert.Equal(t, SeverityHigh, findings[0].Severity)
		assert.True(t, dec("-50").Equal(findings[0].Difference))
		assert.Equal(t, SeverityMedium, findings[1].Severity)

		counts := CountBySeverity(findings)
		assert.Equal(t, 1, counts[SeverityHigh])
		assert.Equal(t, 1, counts[SeverityMedium])
		assert.Equal(t, 1, counts[SeverityCritical])
	})

	t.Run("unjoinable payment", func(t *testing.T) {
		set := fixtureSet()
		set.Payments[0].ReceivableID = "AR404"
		_, err := FindDiscrepancies(set, policy)
		assert.ErrorIs(t, err, core.ErrDiscrepancyComputation)
	})
}
