package report

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/poiesic/finrag/core"
	"github.com/poiesic/finrag/synthesis"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func date(s string) time.Time {
	t, err := time.Parse(core.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func reportPolicy() synthesis.Policy {
	policy := synthesis.DefaultPolicy()
	policy.AsOf = date("2024-06-30")
	policy.ClaimLimits = map[string]decimal.Decimal{"Travel": dec("1000")}
	return policy
}

func reportSet() *core.RecordSet {
	return &core.RecordSet{
		Receivables: []*core.Receivable{
			{ID: "AR1", Customer: "Acme Corp", InvoiceDate: date("2024-01-01"), DueDate: date("2024-01-31"), Amount: dec("500"), Currency: "USD", Status: core.StatusPaid},
			{ID: "AR2", Customer: "Globex", InvoiceDate: date("2024-02-01"), DueDate: date("2024-03-01"), Amount: dec("1750.50"), Currency: "USD", Status: core.StatusOverdue},
		},
		Payments: []*core.Payment{
			{ID: "P100", ReceivableID: "AR1", PaymentDate: date("2024-01-10"), Amount: dec("480"), Customer: "Acme Corp"},
		},
		Budget: []*core.BudgetLine{
			{FiscalYear: 2024, Dept: "Sales", Quarter: "Q1", Budget: dec("10000"), Actual: dec("12000"), Variance: dec("2000")},
			{FiscalYear: 2024, Dept: "IT", Quarter: "Q1", Budget: dec("20000"), Actual: dec("19000"), Variance: dec("-1000")},
		},
		Claims: []*core.ExpenseClaim{
			{ID: "C5", EmployeeID: "E7", SubmitDate: date("2024-03-05"), Category: "Travel", Amount: dec("1200"), Currency: "USD", Status: core.ClaimSubmitted},
			{ID: "C6", EmployeeID: "E8", SubmitDate: date("2024-03-06"), Category: "Meals", Amount: dec("45.25"), Currency: "USD", Status: core.ClaimApproved},
			{ID: "C7", EmployeeID: "E8", SubmitDate: date("2024-03-07"), Category: "Software", Amount: dec("300"), Currency: "USD", Status: core.ClaimRejected},
		},
	}
}

func TestMoney(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "$0.00"},
		{"20", "$20.00"},
		{"1234.5", "$1,234.50"},
		{"1234567.891", "$1,234,567.89"},
		{"-1750.5", "$-1,750.50"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Money(dec(tt.in)))
		})
	}
}

func TestWrite(t *testing.T) {
	set := reportSet()
	policy := reportPolicy()
	findings, err := synthesis.FindDiscrepancies(set, policy)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, set, findings, policy))
	out := buf.String()

	expected := []string{
		"COMPREHENSIVE FINANCE REPORT",
		"Generated: 2024-06-30 00:00:00",
		"ACCOUNTS RECEIVABLE SUMMARY",
		"Total Invoices: 2",
		"Total Payments: 1",
		"Total Outstanding: $1,750.50",
		"Discrepancies Found: 2",
		"BUDGET PERFORMANCE SUMMARY",
		"Total Budget: $30,000.00",
		"Total Actual: $31,000.00",
		"Total Variance: $1,000.00 (3.3%)",
		"  IT: Budget $20,000.00, Actual $19,000.00, Variance -5.0%",
		"  Sales: Budget $10,000.00, Actual $12,000.00, Variance +20.0%",
		"EXPENSE CLAIMS SUMMARY",
		"Total Claims: 3",
		"Total Amount: $1,545.25",
		"  Submitted: 1 claims, $1,200.00",
		"Over Policy Limit: 1 claims, $1,200.00",
		"[HIGH] Amount Mismatch",
		"  Difference: $-20.00",
		"[CRITICAL] Overdue Payment",
		"  Days Overdue: 121",
		"1. URGENT: Address 1 critical payment discrepancies immediately",
		"2. Review spending in 1 departments over budget",
		"3. Process 1 pending expense claims",
		"4. Review 1 claims exceeding policy limits",
	}
	for _, line := range expected {
		assert.Contains(t, out, line)
	}

	// Departments are listed alphabetically, categories by amount
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("  IT:")), bytes.Index(buf.Bytes(), []byte("  Sales:")))
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("  Travel: $1,200.00")), bytes.Index(buf.Bytes(), []byte("  Software: $300.00")))
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("  Software: $300.00")), bytes.Index(buf.Bytes(), []byte("  Meals: $45.25")))
}

func TestWrite_OptionalTablesOmitted(t *testing.T) {
	set := reportSet()
	set.Budget = nil
	set.Claims = nil

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, set, nil, reportPolicy()))
	out := buf.String()

	assert.Contains(t, out, "ACCOUNTS RECEIVABLE SUMMARY")
	assert.Contains(t, out, "RECOMMENDATIONS")
	assert.NotContains(t, out, "BUDGET PERFORMANCE SUMMARY")
	assert.NotContains(t, out, "EXPENSE CLAIMS SUMMARY")
	assert.NotContains(t, out, "PAYMENT DISCREPANCIES")
	assert.NotContains(t, out, "1. ")
}

func TestWriteFindings(t *testing.T) {
	findings, err := synthesis.FindDiscrepancies(reportSet(), reportPolicy())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteFindings(&buf, findings))
	out := buf.String()

	assert.Contains(t, out, "Found 2 discrepancies (critical 1, high 1, medium 0)")
	assert.Contains(t, out, "[HIGH] Amount Mismatch")
	assert.Contains(t, out, "  Invoice: AR2")
	assert.NotContains(t, out, "RECOMMENDATIONS")

	buf.Reset()
	require.NoError(t, WriteFindings(&buf, nil))
	assert.Equal(t, "Found 0 discrepancies (critical 0, high 0, medium 0)\n\n", buf.String())
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestWrite_PropagatesWriteError(t *testing.T) {
	err := Write(failingWriter{}, reportSet(), nil, reportPolicy())
	assert.EqualError(t, err, "disk full")
}
