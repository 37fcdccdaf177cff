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

package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// RecordType identifies the table a financial record was loaded from.
type RecordType string

const (
	// RecordTypeReceivable is an invoice in accounts receivable.
	RecordTypeReceivable RecordType = "receivable"
	// RecordTypePayment is a customer payment.
	RecordTypePayment RecordType = "payment"
	// RecordTypeLedger is a general ledger entry.
	RecordTypeLedger RecordType = "ledger"
	// RecordTypeBudget is a budget forecast line.
	RecordTypeBudget RecordType = "budget"
	// RecordTypeClaim is an employee expense claim.
	RecordTypeClaim RecordType = "claim"
)

// RecordTypes lists every record type in synthesis order.
var RecordTypes = []RecordType{
	RecordTypeReceivable,
	RecordTypePayment,
	RecordTypeLedger,
	RecordTypeBudget,
	RecordTypeClaim,
}

// ParseRecordType converts a string to a RecordType.
func ParseRecordType(s string) (RecordType, error) {
	rt := RecordType(strings.ToLower(strings.TrimSpace(s)))
	if err := ValidateRecordType(rt); err != nil {
		return "", err
	}
	return rt, nil
}

// Discrepancy classifies the reconciliation state of a record.
type Discrepancy string

const (
	DiscrepancyNone           Discrepancy = "none"
	DiscrepancyAmountMismatch Discrepancy = "amount-mismatch"
	DiscrepancyOverdue        Discrepancy = "overdue"
	DiscrepancyOverLimit      Discrepancy = "over-limit"
	// DiscrepancyMissingPayment marks a receivable reported paid with no payment on file.
	DiscrepancyMissingPayment Discrepancy = "missing-payment"
)

// Receivable statuses.
const (
	StatusPaid    = "Paid"
	StatusPending = "Pending"
	StatusOverdue = "Overdue"
	StatusPartial = "Partial"
)

// Expense claim statuses.
const (
	ClaimSubmitted = "Submitted"
	ClaimApproved  = "Approved"
	ClaimRejected  = "Rejected"
	ClaimPaid      = "Paid"
)

// DateLayout is the canonical date format used in documents and metadata.
const DateLayout = "2006-01-02"

// FinancialRecord is implemented by every row type.
type FinancialRecord interface {
	Type() RecordType
	RecordID() string
	Date() time.Time
	Total() decimal.Decimal
	State() string
}

// Receivable is an invoice issued to a customer.
type Receivable struct {
	ID           string
	Customer     string
	InvoiceDate  time.Time
	DueDate      time.Time
	Amount       decimal.Decimal
	Currency     string
	Status       string
	ReceivedDate time.Time // Zero when no payment was received
	Terms        string
}

func (r *Receivable) Type() RecordType       { return RecordTypeReceivable }
func (r *Receivable) RecordID() string       { return r.ID }
func (r *Receivable) Date() time.Time        { return r.InvoiceDate }
func (r *Receivable) Total() decimal.Decimal { return r.Amount }
func (r *Receivable) State() string          { return r.Status }

// IsPaid reports whether the invoice is marked paid in full.
func (r *Receivable) IsPaid() bool {
	return strings.EqualFold(r.Status, StatusPaid)
}

// Payment is money received against a receivable.
type Payment struct {
	ID           string
	ReceivableID string
	PaymentDate  time.Time
	Amount       decimal.Decimal
	Customer     string
	Method       string
	Reference    string
	Currency     string // Empty means the receivable's currency
}

func (p *Payment) Type() RecordType       { return RecordTypePayment }
func (p *Payment) RecordID() string       { return p.ID }
func (p *Payment) Date() time.Time        { return p.PaymentDate }
func (p *Payment) Total() decimal.Decimal { return p.Amount }
func (p *Payment) State() string          { return "Received" }

// LedgerEntry is a general ledger posting.
type LedgerEntry struct {
	ID            string
	RefID         string // Receivable or payment the entry books, if any
	TxnDate       time.Time
	AccountNumber string
	AccountName   string
	Debit         decimal.Decimal
	Credit        decimal.Decimal
	Dept          string
	CostCenter    string
	Description   string
	Currency      string
}

func (l *LedgerEntry) Type() RecordType { return RecordTypeLedger }
func (l *LedgerEntry) RecordID() string { return l.ID }
func (l *LedgerEntry) Date() time.Time  { return l.TxnDate }
func (l *LedgerEntry) State() string    { return "Posted" }

// Total returns the absolute net amount of the entry.
func (l *LedgerEntry) Total() decimal.Decimal {
	return l.Debit.Sub(l.Credit).Abs()
}

// BudgetLine is one department's budget for a fiscal quarter.
type BudgetLine struct {
	FiscalYear int
	Dept       string
	Quarter    string
	Budget     decimal.Decimal
	Forecast   decimal.Decimal
	Actual     decimal.Decimal
	Variance   decimal.Decimal
	Notes      string
}

func (b *BudgetLine) Type() RecordType       { return RecordTypeBudget }
func (b *BudgetLine) Date() time.Time        { return quarterStart(b.FiscalYear, b.Quarter) }
func (b *BudgetLine) Total() decimal.Decimal { return b.Actual }

// RecordID identifies the line as year, department and quarter.
func (b *BudgetLine) RecordID() string {
	return fmt.Sprintf("%d-%s-%s", b.FiscalYear, b.Dept, b.Quarter)
}

// State reports whether actual spend is over, under or on budget.
func (b *BudgetLine) State() string {
	switch b.Actual.Cmp(b.Budget) {
	case 1:
		return "Over Budget"
	case -1:
		return "Under Budget"
	default:
		return "On Budget"
	}
}

// VariancePct returns the variance as a percentage of budget.
// Zero budgets yield zero.
func (b *BudgetLine) VariancePct() decimal.Decimal {
	if b.Budget.IsZero() {
		return decimal.Zero
	}
	return b.Variance.Div(b.Budget).Mul(decimal.NewFromInt(100))
}

// ExpenseClaim is an employee expense submission.
type ExpenseClaim struct {
	ID              string
	EmployeeID      string
	SubmitDate      time.Time
	Category        string
	Description     string
	Amount          decimal.Decimal
	Currency        string
	Status          string
	ApprovedBy      string
	PayDate         time.Time // Zero until paid
	OverPolicyLimit bool
	PolicyLimit     decimal.Decimal // Zero when the source has no limit column
}

func (c *ExpenseClaim) Type() RecordType       { return RecordTypeClaim }
func (c *ExpenseClaim) RecordID() string       { return c.ID }
func (c *ExpenseClaim) Date() time.Time        { return c.SubmitDate }
func (c *ExpenseClaim) Total() decimal.Decimal { return c.Amount }
func (c *ExpenseClaim) State() string          { return c.Status }

// ProcessingDays returns the days from submission to payment, or -1 if unpaid.
func (c *ExpenseClaim) ProcessingDays() int {
	if c.PayDate.IsZero() {
		return -1
	}
	return int(c.PayDate.Sub(c.SubmitDate).Hours() / 24)
}

// RecordSet holds the tables loaded for one batch run.
type RecordSet struct {
	Receivables []*Receivable
	Payments    []*Payment
	Ledger      []*LedgerEntry
	Budget      []*BudgetLine
	Claims      []*ExpenseClaim
}

// Len returns the total number of records across all tables.
func (s *RecordSet) Len() int {
	return len(s.Receivables) + len(s.Payments) + len(s.Ledger) + len(s.Budget) + len(s.Claims)
}

// Records returns every record in table order.
func (s *RecordSet) Records() []FinancialRecord {
	out := make([]FinancialRecord, 0, s.Len())
	for _, r := range s.Receivables {
		out = append(out, r)
	}
	for _, p := range s.Payments {
		out = append(out, p)
	}
	for _, l := range s.Ledger {
		out = append(out, l)
	}
	for _, b := range s.Budget {
		out = append(out, b)
	}
	for _, c := range s.Claims {
		out = append(out, c)
	}
	return out
}

// quarterStart maps "Q1".."Q4" to the first day of the quarter.
func quarterStart(year int, quarter string) time.Time {
	q := 1
	if n := strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(quarter)), "Q"); len(n) == 1 && n[0] >= '1' && n[0] <= '4' {
		q = int(n[0] - '0')
	}
	return time.Date(year, time.Month((q-1)*3+1), 1, 0, 0, 0, 0, time.UTC)
}
