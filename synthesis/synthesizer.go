package synthesis

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/poiesic/finrag/core"
	"github.com/shopspring/decimal"
)

// Synthesizer renders records as documents.
type Synthesizer struct {
	policy Policy
	logger *slog.Logger
}

// NewSynthesizer creates a synthesizer applying policy.
func NewSynthesizer(policy Policy) *Synthesizer {
	return &Synthesizer{
		policy: policy,
		logger: slog.Default().With("component", "synthesizer"),
	}
}

// Policy returns the policy in effect.
func (s *Synthesizer) Policy() Policy {
	return s.policy
}

// Synthesize returns one document per record, in table order receivables,
// payments, ledger, budget, claims. It fails on the first payment that
// cannot be reconciled.
func (s *Synthesizer) Synthesize(set *core.RecordSet) ([]*core.Document, error) {
	j := newJoins(set)
	docs := make([]*core.Document, 0, set.Len())
	counts := make(map[core.Discrepancy]int)

	add := func(doc *core.Document) {
		docs = append(docs, doc)
		counts[doc.Discrepancy()]++
	}

	for _, r := range set.Receivables {
		add(s.receivableDocument(r, j))
	}
	for _, p := range set.Payments {
		doc, err := s.paymentDocument(p, j)
		if err != nil {
			return nil, err
		}
		add(doc)
	}
	for _, l := range set.Ledger {
		add(s.ledgerDocument(l, j))
	}
	for _, b := range set.Budget {
		add(s.budgetDocument(b))
	}
	for _, c := range set.Claims {
		add(s.claimDocument(c))
	}

	s.logger.Info("synthesized documents",
		"documents", len(docs),
		"amount_mismatch", counts[core.DiscrepancyAmountMismatch],
		"overdue", counts[core.DiscrepancyOverdue],
		"over_limit", counts[core.DiscrepancyOverLimit],
		"missing_payment", counts[core.DiscrepancyMissingPayment])
	return docs, nil
}

func (s *Synthesizer) receivableDocument(r *core.Receivable, j *joins) *core.Document {
	payment := j.firstPayment(r.ID)
	kind, days := ClassifyReceivable(r, payment != nil, s.policy)

	var t text
	t.lead("Invoice %s of %s issued to %s on %s, due %s, status: %s.",
		r.ID, money(r.Amount), r.Customer, day(r.InvoiceDate), day(r.DueDate), strings.ToLower(r.Status))
	t.line("Invoice ID", r.ID)
	t.line("Customer", r.Customer)
	t.line("Invoice Date", day(r.InvoiceDate))
	t.line("Due Date", day(r.DueDate))
	t.line("Invoice Amount", money(r.Amount))
	t.line("Currency", r.Currency)
	t.line("Status", r.Status)
	t.line("Payment Terms", r.Terms)
	if !r.ReceivedDate.IsZero() {
		t.line("Received Date", day(r.ReceivedDate))
	}

	meta := baseMetadata(r, r.Currency)
	meta[core.MetaCustomer] = r.Customer

	if payment != nil {
		cmp := CompareAmounts(r.Amount, payment.Amount, s.policy.AmountTolerance)
		kind = cmp.Kind
		t.line("Payment ID", payment.ID)
		t.line("Payment Date", day(payment.PaymentDate))
		t.line("Payment Amount", money(payment.Amount))
		t.line("Payment Method", payment.Method)
		t.line("Reference", payment.Reference)
		t.line("Amount Difference", money(cmp.Delta.Abs()))
		if cmp.Mismatched() {
			t.flag("DISCREPANCY: Payment amount differs from invoice by %s", money(cmp.Delta.Abs()))
			meta[core.MetaDelta] = cmp.Delta.StringFixed(2)
		}
	} else {
		t.flag("No payment record found for this invoice.")
	}

	switch kind {
	case core.DiscrepancyOverdue:
		t.flag("OVERDUE: Payment is %d days overdue", days)
		meta[core.MetaDaysOverdue] = fmt.Sprint(days)
	case core.DiscrepancyMissingPayment:
		t.flag("MISSING PAYMENT: Invoice is marked paid but no payment was recorded")
		meta[core.MetaDelta] = r.Amount.Neg().StringFixed(2)
	}
	meta[core.MetaDiscrepancy] = string(kind)

	return core.NewDocument(core.RecordTypeReceivable, r.ID, t.String(), meta)
}

func (s *Synthesizer) paymentDocument(p *core.Payment, j *joins) (*core.Document, error) {
	ref, err := j.counterpart(p)
	if err != nil {
		return nil, err
	}
	cmp, err := ComparePayment(p, ref, s.policy)
	if err != nil {
		return nil, err
	}

	cur := p.Currency
	if cur == "" {
		cur = ref.Currency
	}

	var t text
	t.lead("Payment %s of %s from %s on %s, status: received.",
		p.ID, money(p.Amount), orUnknown(p.Customer), day(p.PaymentDate))
	t.line("Payment ID", p.ID)
	t.line("Invoice ID", p.ReceivableID)
	t.line("Customer", p.Customer)
	t.line("Payment Date", day(p.PaymentDate))
	t.line("Payment Amount", money(p.Amount))
	t.line("Payment Method", p.Method)
	t.line("Reference", p.Reference)
	t.line("Reconciled Against", fmt.Sprintf("%s %s (%s)", ref.RecordType, ref.RecordID, money(ref.Amount)))
	t.line("Amount Difference", money(cmp.Delta.Abs()))
	if cmp.Mismatched() {
		t.flag("DISCREPANCY: Payment amount differs from %s %s by %s", ref.RecordType, ref.RecordID, money(cmp.Delta.Abs()))
	}

	meta := baseMetadata(p, cur)
	meta[core.MetaCustomer] = p.Customer
	meta[core.MetaDiscrepancy] = string(cmp.Kind)
	meta[core.MetaDelta] = cmp.Delta.StringFixed(2)

	return core.NewDocument(core.RecordTypePayment, p.ID, t.String(), meta), nil
}

func (s *Synthesizer) ledgerDocument(l *core.LedgerEntry, j *joins) *core.Document {
	var t text
	t.lead("Ledger entry %s posted %s to account %s %s: debit %s, credit %s.",
		l.ID, day(l.TxnDate), l.AccountNumber, l.AccountName, money(l.Debit), money(l.Credit))
	t.line("Entry ID", l.ID)
	t.line("Reference", l.RefID)
	t.line("Transaction Date", day(l.TxnDate))
	t.line("Account Number", l.AccountNumber)
	t.line("Account Name", l.AccountName)
	t.line("Debit", money(l.Debit))
	t.line("Credit", money(l.Credit))
	t.line("Net Amount", money(l.Total()))
	t.line("Department", l.Dept)
	t.line("Cost Center", l.CostCenter)
	t.line("Description", l.Description)
	t.line("Currency", l.Currency)

	meta := baseMetadata(l, l.Currency)
	meta[core.MetaDept] = l.Dept

	// Entries booking an invoice must carry the invoice amount
	if r, ok := j.receivables[l.RefID]; ok {
		cmp := CompareAmounts(r.Amount, l.Total(), s.policy.AmountTolerance)
		meta[core.MetaDiscrepancy] = string(cmp.Kind)
		if cmp.Mismatched() {
			t.flag("DISCREPANCY: Ledger amount differs from invoice %s by %s", r.ID, money(cmp.Delta.Abs()))
			meta[core.MetaDelta] = cmp.Delta.StringFixed(2)
		}
	}

	return core.NewDocument(core.RecordTypeLedger, l.ID, t.String(), meta)
}

func (s *Synthesizer) budgetDocument(b *core.BudgetLine) *core.Document {
	pct := b.VariancePct()

	var t text
	t.lead("Budget for %s in %s FY%d: actual %s against budget %s, status: %s.",
		b.Dept, b.Quarter, b.FiscalYear, money(b.Actual), money(b.Budget), strings.ToLower(b.State()))
	t.line("Fiscal Year", fmt.Sprint(b.FiscalYear))
	t.line("Department", b.Dept)
	t.line("Quarter", b.Quarter)
	t.line("Budget", money(b.Budget))
	t.line("Forecast", money(b.Forecast))
	t.line("Actual", money(b.Actual))
	t.line("Variance", money(b.Variance))
	t.line("Notes", b.Notes)
	t.line("Variance Percentage", pct.StringFixed(1)+"%")
	if SignificantVariance(b, s.policy) {
		t.flag("SIGNIFICANT VARIANCE: %s%% difference from budget", pct.StringFixed(1))
	}

	meta := baseMetadata(b, "USD")
	meta[core.MetaDept] = b.Dept
	meta[core.MetaVariancePct] = pct.StringFixed(1)

	return core.NewDocument(core.RecordTypeBudget, b.RecordID(), t.String(), meta)
}

func (s *Synthesizer) claimDocument(c *core.ExpenseClaim) *core.Document {
	kind, limit := classifyClaimRecord(c, s.policy)

	var t text
	t.lead("Expense claim %s of %s for %s submitted by %s on %s, status: %s.",
		c.ID, money(c.Amount), c.Category, c.EmployeeID, day(c.SubmitDate), strings.ToLower(c.Status))
	t.line("Claim ID", c.ID)
	t.line("Employee ID", c.EmployeeID)
	t.line("Submit Date", day(c.SubmitDate))
	t.line("Category", c.Category)
	t.line("Description", c.Description)
	t.line("Amount", money(c.Amount))
	t.line("Currency", c.Currency)
	t.line("Status", c.Status)
	t.line("Approved By", c.ApprovedBy)
	if !c.PayDate.IsZero() {
		t.line("Payment Date", day(c.PayDate))
	}

	meta := baseMetadata(c, c.Currency)
	meta[core.MetaCategory] = c.Category
	meta[core.MetaDiscrepancy] = string(kind)

	if limit.IsPositive() {
		t.line("Policy Limit", money(limit))
		meta[core.MetaDelta] = c.Amount.Sub(limit).StringFixed(2)
	}
	if kind == core.DiscrepancyOverLimit {
		t.flag("WARNING: This claim exceeds policy limits")
	}
	if strings.EqualFold(c.Status, core.ClaimPaid) {
		if days := c.ProcessingDays(); days >= 0 {
			t.line("Processing Time", fmt.Sprintf("%d days", days))
			if days > s.policy.SlowProcessingDays {
				t.flag("SLOW PROCESSING: Claim took longer than standard %d days", s.policy.SlowProcessingDays)
			}
		}
	}

	return core.NewDocument(core.RecordTypeClaim, c.ID, t.String(), meta)
}

func baseMetadata(rec core.FinancialRecord, currency string) map[string]string {
	return map[string]string{
		core.MetaDate:     day(rec.Date()),
		core.MetaAmount:   rec.Total().StringFixed(2),
		core.MetaStatus:   strings.ToLower(rec.State()),
		core.MetaCurrency: currency,
	}
}

// text accumulates a document body: a lead sentence, "Key: value" detail
// lines, then annotation lines.
type text struct {
	b     strings.Builder
	flags []string
}

func (t *text) lead(format string, args ...any) {
	fmt.Fprintf(&t.b, format, args...)
	t.b.WriteByte('\n')
}

// line skips empty values.
func (t *text) line(key, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(&t.b, "%s: %s\n", key, value)
}

func (t *text) flag(format string, args ...any) {
	t.flags = append(t.flags, fmt.Sprintf(format, args...))
}

func (t *text) String() string {
	out := t.b.String()
	if len(t.flags) > 0 {
		out += strings.Join(t.flags, "\n") + "\n"
	}
	return strings.TrimSpace(out)
}

func money(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown customer"
	}
	return s
}

func day(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(core.DateLayout)
}
