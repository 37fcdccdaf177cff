package synthesis

import (
	"fmt"

	"github.com/poiesic/finrag/core"
)

// joins indexes a RecordSet for cross-table lookups.
type joins struct {
	receivables map[string]*core.Receivable
	paymentsFor map[string][]*core.Payment // keyed by ARID, in table order
	ledgerByRef map[string]*core.LedgerEntry
}

func newJoins(set *core.RecordSet) *joins {
	j := &joins{
		receivables: make(map[string]*core.Receivable, len(set.Receivables)),
		paymentsFor: make(map[string][]*core.Payment, len(set.Payments)),
		ledgerByRef: make(map[string]*core.LedgerEntry, len(set.Ledger)),
	}
	for _, r := range set.Receivables {
		j.receivables[r.ID] = r
	}
	for _, p := range set.Payments {
		j.paymentsFor[p.ReceivableID] = append(j.paymentsFor[p.ReceivableID], p)
	}
	for _, l := range set.Ledger {
		if l.RefID == "" {
			continue
		}
		// First posting wins
		if _, ok := j.ledgerByRef[l.RefID]; !ok {
			j.ledgerByRef[l.RefID] = l
		}
	}
	return j
}

// firstPayment returns the earliest-listed payment against an invoice.
func (j *joins) firstPayment(arID string) *core.Payment {
	if ps := j.paymentsFor[arID]; len(ps) > 0 {
		return ps[0]
	}
	return nil
}

// counterpart finds what a payment reconciles against: the ledger entry
// booking the payment itself, then the one booking its invoice, then the
// invoice.
func (j *joins) counterpart(p *core.Payment) (Reference, error) {
	r, ok := j.receivables[p.ReceivableID]
	if !ok {
		return Reference{}, &core.DiscrepancyComputationError{
			RecordType: core.RecordTypePayment,
			RecordID:   p.ID,
			Reason:     fmt.Sprintf("receivable %q not found", p.ReceivableID),
		}
	}
	if l, ok := j.ledgerByRef[p.ID]; ok {
		return LedgerReference(l), nil
	}
	if l, ok := j.ledgerByRef[p.ReceivableID]; ok {
		return LedgerReference(l), nil
	}
	return ReceivableReference(r), nil
}
