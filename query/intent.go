package query

import (
	"strings"
	"unicode"

	"github.com/poiesic/finrag/core"
	"github.com/shopspring/decimal"
)

// Intent is the kind of question being asked, detected from its wording.
type Intent string

const (
	IntentDiscrepancy Intent = "discrepancy"
	IntentOverdue     Intent = "overdue"
	IntentCustomer    Intent = "customer"
	IntentBudget      Intent = "budget-variance"
	IntentPending     Intent = "pending-claims"
	IntentOverLimit   Intent = "over-limit"
	IntentRejected    Intent = "rejected-claims"
	IntentExpenses    Intent = "expenses"
	IntentGeneral     Intent = "general"
)

// DetectIntent classifies a question by keyword, first match wins.
func DetectIntent(question string) Intent {
	q := strings.ToLower(question)
	has := func(words ...string) bool {
		for _, w := range words {
			if strings.Contains(q, w) {
				return true
			}
		}
		return false
	}

	switch {
	case has("discrepanc", "mismatch"):
		return IntentDiscrepancy
	case has("overdue", "late", "past due"):
		return IntentOverdue
	case has("customer"):
		return IntentCustomer
	case has("budget", "variance"):
		return IntentBudget
	case has("over limit", "over-limit", "exceed", "policy"):
		return IntentOverLimit
	case has("expense", "claim"):
		switch {
		case has("pending", "submitted"):
			return IntentPending
		case has("rejected"):
			return IntentRejected
		}
		return IntentExpenses
	}
	return IntentGeneral
}

// matcher decides whether a document answers an intent.
type matcher struct {
	significantVariance decimal.Decimal
	// Lowercased departments the question names. When set, budget
	// matches are limited to them instead of the variance threshold.
	departments map[string]bool
}

// forQuestion scopes budget matching to the departments the question
// names among the retrieved budget lines.
func (m matcher) forQuestion(question string, results []*core.SearchResult) matcher {
	words := " " + strings.Join(strings.FieldsFunc(strings.ToLower(question), isWordBreak), " ") + " "
	scoped := matcher{significantVariance: m.significantVariance}
	for _, r := range results {
		doc := &r.Entry.Document
		if doc.RecordType != core.RecordTypeBudget {
			continue
		}
		dept := strings.Join(strings.FieldsFunc(strings.ToLower(doc.Metadata[core.MetaDept]), isWordBreak), " ")
		if dept == "" || !strings.Contains(words, " "+dept+" ") {
			continue
		}
		if scoped.departments == nil {
			scoped.departments = make(map[string]bool)
		}
		scoped.departments[dept] = true
	}
	return scoped
}

func isWordBreak(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '&'
}

func (m matcher) matches(intent Intent, question string, doc *core.Document) bool {
	status := doc.Metadata[core.MetaStatus]
	switch intent {
	case IntentDiscrepancy:
		d := doc.Discrepancy()
		return d == core.DiscrepancyAmountMismatch || d == core.DiscrepancyMissingPayment
	case IntentOverdue:
		return doc.Discrepancy() == core.DiscrepancyOverdue || status == "overdue"
	case IntentCustomer:
		customer := strings.ToLower(doc.Metadata[core.MetaCustomer])
		return customer != "" && strings.Contains(strings.ToLower(question), customer)
	case IntentBudget:
		if doc.RecordType != core.RecordTypeBudget {
			return false
		}
		if len(m.departments) > 0 {
			dept := strings.Join(strings.FieldsFunc(strings.ToLower(doc.Metadata[core.MetaDept]), isWordBreak), " ")
			return m.departments[dept]
		}
		pct, err := decimal.NewFromString(doc.Metadata[core.MetaVariancePct])
		return err == nil && pct.Abs().GreaterThan(m.significantVariance)
	case IntentOverLimit:
		return doc.Discrepancy() == core.DiscrepancyOverLimit
	case IntentPending:
		return doc.RecordType == core.RecordTypeClaim && (status == "submitted" || status == "pending")
	case IntentRejected:
		return doc.RecordType == core.RecordTypeClaim && status == "rejected"
	case IntentExpenses:
		return doc.RecordType == core.RecordTypeClaim
	}
	return false
}
