package query

import (
	"testing"

	"github.com/poiesic/finrag/core"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestTokenizeAndFilter(t *testing.T) {
	assert.Equal(t, []string{"payments", "overdue"}, tokenizeAndFilter("Which payments are overdue?"))
	assert.Equal(t, []string{"invoice", "ar2", "750.00"}, tokenizeAndFilter("Invoice AR2: $750.00"))
	assert.Empty(t, tokenizeAndFilter("what is the"))
}

func TestContainsAllQueryWords(t *testing.T) {
	doc := "Invoice AR2 for Globex of $750.00, status: overdue."

	tests := []struct {
		question string
		want     bool
	}{
		{"Is Globex overdue?", true},
		{"globex AR2", true},
		{"Which payments are overdue?", false},
		{"what is the", false},
	}

	for _, tt := range tests {
		t.Run(tt.question, func(t *testing.T) {
			assert.Equal(t, tt.want, containsAllQueryWords(doc, tt.question))
		})
	}
}

func TestDetectIntent(t *testing.T) {
	tests := []struct {
		question string
		want     Intent
	}{
		{"Show me all discrepancies", IntentDiscrepancy},
		{"Any amount mismatch last month?", IntentDiscrepancy},
		{"Which payments are overdue?", IntentOverdue},
		{"Who pays late?", IntentOverdue},
		{"What does customer Acme Corp owe?", IntentCustomer},
		{"Which departments are over budget?", IntentBudget},
		{"Show the largest variance", IntentBudget},
		{"List claims over limit", IntentOverLimit},
		{"Which expenses break policy?", IntentOverLimit},
		{"Pending expense claims", IntentPending},
		{"How many claims were submitted?", IntentPending},
		{"Which claims were rejected?", IntentRejected},
		{"Total expense by category", IntentExpenses},
		{"Summarize the quarter", IntentGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.question, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectIntent(tt.question))
		})
	}
}

func TestMatcher(t *testing.T) {
	m := matcher{significantVariance: decimal.NewFromInt(10)}
	doc := func(recordType core.RecordType, meta map[string]string) *core.Document {
		return core.NewDocument(recordType, "X1", "text", meta)
	}

	tests := []struct {
		name     string
		intent   Intent
		question string
		doc      *core.Document
		want     bool
	}{
		{"mismatch", IntentDiscrepancy, "", doc(core.RecordTypePayment, map[string]string{core.MetaDiscrepancy: "amount-mismatch"}), true},
		{"missing payment", IntentDiscrepancy, "", doc(core.RecordTypeReceivable, map[string]string{core.MetaDiscrepancy: "missing-payment"}), true},
		{"clean payment", IntentDiscrepancy, "", doc(core.RecordTypePayment, map[string]string{core.MetaDiscrepancy: "none"}), false},
		{"overdue by status", IntentOverdue, "", doc(core.RecordTypeReceivable, map[string]string{core.MetaStatus: "overdue"}), true},
		{"overdue by classification", IntentOverdue, "", doc(core.RecordTypeReceivable, map[string]string{core.MetaDiscrepancy: "overdue"}), true},
		{"customer named", IntentCustomer, "invoices for acme corp", doc(core.RecordTypeReceivable, map[string]string{core.MetaCustomer: "Acme Corp"}), true},
		{"other customer", IntentCustomer, "invoices for globex", doc(core.RecordTypeReceivable, map[string]string{core.MetaCustomer: "Acme Corp"}), false},
		{"significant variance", IntentBudget, "", doc(core.RecordTypeBudget, map[string]string{core.MetaVariancePct: "-12.5"}), true},
		{"small variance", IntentBudget, "", doc(core.RecordTypeBudget, map[string]string{core.MetaVariancePct: "4.0"}), false},
		{"over limit", IntentOverLimit, "", doc(core.RecordTypeClaim, map[string]string{core.MetaDiscrepancy: "over-limit"}), true},
		{"pending claim", IntentPending, "", doc(core.RecordTypeClaim, map[string]string{core.MetaStatus: "submitted"}), true},
		{"pending receivable", IntentPending, "", doc(core.RecordTypeReceivable, map[string]string{core.MetaStatus: "pending"}), false},
		{"rejected claim", IntentRejected, "", doc(core.RecordTypeClaim, map[string]string{core.MetaStatus: "rejected"}), true},
		{"any claim", IntentExpenses, "", doc(core.RecordTypeClaim, nil), true},
		{"general", IntentGeneral, "", doc(core.RecordTypeClaim, nil), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, m.matches(tt.intent, tt.question, tt.doc))
		})
	}
}

func TestMatcher_BudgetDepartment(t *testing.T) {
	m := matcher{significantVariance: decimal.NewFromInt(10)}
	budget := func(dept, pct string) *core.SearchResult {
		doc := core.NewDocument(core.RecordTypeBudget, "BUD-"+dept, "text", map[string]string{
			core.MetaDept:        dept,
			core.MetaVariancePct: pct,
		})
		return &core.SearchResult{Entry: &core.IndexEntry{Document: *doc}, Score: 1}
	}
	it := budget("IT", "2.0")
	hr := budget("HR", "25.0")
	results := []*core.SearchResult{hr, it}

	t.Run("named department wins over variance", func(t *testing.T) {
		question := "What is the IT department budget variance?"
		scoped := m.forQuestion(question, results)
		assert.True(t, scoped.matches(IntentBudget, question, &it.Entry.Document))
		assert.False(t, scoped.matches(IntentBudget, question, &hr.Entry.Document))
	})

	t.Run("no department falls back to variance", func(t *testing.T) {
		question := "Which budget lines have a large variance?"
		scoped := m.forQuestion(question, results)
		assert.Nil(t, scoped.departments)
		assert.False(t, scoped.matches(IntentBudget, question, &it.Entry.Document))
		assert.True(t, scoped.matches(IntentBudget, question, &hr.Entry.Document))
	})

	t.Run("department is matched as a whole word", func(t *testing.T) {
		question := "Which budget items drifted the most?"
		scoped := m.forQuestion(question, results)
		assert.Nil(t, scoped.departments)
	})
}
