package records

import (
	"strings"
	"unicode"

	"github.com/poiesic/finrag/core"
)

// Table names as written by WriteWorkbook and expected by LoadDirectory.
const (
	TableReceivables = "accounts_receivable"
	TablePayments    = "payments"
	TableLedger      = "general_ledger"
	TableBudget      = "budget_forecast"
	TableClaims      = "expense_claims"
)

// Canonical column names.
const (
	colARID            = "ARID"
	colCustomer        = "Customer"
	colInvoiceDate     = "InvoiceDate"
	colDueDate         = "DueDate"
	colAmount          = "Amount"
	colCurrency        = "Currency"
	colStatus          = "Status"
	colReceivedDate    = "ReceivedDate"
	colTerms           = "Terms"
	colPaymentID       = "PaymentID"
	colPaymentDate     = "PaymentDate"
	colMethod          = "Method"
	colReference       = "Reference"
	colGLID            = "GLID"
	colRefID           = "RefID"
	colTxnDate         = "TxnDate"
	colAccountNumber   = "AccountNumber"
	colAccountName     = "AccountName"
	colDebit           = "Debit"
	colCredit          = "Credit"
	colDept            = "Dept"
	colCostCenter      = "CostCenter"
	colDescription     = "Description"
	colFiscalYear      = "FiscalYear"
	colQuarter         = "Quarter"
	colBudget          = "BudgetUSD"
	colForecast        = "ForecastUSD"
	colActual          = "ActualUSD"
	colVariance        = "VarianceUSD"
	colNotes           = "Notes"
	colClaimID         = "ClaimID"
	colEmployeeID      = "EmployeeID"
	colSubmitDate      = "SubmitDate"
	colCategory        = "Category"
	colApprovedBy      = "ApprovedBy"
	colPayDate         = "PayDate"
	colOverPolicyLimit = "OverPolicyLimit"
	colPolicyLimit     = "PolicyLimit"
)

type column struct {
	name     string
	aliases  []string
	required bool
}

type tableSpec struct {
	name       string
	recordType core.RecordType
	aliases    []string
	required   bool
	columns    []column
}

var receivableSpec = &tableSpec{
	name:       TableReceivables,
	recordType: core.RecordTypeReceivable,
	aliases:    []string{"ar", "receivables", "accounts receivable", "invoices"},
	required:   true,
	columns: []column{
		{name: colARID, aliases: []string{"InvoiceID", "Invoice"}, required: true},
		{name: colCustomer, required: true},
		{name: colInvoiceDate, required: true},
		{name: colDueDate, required: true},
		{name: colAmount, aliases: []string{"InvoiceAmount"}, required: true},
		{name: colCurrency},
		{name: colStatus, required: true},
		{name: colReceivedDate},
		{name: colTerms, aliases: []string{"PaymentTerms"}},
	},
}

var paymentSpec = &tableSpec{
	name:       TablePayments,
	recordType: core.RecordTypePayment,
	aliases:    []string{"payment"},
	required:   true,
	columns: []column{
		{name: colPaymentID, required: true},
		{name: colARID, aliases: []string{"InvoiceID"}, required: true},
		{name: colPaymentDate, required: true},
		{name: colAmount, aliases: []string{"PaymentAmount"}, required: true},
		{name: colCustomer},
		{name: colMethod, aliases: []string{"PaymentMethod"}},
		{name: colReference},
		{name: colCurrency},
	},
}

var ledgerSpec = &tableSpec{
	name:       TableLedger,
	recordType: core.RecordTypeLedger,
	aliases:    []string{"gl", "ledger", "general ledger"},
	required:   true,
	columns: []column{
		{name: colGLID, aliases: []string{"EntryID"}, required: true},
		{name: colRefID, aliases: []string{"Ref", "SourceID"}},
		{name: colTxnDate, aliases: []string{"Date", "TransactionDate"}, required: true},
		{name: colAccountNumber, aliases: []string{"Account"}},
		{name: colAccountName},
		{name: colDebit, required: true},
		{name: colCredit, required: true},
		{name: colDept, aliases: []string{"Department"}},
		{name: colCostCenter},
		{name: colDescription},
		{name: colCurrency},
	},
}

var budgetSpec = &tableSpec{
	name:       TableBudget,
	recordType: core.RecordTypeBudget,
	aliases:    []string{"budget", "budgets", "forecast"},
	columns: []column{
		{name: colFiscalYear, aliases: []string{"Year"}, required: true},
		{name: colDept, aliases: []string{"Department"}, required: true},
		{name: colQuarter, required: true},
		{name: colBudget, aliases: []string{"Budget"}, required: true},
		{name: colForecast, aliases: []string{"Forecast"}},
		{name: colActual, aliases: []string{"Actual"}, required: true},
		{name: colVariance, aliases: []string{"Variance"}},
		{name: colNotes},
	},
}

var claimSpec = &tableSpec{
	name:       TableClaims,
	recordType: core.RecordTypeClaim,
	aliases:    []string{"claims", "expenses", "expense claims"},
	columns: []column{
		{name: colClaimID, required: true},
		{name: colEmployeeID, aliases: []string{"Employee"}, required: true},
		{name: colSubmitDate, required: true},
		{name: colCategory, required: true},
		{name: colDescription},
		{name: colAmount, required: true},
		{name: colCurrency},
		{name: colStatus, required: true},
		{name: colApprovedBy},
		{name: colPayDate, aliases: []string{"PaidDate"}},
		{name: colOverPolicyLimit, aliases: []string{"OverLimit"}},
		{name: colPolicyLimit, aliases: []string{"Limit"}},
	},
}

// specs is in RecordSet table order.
var specs = []*tableSpec{receivableSpec, paymentSpec, ledgerSpec, budgetSpec, claimSpec}

// specFor resolves a sheet or file name to its table.
func specFor(name string) (*tableSpec, bool) {
	key := normalizeName(name)
	for _, spec := range specs {
		if normalizeName(spec.name) == key {
			return spec, true
		}
		for _, alias := range spec.aliases {
			if normalizeName(alias) == key {
				return spec, true
			}
		}
	}
	return nil, false
}

// bind maps canonical column names to header positions.
func (s *tableSpec) bind(header []string) (map[string]int, error) {
	positions := make(map[string]int, len(header))
	for i, h := range header {
		key := normalizeName(h)
		if key == "" {
			continue
		}
		if _, ok := positions[key]; !ok {
			positions[key] = i
		}
	}

	index := make(map[string]int, len(s.columns))
	for _, col := range s.columns {
		pos, ok := positions[normalizeName(col.name)]
		for _, alias := range col.aliases {
			if ok {
				break
			}
			pos, ok = positions[normalizeName(alias)]
		}
		if ok {
			index[col.name] = pos
			continue
		}
		if col.required {
			return nil, &core.SchemaError{Table: s.name, Column: col.name}
		}
	}
	return index, nil
}

// header returns the canonical column names in order.
func (s *tableSpec) header() []string {
	out := make([]string, len(s.columns))
	for i, col := range s.columns {
		out[i] = col.name
	}
	return out
}

// normalizeName lowercases and drops everything but letters and digits.
func normalizeName(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}
