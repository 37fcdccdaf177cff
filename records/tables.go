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

package records

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/finrag/core"
)

// ErrDuplicateTable is returned when two inputs resolve to the same table.
var ErrDuplicateTable = errors.New("duplicate table")

// Table is one named input table: a header row followed by data rows.
type Table struct {
	Name   string
	Header []string
	Rows   [][]string
}

// FromTables validates and converts raw tables into a RecordSet.
// Tables whose names match no known table are skipped.
func FromTables(tables ...Table) (*core.RecordSet, error) {
	logger := slog.Default().With("component", "records")

	bySpec := make(map[*tableSpec]Table, len(tables))
	for _, t := range tables {
		spec, ok := specFor(t.Name)
		if !ok {
			logger.Debug("skipping unknown table", "name", t.Name)
			continue
		}
		if _, dup := bySpec[spec]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateTable, spec.name)
		}
		bySpec[spec] = t
	}

	for _, spec := range specs {
		if _, ok := bySpec[spec]; !ok && spec.required {
			return nil, fmt.Errorf("%w: %s", core.ErrMissingTable, spec.name)
		}
	}

	set := &core.RecordSet{}
	for _, spec := range specs {
		t, ok := bySpec[spec]
		if !ok {
			continue
		}
		if err := convert(spec, t, set); err != nil {
			return nil, err
		}
		logger.Debug("loaded table", "table", spec.name, "rows", len(t.Rows))
	}

	logger.Info("records loaded",
		"receivables", len(set.Receivables),
		"payments", len(set.Payments),
		"ledger", len(set.Ledger),
		"budget", len(set.Budget),
		"claims", len(set.Claims))
	return set, nil
}

// tableFromRows splits a header row off raw sheet or CSV rows.
func tableFromRows(name string, rows [][]string) Table {
	t := Table{Name: name}
	if len(rows) > 0 {
		t.Header = rows[0]
		t.Rows = rows[1:]
	}
	return t
}

func convert(spec *tableSpec, t Table, set *core.RecordSet) error {
	index, err := spec.bind(t.Header)
	if err != nil {
		return err
	}

	seen := make(map[string]int, len(t.Rows))
	for i, cells := range t.Rows {
		// Line numbers count the header as line 1
		r := &row{table: spec.name, line: i + 2, cells: cells, index: index}
		if r.empty() {
			continue
		}

		var rec core.FinancialRecord
		switch spec.recordType {
		case core.RecordTypeReceivable:
			v := toReceivable(r)
			set.Receivables = append(set.Receivables, v)
			rec = v
		case core.RecordTypePayment:
			v := toPayment(r)
			set.Payments = append(set.Payments, v)
			rec = v
		case core.RecordTypeLedger:
			v := toLedgerEntry(r)
			set.Ledger = append(set.Ledger, v)
			rec = v
		case core.RecordTypeBudget:
			v := toBudgetLine(r)
			set.Budget = append(set.Budget, v)
			rec = v
		case core.RecordTypeClaim:
			v := toExpenseClaim(r)
			set.Claims = append(set.Claims, v)
			rec = v
		}
		if r.err != nil {
			return r.err
		}

		id := rec.RecordID()
		if first, dup := seen[id]; dup {
			return fmt.Errorf("%w: %s %q on rows %d and %d", core.ErrDuplicateRecord, spec.name, id, first, r.line)
		}
		seen[id] = r.line
	}
	return nil
}

func toReceivable(r *row) *core.Receivable {
	return &core.Receivable{
		ID:           r.required(colARID),
		Customer:     r.required(colCustomer),
		InvoiceDate:  r.requiredDate(colInvoiceDate),
		DueDate:      r.requiredDate(colDueDate),
		Amount:       r.requiredAmount(colAmount),
		Currency:     currency(r.str(colCurrency)),
		Status:       r.required(colStatus),
		ReceivedDate: r.date(colReceivedDate),
		Terms:        r.str(colTerms),
	}
}

func toPayment(r *row) *core.Payment {
	return &core.Payment{
		ID:           r.required(colPaymentID),
		ReceivableID: r.required(colARID),
		PaymentDate:  r.requiredDate(colPaymentDate),
		Amount:       r.requiredAmount(colAmount),
		Customer:     r.str(colCustomer),
		Method:       r.str(colMethod),
		Reference:    r.str(colReference),
		Currency:     strings.ToUpper(r.str(colCurrency)),
	}
}

func toLedgerEntry(r *row) *core.LedgerEntry {
	return &core.LedgerEntry{
		ID:            r.required(colGLID),
		RefID:         r.str(colRefID),
		TxnDate:       r.requiredDate(colTxnDate),
		AccountNumber: r.str(colAccountNumber),
		AccountName:   r.str(colAccountName),
		Debit:         r.requiredAmount(colDebit),
		Credit:        r.requiredAmount(colCredit),
		Dept:          r.str(colDept),
		CostCenter:    r.str(colCostCenter),
		Description:   r.str(colDescription),
		Currency:      currency(r.str(colCurrency)),
	}
}

func toBudgetLine(r *row) *core.BudgetLine {
	b := &core.BudgetLine{
		FiscalYear: r.requiredInt(colFiscalYear),
		Dept:       r.required(colDept),
		Quarter:    strings.ToUpper(r.required(colQuarter)),
		Budget:     r.requiredAmount(colBudget),
		Forecast:   r.amount(colForecast),
		Actual:     r.requiredAmount(colActual),
		Notes:      r.str(colNotes),
	}
	if r.raw(colVariance) == "" {
		b.Variance = b.Actual.Sub(b.Budget)
	} else {
		b.Variance = r.amount(colVariance)
	}
	return b
}

func toExpenseClaim(r *row) *core.ExpenseClaim {
	return &core.ExpenseClaim{
		ID:              r.required(colClaimID),
		EmployeeID:      r.required(colEmployeeID),
		SubmitDate:      r.requiredDate(colSubmitDate),
		Category:        r.required(colCategory),
		Description:     r.str(colDescription),
		Amount:          r.requiredAmount(colAmount),
		Currency:        currency(r.str(colCurrency)),
		Status:          r.required(colStatus),
		ApprovedBy:      r.str(colApprovedBy),
		PayDate:         r.date(colPayDate),
		OverPolicyLimit: r.boolean(colOverPolicyLimit),
		PolicyLimit:     r.amount(colPolicyLimit),
	}
}

// currency defaults blank cells to USD, the only currency the sources use.
func currency(s string) string {
	if s == "" {
		return "USD"
	}
	return strings.ToUpper(s)
}
