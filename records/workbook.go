package records

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/finrag/core"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// LoadWorkbook reads a workbook with one sheet per table.
func LoadWorkbook(path string) (*core.RecordSet, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	defer f.Close()

	tables, err := readSheets(f)
	if err != nil {
		return nil, fmt.Errorf("read workbook %s: %w", path, err)
	}
	return FromTables(tables...)
}

func readSheets(f *excelize.File) ([]Table, error) {
	var tables []Table
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, err
		}
		tables = append(tables, tableFromRows(sheet, rows))
	}
	return tables, nil
}

// WriteWorkbook writes set to path with one sheet per table, using the
// canonical table and column names. Empty optional tables are still written
// so the workbook always carries all five sheets.
func WriteWorkbook(path string, set *core.RecordSet) error {
	f := excelize.NewFile()
	defer f.Close()

	const defaultSheet = "Sheet1"
	for i, spec := range specs {
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, spec.name); err != nil {
				return err
			}
		} else if _, err := f.NewSheet(spec.name); err != nil {
			return err
		}
		if err := writeSheet(f, spec, rowsFor(spec, set)); err != nil {
			return fmt.Errorf("write sheet %s: %w", spec.name, err)
		}
	}
	f.SetActiveSheet(0)

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook %s: %w", path, err)
	}
	slog.Default().With("component", "records").Info("workbook written", "path", path, "records", set.Len())
	return nil
}

func writeSheet(f *excelize.File, spec *tableSpec, rows [][]any) error {
	header := make([]any, 0, len(spec.columns))
	for _, name := range spec.header() {
		header = append(header, name)
	}
	if err := f.SetSheetRow(spec.name, "A1", &header); err != nil {
		return err
	}
	for i, values := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(spec.name, cell, &values); err != nil {
			return err
		}
	}
	return nil
}

// rowsFor renders a table in spec column order.
func rowsFor(spec *tableSpec, set *core.RecordSet) [][]any {
	var rows [][]any
	switch spec.recordType {
	case core.RecordTypeReceivable:
		for _, r := range set.Receivables {
			rows = append(rows, []any{r.ID, r.Customer, dateCell(r.InvoiceDate), dateCell(r.DueDate),
				amountCell(r.Amount), r.Currency, r.Status, dateCell(r.ReceivedDate), r.Terms})
		}
	case core.RecordTypePayment:
		for _, p := range set.Payments {
			rows = append(rows, []any{p.ID, p.ReceivableID, dateCell(p.PaymentDate), amountCell(p.Amount),
				p.Customer, p.Method, p.Reference, p.Currency})
		}
	case core.RecordTypeLedger:
		for _, l := range set.Ledger {
			rows = append(rows, []any{l.ID, l.RefID, dateCell(l.TxnDate), l.AccountNumber, l.AccountName,
				amountCell(l.Debit), amountCell(l.Credit), l.Dept, l.CostCenter, l.Description, l.Currency})
		}
	case core.RecordTypeBudget:
		for _, b := range set.Budget {
			rows = append(rows, []any{b.FiscalYear, b.Dept, b.Quarter, amountCell(b.Budget),
				amountCell(b.Forecast), amountCell(b.Actual), amountCell(b.Variance), b.Notes})
		}
	case core.RecordTypeClaim:
		for _, c := range set.Claims {
			limit := any("")
			if !c.PolicyLimit.IsZero() {
				limit = amountCell(c.PolicyLimit)
			}
			rows = append(rows, []any{c.ID, c.EmployeeID, dateCell(c.SubmitDate), c.Category, c.Description,
				amountCell(c.Amount), c.Currency, c.Status, c.ApprovedBy, dateCell(c.PayDate),
				c.OverPolicyLimit, limit})
		}
	}
	return rows
}

// dateCell writes dates as ISO text so reads do not depend on cell styles.
func dateCell(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(core.DateLayout)
}

func amountCell(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}
