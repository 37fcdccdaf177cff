// Package records loads financial tables into a core.RecordSet.
//
// Five tables are understood: accounts_receivable, payments, general_ledger,
// budget_forecast and expense_claims. The first three are required; budget
// and claims are optional and load as empty when absent.
//
// Tables can come from a single workbook with one sheet per table
// (LoadWorkbook), a directory of per-table .xlsx or .csv files
// (LoadDirectory), or in-memory header and row slices (FromTables).
//
// Header matching ignores case, spaces, underscores and dashes, and accepts
// a few aliases per column (for example "Budget" for "BudgetUSD"). A missing
// required column fails with *core.SchemaError. Cells that cannot be parsed
// fail with core.ErrInvalidField, and repeated record IDs within a table
// fail with core.ErrDuplicateRecord.
package records
