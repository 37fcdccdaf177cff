// Package synthesis turns financial records into indexable documents.
//
// Each record becomes exactly one core.Document whose text reads as a short
// narrative followed by detail lines, and whose metadata carries the fields
// queries filter and rank on. Cross-table checks (payment against ledger or
// invoice, invoice against due date, claim against policy limit) are done by
// pure classification functions that take the reference date from Policy
// rather than the clock, so the same inputs always classify the same way.
package synthesis
