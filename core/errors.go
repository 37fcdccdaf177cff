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
	"errors"
	"fmt"
)

// Domain errors
var (
	// ErrSchema indicates an input table is missing a required column.
	ErrSchema = errors.New("schema error")

	// ErrMissingTable indicates a required input table was not supplied.
	ErrMissingTable = errors.New("missing table")

	// ErrInvalidField indicates a cell could not be parsed.
	ErrInvalidField = errors.New("invalid field")

	// ErrDuplicateRecord indicates two rows in one table share a record ID.
	ErrDuplicateRecord = errors.New("duplicate record id")

	// ErrDiscrepancyComputation indicates a cross-table comparison could not be made.
	ErrDiscrepancyComputation = errors.New("discrepancy computation failed")

	// ErrIndexNotBuilt indicates a query was issued before any successful build.
	ErrIndexNotBuilt = errors.New("index not built")

	// ErrProvider indicates the embedding or generation service failed.
	ErrProvider = errors.New("provider error")
)

// Validation errors
var (
	// ErrInvalidDocument indicates a Document failed validation.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrInvalidIndexEntry indicates an IndexEntry failed validation.
	ErrInvalidIndexEntry = errors.New("invalid index entry")

	// ErrEmptyContent indicates the Text field is empty.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrEmptyRecordID indicates the record ID is empty.
	ErrEmptyRecordID = errors.New("record id cannot be empty")

	// ErrInvalidRecordType indicates an unknown RecordType value.
	ErrInvalidRecordType = errors.New("invalid record type")

	// ErrMissingMetadata indicates a required metadata key is absent.
	ErrMissingMetadata = errors.New("missing metadata")

	// ErrEmptyVector indicates an entry has no embedding.
	ErrEmptyVector = errors.New("vector cannot be empty")
)

// SchemaError reports a missing required column.
type SchemaError struct {
	Table  string
	Column string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema error: table %q is missing required column %q", e.Table, e.Column)
}

func (e *SchemaError) Unwrap() error {
	return ErrSchema
}

// DiscrepancyComputationError reports a record whose counterpart could not be compared.
type DiscrepancyComputationError struct {
	RecordType RecordType
	RecordID   string
	Reason     string
}

func (e *DiscrepancyComputationError) Error() string {
	return fmt.Sprintf("discrepancy computation failed for %s %s: %s", e.RecordType, e.RecordID, e.Reason)
}

func (e *DiscrepancyComputationError) Unwrap() error {
	return ErrDiscrepancyComputation
}

// IndexNotBuiltError reports a query against an index that has never been built.
type IndexNotBuiltError struct {
	Location string
}

func (e *IndexNotBuiltError) Error() string {
	if e.Location == "" {
		return "index not built: run a build first"
	}
	return fmt.Sprintf("index not built at %s: run a build first", e.Location)
}

func (e *IndexNotBuiltError) Unwrap() error {
	return ErrIndexNotBuilt
}

// ProviderError wraps a failure from an external embedding or generation service.
type ProviderError struct {
	Op  string // "embed" or "generate"
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider error during %s: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() []error {
	return []error{ErrProvider, e.Err}
}

// NewProviderError wraps err unless it is nil or already a ProviderError.
func NewProviderError(op string, err error) error {
	if err == nil {
		return nil
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		return err
	}
	return &ProviderError{Op: op, Err: err}
}
