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
	"fmt"
	"slices"
)

// RequiredMetadata lists the keys every Document must carry.
var RequiredMetadata = []string{MetaRecordType, MetaRecordID, MetaDate, MetaAmount, MetaStatus}

// ValidateDocument validates a Document according to domain rules.
//
// Validation rules:
//   - Text must not be empty
//   - RecordType must be valid
//   - RecordId must not be empty
//   - Id must match the ID derived from RecordType and RecordId
//   - Metadata must contain every key in RequiredMetadata
func ValidateDocument(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}

	if doc.Text == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyContent)
	}

	if err := ValidateRecordType(doc.RecordType); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	if doc.RecordId == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyRecordID)
	}

	if doc.Id != DocumentID(doc.RecordType, doc.RecordId) {
		return fmt.Errorf("%w: id %d does not match %s %s", ErrInvalidDocument, doc.Id, doc.RecordType, doc.RecordId)
	}

	for _, key := range RequiredMetadata {
		if _, ok := doc.Metadata[key]; !ok {
			return fmt.Errorf("%w: %w %q", ErrInvalidDocument, ErrMissingMetadata, key)
		}
	}

	return nil
}

// ValidateIndexEntry validates an IndexEntry and its Document.
//
// NOT validated:
//   - Vector length against other entries (checked by the builder)
func ValidateIndexEntry(entry *IndexEntry) error {
	if entry == nil {
		return fmt.Errorf("%w: entry is nil", ErrInvalidIndexEntry)
	}
	if len(entry.Vector) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidIndexEntry, ErrEmptyVector)
	}
	if err := ValidateDocument(&entry.Document); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidIndexEntry, err)
	}
	return nil
}

// ValidateRecordType validates that a RecordType has a known value.
func ValidateRecordType(rt RecordType) error {
	if !slices.Contains(RecordTypes, rt) {
		return fmt.Errorf("%w: value %q", ErrInvalidRecordType, rt)
	}
	return nil
}
