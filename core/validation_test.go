package core

import (
	"errors"
	"testing"
)

func validDocument() *Document {
	return NewDocument(RecordTypePayment, "P100", "Payment P100 of $500.00", map[string]string{
		MetaDate:   "2024-01-10",
		MetaAmount: "500.00",
		MetaStatus: "received",
	})
}

func TestValidateDocument(t *testing.T) {
	tests := []struct {
		name    string
		doc     func() *Document
		wantErr error
	}{
		{
			name:    "valid document",
			doc:     validDocument,
			wantErr: nil,
		},
		{
			name:    "nil document",
			doc:     func() *Document { return nil },
			wantErr: ErrInvalidDocument,
		},
		{
			name: "empty text",
			doc: func() *Document {
				d := validDocument()
				d.Text = ""
				return d
			},
			wantErr: ErrEmptyContent,
		},
		{
			name: "unknown record type",
			doc: func() *Document {
				d := validDocument()
				d.RecordType = "invoice"
				return d
			},
			wantErr: ErrInvalidRecordType,
		},
		{
			name: "empty record id",
			doc: func() *Document {
				d := validDocument()
				d.RecordId = ""
				return d
			},
			wantErr: ErrEmptyRecordID,
		},
		{
			name: "id does not match record",
			doc: func() *Document {
				d := validDocument()
				d.Id = 42
				return d
			},
			wantErr: ErrInvalidDocument,
		},
		{
			name: "missing status metadata",
			doc: func() *Document {
				d := validDocument()
				delete(d.Metadata, MetaStatus)
				return d
			},
			wantErr: ErrMissingMetadata,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDocument(tt.doc())
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateDocument() unexpected error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateDocument() error = %v, want %v", err, tt.wantErr)
			}
			if !errors.Is(err, ErrInvalidDocument) {
				t.Errorf("ValidateDocument() error = %v, should wrap ErrInvalidDocument", err)
			}
		})
	}
}

func TestValidateIndexEntry(t *testing.T) {
	if err := ValidateIndexEntry(nil); !errors.Is(err, ErrInvalidIndexEntry) {
		t.Errorf("ValidateIndexEntry(nil) error = %v", err)
	}

	entry := &IndexEntry{Document: *validDocument()}
	if err := ValidateIndexEntry(entry); !errors.Is(err, ErrEmptyVector) {
		t.Errorf("ValidateIndexEntry() error = %v, want ErrEmptyVector", err)
	}

	entry.Vector = []float32{1, 0}
	if err := ValidateIndexEntry(entry); err != nil {
		t.Errorf("ValidateIndexEntry() unexpected error = %v", err)
	}

	entry.Document.Text = ""
	if err := ValidateIndexEntry(entry); !errors.Is(err, ErrInvalidDocument) {
		t.Errorf("ValidateIndexEntry() error = %v, want ErrInvalidDocument", err)
	}
}

func TestValidateRecordType(t *testing.T) {
	for _, rt := range RecordTypes {
		if err := ValidateRecordType(rt); err != nil {
			t.Errorf("ValidateRecordType(%q) unexpected error = %v", rt, err)
		}
	}
	if err := ValidateRecordType("budgets"); !errors.Is(err, ErrInvalidRecordType) {
		t.Errorf("ValidateRecordType() error = %v, want ErrInvalidRecordType", err)
	}
}
