package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// DocumentID returns the ID of the document synthesized for a record.
// The same record always maps to the same document ID.
func DocumentID(recordType RecordType, recordID string) ID {
	return IDFromContent(string(recordType) + ":" + recordID)
}

// Metadata keys carried by every Document.
const (
	MetaRecordType  = "record_type"
	MetaRecordID    = "record_id"
	MetaDate        = "date"
	MetaAmount      = "amount"
	MetaStatus      = "status"
	MetaDiscrepancy = "discrepancy"
	MetaDelta       = "delta"
	MetaCurrency    = "currency"
	MetaCustomer    = "customer"
	MetaDept        = "dept"
	MetaCategory    = "category"
	MetaDaysOverdue = "days_overdue"
	MetaVariancePct = "variance_pct"
)

// Document is the textual rendition of one financial record.
type Document struct {
	Id         ID
	RecordType RecordType
	RecordId   string
	Text       string
	Metadata   map[string]string
}

// NewDocument creates a document for a record and derives its ID.
// The record_type and record_id metadata keys are always set.
func NewDocument(recordType RecordType, recordID, text string, metadata map[string]string) *Document {
	if metadata == nil {
		metadata = make(map[string]string)
	}
	metadata[MetaRecordType] = string(recordType)
	metadata[MetaRecordID] = recordID
	return &Document{
		Id:         DocumentID(recordType, recordID),
		RecordType: recordType,
		RecordId:   recordID,
		Text:       text,
		Metadata:   metadata,
	}
}

// Discrepancy reports the classification recorded on the document, if any.
func (d *Document) Discrepancy() Discrepancy {
	if v, ok := d.Metadata[MetaDiscrepancy]; ok {
		return Discrepancy(v)
	}
	return DiscrepancyNone
}

// IndexEntry is a persisted (vector, document) pair.
type IndexEntry struct {
	Document   Document
	Vector     []float32 // Unit-normalized embedding of Document.Text
	InsertedAt time.Time
}

// Manifest describes a completed index build.
// An index without a manifest has not been built.
type Manifest struct {
	BuildId        string
	Documents      int
	Dimension      int
	EmbeddingModel string
	BuiltAt        time.Time
}

// SearchResult represents an index entry returned by similarity search.
type SearchResult struct {
	Entry *IndexEntry
	Score float32
}

// Evidence is a retrieved document supporting an answer.
type Evidence struct {
	Document *Document
	Score    float32
}

// QueryResult is the answer to a natural-language question.
type QueryResult struct {
	Question   string
	Summary    string
	Confidence string // high, medium or low when the model reports one
	Intent     string
	Evidence   []Evidence
}
