package main

import (
	"fmt"
	"io"

	"github.com/poiesic/finrag/core"
	"github.com/poiesic/finrag/query"
)

// traceMonitor prints each answering stage for --trace.
type traceMonitor struct {
	w io.Writer
}

var _ query.Monitor = (*traceMonitor)(nil)

func newTraceMonitor(w io.Writer) *traceMonitor {
	return &traceMonitor{w: w}
}

func (t *traceMonitor) Start(question string, intent query.Intent) {
	fmt.Fprintf(t.w, "trace: question %q, intent %s\n", question, intent)
}

func (t *traceMonitor) AfterRetrieval(results []*core.SearchResult) {
	fmt.Fprintf(t.w, "trace: retrieved %d documents\n", len(results))
	for _, r := range results {
		fmt.Fprintf(t.w, "trace:   %s %s %.4f\n", r.Entry.Document.RecordType, r.Entry.Document.RecordId, r.Score)
	}
}

func (t *traceMonitor) VerbatimHit(doc *core.Document) {
	fmt.Fprintf(t.w, "trace: verbatim boost %s %s\n", doc.RecordType, doc.RecordId)
}

func (t *traceMonitor) IntentHit(doc *core.Document) {
	fmt.Fprintf(t.w, "trace: intent boost %s %s\n", doc.RecordType, doc.RecordId)
}

func (t *traceMonitor) BeforeGenerate(prompt string) {
	fmt.Fprintf(t.w, "trace: prompt\n%s\n", prompt)
}

func (t *traceMonitor) AfterGenerate(reply string) {
	fmt.Fprintf(t.w, "trace: reply\n%s\n", reply)
}

func (t *traceMonitor) Finish(result *core.QueryResult) {
	fmt.Fprintf(t.w, "trace: %d evidence documents\n", len(result.Evidence))
}
