package query

import "github.com/poiesic/finrag/core"

// Monitor provides hooks to observe how a question is answered.
// Implement this interface to trace intermediate steps, e.g. for a --trace flag.
type Monitor interface {
	Start(question string, intent Intent)
	AfterRetrieval(results []*core.SearchResult)
	VerbatimHit(doc *core.Document)
	IntentHit(doc *core.Document)
	BeforeGenerate(prompt string)
	AfterGenerate(reply string)
	Finish(result *core.QueryResult)
}

// noopMonitor is a no-op implementation of Monitor
type noopMonitor struct{}

var _ Monitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string, _ Intent)              {}
func (n *noopMonitor) AfterRetrieval(_ []*core.SearchResult) {}
func (n *noopMonitor) VerbatimHit(_ *core.Document)          {}
func (n *noopMonitor) IntentHit(_ *core.Document)            {}
func (n *noopMonitor) BeforeGenerate(_ string)               {}
func (n *noopMonitor) AfterGenerate(_ string)                {}
func (n *noopMonitor) Finish(_ *core.QueryResult)            {}
