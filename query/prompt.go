package query

import (
	"github.com/poiesic/finrag/core"
	"github.com/tmc/langchaingo/prompts"
)

const systemPrompt = `You are a finance operations analyst answering questions about receivables, payments, general ledger entries, budgets and expense claims.
Answer only from the numbered evidence records. If the evidence does not answer the question, say so.
Reply with a JSON object: {"summary": "<answer>", "confidence": "high|medium|low", "citations": [<evidence numbers used>]}`

const questionTemplate = `Question: {{.question}}
Detected intent: {{.intent}}

Evidence:
{{range .evidence}}[{{.Number}}] {{.Type}} {{.ID}} (relevance {{printf "%.3f" .Score}})
{{.Text}}

{{end}}`

// evidenceView is the template's view of one retrieved document.
type evidenceView struct {
	Number int
	Type   core.RecordType
	ID     string
	Score  float32
	Text   string
}

var questionPrompt = prompts.NewPromptTemplate(questionTemplate, []string{"question", "intent", "evidence"})

// renderQuestion formats the user turn for the ranked evidence.
func renderQuestion(question string, intent Intent, evidence []core.Evidence) (string, error) {
	views := make([]evidenceView, len(evidence))
	for i, ev := range evidence {
		views[i] = evidenceView{
			Number: i + 1,
			Type:   ev.Document.RecordType,
			ID:     ev.Document.RecordId,
			Score:  ev.Score,
			Text:   ev.Document.Text,
		}
	}
	return questionPrompt.Format(map[string]any{
		"question": question,
		"intent":   string(intent),
		"evidence": views,
	})
}
