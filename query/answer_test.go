package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAnswer(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  answer
	}{
		{
			name:  "plain json",
			reply: `{"summary": "Two invoices are overdue.", "confidence": "high", "citations": [1, 2]}`,
			want:  answer{Summary: "Two invoices are overdue.", Confidence: "high", Citations: []int{1, 2}},
		},
		{
			name:  "fenced json",
			reply: "```json\n{\"summary\": \"ok\", \"confidence\": \"Low\"}\n```",
			want:  answer{Summary: "ok", Confidence: "low"},
		},
		{
			name:  "numeric confidence",
			reply: `{"summary": "ok", "confidence": 0.8}`,
			want:  answer{Summary: "ok", Confidence: "high"},
		},
		{
			name:  "string number confidence",
			reply: `{"summary": "ok", "confidence": "0.5"}`,
			want:  answer{Summary: "ok", Confidence: "medium"},
		},
		{
			name:  "unknown confidence",
			reply: `{"summary": "ok", "confidence": "certain"}`,
			want:  answer{Summary: "ok"},
		},
		{
			name:  "citation formats",
			reply: `{"summary": "ok", "citations": [3, "2", "[4]", "AR1", true]}`,
			want:  answer{Summary: "ok", Citations: []int{3, 2, 4}},
		},
		{
			name:  "missing key quote repaired",
			reply: `{"summary": "ok", confidence": "low"}`,
			want:  answer{Summary: "ok", Confidence: "low"},
		},
		{
			name:  "prose",
			reply: "  Invoice AR2 is overdue.  ",
			want:  answer{Summary: "Invoice AR2 is overdue."},
		},
		{
			name:  "json without summary",
			reply: `{"answer": "x"}`,
			want:  answer{Summary: `{"answer": "x"}`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseAnswer(tt.reply))
		})
	}
}
