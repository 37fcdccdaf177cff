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

package query

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/poiesic/finrag/ai"
	"github.com/poiesic/finrag/core"
	"github.com/poiesic/finrag/storage"
	"github.com/shopspring/decimal"
)

const (
	// DefaultTopK is the number of documents retrieved per question.
	DefaultTopK = 5

	// DefaultMinScore keeps every retrieved neighbour.
	DefaultMinScore float32 = -1

	verbatimBoost float32 = 0.3
	intentBoost   float32 = 0.2
)

// NoEvidenceSummary is returned when retrieval finds nothing to answer from.
const NoEvidenceSummary = "No indexed records match this question."

// Engine answers natural-language questions from the vector index.
type Engine struct {
	repo      storage.IndexRepository
	embedder  ai.Embedder
	generator ai.Generator
	topK      int
	minScore  float32
	location  string
	matcher   matcher
	logger    *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine) error

// WithTopK sets how many nearest documents are retrieved.
// Default is DefaultTopK.
func WithTopK(k int) Option {
	return func(e *Engine) error {
		if k < 1 {
			return ErrInvalidTopK
		}
		e.topK = k
		return nil
	}
}

// WithMinScore drops neighbours scoring below score.
// Default is DefaultMinScore.
func WithMinScore(score float32) Option {
	return func(e *Engine) error {
		e.minScore = score
		return nil
	}
}

// WithSignificantVariance sets the budget variance percentage that counts
// as significant when ranking budget questions.
// Default is 10.
func WithSignificantVariance(pct decimal.Decimal) Option {
	return func(e *Engine) error {
		e.matcher.significantVariance = pct
		return nil
	}
}

// WithLocation names the index in IndexNotBuiltError messages.
func WithLocation(location string) Option {
	return func(e *Engine) error {
		e.location = location
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// NewEngine creates a query engine over an index repository.
// The provider's embedder must be the one the index was built with.
func NewEngine(repo storage.IndexRepository, provider ai.AIProvider, opts ...Option) (*Engine, error) {
	if repo == nil {
		return nil, ErrRepositoryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	e := &Engine{
		repo:      repo,
		embedder:  provider.Embedder(),
		generator: provider.Generator(),
		topK:      DefaultTopK,
		minScore:  DefaultMinScore,
		matcher:   matcher{significantVariance: decimal.NewFromInt(10)},
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	e.logger = e.logger.With("component", "query-engine")

	return e, nil
}

// Ask answers a question from the indexed documents.
func (e *Engine) Ask(ctx context.Context, question string) (*core.QueryResult, error) {
	return e.AskWithMonitor(ctx, question, nil)
}

// AskWithMonitor answers a question, reporting each stage to monitor.
func (e *Engine) AskWithMonitor(ctx context.Context, question string, monitor Monitor) (*core.QueryResult, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}

	manifest, err := e.repo.Manifest(ctx)
	if err != nil {
		e.logger.Error("error reading index manifest", "err", err)
		return nil, err
	}
	if manifest == nil || manifest.Documents == 0 {
		return nil, &core.IndexNotBuiltError{Location: e.location}
	}

	intent := DetectIntent(question)
	monitor.Start(question, intent)

	// 1. Embed the question
	vector, err := e.embedder.EmbedText(ctx, question)
	if err != nil {
		e.logger.Error("error generating embedding for question", "question", question, "err", err)
		return nil, core.NewProviderError("embed", err)
	}
	if manifest.Dimension > 0 && len(vector) != manifest.Dimension {
		return nil, core.NewProviderError("embed",
			fmt.Errorf("%w: got %d, index has %d", ErrDimensionMismatch, len(vector), manifest.Dimension))
	}

	// 2. Retrieve nearest documents
	matches, err := e.repo.FindSimilar(ctx, core.NormalizeVector(vector), e.minScore, e.topK)
	if err != nil {
		e.logger.Error("error querying for similar documents", "err", err)
		return nil, err
	}
	monitor.AfterRetrieval(matches)

	// 3. Re-rank within the retrieved set
	scoped := e.matcher
	if intent == IntentBudget {
		scoped = scoped.forQuestion(question, matches)
	}
	evidence := make([]core.Evidence, 0, len(matches))
	for _, match := range matches {
		doc := &match.Entry.Document
		score := match.Score
		if containsAllQueryWords(doc.Text, question) {
			score += verbatimBoost
			monitor.VerbatimHit(doc)
		}
		if scoped.matches(intent, question, doc) {
			score += intentBoost
			monitor.IntentHit(doc)
		}
		evidence = append(evidence, core.Evidence{Document: doc, Score: score})
	}
	sort.SliceStable(evidence, func(i, j int) bool {
		return evidence[i].Score > evidence[j].Score
	})

	result := &core.QueryResult{
		Question: question,
		Intent:   string(intent),
		Evidence: evidence,
	}

	if len(evidence) == 0 {
		result.Summary = NoEvidenceSummary
		monitor.Finish(result)
		return result, nil
	}

	// 4. Generate the answer
	user, err := renderQuestion(question, intent, evidence)
	if err != nil {
		return nil, fmt.Errorf("rendering prompt: %w", err)
	}
	monitor.BeforeGenerate(user)

	reply, err := e.generator.Generate(ctx, ai.Prompt{System: systemPrompt, User: user, JSON: true})
	if err != nil {
		e.logger.Error("error generating answer", "err", err)
		return nil, core.NewProviderError("generate", err)
	}
	monitor.AfterGenerate(reply)

	ans := parseAnswer(reply)
	result.Summary = ans.Summary
	result.Confidence = ans.Confidence
	result.Evidence = citedFirst(evidence, ans.Citations)

	e.logger.Debug("answered question", "intent", intent, "evidence", len(evidence), "citations", len(ans.Citations))
	monitor.Finish(result)

	return result, nil
}

// citedFirst moves cited evidence, in citation order, ahead of the rest.
// Citation numbers are 1-based; out-of-range numbers are ignored.
func citedFirst(evidence []core.Evidence, citations []int) []core.Evidence {
	if len(citations) == 0 {
		return evidence
	}
	taken := make([]bool, len(evidence))
	ordered := make([]core.Evidence, 0, len(evidence))
	for _, n := range citations {
		i := n - 1
		if i < 0 || i >= len(evidence) || taken[i] {
			continue
		}
		taken[i] = true
		ordered = append(ordered, evidence[i])
	}
	for i, ev := range evidence {
		if !taken[i] {
			ordered = append(ordered, ev)
		}
	}
	return ordered
}
