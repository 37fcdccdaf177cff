package mock

import (
	"context"
	"sync"

	"github.com/poiesic/finrag/ai"
)

// DefaultReply is returned by MockGenerator when no GenerateFunc is set.
const DefaultReply = `{"summary":"mock answer","confidence":0.5,"citations":[]}`

// MockGenerator is a test double for ai.Generator.
// It allows custom behavior injection via function fields.
type MockGenerator struct {
	// GenerateFunc is called by Generate if set.
	// If nil, DefaultReply is returned.
	GenerateFunc func(ctx context.Context, prompt ai.Prompt) (string, error)

	mu         sync.Mutex
	callCount  int
	lastPrompt ai.Prompt
}

var _ ai.Generator = (*MockGenerator)(nil)

// NewMockGenerator creates a mock generator with default behavior.
// Note: Returns concrete type to allow test assertions via GetMockGenerator().
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{}
}

// Generate records the prompt and returns the configured reply.
func (m *MockGenerator) Generate(ctx context.Context, prompt ai.Prompt) (string, error) {
	m.mu.Lock()
	m.callCount++
	m.lastPrompt = prompt
	fn := m.GenerateFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, prompt)
	}
	return DefaultReply, nil
}

// CallCount returns the number of times Generate was called.
func (m *MockGenerator) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// LastPrompt returns the most recent prompt passed to Generate.
func (m *MockGenerator) LastPrompt() ai.Prompt {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastPrompt
}

// Reset clears the call count, recorded prompt and custom function.
func (m *MockGenerator) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.lastPrompt = ai.Prompt{}
	m.GenerateFunc = nil
}
