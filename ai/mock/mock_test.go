package mock

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/poiesic/finrag/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeterministicVector(t *testing.T) {
	a := DeterministicVector("invoice AR1 overdue", Dimension)
	b := DeterministicVector("invoice AR1 overdue", Dimension)
	c := DeterministicVector("payment P100", Dimension)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, Dimension)

	var sumSquares float64
	for _, v := range a {
		sumSquares += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sumSquares), 1e-4)
}

func TestMockEmbedder(t *testing.T) {
	ctx := context.Background()
	m := NewMockEmbedder()

	vectors, err := m.EmbedTexts(ctx, []string{"a", "b"})
	require.NoError(t, err)
	assert.Len(t, vectors, 2)

	single, err := m.EmbedText(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, vectors[0], single)
	assert.Equal(t, 2, m.CallCount())

	boom := errors.New("embedding service down")
	m.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, boom
	}
	_, err = m.EmbedTexts(ctx, []string{"a"})
	assert.ErrorIs(t, err, boom)

	m.Reset()
	assert.Zero(t, m.CallCount())
	assert.Nil(t, m.EmbedTextsFunc)
}

func TestMockGenerator(t *testing.T) {
	ctx := context.Background()
	m := NewMockGenerator()

	out, err := m.Generate(ctx, ai.Prompt{User: "which invoices are overdue?", JSON: true})
	require.NoError(t, err)
	assert.Equal(t, DefaultReply, out)
	assert.Equal(t, "which invoices are overdue?", m.LastPrompt().User)

	m.GenerateFunc = func(ctx context.Context, prompt ai.Prompt) (string, error) {
		return "custom", nil
	}
	out, err = m.Generate(ctx, ai.Prompt{User: "q"})
	require.NoError(t, err)
	assert.Equal(t, "custom", out)
	assert.Equal(t, 2, m.CallCount())

	m.Reset()
	assert.Zero(t, m.CallCount())
	assert.Empty(t, m.LastPrompt().User)
}

func TestMockProvider(t *testing.T) {
	provider := NewMockProvider()
	mp := provider.(*MockProvider)

	assert.Same(t, mp.GetMockEmbedder(), provider.Embedder())
	assert.Same(t, mp.GetMockGenerator(), provider.Generator())
	assert.NoError(t, provider.Close())

	embedder := NewMockEmbedder()
	generator := NewMockGenerator()
	custom := NewMockProviderWithServices(embedder, generator).(*MockProvider)
	assert.Same(t, embedder, custom.GetMockEmbedder())
	assert.Same(t, generator, custom.GetMockGenerator())
}
