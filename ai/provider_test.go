package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubEmbedder struct{}

func (stubEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	return []float32{1}, nil
}

func (stubEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, nil
}

type stubGenerator struct{}

func (stubGenerator) Generate(ctx context.Context, prompt Prompt) (string, error) {
	return prompt.User, nil
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func TestComposeProvider(t *testing.T) {
	var closed []string
	first := closerFunc(func() error { closed = append(closed, "first"); return nil })
	second := closerFunc(func() error { closed = append(closed, "second"); return errors.New("boom") })

	p := ComposeProvider(stubEmbedder{}, stubGenerator{}, first, second)

	assert.IsType(t, stubEmbedder{}, p.Embedder())
	out, err := p.Generator().Generate(context.Background(), Prompt{User: "hi"})
	assert.NoError(t, err)
	assert.Equal(t, "hi", out)

	err = p.Close()
	assert.EqualError(t, err, "boom")
	assert.Equal(t, []string{"first", "second"}, closed)
}

func TestComposeProvider_NoClosers(t *testing.T) {
	p := ComposeProvider(stubEmbedder{}, stubGenerator{})
	assert.NoError(t, p.Close())
}
