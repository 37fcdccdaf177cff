package ai

import (
	"errors"
	"io"
)

// composedProvider pairs an Embedder and a Generator from different backends.
type composedProvider struct {
	embedder  Embedder
	generator Generator
	closers   []io.Closer
}

// ComposeProvider builds an AIProvider from independent services.
// Closing the provider closes every closer, in order.
func ComposeProvider(embedder Embedder, generator Generator, closers ...io.Closer) AIProvider {
	return &composedProvider{
		embedder:  embedder,
		generator: generator,
		closers:   closers,
	}
}

func (p *composedProvider) Embedder() Embedder {
	return p.embedder
}

func (p *composedProvider) Generator() Generator {
	return p.generator
}

func (p *composedProvider) Close() error {
	var errs []error
	for _, c := range p.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
