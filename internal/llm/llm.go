package llm

import (
	"context"
	"errors"
)

// Client abstracts the multimodal model that describes a figurine photo.
type Client interface {
	// DescribeFigurine sends one request and returns the raw text answer.
	DescribeFigurine(ctx context.Context, req Request) (string, error)
}

// Request captures the inputs of one description call.
type Request struct {
	APIKey        string
	Model         string
	Image         []byte
	MIMEType      string
	PromptVersion string
}

var (
	ErrUnavailable   = errors.New("llm service unavailable")
	ErrTimeout       = errors.New("llm request timed out")
	ErrUnauthorized  = errors.New("llm rejected the API key")
	ErrBlocked       = errors.New("llm blocked the request")
	ErrEmptyResponse = errors.New("llm returned an empty response")
)

// ErrNotImplemented is returned by the placeholder client.
var ErrNotImplemented = errors.New("LLM not implemented")

// PlaceholderClient stands in where no provider is wired, e.g. preflight of
// templates or tests that never reach the model.
type PlaceholderClient struct{}

// DescribeFigurine returns ErrNotImplemented.
func (PlaceholderClient) DescribeFigurine(ctx context.Context, req Request) (string, error) {
	_ = ctx
	_ = req
	return "", ErrNotImplemented
}

// ClientFunc adapts a function to Client.
type ClientFunc func(ctx context.Context, req Request) (string, error)

// DescribeFigurine calls f.
func (f ClientFunc) DescribeFigurine(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}
