// Package anthropic provides a Summarizer backed by the Anthropic Messages
// API.
package anthropic

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/hallorn/engram/core"
	"github.com/hallorn/engram/summarize"
)

// Options configures the Anthropic summarizer adapter.
type Options struct {
	Model     anthropic.Model
	MaxTokens int64
	APIKey    string
}

// Summarizer wraps the Anthropic Messages API behind summarize.Summarizer.
type Summarizer struct {
	client *anthropic.Client
	opts   Options
}

var _ summarize.Summarizer = (*Summarizer)(nil)

// New creates a summarizer using the official client.
func New(optFns ...func(o *Options)) *Summarizer {
	opts := Options{
		Model:     anthropic.ModelClaude3_5Haiku20241022,
		MaxTokens: 1024,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	client := anthropic.NewClient(clientOpts...)

	return &Summarizer{client: &client, opts: opts}
}

// NewFromClient creates a summarizer from an existing client.
func NewFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Summarizer {
	opts := Options{
		Model:     anthropic.ModelClaude3_5Haiku20241022,
		MaxTokens: 1024,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Summarizer{client: client, opts: opts}
}

// Summarize issues a single non-streaming message call and returns the
// concatenated text blocks as the digest. API failures come back wrapped in
// core.TransportError so the engine retries instead of aborting.
func (s *Summarizer) Summarize(ctx context.Context, req summarize.Request) (summarize.Digest, error) {
	resp, err := s.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     s.opts.Model,
		MaxTokens: s.opts.MaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(summarize.Prompt(req))),
		},
	})
	if err != nil {
		return summarize.Digest{}, &core.TransportError{Err: fmt.Errorf("anthropic api: %w", err)}
	}

	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.AsText().Text
		}
	}
	if text == "" {
		return summarize.Digest{}, &core.TransportError{Err: fmt.Errorf("anthropic api: empty completion")}
	}

	return summarize.Digest{RequestID: req.ID, Text: text}, nil
}
