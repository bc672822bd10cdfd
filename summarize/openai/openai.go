// Package openai provides a Summarizer backed by the OpenAI Chat Completions
// API.
package openai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"

	"github.com/hallorn/engram/core"
	"github.com/hallorn/engram/summarize"
)

// Options configures the OpenAI summarizer adapter.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
}

// Summarizer wraps the OpenAI Chat Completions API behind
// summarize.Summarizer.
type Summarizer struct {
	client *openai.Client
	opts   Options
}

var _ summarize.Summarizer = (*Summarizer)(nil)

// New creates a summarizer using the official client.
func New(optFns ...func(o *Options)) *Summarizer {
	client := openai.NewClient()
	return NewFromClient(&client, optFns...)
}

// NewFromClient creates a summarizer from an existing client.
func NewFromClient(client *openai.Client, optFns ...func(o *Options)) *Summarizer {
	opts := Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.3,
		MaxCompletionTokens: 1024,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Summarizer{client: client, opts: opts}
}

// Summarize issues a single non-streaming completion and returns the first
// choice as the digest. API failures come back wrapped in core.TransportError
// so the engine retries instead of aborting.
func (s *Summarizer) Summarize(ctx context.Context, req summarize.Request) (summarize.Digest, error) {
	resp, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: s.opts.Model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(summarize.Prompt(req)),
		},
		Temperature:         openai.Float(s.opts.Temperature),
		MaxCompletionTokens: openai.Int(s.opts.MaxCompletionTokens),
	})
	if err != nil {
		return summarize.Digest{}, &core.TransportError{Err: fmt.Errorf("openai api: %w", err)}
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return summarize.Digest{}, &core.TransportError{Err: fmt.Errorf("openai api: empty completion")}
	}

	return summarize.Digest{RequestID: req.ID, Text: resp.Choices[0].Message.Content}, nil
}
