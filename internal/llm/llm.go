// Package llm is the language-model boundary used to write queries and
// summaries when the service runs with real providers.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"voicebank/internal/observability"
)

// ErrProvider marks any failure of an external provider call, timeouts
// included.
var ErrProvider = errors.New("external provider call failed")

type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Gemini generates text with the Gemini API.
type Gemini struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

type GeminiOption func(*genai.ClientConfig)

// WithBaseURL points the client at a different API endpoint, such as a
// regional proxy.
func WithBaseURL(url string) GeminiOption {
	return func(c *genai.ClientConfig) { c.HTTPOptions.BaseURL = url }
}

func NewGemini(ctx context.Context, apiKey, model string, timeout time.Duration, opts ...GeminiOption) (*Gemini, error) {
	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Gemini{client: client, model: model, timeout: timeout}, nil
}

func (g *Gemini) Generate(ctx context.Context, prompt string) (text string, err error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	defer func() { observability.RecordProviderCall("gemini", start, err) }()

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("%w: gemini: %w", ErrProvider, err)
	}

	text = strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("%w: gemini returned an empty response", ErrProvider)
	}
	return text, nil
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}
