package summary

import (
	"context"
	"encoding/json"
	"fmt"

	"voicebank/internal/intent"
	"voicebank/internal/llm"
	"voicebank/internal/models"
)

const summaryPrompt = `You are a friendly voice banking assistant.

User asked: %q

Database results: %s

Summarize this in ONE short, natural sentence for a voice assistant. Be conversational and helpful. If no results, say so politely.

Response:`

// ModelSynthesizer asks a language model for a one-sentence answer.
type ModelSynthesizer struct {
	gen llm.Generator
}

func NewModelSynthesizer(gen llm.Generator) *ModelSynthesizer {
	return &ModelSynthesizer{gen: gen}
}

func (s *ModelSynthesizer) Synthesize(ctx context.Context, _ intent.Intent, rows models.QueryResult, text string) (string, error) {
	if len(rows) == 0 {
		return NoResults, nil
	}

	data, err := json.Marshal(rows)
	if err != nil {
		return "", fmt.Errorf("encode results: %w", err)
	}

	reply, err := s.gen.Generate(ctx, fmt.Sprintf(summaryPrompt, text, data))
	if err != nil {
		return "", fmt.Errorf("generate summary: %w", err)
	}
	return reply, nil
}
