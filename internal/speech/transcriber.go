// Package speech holds the speech-to-text and text-to-speech providers.
package speech

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"voicebank/internal/llm"
	"voicebank/internal/observability"
)

type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, filename string) (string, error)
}

// WhisperTranscriber transcribes through an OpenAI-compatible audio API.
type WhisperTranscriber struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

func NewWhisperTranscriber(apiKey, baseURL, model string, timeout time.Duration) *WhisperTranscriber {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimSuffix(baseURL, "/")
	}
	if model == "" {
		model = openai.Whisper1
	}
	return &WhisperTranscriber{
		client:  openai.NewClientWithConfig(cfg),
		model:   model,
		timeout: timeout,
	}
}

// Transcribe returns the trimmed transcript, which may be empty when the
// provider heard nothing.
func (w *WhisperTranscriber) Transcribe(ctx context.Context, audio []byte, filename string) (text string, err error) {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	start := time.Now()
	defer func() { observability.RecordProviderCall("stt", start, err) }()

	if filename == "" {
		filename = "audio.webm"
	}

	resp, err := w.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    w.model,
		FilePath: filename,
		Reader:   bytes.NewReader(audio),
	})
	if err != nil {
		return "", fmt.Errorf("%w: transcription: %w", llm.ErrProvider, err)
	}
	return strings.TrimSpace(resp.Text), nil
}

// DemoUtterances are played back in order by DemoTranscriber.
var DemoUtterances = []string{
	"What are my top expenses?",
	"Show me all my transactions",
	"How much did I spend on food?",
	"What are my recent payments?",
	"Show transactions above 1000 rupees",
	"List my shopping expenses",
	"Show me spending by category",
	"What did I spend the most on?",
}

const demoRotation = 10 * time.Second

// DemoTranscriber ignores the audio and returns a canned question that
// changes every ten seconds of wall-clock time.
type DemoTranscriber struct {
	now func() time.Time
}

func NewDemoTranscriber(now func() time.Time) *DemoTranscriber {
	if now == nil {
		now = time.Now
	}
	return &DemoTranscriber{now: now}
}

func (d *DemoTranscriber) Transcribe(context.Context, []byte, string) (string, error) {
	slot := d.now().UnixMilli() / demoRotation.Milliseconds()
	return DemoUtterances[slot%int64(len(DemoUtterances))], nil
}
