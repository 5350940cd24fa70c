package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"voicebank/internal/llm"
	"voicebank/internal/observability"
)

type Speaker interface {
	Speak(ctx context.Context, text string) ([]byte, error)
}

type murfRequest struct {
	VoiceID    string `json:"voiceId"`
	Text       string `json:"text"`
	Format     string `json:"format"`
	SampleRate int    `json:"sampleRate"`
	Speed      int    `json:"speed"`
}

// MurfSpeaker renders text to MP3 with the Murf speech API.
type MurfSpeaker struct {
	url        string
	apiKey     string
	voice      string
	httpClient *http.Client
}

func NewMurfSpeaker(url, apiKey, voice string, timeout time.Duration) *MurfSpeaker {
	return &MurfSpeaker{
		url:        url,
		apiKey:     apiKey,
		voice:      voice,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Speak returns MP3 bytes.
func (m *MurfSpeaker) Speak(ctx context.Context, text string) (audio []byte, err error) {
	start := time.Now()
	defer func() { observability.RecordProviderCall("tts", start, err) }()

	payload, err := json.Marshal(murfRequest{
		VoiceID:    m.voice,
		Text:       text,
		Format:     "mp3",
		SampleRate: 24000,
		Speed:      0,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: marshal murf request: %w", llm.ErrProvider, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: create murf request: %w", llm.ErrProvider, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", m.apiKey)

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: murf: %w", llm.ErrProvider, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read murf response: %w", llm.ErrProvider, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: murf returned %d: %s", llm.ErrProvider, resp.StatusCode, bytes.TrimSpace(body))
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("%w: murf returned no audio", llm.ErrProvider)
	}
	return body, nil
}
