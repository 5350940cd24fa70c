package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"voicebank/internal/config"
	"voicebank/internal/llm"
	"voicebank/internal/query"
	"voicebank/internal/services"
	"voicebank/internal/speech"
	"voicebank/internal/summary"
)

type speakerFunc func(ctx context.Context, text string) ([]byte, error)

func (f speakerFunc) Speak(ctx context.Context, text string) ([]byte, error) {
	return f(ctx, text)
}

func rulesPipeline() services.Pipeline {
	return services.Pipeline{
		Compiler:    query.NewRuleCompiler(),
		Synthesizer: summary.NewTemplateSynthesizer(fixedNow),
	}
}

func newDemoHandlers(t *testing.T) *AssistantHandlers {
	t.Helper()
	// Slot 2 of the demo rotation asks about food.
	demoClock := func() time.Time { return time.Unix(25, 0) }
	a := services.NewAssistant(services.AssistantDeps{
		Mode:        config.ModeDemo,
		Store:       newTestStore(t),
		Text:        rulesPipeline(),
		Voice:       rulesPipeline(),
		Transcriber: speech.NewDemoTranscriber(demoClock),
		Logger:      discardLogger(),
	})
	return NewAssistantHandlers(a, 1<<20, discardLogger())
}

func multipartAudio(t *testing.T, field string, audio []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile(field, "recording.webm")
	if err != nil {
		t.Fatal(err)
	}
	part.Write(audio)
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/process-voice", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestAssistantHandlers_HandleProcessText(t *testing.T) {
	h := newDemoHandlers(t)

	body := strings.NewReader(`{"text": "<b>How much did I spend on food?</b><script>alert(1)</script>"}`)
	w := httptest.NewRecorder()
	h.HandleProcessText(w, httptest.NewRequest(http.MethodPost, "/api/process-text", body))

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}

	var reply struct {
		Text          string           `json:"text"`
		Transcript    string           `json:"transcript"`
		Results       []map[string]any `json:"results"`
		BrowserSpeech bool             `json:"browserSpeech"`
	}
	if err := json.NewDecoder(w.Body).Decode(&reply); err != nil {
		t.Fatal(err)
	}
	if reply.Transcript != "How much did I spend on food?" {
		t.Errorf("markup should be stripped, transcript = %q", reply.Transcript)
	}
	if !reply.BrowserSpeech || len(reply.Results) != 1 || !strings.Contains(reply.Text, "450 rupees on food") {
		t.Errorf("unexpected reply %+v", reply)
	}
}

func TestAssistantHandlers_HandleProcessText_KeepsApostrophes(t *testing.T) {
	h := newDemoHandlers(t)

	w := httptest.NewRecorder()
	h.HandleProcessText(w, httptest.NewRequest(http.MethodPost, "/api/process-text", strings.NewReader(`{"text": "What's my total spending?"}`)))

	var reply struct {
		Transcript string `json:"transcript"`
	}
	if err := json.NewDecoder(w.Body).Decode(&reply); err != nil {
		t.Fatal(err)
	}
	if reply.Transcript != "What's my total spending?" {
		t.Errorf("transcript = %q", reply.Transcript)
	}
}

func TestAssistantHandlers_HandleProcessText_Errors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"empty body", "", http.StatusBadRequest, "INPUT_ERROR"},
		{"blank text", `{"text": "   "}`, http.StatusBadRequest, "INPUT_ERROR"},
		{"markup only", `{"text": "<img src=x>"}`, http.StatusBadRequest, "INPUT_ERROR"},
		{"not json", `text=hello`, http.StatusBadRequest, "BAD_REQUEST"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newDemoHandlers(t)
			w := httptest.NewRecorder()
			h.HandleProcessText(w, httptest.NewRequest(http.MethodPost, "/api/process-text", strings.NewReader(tt.body)))

			if w.Code != tt.status {
				t.Fatalf("expected status %d, got %d", tt.status, w.Code)
			}
			env := decodeEnvelope(t, w)
			if env.Success || env.Error == nil || env.Error.Code != tt.code {
				t.Errorf("unexpected envelope %+v", env)
			}
		})
	}
}

func TestAssistantHandlers_HandleProcessVoice_Demo(t *testing.T) {
	h := newDemoHandlers(t)

	w := httptest.NewRecorder()
	h.HandleProcessVoice(w, multipartAudio(t, "audio", []byte("webm-bytes")))

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}
	var reply map[string]any
	if err := json.NewDecoder(w.Body).Decode(&reply); err != nil {
		t.Fatal(err)
	}
	if reply["demo"] != true || reply["transcript"] != "How much did I spend on food?" {
		t.Errorf("unexpected demo reply %v", reply)
	}
}

func TestAssistantHandlers_HandleProcessVoice_MissingAudio(t *testing.T) {
	tests := []struct {
		name string
		req  func(t *testing.T) *http.Request
	}{
		{"wrong field", func(t *testing.T) *http.Request { return multipartAudio(t, "file", []byte("x")) }},
		{"not multipart", func(t *testing.T) *http.Request {
			return httptest.NewRequest(http.MethodPost, "/api/process-voice", strings.NewReader("x"))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newDemoHandlers(t)
			w := httptest.NewRecorder()
			h.HandleProcessVoice(w, tt.req(t))

			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected status %d, got %d", http.StatusBadRequest, w.Code)
			}
			env := decodeEnvelope(t, w)
			if env.Error == nil || env.Error.Message != "No audio file provided" {
				t.Errorf("unexpected envelope %+v", env)
			}
		})
	}
}

func TestAssistantHandlers_HandleProcessVoice_Audio(t *testing.T) {
	gen := llm.GeneratorFunc(func(context.Context, string) (string, error) {
		return "```sql\nSELECT * FROM transactions WHERE category = 'Food'\n```", nil
	})
	a := services.NewAssistant(services.AssistantDeps{
		Mode:  config.ModeProduction,
		Store: newTestStore(t),
		Text:  rulesPipeline(),
		Voice: services.Pipeline{
			Compiler:    query.NewModelCompiler(gen),
			Synthesizer: summary.NewTemplateSynthesizer(fixedNow),
		},
		Transcriber: speech.NewDemoTranscriber(func() time.Time { return time.Unix(25, 0) }),
		Speaker: speakerFunc(func(context.Context, string) ([]byte, error) {
			return []byte("ID3-mp3"), nil
		}),
		Logger: discardLogger(),
	})
	h := NewAssistantHandlers(a, 1<<20, discardLogger())

	w := httptest.NewRecorder()
	h.HandleProcessVoice(w, multipartAudio(t, "audio", []byte("webm-bytes")))

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "audio/mpeg" {
		t.Errorf("expected content-type 'audio/mpeg', got %q", ct)
	}
	if cl := w.Header().Get("Content-Length"); cl != "7" {
		t.Errorf("expected content-length 7, got %q", cl)
	}
	if w.Body.String() != "ID3-mp3" {
		t.Errorf("body = %q", w.Body.String())
	}
}
