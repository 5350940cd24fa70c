package services

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"voicebank/internal/config"
	apperrors "voicebank/internal/errors"
	"voicebank/internal/llm"
	"voicebank/internal/models"
	"voicebank/internal/query"
	"voicebank/internal/speech"
	"voicebank/internal/summary"
)

type transcriberFunc func(ctx context.Context, audio []byte, filename string) (string, error)

func (f transcriberFunc) Transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	return f(ctx, audio, filename)
}

type speakerFunc func(ctx context.Context, text string) ([]byte, error)

func (f speakerFunc) Speak(ctx context.Context, text string) ([]byte, error) {
	return f(ctx, text)
}

type failingExecutor struct{}

func (failingExecutor) Execute(context.Context, models.Query) (models.QueryResult, error) {
	return nil, errors.New("disk I/O error")
}

func rulesPipeline() Pipeline {
	return Pipeline{
		Compiler:    query.NewRuleCompiler(),
		Synthesizer: summary.NewTemplateSynthesizer(fixedNow),
	}
}

func newDemoAssistant(t *testing.T, exec Executor) *Assistant {
	t.Helper()
	if exec == nil {
		exec = newSeededStore(t)
	}
	// Slot 2 of the demo rotation is the food question.
	demoClock := func() time.Time { return time.Unix(25, 0) }
	return NewAssistant(AssistantDeps{
		Mode:        config.ModeDemo,
		Store:       exec,
		Text:        rulesPipeline(),
		Voice:       rulesPipeline(),
		Transcriber: speech.NewDemoTranscriber(demoClock),
		Logger:      discardLogger(),
	})
}

func appErr(t *testing.T, err error) *apperrors.AppError {
	t.Helper()
	var e *apperrors.AppError
	if !errors.As(err, &e) {
		t.Fatalf("error %v is not an AppError", err)
	}
	return e
}

const foodAnswer = "So you've spent 450 rupees on food across 1 orders or meals this month. " +
	"That works out to about 450 rupees per meal. " +
	"Your last food expense was 450 rupees at Swiggy. " +
	"You're spending around 90 rupees a day on food. " +
	"Wow, you're crushing it with your food budget! Way to go!"

func TestProcessText(t *testing.T) {
	a := newDemoAssistant(t, nil)

	got, err := a.ProcessText(context.Background(), "  How much did I spend on food?  ")
	if err != nil {
		t.Fatalf("ProcessText() error = %v", err)
	}
	if got.Text != foodAnswer {
		t.Errorf("Text = %q", got.Text)
	}
	if got.Transcript != "How much did I spend on food?" {
		t.Errorf("Transcript = %q", got.Transcript)
	}
	if !got.BrowserSpeech {
		t.Error("BrowserSpeech = false")
	}
	if len(got.Results) != 1 || got.Results[0].String("beneficiary") != "Swiggy" {
		t.Errorf("Results = %+v", got.Results)
	}
}

func TestProcessText_Total(t *testing.T) {
	a := newDemoAssistant(t, nil)

	got, err := a.ProcessText(context.Background(), "What is my total spending?")
	if err != nil {
		t.Fatalf("ProcessText() error = %v", err)
	}
	if len(got.Results) != 1 || got.Results[0].Int("total") != 7729 || got.Results[0].Int("count") != 5 {
		t.Errorf("Results = %+v", got.Results)
	}
}

func TestProcessText_ThresholdZero(t *testing.T) {
	a := newDemoAssistant(t, nil)

	got, err := a.ProcessText(context.Background(), "show transactions above 0 rupees")
	if err != nil {
		t.Fatalf("ProcessText() error = %v", err)
	}
	if len(got.Results) != 5 {
		t.Errorf("len(Results) = %d, want every seeded row", len(got.Results))
	}
	if !strings.Contains(got.Text, "5 transactions over 0 rupees") {
		t.Errorf("Text = %q", got.Text)
	}
}

func TestProcessText_Empty(t *testing.T) {
	a := newDemoAssistant(t, nil)

	_, err := a.ProcessText(context.Background(), "   ")
	if !IsInputError(err) {
		t.Fatalf("ProcessText() error = %v, want input error", err)
	}
	if e := appErr(t, err); e.Message != "No text provided" || e.StatusCode != http.StatusBadRequest {
		t.Errorf("got %+v", e)
	}
}

func TestProcessText_ExecutionFailure(t *testing.T) {
	a := newDemoAssistant(t, failingExecutor{})

	_, err := a.ProcessText(context.Background(), "show recent payments")
	e := appErr(t, err)
	if e.Code != apperrors.CodeExecution {
		t.Errorf("Code = %s, want %s", e.Code, apperrors.CodeExecution)
	}
	if e.Query == "" || e.Details != "disk I/O error" {
		t.Errorf("execution error should carry query and cause, got %+v", e)
	}
}

func TestProcessVoice_Demo(t *testing.T) {
	a := newDemoAssistant(t, nil)

	got, err := a.ProcessVoice(context.Background(), []byte("webm"), "clip.webm")
	if err != nil {
		t.Fatalf("ProcessVoice() error = %v", err)
	}
	if got.Audio != nil || got.Reply == nil {
		t.Fatalf("demo mode should reply with JSON, got %+v", got)
	}
	if !got.Reply.Demo || got.Reply.Transcript != "How much did I spend on food?" || got.Reply.Text != foodAnswer {
		t.Errorf("Reply = %+v", got.Reply)
	}
}

func TestProcessVoice_InputErrors(t *testing.T) {
	tests := []struct {
		name    string
		audio   []byte
		stt     transcriberFunc
		code    apperrors.ErrorCode
		message string
	}{
		{
			name:    "no audio",
			audio:   nil,
			code:    apperrors.CodeInput,
			message: "No audio file provided",
		},
		{
			name:    "blank transcript",
			audio:   []byte("x"),
			stt:     func(context.Context, []byte, string) (string, error) { return "  ", nil },
			code:    apperrors.CodeInput,
			message: "Could not transcribe audio. Please speak clearly.",
		},
		{
			name:    "provider failure",
			audio:   []byte("x"),
			stt:     func(context.Context, []byte, string) (string, error) { return "", llm.ErrProvider },
			code:    apperrors.CodeTranscription,
			message: "Speech recognition failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newDemoAssistant(t, nil)
			if tt.stt != nil {
				a.Transcriber = tt.stt
			}

			_, err := a.ProcessVoice(context.Background(), tt.audio, "")
			e := appErr(t, err)
			if e.Code != tt.code || e.Message != tt.message {
				t.Errorf("got %s %q, want %s %q", e.Code, e.Message, tt.code, tt.message)
			}
		})
	}
}

func newProductionAssistant(t *testing.T, reply string, speaker speech.Speaker) *Assistant {
	t.Helper()
	gen := llm.GeneratorFunc(func(_ context.Context, prompt string) (string, error) {
		return reply, nil
	})
	return NewAssistant(AssistantDeps{
		Mode:  config.ModeProduction,
		Store: newSeededStore(t),
		Text:  rulesPipeline(),
		Voice: Pipeline{
			Compiler:    query.NewModelCompiler(gen),
			Synthesizer: summary.NewTemplateSynthesizer(fixedNow),
		},
		Transcriber: transcriberFunc(func(context.Context, []byte, string) (string, error) {
			return "show my big payments", nil
		}),
		Speaker: speaker,
		Logger:  discardLogger(),
	})
}

func TestProcessVoice_RejectsMutatingQuery(t *testing.T) {
	a := newProductionAssistant(t, "DELETE FROM transactions", speakerFunc(func(context.Context, string) ([]byte, error) {
		t.Fatal("speaker must not be called")
		return nil, nil
	}))

	_, err := a.ProcessVoice(context.Background(), []byte("x"), "")
	e := appErr(t, err)
	if e.Code != apperrors.CodeCompilation || e.Query != "DELETE FROM transactions" {
		t.Errorf("got %+v", e)
	}

	count, err := a.Store.(interface {
		Count(context.Context) (int64, error)
	}).Count(context.Background())
	if err != nil || count != 5 {
		t.Errorf("store changed: count = %d, err = %v", count, err)
	}
}

func TestProcessVoice_Audio(t *testing.T) {
	var spoken string
	a := newProductionAssistant(t, "SELECT * FROM transactions WHERE amount > 3000", speakerFunc(func(_ context.Context, text string) ([]byte, error) {
		spoken = text
		return []byte("ID3"), nil
	}))

	got, err := a.ProcessVoice(context.Background(), []byte("x"), "")
	if err != nil {
		t.Fatalf("ProcessVoice() error = %v", err)
	}
	if string(got.Audio) != "ID3" || got.Reply != nil {
		t.Errorf("got %+v", got)
	}
	if spoken == "" {
		t.Error("speaker received no text")
	}
}

func TestProcessVoice_SpeechFailureDegrades(t *testing.T) {
	a := newProductionAssistant(t, "SELECT * FROM transactions", speakerFunc(func(context.Context, string) ([]byte, error) {
		return nil, errors.New("murf returned 402")
	}))

	got, err := a.ProcessVoice(context.Background(), []byte("x"), "")
	if err != nil {
		t.Fatalf("ProcessVoice() error = %v", err)
	}
	if got.Reply == nil || got.Audio != nil {
		t.Fatalf("expected text fallback, got %+v", got)
	}
	if got.Reply.Error == "" || got.Reply.Details != "murf returned 402" || got.Reply.Text == "" {
		t.Errorf("Reply = %+v", got.Reply)
	}
	if len(got.Reply.Results) != 5 {
		t.Errorf("Results has %d rows, want 5", len(got.Reply.Results))
	}
}
