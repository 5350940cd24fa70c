package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"voicebank/internal/config"
	apperrors "voicebank/internal/errors"
	"voicebank/internal/intent"
	"voicebank/internal/models"
	"voicebank/internal/observability"
	"voicebank/internal/query"
	"voicebank/internal/speech"
	"voicebank/internal/summary"
)

const (
	msgBrowserSpeech = "Using browser speech recognition with intelligent responses"
	msgDemoVoice     = "Add API keys to .env for voice output"
	msgSpeechFailed  = "TTS generation failed, returning text"
)

// Executor runs a compiled query against the transaction store.
type Executor interface {
	Execute(ctx context.Context, q models.Query) (models.QueryResult, error)
}

// Pipeline pairs the query compiler and synthesizer used for one channel.
type Pipeline struct {
	Compiler    query.Compiler
	Synthesizer summary.Synthesizer
}

// AssistantDeps wires the assistant. Speaker is nil in demo mode and when
// no text-to-speech key is configured.
type AssistantDeps struct {
	Mode        config.Mode
	Store       Executor
	Text        Pipeline
	Voice       Pipeline
	Transcriber speech.Transcriber
	Speaker     speech.Speaker
	Logger      *slog.Logger
}

// Assistant answers banking questions asked as text or speech.
type Assistant struct {
	AssistantDeps
}

func NewAssistant(deps AssistantDeps) *Assistant {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Assistant{AssistantDeps: deps}
}

// VoiceResult carries either MP3 audio or a JSON reply, never both.
type VoiceResult struct {
	Audio []byte
	Reply *models.VoiceReply
}

func (a *Assistant) ProcessText(ctx context.Context, text string) (models.TextReply, error) {
	transcript := strings.TrimSpace(text)
	if transcript == "" {
		return models.TextReply{}, a.fail(apperrors.Input("No text provided"))
	}

	rows, summaryText, err := a.answer(ctx, a.Text, query.ChannelText, transcript)
	if err != nil {
		return models.TextReply{}, err
	}

	return models.TextReply{
		Text:          summaryText,
		Transcript:    transcript,
		Results:       rows,
		BrowserSpeech: true,
		Message:       msgBrowserSpeech,
	}, nil
}

func (a *Assistant) ProcessVoice(ctx context.Context, audio []byte, filename string) (VoiceResult, error) {
	logger := observability.LoggerFrom(ctx, a.Logger)

	if len(audio) == 0 {
		return VoiceResult{}, a.fail(apperrors.Input("No audio file provided"))
	}

	spanCtx, span := observability.StartSpan(ctx, "pipeline.transcribe")
	transcript, err := a.Transcriber.Transcribe(spanCtx, audio, filename)
	span.SetError(err)
	span.End(logger)
	if err != nil {
		return VoiceResult{}, a.fail(apperrors.Transcription(err))
	}
	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		return VoiceResult{}, a.fail(apperrors.Input("Could not transcribe audio. Please speak clearly."))
	}
	logger.Info("audio transcribed", "bytes", len(audio), "transcript", transcript, "mode", a.Mode)

	rows, summaryText, err := a.answer(ctx, a.Voice, query.ChannelVoice, transcript)
	if err != nil {
		return VoiceResult{}, err
	}

	if a.Speaker == nil {
		return VoiceResult{Reply: &models.VoiceReply{
			Text:       summaryText,
			Transcript: transcript,
			Results:    rows,
			Demo:       true,
			Message:    msgDemoVoice,
		}}, nil
	}

	spanCtx, span = observability.StartSpan(ctx, "pipeline.speak")
	mp3, err := a.Speaker.Speak(spanCtx, summaryText)
	span.SetError(err)
	span.End(logger)
	if err != nil {
		logger.Warn("speech synthesis failed, returning text", "error", err)
		observability.RecordPipelineError("SPEECH_FALLBACK")
		return VoiceResult{Reply: &models.VoiceReply{
			Text:       summaryText,
			Transcript: transcript,
			Results:    rows,
			Error:      msgSpeechFailed,
			Details:    err.Error(),
		}}, nil
	}

	return VoiceResult{Audio: mp3}, nil
}

// answer runs classify, compile, execute and synthesize for one question.
func (a *Assistant) answer(ctx context.Context, p Pipeline, ch query.Channel, transcript string) (models.QueryResult, string, error) {
	logger := observability.LoggerFrom(ctx, a.Logger)

	in := intent.Classify(transcript)
	observability.RecordQuery(string(in.Kind), string(ch))
	logger.Info("intent classified", "intent", in.String(), "channel", ch)

	spanCtx, span := observability.StartSpan(ctx, "pipeline.compile")
	q, err := p.Compiler.Compile(spanCtx, query.Request{Intent: in, Text: transcript, Channel: ch})
	span.SetError(err)
	span.End(logger)
	if err != nil {
		return nil, "", a.fail(apperrors.Compilation(err, q.SQL))
	}
	logger.Info("query compiled", "sql", q.SQL)

	spanCtx, span = observability.StartSpan(ctx, "pipeline.execute")
	rows, err := a.Store.Execute(spanCtx, q)
	span.SetError(err)
	span.End(logger)
	if err != nil {
		return nil, "", a.fail(apperrors.Execution(err, q.SQL))
	}
	logger.Info("query executed", "rows", len(rows))

	spanCtx, span = observability.StartSpan(ctx, "pipeline.synthesize")
	text, err := p.Synthesizer.Synthesize(spanCtx, in, rows, transcript)
	span.SetError(err)
	span.End(logger)
	if err != nil {
		return nil, "", a.fail(apperrors.Synthesis(err))
	}
	logger.Info("summary generated", "summary", text)

	return rows, text, nil
}

func (a *Assistant) fail(err *apperrors.AppError) error {
	observability.RecordPipelineError(string(err.Code))
	return err
}

// IsInputError reports whether err was caused by missing user input.
func IsInputError(err error) bool {
	var appErr *apperrors.AppError
	return errors.As(err, &appErr) && appErr.Code == apperrors.CodeInput
}
