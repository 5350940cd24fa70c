package handlers

import (
	"encoding/json"
	stderrors "errors"
	"html"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/microcosm-cc/bluemonday"

	"voicebank/internal/errors"
	"voicebank/internal/observability"
	"voicebank/internal/services"
)

const maxTextBody = 64 << 10

type AssistantHandlers struct {
	assistant     *services.Assistant
	policy        *bluemonday.Policy
	maxAudioBytes int64
	logger        *slog.Logger
}

func NewAssistantHandlers(assistant *services.Assistant, maxAudioBytes int64, logger *slog.Logger) *AssistantHandlers {
	return &AssistantHandlers{
		assistant:     assistant,
		policy:        bluemonday.StrictPolicy(),
		maxAudioBytes: maxAudioBytes,
		logger:        logger,
	}
}

type textRequest struct {
	Text string `json:"text"`
}

func (h *AssistantHandlers) HandleProcessText(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxTextBody)).Decode(&req); err != nil && err != io.EOF {
		h.fail(w, r, errors.BadRequestWrap(err, "Request body must be JSON with a text field"))
		return
	}

	// Strip markup but keep the text plain: the policy entity-escapes quotes.
	text := html.UnescapeString(h.policy.Sanitize(req.Text))

	reply, err := h.assistant.ProcessText(r.Context(), text)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	errors.WriteJSON(w, http.StatusOK, reply)
}

// HandleProcessVoice accepts a multipart upload in the "audio" field and
// answers with MP3 bytes, or with a JSON reply when no audio is produced.
func (h *AssistantHandlers) HandleProcessVoice(w http.ResponseWriter, r *http.Request) {
	audio, filename, err := h.readAudio(w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	result, err := h.assistant.ProcessVoice(r.Context(), audio, filename)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if result.Reply != nil {
		errors.WriteJSON(w, http.StatusOK, result.Reply)
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Content-Length", strconv.Itoa(len(result.Audio)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(result.Audio); err != nil {
		observability.LoggerFrom(r.Context(), h.logger).Warn("failed to write audio response", "error", err)
	}
}

// readAudio returns nil audio without error when the field is missing so
// the pipeline reports it as an input error.
func (h *AssistantHandlers) readAudio(w http.ResponseWriter, r *http.Request) ([]byte, string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxAudioBytes)

	file, header, err := r.FormFile("audio")
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case stderrors.As(err, &tooLarge):
			return nil, "", errors.Input("Audio file too large")
		case stderrors.Is(err, http.ErrMissingFile), stderrors.Is(err, http.ErrNotMultipart):
			return nil, "", nil
		default:
			return nil, "", errors.BadRequestWrap(err, "Invalid audio upload")
		}
	}
	defer file.Close()

	audio, err := io.ReadAll(file)
	if err != nil {
		return nil, "", errors.BadRequestWrap(err, "Failed to read audio upload")
	}
	return audio, header.Filename, nil
}

func (h *AssistantHandlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	errors.WriteError(w, observability.LoggerFrom(r.Context(), h.logger), err, observability.GetRequestID(r.Context()))
}
