package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/hlog"

	"github.com/snarg/whisper-serve/internal/audio"
	"github.com/snarg/whisper-serve/internal/config"
	"github.com/snarg/whisper-serve/internal/engine"
	"github.com/snarg/whisper-serve/internal/metrics"
	"github.com/snarg/whisper-serve/internal/multipart"
)

// TranscriptionsHandler implements POST /v1/audio/transcriptions.
type TranscriptionsHandler struct {
	gateway *engine.Gateway
	decoder audio.Decoder
	opts    config.ModelOptions
	maxBody int64
}

func NewTranscriptionsHandler(gateway *engine.Gateway, decoder audio.Decoder, opts config.ModelOptions, maxBody int64) *TranscriptionsHandler {
	if maxBody <= 0 {
		maxBody = 64 << 20
	}
	return &TranscriptionsHandler{gateway: gateway, decoder: decoder, opts: opts, maxBody: maxBody}
}

// Transcribe handles one upload end to end: engine gate, content-type gate,
// buffered body read, multipart decode, audio normalization, engine
// invocation, JSON response. Each step runs strictly in that order; nothing
// is written to the client before the final status is known.
func (h *TranscriptionsHandler) Transcribe(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)

	// The engine check precedes the body read so a missing model does not
	// cost the client an upload.
	if !h.gateway.Ready() {
		WriteAPIError(w, apiErr(KindUnavailable, "Local model not available"))
		return
	}

	contentType := r.Header.Get("Content-Type")
	if !strings.Contains(contentType, "multipart/form-data") {
		WriteAPIError(w, apiErr(KindInvalidRequest, "Content-Type must be multipart/form-data"))
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBody))
	if err != nil {
		WriteAPIError(w, apiErr(KindInvalidRequest, "failed to read request body: "+err.Error()))
		return
	}

	form, err := multipart.Parse(body, contentType)
	if err != nil {
		WriteAPIError(w, apiErr(KindInvalidRequest, err.Error()))
		return
	}

	req, apiError := h.buildRequest(form)
	if apiError != nil {
		metrics.TranscriptionsTotal.WithLabelValues("rejected").Inc()
		WriteAPIError(w, apiError)
		return
	}

	log.Info().
		Float64("audio_seconds", req.Audio.Duration()).
		Msg("received audio")
	metrics.AudioSecondsTotal.Add(req.Audio.Duration())

	start := time.Now()
	result, err := h.gateway.Invoke(r.Context(), req)
	metrics.TranscribeDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.TranscriptionsTotal.WithLabelValues("error").Inc()
		if errors.Is(err, engine.ErrUnavailable) {
			WriteAPIError(w, apiErr(KindUnavailable, "Local model not available"))
			return
		}
		log.Error().Err(err).Msg("transcription failed")
		WriteAPIError(w, apiErr(KindInternal, "Transcription failed: "+err.Error()))
		return
	}

	metrics.TranscriptionsTotal.WithLabelValues("ok").Inc()
	log.Info().
		Dur("elapsed", time.Since(start)).
		Int("chars", len(result.Text)).
		Msg("transcription completed")

	WriteJSON(w, http.StatusOK, transcriptionResponse{Text: result.Text})
}

// buildRequest validates the form and assembles the engine request. The
// `file` field is mandatory; `language` and `prompt` pass through verbatim;
// `temperature` is parsed best-effort — a value that does not parse as a
// float is treated as absent, not rejected. Engine flags come from the
// configuration snapshot, never from the request.
func (h *TranscriptionsHandler) buildRequest(form multipart.Form) (engine.Request, *APIError) {
	fileData, ok := form.File("file")
	if !ok {
		return engine.Request{}, apiErr(KindInvalidRequest, "Missing required field: file")
	}

	buf, err := audio.Normalize(h.decoder, fileData)
	if err != nil {
		return engine.Request{}, apiErr(KindInternal, "Transcription failed: "+err.Error())
	}

	req := engine.Request{
		Audio:                   buf,
		ConditionOnPreviousText: h.opts.ConditionOnPreviousText,
		VadFilter:               h.opts.VadFilter,
	}
	if v, ok := form.Value("language"); ok {
		req.Language = v
	}
	if v, ok := form.Value("prompt"); ok {
		req.InitialPrompt = v
	}
	if v, ok := form.Value("temperature"); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			req.Temperature = &f
		}
	}
	return req, nil
}
