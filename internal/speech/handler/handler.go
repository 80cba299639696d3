// Package handler exposes the speech service over HTTP: transcription and
// synthesis endpoints, health reporting, the result response webhook, and
// the browser upload and recording pages.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/voxlocal/voxlocal/internal/speech/engine"
	"github.com/voxlocal/voxlocal/internal/speech/orchestrator"
	"github.com/voxlocal/voxlocal/pkg/relay"
)

const (
	maxRequestBodySize = 1 << 20   // 1 MiB, JSON bodies
	maxUploadSize      = 200 << 20 // 200 MiB, audio uploads
)

// Handler provides the REST endpoints of the speech service.
type Handler struct {
	orch       *orchestrator.Orchestrator
	forwarder  *relay.Forwarder
	store      *relay.Store
	forwardURL string
}

// NewHandler creates a handler. forwarder may be nil when no downstream
// URL is configured; forwardURL is shown on the upload page.
func NewHandler(orch *orchestrator.Orchestrator, forwarder *relay.Forwarder, store *relay.Store, forwardURL string) *Handler {
	return &Handler{orch: orch, forwarder: forwarder, store: store, forwardURL: forwardURL}
}

// RegisterRoutes registers all routes on the given mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /transcribe", h.Transcribe)
	mux.HandleFunc("POST /text-to-speech", h.Synthesize)
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("POST /webhook/response", h.ReceiveResponse)
	mux.HandleFunc("GET /responses/latest", h.LatestResponse)
	mux.HandleFunc("GET /upload", h.UploadPage)
	mux.HandleFunc("GET /recording", h.RecordingPage)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// writeSpeechError maps the engine error taxonomy onto HTTP status codes.
func writeSpeechError(w http.ResponseWriter, err error) {
	var ve *engine.ValidationError
	if errors.As(err, &ve) {
		writeError(w, http.StatusBadRequest, ve.Error())
		return
	}
	var le *engine.ModelLoadError
	if errors.As(err, &le) {
		writeError(w, http.StatusServiceUnavailable, le.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}

func formBool(r *http.Request, key string) bool {
	switch strings.ToLower(r.FormValue(key)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// Transcribe handles POST /transcribe. The audio arrives as a multipart
// "file" part; decode options are plain form fields.
func (h *Handler) Transcribe(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing audio file part \"file\"")
		return
	}
	defer file.Close()

	audioPath, err := saveUpload(file, header.Filename)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "store upload: "+err.Error())
		return
	}
	defer os.Remove(audioPath)

	res, err := h.orch.HandleTranscription(r.Context(), orchestrator.TranscriptionRequest{
		AudioPath:      audioPath,
		Model:          r.FormValue("model"),
		Language:       r.FormValue("language"),
		TranslateToEN:  formBool(r, "translate_to_en") || formBool(r, "translate"), // "translate" kept as an alias
		VAD:            formBool(r, "vad"),
		WordTimestamps: formBool(r, "word_timestamps"),
		Device:         r.FormValue("device"),
		ComputeType:    r.FormValue("compute_type"),
	})
	if err != nil {
		slog.ErrorContext(r.Context(), "transcription failed",
			slog.String("file", header.Filename),
			slog.String("error", err.Error()))
		writeSpeechError(w, err)
		return
	}

	// Delivery outlives the request, so detach from its cancellation.
	h.forwarder.Forward(context.WithoutCancel(r.Context()), relay.TranscriptionResult, res)
	writeJSON(w, http.StatusOK, res)
}

// saveUpload spools the uploaded audio to a temp file, preserving the
// extension so format sniffing downstream keeps working.
func saveUpload(src io.Reader, filename string) (string, error) {
	ext := filepath.Ext(filename)
	if ext == "" {
		ext = ".bin"
	}
	tmp, err := os.CreateTemp("", "voxlocal-upload-*"+ext)
	if err != nil {
		return "", err
	}
	defer tmp.Close()
	if _, err := io.Copy(tmp, src); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return tmp.Name(), nil
}

// Synthesize handles POST /text-to-speech, responding with a WAV payload.
func (h *Handler) Synthesize(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	var req SynthesizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.orch.HandleSynthesis(r.Context(), orchestrator.SynthesisRequest{
		Text:     req.Text,
		Language: req.Language,
		Speaker:  req.Speaker,
		Model:    req.Voice,
	})
	if err != nil {
		slog.ErrorContext(r.Context(), "synthesis failed",
			slog.String("error", err.Error()))
		writeSpeechError(w, err)
		return
	}

	// Metadata only goes downstream; the audio stays in the response.
	h.forwarder.Forward(context.WithoutCancel(r.Context()), relay.SynthesisResult, res)

	w.Header().Set("Content-Type", "audio/wav")
	w.WriteHeader(http.StatusOK)
	w.Write(res.Audio)
}

// Health handles GET /health. Status is "ok" once the default model is
// loaded, "loading" before that.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	alias, path, device, computeType, loaded := h.orch.DefaultPlacement()
	status := "loading"
	if loaded {
		status = "ok"
	}
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: status,
		DefaultModel: DefaultModelInfo{
			Alias:       alias,
			Path:        path,
			Device:      device,
			ComputeType: computeType,
			Loaded:      loaded,
		},
		LoadedModels: h.orch.ModelStatuses(),
		Voices:       h.orch.VoiceNames(),
	})
}

// ReceiveResponse handles POST /webhook/response, storing the downstream
// consumer's reply as the latest response.
func (h *Handler) ReceiveResponse(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "read body: "+err.Error())
		return
	}
	if !json.Valid(body) {
		writeError(w, http.StatusBadRequest, "body must be JSON")
		return
	}
	h.store.Put(body)
	writeJSON(w, http.StatusOK, map[string]string{"status": "stored"})
}

// LatestResponse handles GET /responses/latest.
func (h *Handler) LatestResponse(w http.ResponseWriter, r *http.Request) {
	msg, ok := h.store.Latest()
	if !ok {
		writeError(w, http.StatusNotFound, "no response received yet")
		return
	}
	writeJSON(w, http.StatusOK, msg)
}
