package handler

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/voxlocal/voxlocal/internal/speech/engine"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

type pageData struct {
	Models       []string
	DefaultModel string
	Voices       []string
	ForwardURL   string
}

func (h *Handler) pageData() pageData {
	defaultAlias, _ := h.orch.Catalog().DefaultSTT()
	return pageData{
		Models:       h.orch.Catalog().ListAvailable(engine.SpeechToText),
		DefaultModel: defaultAlias,
		Voices:       h.orch.VoiceNames(),
		ForwardURL:   h.forwardURL,
	}
}

func (h *Handler) renderPage(w http.ResponseWriter, name string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplates.ExecuteTemplate(w, name, h.pageData()); err != nil {
		http.Error(w, "render page: "+err.Error(), http.StatusInternalServerError)
	}
}

// UploadPage handles GET /upload, a form for transcribing an audio file.
func (h *Handler) UploadPage(w http.ResponseWriter, r *http.Request) {
	h.renderPage(w, "upload.html")
}

// RecordingPage handles GET /recording, a microphone capture page that
// submits the recorded audio for transcription.
func (h *Handler) RecordingPage(w http.ResponseWriter, r *http.Request) {
	h.renderPage(w, "recording.html")
}
