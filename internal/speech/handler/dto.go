package handler

import "github.com/voxlocal/voxlocal/internal/speech/orchestrator"

// SynthesizeRequest is the request body for POST /text-to-speech.
type SynthesizeRequest struct {
	Text     string `json:"text"`
	Language string `json:"language,omitempty"`
	Speaker  string `json:"speaker,omitempty"`
	Voice    string `json:"voice,omitempty"`
}

// DefaultModelInfo describes the configured default model in health output.
type DefaultModelInfo struct {
	Alias       string `json:"alias"`
	Path        string `json:"path"`
	Device      string `json:"device,omitempty"`
	ComputeType string `json:"compute_type,omitempty"`
	Loaded      bool   `json:"loaded"`
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status       string                     `json:"status"`
	DefaultModel DefaultModelInfo           `json:"default_model"`
	LoadedModels []orchestrator.ModelStatus `json:"loaded_models"`
	Voices       []string                   `json:"voices,omitempty"`
}

// ErrorResponse is a standard error response.
type ErrorResponse struct {
	Error string `json:"error"`
}
