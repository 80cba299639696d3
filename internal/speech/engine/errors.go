package engine

import "fmt"

// ValidationError reports bad or missing request input: empty synthesis
// text, a language the chosen voice cannot speak, an unknown model selector.
// Entry points surface it as a client error.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Validationf builds a ValidationError from a format string.
func Validationf(format string, args ...any) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// ModelLoadError reports a failed model instantiation. The registry never
// caches a failed load, so the same key can be retried on the next call.
type ModelLoadError struct {
	Model string
	Cause error
}

func (e *ModelLoadError) Error() string {
	return fmt.Sprintf("load model %q: %v", e.Model, e.Cause)
}

func (e *ModelLoadError) Unwrap() error { return e.Cause }

// InferenceError reports a backend failure mid-decode or mid-synthesis.
// It is not retried automatically.
type InferenceError struct {
	Model string
	Cause error
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("inference with model %q: %v", e.Model, e.Cause)
}

func (e *InferenceError) Unwrap() error { return e.Cause }
