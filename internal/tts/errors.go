package tts

import (
	"errors"
	"fmt"
)

// Common speech errors
var (
	// ErrProviderUnavailable means no provider could voice the text.
	ErrProviderUnavailable = errors.New("no speech provider available")

	// ErrFreeEngineMissing indicates gtts-cli is not installed.
	ErrFreeEngineMissing = errors.New("gtts-cli not found in PATH, install it with: pip install gTTS")
)

// SpeechError represents a speech failure with the stage it happened in.
type SpeechError struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *SpeechError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *SpeechError) Unwrap() error {
	return e.Cause
}

// ErrorCode identifies where a speech request failed.
type ErrorCode string

const (
	ErrorCodeSynthesis ErrorCode = "SYNTHESIS_FAILED"
	ErrorCodeTempFile  ErrorCode = "TEMP_FILE"
	ErrorCodeDecode    ErrorCode = "UNSUPPORTED_FORMAT"
	ErrorCodePlayback  ErrorCode = "DEVICE_UNAVAILABLE"
	ErrorCodeTimeout   ErrorCode = "TIMEOUT"
)

// NewSpeechError creates a new speech error.
func NewSpeechError(code ErrorCode, message string, cause error) *SpeechError {
	return &SpeechError{
		Code:    code,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// WithContext adds context to the error
func (e *SpeechError) WithContext(key string, value interface{}) *SpeechError {
	e.Context[key] = value
	return e
}

// IsRetryable returns true if the same request could succeed later.
func (e *SpeechError) IsRetryable() bool {
	switch e.Code {
	case ErrorCodeTimeout, ErrorCodeSynthesis:
		return true
	default:
		return false
	}
}
