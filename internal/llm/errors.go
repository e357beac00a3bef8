package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrDisabled is returned when no backend credential has been configured.
var ErrDisabled = errors.New("AI is not configured: set an API key with UPDATE_GEMINI_KEY or llm.api_key")

// Kind classifies a generation failure.
type Kind int

const (
	KindTransient Kind = iota
	KindQuotaExceeded
	KindAuthInvalid
	KindPermissionDenied
)

func (k Kind) String() string {
	switch k {
	case KindQuotaExceeded:
		return "QUOTA_EXCEEDED"
	case KindAuthInvalid:
		return "AUTH_INVALID"
	case KindPermissionDenied:
		return "PERMISSION_DENIED"
	default:
		return "TRANSIENT_ERROR"
	}
}

// Error is a classified generation failure. Message is short enough to show
// to a chat audience.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// UserMessage returns the text to show in place of an answer for err.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	if errors.Is(err, ErrDisabled) {
		return "The AI is not configured. Add an API key in the settings."
	}
	return "Something went wrong while generating the answer."
}

// classify maps a provider status code and error detail onto a Kind.
// It is called once by each backend where the raw response is parsed.
func classify(status int, detail string, cause error) *Error {
	upper := strings.ToUpper(detail)

	switch {
	case errors.Is(cause, context.DeadlineExceeded):
		return &Error{Kind: KindTransient, Message: "The AI took too long to answer.", Cause: cause}

	case status == http.StatusTooManyRequests &&
		(strings.Contains(upper, "RESOURCE_EXHAUSTED") || strings.Contains(upper, "QUOTA")):
		return &Error{Kind: KindQuotaExceeded, Message: "Daily AI quota exhausted. Try again tomorrow or upgrade the plan.", Cause: cause}

	case status == http.StatusUnauthorized ||
		strings.Contains(upper, "UNAUTHENTICATED") ||
		strings.Contains(upper, "API_KEY_INVALID"):
		return &Error{Kind: KindAuthInvalid, Message: "The AI API key is invalid. Check the configuration.", Cause: cause}

	case status == http.StatusForbidden || strings.Contains(upper, "PERMISSION_DENIED"):
		return &Error{Kind: KindPermissionDenied, Message: "The AI API key is not allowed to use this model.", Cause: cause}
	}

	return &Error{Kind: KindTransient, Message: "Could not reach the AI service right now.", Cause: cause}
}
