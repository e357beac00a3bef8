package elevenlabs

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/bytedance/sonic"
)

// Kind is the outcome class of a failed synthesis request.
type Kind int

const (
	// KindRejected is any non-success response that is not a quota signal.
	KindRejected Kind = iota
	// KindQuotaExhausted means the account ran out of characters.
	KindQuotaExhausted
	// KindRateLimited means too many requests were sent.
	KindRateLimited
	// KindTransport means no usable response was received.
	KindTransport
)

func (k Kind) String() string {
	switch k {
	case KindQuotaExhausted:
		return "quota_exhausted"
	case KindRateLimited:
		return "rate_limited"
	case KindTransport:
		return "transport"
	default:
		return "rejected"
	}
}

// Error describes a failed synthesis request.
type Error struct {
	Kind       Kind
	StatusCode int
	Detail     string
	Cause      error
}

func (e *Error) Error() string {
	switch {
	case e.Cause != nil:
		return fmt.Sprintf("elevenlabs %s: %v", e.Kind, e.Cause)
	case e.Detail != "":
		return fmt.Sprintf("elevenlabs %s (%d): %s", e.Kind, e.StatusCode, e.Detail)
	default:
		return fmt.Sprintf("elevenlabs %s (%d)", e.Kind, e.StatusCode)
	}
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Degrades reports whether the failure should switch the caller to the
// free provider for subsequent requests too.
func (e *Error) Degrades() bool {
	return e.Kind == KindQuotaExhausted || e.Kind == KindRateLimited
}

type errorBody struct {
	Detail any `json:"detail"`
}

// classifyResponse decides the Kind of a non-200 response. A 401 is only a
// quota signal when its detail mentions quota or characters; otherwise it is
// an ordinary rejection such as a bad key.
func classifyResponse(status int, payload []byte) *Error {
	detail := string(payload)
	var body errorBody
	if err := sonic.Unmarshal(payload, &body); err == nil && body.Detail != nil {
		if s, err := sonic.MarshalString(body.Detail); err == nil {
			detail = s
		}
	}

	e := &Error{Kind: KindRejected, StatusCode: status, Detail: detail}
	switch status {
	case http.StatusUnauthorized:
		lower := strings.ToLower(detail)
		if strings.Contains(lower, "quota") || strings.Contains(lower, "character") {
			e.Kind = KindQuotaExhausted
		}
	case http.StatusTooManyRequests:
		e.Kind = KindRateLimited
	}
	return e
}
