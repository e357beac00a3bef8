package tts

import (
	"context"
	"fmt"
	"time"

	"github.com/vozbot/vozbot/internal/proc"
	"golang.org/x/time/rate"
)

// GTTSEngine synthesizes MP3 speech with Google Translate TTS through the
// gtts-cli tool. It needs no API key.
type GTTSEngine struct {
	binary   string
	language string
	slow     bool
	timeout  time.Duration

	// Rate limiting to avoid being blocked by Google
	rateLimiter *rate.Limiter
}

// GTTSConfig holds configuration for the gTTS engine.
type GTTSConfig struct {
	// Binary is the gtts-cli executable - defaults to "gtts-cli"
	Binary string

	// Language code (e.g., "es", "en") - defaults to "es"
	Language string

	// Slow speech (--slow flag)
	Slow bool

	// Timeout per request - defaults to 30s
	Timeout time.Duration

	// Rate limit requests per minute to avoid being blocked (defaults to 50)
	RequestsPerMinute int
}

// NewGTTSEngine creates a new gTTS engine.
func NewGTTSEngine(config GTTSConfig) *GTTSEngine {
	if config.Binary == "" {
		config.Binary = "gtts-cli"
	}
	if config.Language == "" {
		config.Language = "es"
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	if config.RequestsPerMinute <= 0 {
		config.RequestsPerMinute = 50
	}

	return &GTTSEngine{
		binary:      config.Binary,
		language:    config.Language,
		slow:        config.Slow,
		timeout:     config.Timeout,
		rateLimiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(config.RequestsPerMinute)), 1),
	}
}

// Name identifies the engine in logs and events.
func (e *GTTSEngine) Name() string { return "gtts" }

// Format is the audio format Synthesize returns.
func (e *GTTSEngine) Format() string { return "mp3" }

// Synthesize returns MP3 audio for text.
func (e *GTTSEngine) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if err := e.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	args := []string{text, "-l", e.language}
	if e.slow {
		args = append(args, "--slow")
	}
	args = append(args, "-o", "-")

	mp3, err := proc.Run(ctx, e.timeout, e.binary, args...)
	if err != nil {
		return nil, fmt.Errorf("gTTS synthesis: %w", err)
	}
	return mp3, nil
}

// Validate checks that gtts-cli is installed.
func (e *GTTSEngine) Validate() error {
	if !proc.Available(e.binary) {
		return ErrFreeEngineMissing
	}
	return nil
}

var _ FreeProvider = (*GTTSEngine)(nil)
