package tts

import (
	"context"

	"github.com/vozbot/vozbot/internal/audio"
)

// PremiumProvider is the paid voice service.
type PremiumProvider interface {
	// Configured reports whether a credential is set.
	Configured() bool

	// SetAPIKey replaces the credential.
	SetAPIKey(key string)

	// OutputFormat is the format of the returned audio, e.g. "mp3_44100_128".
	OutputFormat() string

	// Synthesize voices text. Errors that should degrade the synthesizer
	// implement Degrader.
	Synthesize(ctx context.Context, voiceID, text string) ([]byte, error)
}

// Degrader is implemented by premium errors that signal exhaustion.
type Degrader interface {
	error
	Degrades() bool
}

// FreeProvider is the fallback voice service.
type FreeProvider interface {
	Name() string
	Format() string
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// Decoder turns an audio file into samples.
type Decoder interface {
	Decode(ctx context.Context, src audio.Source) (*audio.Decoded, error)
}

// Router plays samples.
type Router interface {
	Play(ctx context.Context, d *audio.Decoded, target audio.PlaybackTarget) error
}

// VoiceNames resolves voice ids to display names.
type VoiceNames interface {
	ResolveName(ctx context.Context, id string) string
	Invalidate()
}
