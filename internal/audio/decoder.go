package audio

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
)

// Source identifies an audio payload on disk. Format is an optional hint in
// ElevenLabs notation, e.g. "mp3_44100_128" or "ulaw_8000".
type Source struct {
	Path   string
	Format string
}

// codec returns the codec part of the format hint, lowercased.
func (s Source) codec() string {
	c, _, _ := strings.Cut(strings.ToLower(s.Format), "_")
	return c
}

// Strategy is one way of decoding a payload. Strategies that do not handle
// the source's format return errNotApplicable.
type Strategy interface {
	Name() string
	Decode(ctx context.Context, src Source) (*Decoded, error)
}

// Decoder tries its strategies in order and returns the first success.
type Decoder struct {
	strategies []Strategy
	log        *log.Logger
}

// NewDecoder creates a decoder from an ordered strategy list.
func NewDecoder(strategies ...Strategy) *Decoder {
	return &Decoder{
		strategies: strategies,
		log:        log.WithPrefix("audio"),
	}
}

// DefaultStrategies returns MP3, then G.711, then ffmpeg.
func DefaultStrategies(ffmpegPath string) []Strategy {
	return []Strategy{
		MP3{},
		G711{},
		NewFFmpeg(ffmpegPath),
	}
}

// Decode reads src with the first strategy that succeeds.
func (d *Decoder) Decode(ctx context.Context, src Source) (*Decoded, error) {
	var errs []error
	for _, s := range d.strategies {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		out, err := s.Decode(ctx, src)
		if err == nil {
			d.log.Debug("Decoded audio", "strategy", s.Name(),
				"channels", out.Channels, "rate", out.SampleRate, "duration", out.Duration())
			return out, nil
		}
		if errors.Is(err, errNotApplicable) {
			continue
		}
		d.log.Debug("Decoder strategy failed", "strategy", s.Name(), "err", err)
		errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
	}

	if len(errs) == 0 {
		return nil, fmt.Errorf("%w: no decoder for %q", ErrUnsupportedFormat, src.Format)
	}
	return nil, fmt.Errorf("%w: %w", ErrUnsupportedFormat, errors.Join(errs...))
}
