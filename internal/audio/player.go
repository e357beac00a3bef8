//go:build !nocgo
// +build !nocgo

package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ebitengine/oto/v3"
)

// OtoPlayer plays on the system default output through oto. oto allows a
// single context per process, so create one OtoPlayer and share it.
type OtoPlayer struct {
	config PlayerConfig

	// The context is created on first use so hosts without audio can still
	// start and list voices.
	once    sync.Once
	context *oto.Context
	initErr error

	// Only one clip plays at a time.
	mu sync.Mutex
}

// PlayerConfig configures the default output stream.
type PlayerConfig struct {
	SampleRate int // 44100 or 48000 Hz only
	Channels   int // 1 = mono, 2 = stereo
	BufferSize time.Duration
}

// DefaultPlayerConfig returns 44.1kHz stereo with a 100ms buffer.
func DefaultPlayerConfig() PlayerConfig {
	return PlayerConfig{
		SampleRate: 44100,
		Channels:   2,
		BufferSize: 100 * time.Millisecond,
	}
}

// NewOtoPlayer creates a default-output player.
func NewOtoPlayer(config PlayerConfig) (*OtoPlayer, error) {
	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &OtoPlayer{config: config}, nil
}

func validateConfig(config PlayerConfig) error {
	if config.SampleRate != 44100 && config.SampleRate != 48000 {
		return fmt.Errorf("sample rate must be 44100 or 48000 Hz, got %d", config.SampleRate)
	}
	if config.Channels != 1 && config.Channels != 2 {
		return fmt.Errorf("channels must be 1 (mono) or 2 (stereo), got %d", config.Channels)
	}
	if config.BufferSize <= 0 {
		return errors.New("buffer size must be positive")
	}
	return nil
}

func (p *OtoPlayer) init() error {
	p.once.Do(func() {
		ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
			SampleRate:   p.config.SampleRate,
			ChannelCount: p.config.Channels,
			Format:       oto.FormatFloat32LE,
			BufferSize:   p.config.BufferSize,
		})
		if err != nil {
			p.initErr = fmt.Errorf("%w: %w", ErrAPIUnavailable, err)
			return
		}

		select {
		case <-ready:
			p.context = ctx
			log.Debug("Audio context ready", "rate", p.config.SampleRate, "channels", p.config.Channels)
		case <-time.After(5 * time.Second):
			p.initErr = fmt.Errorf("%w: audio context not ready after 5s", ErrAPIUnavailable)
		}
	})
	return p.initErr
}

// Play converts d to the context format and blocks until it has played.
func (p *OtoPlayer) Play(ctx context.Context, d *Decoded) error {
	if d == nil || d.Frames() == 0 {
		return errors.New("audio data is empty")
	}
	if err := p.init(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	// The byte slice must stay referenced until the player is closed.
	data := d.Convert(p.config.SampleRate, p.config.Channels).Float32LE()
	player := p.context.NewPlayer(bytes.NewReader(data))
	defer player.Close()

	player.Play()
	if err := waitPlayback(ctx, func() bool { return !player.IsPlaying() }); err != nil {
		player.Pause()
		return err
	}
	return player.Err()
}

var _ Player = (*OtoPlayer)(nil)
