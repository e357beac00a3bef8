//go:build nocgo
// +build nocgo

package audio

import (
	"context"
	"time"
)

// Stub implementations for builds without CGO

// OtoPlayer stub for nocgo builds
type OtoPlayer struct{}

// PlayerConfig configures the default output stream.
type PlayerConfig struct {
	SampleRate int
	Channels   int
	BufferSize time.Duration
}

// DefaultPlayerConfig returns 44.1kHz stereo with a 100ms buffer.
func DefaultPlayerConfig() PlayerConfig {
	return PlayerConfig{SampleRate: 44100, Channels: 2, BufferSize: 100 * time.Millisecond}
}

// NewOtoPlayer returns ErrAPIUnavailable in nocgo builds.
func NewOtoPlayer(PlayerConfig) (*OtoPlayer, error) {
	return nil, ErrAPIUnavailable
}

func (p *OtoPlayer) Play(context.Context, *Decoded) error {
	return ErrAPIUnavailable
}

// MalgoBackend stub for nocgo builds
type MalgoBackend struct{}

// NewMalgoBackend returns ErrAPIUnavailable in nocgo builds.
func NewMalgoBackend() (*MalgoBackend, error) {
	return nil, ErrAPIUnavailable
}

func (b *MalgoBackend) Close() error { return nil }

func (b *MalgoBackend) Devices() ([]Device, error) {
	return nil, ErrAPIUnavailable
}

func (b *MalgoBackend) PlayOn(context.Context, *Device, *Decoded) error {
	return ErrAPIUnavailable
}
