//go:build !nocgo
// +build !nocgo

package audio

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/gen2brain/malgo"
)

// MalgoBackend enumerates playback devices and plays on a specific one
// through miniaudio. Device ids are indexes into the playback device list.
type MalgoBackend struct {
	ctx *malgo.AllocatedContext
	mu  sync.Mutex
}

// NewMalgoBackend initializes miniaudio with its default backend order.
func NewMalgoBackend() (*MalgoBackend, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(msg string) {
		log.Debug("miniaudio", "msg", msg)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAPIUnavailable, err)
	}
	return &MalgoBackend{ctx: ctx}, nil
}

// Close releases the miniaudio context.
func (b *MalgoBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ctx == nil {
		return nil
	}
	err := b.ctx.Uninit()
	b.ctx.Free()
	b.ctx = nil
	return err
}

// Devices implements DeviceBackend.
func (b *MalgoBackend) Devices() ([]Device, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	infos, err := b.infos()
	if err != nil {
		return nil, err
	}
	out := make([]Device, len(infos))
	for i, info := range infos {
		out[i] = Device{
			ID:        i,
			Name:      info.Name(),
			Channels:  b.channels(info),
			IsDefault: info.IsDefault != 0,
		}
	}
	return out, nil
}

func (b *MalgoBackend) infos() ([]malgo.DeviceInfo, error) {
	if b.ctx == nil {
		return nil, ErrAPIUnavailable
	}
	infos, err := b.ctx.Devices(malgo.Playback)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate playback devices: %w", err)
	}
	return infos, nil
}

// channels returns the widest native channel count of a device. miniaudio
// reports 0 channels for "any", which is treated as stereo.
func (b *MalgoBackend) channels(info malgo.DeviceInfo) int {
	full, err := b.ctx.DeviceInfo(malgo.Playback, info.ID, malgo.Shared)
	if err != nil {
		full = info
	}
	if full.FormatCount == 0 {
		return 2
	}
	best := 0
	for i := 0; i < int(full.FormatCount) && i < len(full.Formats); i++ {
		ch := int(full.Formats[i].Channels)
		if ch == 0 {
			return 2
		}
		if ch > best {
			best = ch
		}
	}
	return best
}

// PlayOn implements DeviceBackend. A nil dev plays on miniaudio's default output.
func (b *MalgoBackend) PlayOn(ctx context.Context, dev *Device, d *Decoded) error {
	if d == nil || d.Frames() == 0 {
		return errors.New("audio data is empty")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ctx == nil {
		return ErrAPIUnavailable
	}

	cfg := malgo.DefaultDeviceConfig(malgo.Playback)
	cfg.Playback.Format = malgo.FormatF32
	cfg.Playback.Channels = uint32(d.Channels)
	cfg.SampleRate = uint32(d.SampleRate)
	cfg.Alsa.NoMMap = 1

	if dev != nil {
		infos, err := b.infos()
		if err != nil {
			return err
		}
		if dev.ID < 0 || dev.ID >= len(infos) {
			return fmt.Errorf("device %d disappeared", dev.ID)
		}
		cfg.Playback.DeviceID = infos[dev.ID].ID.Pointer()
	}

	stream := newByteStream(d.Float32LE())
	device, err := malgo.InitDevice(b.ctx.Context, cfg, malgo.DeviceCallbacks{
		Data: func(out, _ []byte, _ uint32) {
			stream.fill(out)
		},
	})
	if err != nil {
		return fmt.Errorf("failed to open device: %w", err)
	}
	defer device.Uninit()

	if err := device.Start(); err != nil {
		return fmt.Errorf("failed to start device: %w", err)
	}
	err = waitPlayback(ctx, stream.drained)
	_ = device.Stop()
	return err
}

var _ DeviceBackend = (*MalgoBackend)(nil)
