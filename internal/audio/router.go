package audio

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
)

// PollInterval is how often playback completion is checked.
const PollInterval = 100 * time.Millisecond

// Device is an output device as reported by the host audio API.
type Device struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Channels  int    `json:"channels"`
	IsDefault bool   `json:"default,omitempty"`
}

// Player plays a buffer on the system default output and blocks until it
// finishes or ctx is done.
type Player interface {
	Play(ctx context.Context, d *Decoded) error
}

// DeviceBackend enumerates output devices and plays on a chosen one. A nil
// device means the backend's default output.
type DeviceBackend interface {
	Devices() ([]Device, error)
	PlayOn(ctx context.Context, dev *Device, d *Decoded) error
}

// PlaybackTarget selects where and how loud to play.
type PlaybackTarget struct {
	DeviceID *int
	Volume   int
}

// Router plays audio on the requested device, falling back to the default
// player when the device is invalid or device playback fails.
type Router struct {
	devices  DeviceBackend
	fallback Player
	log      *log.Logger
}

// NewRouter creates a router. Either argument may be nil when the host lacks
// that playback path.
func NewRouter(devices DeviceBackend, fallback Player) *Router {
	return &Router{
		devices:  devices,
		fallback: fallback,
		log:      log.WithPrefix("audio"),
	}
}

// Devices lists devices with at least one output channel.
func (r *Router) Devices() ([]Device, error) {
	if r.devices == nil {
		return nil, ErrAPIUnavailable
	}
	all, err := r.devices.Devices()
	if err != nil {
		return nil, err
	}
	out := make([]Device, 0, len(all))
	for _, d := range all {
		if d.Channels > 0 {
			out = append(out, d)
		}
	}
	return out, nil
}

// Play scales d by the target volume and plays it synchronously. It returns
// ErrDeviceUnavailable only when every playback path failed.
func (r *Router) Play(ctx context.Context, d *Decoded, target PlaybackTarget) error {
	scaled := d.Scaled(target.Volume)
	dev := r.resolve(target.DeviceID)

	var errs []error
	if dev != nil {
		r.log.Debug("Playing on device", "id", dev.ID, "name", dev.Name)
		err := r.devices.PlayOn(ctx, dev, scaled)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		r.log.Warn("Device playback failed, using default output; device routing is unsupported in this mode",
			"device", dev.ID, "err", err)
		errs = append(errs, fmt.Errorf("device %d: %w", dev.ID, err))
	}

	if r.fallback != nil {
		err := r.fallback.Play(ctx, scaled)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		errs = append(errs, fmt.Errorf("default player: %w", err))
	}

	// Last resort when the default player is missing or broken: the device
	// backend's own default output.
	if dev == nil && r.devices != nil {
		err := r.devices.PlayOn(ctx, nil, scaled)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		errs = append(errs, fmt.Errorf("default device: %w", err))
	}

	if len(errs) == 0 {
		return fmt.Errorf("%w: no playback path configured", ErrDeviceUnavailable)
	}
	return fmt.Errorf("%w: %w", ErrDeviceUnavailable, errors.Join(errs...))
}

// resolve returns the device for id, or nil when id is unset, unknown or
// has no output channels.
func (r *Router) resolve(id *int) *Device {
	if id == nil {
		return nil
	}
	if r.devices == nil {
		r.log.Warn("Device selection is unsupported in this build, using default output", "device", *id)
		return nil
	}

	devices, err := r.devices.Devices()
	if err != nil {
		r.log.Warn("Could not enumerate devices, using default output", "err", err)
		return nil
	}
	for i := range devices {
		if devices[i].ID == *id && devices[i].Channels > 0 {
			return &devices[i]
		}
	}
	r.log.Debug("Invalid device, using default output", "device", *id)
	return nil
}

// waitPlayback polls done every PollInterval until it reports true or ctx
// is cancelled.
func waitPlayback(ctx context.Context, done func() bool) error {
	ticker := time.NewTicker(PollInterval)
	defer ticker.Stop()
	for !done() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}
