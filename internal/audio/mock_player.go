package audio

import (
	"context"
	"sync"
	"sync/atomic"
)

// MockPlayer implements Player for testing purposes.
// It records what would have been played without producing sound.
type MockPlayer struct {
	// Err is returned from every Play call when set.
	Err error

	// OnPlay is called with each buffer before Play returns.
	OnPlay func(d *Decoded)

	mu     sync.Mutex
	played []*Decoded

	playCount atomic.Int64
}

// NewMockPlayer creates a mock player that always succeeds.
func NewMockPlayer() *MockPlayer {
	return &MockPlayer{}
}

// Play implements Player.
func (m *MockPlayer) Play(ctx context.Context, d *Decoded) error {
	m.playCount.Add(1)
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.OnPlay != nil {
		m.OnPlay(d)
	}
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	m.played = append(m.played, d)
	m.mu.Unlock()
	return nil
}

// PlayCount returns how many times Play was called, including failures.
func (m *MockPlayer) PlayCount() int {
	return int(m.playCount.Load())
}

// Played returns the buffers played successfully.
func (m *MockPlayer) Played() []*Decoded {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Decoded, len(m.played))
	copy(out, m.played)
	return out
}

// MockDevices implements DeviceBackend for testing purposes.
type MockDevices struct {
	List    []Device
	ListErr error
	PlayErr error

	mu     sync.Mutex
	played []*Device
}

// Devices implements DeviceBackend.
func (m *MockDevices) Devices() ([]Device, error) {
	return m.List, m.ListErr
}

// PlayOn implements DeviceBackend.
func (m *MockDevices) PlayOn(ctx context.Context, dev *Device, d *Decoded) error {
	m.mu.Lock()
	m.played = append(m.played, dev)
	m.mu.Unlock()
	return m.PlayErr
}

// Targets returns the device passed to each PlayOn call, nil for default.
func (m *MockDevices) Targets() []*Device {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Device, len(m.played))
	copy(out, m.played)
	return out
}

var (
	_ Player        = (*MockPlayer)(nil)
	_ DeviceBackend = (*MockDevices)(nil)
)
