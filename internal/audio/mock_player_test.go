package audio

import (
	"context"
	"errors"
	"testing"
)

func TestMockPlayer(t *testing.T) {
	player := NewMockPlayer()
	clip := &Decoded{Samples: []float32{0.1, 0.2}, Channels: 1, SampleRate: 44100}

	var seen *Decoded
	player.OnPlay = func(d *Decoded) { seen = d }
	if err := player.Play(context.Background(), clip); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	if seen != clip {
		t.Error("OnPlay not called with the clip")
	}

	player.Err = errors.New("boom")
	if err := player.Play(context.Background(), clip); err == nil {
		t.Error("Play should return the configured error")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := player.Play(ctx, clip); !errors.Is(err, context.Canceled) {
		t.Errorf("Play on cancelled context = %v", err)
	}

	if player.PlayCount() != 3 {
		t.Errorf("PlayCount = %d, want 3", player.PlayCount())
	}
	if got := player.Played(); len(got) != 1 || got[0] != clip {
		t.Errorf("Played = %v", got)
	}
}

func TestMockDevices(t *testing.T) {
	devices := &MockDevices{List: []Device{{ID: 0, Name: "Speakers", Channels: 2}}}
	if err := devices.PlayOn(context.Background(), &devices.List[0], &Decoded{}); err != nil {
		t.Fatalf("PlayOn: %v", err)
	}
	if err := devices.PlayOn(context.Background(), nil, &Decoded{}); err != nil {
		t.Fatalf("PlayOn: %v", err)
	}
	targets := devices.Targets()
	if len(targets) != 2 || targets[0].Name != "Speakers" || targets[1] != nil {
		t.Errorf("Targets = %v", targets)
	}
}
