package control

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func intPtr(i int) *int { return &i }

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    Command
		wantErr error
	}{
		{name: "change voice", line: "CHANGE_VOICE:abc123", want: Command{Kind: KindChangeVoice, Value: "abc123"}},
		{name: "gemini key", line: "UPDATE_GEMINI_KEY: AIza-key ", want: Command{Kind: KindUpdateAIKey, Value: "AIza-key"}},
		{name: "ai key alias", line: "UPDATE_AI_KEY:sk-key", want: Command{Kind: KindUpdateAIKey, Value: "sk-key"}},
		{name: "empty ai key disables", line: "UPDATE_AI_KEY:", want: Command{Kind: KindUpdateAIKey}},
		{name: "elevenlabs key", line: "UPDATE_ELEVENLABS_KEY:xi", want: Command{Kind: KindUpdateVoiceKey, Value: "xi"}},
		{name: "personality keeps colons", line: "UPDATE_PERSONALITY:Eres un pirata: habla así", want: Command{Kind: KindUpdatePersonality, Value: "Eres un pirata: habla así"}},
		{name: "device index", line: "UPDATE_AUDIO_DEVICE:3", want: Command{Kind: KindUpdateAudioDevice, Value: "3", Device: intPtr(3)}},
		{name: "device default", line: "UPDATE_AUDIO_DEVICE:default", want: Command{Kind: KindUpdateAudioDevice, Value: "default"}},
		{name: "device negative", line: "UPDATE_AUDIO_DEVICE:-1", want: Command{Kind: KindUpdateAudioDevice, Value: "-1"}},
		{name: "volume", line: "UPDATE_VOLUME:55", want: Command{Kind: KindUpdateVolume, Value: "55", Volume: 55}},
		{name: "volume clamped", line: "UPDATE_VOLUME:250", want: Command{Kind: KindUpdateVolume, Value: "250", Volume: 100}},
		{name: "volume invalid", line: "UPDATE_VOLUME:loud", wantErr: ErrInvalidValue},
		{name: "trigger", line: "UPDATE_TRIGGER:!bot", want: Command{Kind: KindUpdateTrigger, Value: "!bot"}},
		{name: "trigger with space", line: "UPDATE_TRIGGER:! bot", wantErr: ErrInvalidValue},
		{name: "voice empty", line: "CHANGE_VOICE:", wantErr: ErrInvalidValue},
		{name: "reset all", line: "RESET_MEMORY", want: Command{Kind: KindResetMemory}},
		{name: "reset user", line: "RESET_MEMORY:Alice", want: Command{Kind: KindResetMemory, Value: "Alice"}},
		{name: "stats", line: "MEMORY_STATS", want: Command{Kind: KindMemoryStats}},
		{name: "stop", line: "  STOP\r\n", want: Command{Kind: KindStop}},
		{name: "unknown", line: "REBOOT:now", wantErr: ErrUnknownCommand},
		{name: "lowercase key", line: "stop", wantErr: ErrUnknownCommand},
		{name: "blank", line: "   ", wantErr: ErrEmpty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.line)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Parse(%q) error = %v, want %v", tt.line, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q): %v", tt.line, err)
			}
			if got.Kind != tt.want.Kind || got.Value != tt.want.Value || got.Volume != tt.want.Volume {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.line, got, tt.want)
			}
			switch {
			case tt.want.Device == nil && got.Device != nil:
				t.Errorf("Device = %d, want nil", *got.Device)
			case tt.want.Device != nil && (got.Device == nil || *got.Device != *tt.want.Device):
				t.Errorf("Device = %v, want %d", got.Device, *tt.want.Device)
			}
		})
	}
}

func TestSensitive(t *testing.T) {
	for _, k := range []Kind{KindUpdateAIKey, KindUpdateVoiceKey} {
		if !(Command{Kind: k}).Sensitive() {
			t.Errorf("%s should be sensitive", k)
		}
	}
	if (Command{Kind: KindChangeVoice}).Sensitive() {
		t.Error("CHANGE_VOICE should not be sensitive")
	}
}

func TestRead(t *testing.T) {
	input := strings.Join([]string{
		"CHANGE_VOICE:v1",
		"",
		"GARBAGE",
		"UPDATE_VOLUME:40",
		"STOP",
		"CHANGE_VOICE:never",
	}, "\n")

	out := make(chan Command, DefaultQueueSize)
	if err := Read(context.Background(), strings.NewReader(input), out); err != nil {
		t.Fatalf("Read: %v", err)
	}
	close(out)

	var kinds []Kind
	for cmd := range out {
		kinds = append(kinds, cmd.Kind)
	}
	want := []Kind{KindChangeVoice, KindUpdateVolume, KindStop}
	if len(kinds) != len(want) {
		t.Fatalf("kinds = %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("kinds[%d] = %v, want %v", i, kinds[i], want[i])
		}
	}
}

func TestReadCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := make(chan Command) // unbuffered and never drained
	err := Read(ctx, strings.NewReader("MEMORY_STATS\n"), out)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Read error = %v, want context.Canceled", err)
	}
}
