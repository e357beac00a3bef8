// Package control parses runtime reconfiguration lines of the form KEY:value
// and delivers them to the pipeline worker.
package control

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies a control command.
type Kind int

const (
	KindChangeVoice Kind = iota + 1
	KindUpdateAIKey
	KindUpdateVoiceKey
	KindUpdatePersonality
	KindUpdateAudioDevice
	KindUpdateVolume
	KindUpdateTrigger
	KindResetMemory
	KindMemoryStats
	KindStop
)

var names = map[string]Kind{
	"CHANGE_VOICE":          KindChangeVoice,
	"UPDATE_GEMINI_KEY":     KindUpdateAIKey,
	"UPDATE_AI_KEY":         KindUpdateAIKey,
	"UPDATE_ELEVENLABS_KEY": KindUpdateVoiceKey,
	"UPDATE_PERSONALITY":    KindUpdatePersonality,
	"UPDATE_AUDIO_DEVICE":   KindUpdateAudioDevice,
	"UPDATE_VOLUME":         KindUpdateVolume,
	"UPDATE_TRIGGER":        KindUpdateTrigger,
	"RESET_MEMORY":          KindResetMemory,
	"MEMORY_STATS":          KindMemoryStats,
	"STOP":                  KindStop,
}

func (k Kind) String() string {
	switch k {
	case KindChangeVoice:
		return "CHANGE_VOICE"
	case KindUpdateAIKey:
		return "UPDATE_AI_KEY"
	case KindUpdateVoiceKey:
		return "UPDATE_ELEVENLABS_KEY"
	case KindUpdatePersonality:
		return "UPDATE_PERSONALITY"
	case KindUpdateAudioDevice:
		return "UPDATE_AUDIO_DEVICE"
	case KindUpdateVolume:
		return "UPDATE_VOLUME"
	case KindUpdateTrigger:
		return "UPDATE_TRIGGER"
	case KindResetMemory:
		return "RESET_MEMORY"
	case KindMemoryStats:
		return "MEMORY_STATS"
	case KindStop:
		return "STOP"
	default:
		return "UNKNOWN"
	}
}

// Errors returned by Parse.
var (
	ErrEmpty          = errors.New("empty control line")
	ErrUnknownCommand = errors.New("unknown control command")
	ErrInvalidValue   = errors.New("invalid control value")
)

// Command is one parsed control line.
type Command struct {
	Kind Kind

	// Value is the trimmed text after the first colon. For RESET_MEMORY it
	// names the user to clear; empty clears everyone.
	Value string

	// Device is set by UPDATE_AUDIO_DEVICE when Value is a device index.
	// Nil selects the default device.
	Device *int

	// Volume is set by UPDATE_VOLUME, clamped to 0..100.
	Volume int
}

// Sensitive reports whether Value holds a credential and must not be logged.
func (c Command) Sensitive() bool {
	return c.Kind == KindUpdateAIKey || c.Kind == KindUpdateVoiceKey
}

// Parse turns a control line into a Command. Keys are case-sensitive, as
// written by the controlling process.
func Parse(line string) (Command, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Command{}, ErrEmpty
	}

	key, value, _ := strings.Cut(line, ":")
	kind, ok := names[strings.TrimSpace(key)]
	if !ok {
		return Command{}, fmt.Errorf("%w: %q", ErrUnknownCommand, key)
	}
	cmd := Command{Kind: kind, Value: strings.TrimSpace(value)}

	switch kind {
	case KindUpdateAudioDevice:
		// Anything that is not a non-negative index means the default device.
		if id, err := strconv.Atoi(cmd.Value); err == nil && id >= 0 {
			cmd.Device = &id
		}
	case KindUpdateVolume:
		v, err := strconv.Atoi(cmd.Value)
		if err != nil {
			return Command{}, fmt.Errorf("%w: volume %q", ErrInvalidValue, cmd.Value)
		}
		cmd.Volume = min(max(v, 0), 100)
	case KindUpdateTrigger, KindChangeVoice:
		if cmd.Value == "" || strings.ContainsAny(cmd.Value, " \t") {
			return Command{}, fmt.Errorf("%w: %s needs a single word", ErrInvalidValue, kind)
		}
	}
	return cmd, nil
}
