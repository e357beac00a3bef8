package config

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/vozbot/vozbot/internal/control"
)

// Diff returns the control commands that move a running bot from old to
// next. Settings that only apply at startup are ignored.
func Diff(old, next Settings) []control.Command {
	var lines []string
	if next.Voice.VoiceID != old.Voice.VoiceID && next.Voice.VoiceID != "" {
		lines = append(lines, "CHANGE_VOICE:"+next.Voice.VoiceID)
	}
	if next.AI.APIKey != old.AI.APIKey {
		lines = append(lines, "UPDATE_AI_KEY:"+next.AI.APIKey)
	}
	if next.Voice.APIKey != old.Voice.APIKey {
		lines = append(lines, "UPDATE_ELEVENLABS_KEY:"+next.Voice.APIKey)
	}
	if next.AI.Personality != old.AI.Personality {
		lines = append(lines, "UPDATE_PERSONALITY:"+next.AI.Personality)
	}
	if next.Audio.Device != old.Audio.Device {
		dev := "default"
		if id := next.Audio.DeviceID(); id != nil {
			dev = strconv.Itoa(*id)
		}
		lines = append(lines, "UPDATE_AUDIO_DEVICE:"+dev)
	}
	if next.Audio.Volume != old.Audio.Volume {
		lines = append(lines, fmt.Sprintf("UPDATE_VOLUME:%d", next.Audio.Volume))
	}
	if next.Chat.Trigger != old.Chat.Trigger {
		lines = append(lines, "UPDATE_TRIGGER:"+next.Chat.Trigger)
	}

	cmds := make([]control.Command, 0, len(lines))
	for _, line := range lines {
		cmd, err := control.Parse(line)
		if err != nil {
			log.Warn("Ignoring config change", "err", err)
			continue
		}
		cmds = append(cmds, cmd)
	}
	return cmds
}

// Watcher turns config file edits into control commands.
type Watcher struct {
	v   *viper.Viper
	out chan<- control.Command
	log *log.Logger

	mu      sync.Mutex
	current Settings
}

// NewWatcher creates a watcher that compares against current.
func NewWatcher(v *viper.Viper, current Settings, out chan<- control.Command) *Watcher {
	return &Watcher{
		v:       v,
		out:     out,
		current: current,
		log:     log.WithPrefix("config"),
	}
}

// Start begins watching the config file in use. It does nothing when no
// file was loaded.
func (w *Watcher) Start() {
	if w.v.ConfigFileUsed() == "" {
		return
	}
	w.v.OnConfigChange(w.onChange)
	w.v.WatchConfig()
	w.log.Debug("Watching configuration file", "path", w.v.ConfigFileUsed())
}

func (w *Watcher) onChange(e fsnotify.Event) {
	if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
		return
	}
	next, err := Load(w.v)
	if err != nil {
		w.log.Warn("Ignoring invalid configuration change", "err", err)
		return
	}
	w.apply(next)
}

func (w *Watcher) apply(next Settings) {
	w.mu.Lock()
	cmds := Diff(w.current, next)
	w.current = next
	w.mu.Unlock()

	for _, cmd := range cmds {
		select {
		case w.out <- cmd:
			w.log.Info("Configuration changed", "cmd", cmd.Kind)
		default:
			w.log.Warn("Command queue full, dropping configuration change", "cmd", cmd.Kind)
		}
	}
}
