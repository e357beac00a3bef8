package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/vozbot/vozbot/internal/audio"
	"github.com/vozbot/vozbot/internal/chat"
	"github.com/vozbot/vozbot/internal/config"
	"github.com/vozbot/vozbot/internal/control"
	"github.com/vozbot/vozbot/internal/elevenlabs"
	"github.com/vozbot/vozbot/internal/llm"
	"github.com/vozbot/vozbot/internal/memory"
	"github.com/vozbot/vozbot/internal/pipeline"
	"github.com/vozbot/vozbot/internal/report"
	"github.com/vozbot/vozbot/internal/tts"
)

// chatQueueSize bounds chat messages waiting for the worker.
const chatQueueSize = 64

func runBot(cmd *cobra.Command, _ []string) error {
	s := settings
	if err := chat.ValidateToken(s.Chat.Token); err != nil {
		return err //nolint:wrapcheck
	}

	flush, err := report.InitSentry(report.SentryConfig{
		DSN:         s.Sentry.DSN,
		Environment: s.Sentry.Environment,
		Release:     Version,
	})
	if err != nil {
		log.Warn("Error reporting disabled", "err", err)
	}
	defer flush()

	eventsOut, closeEvents, err := openEvents(s.Report.Events)
	if err != nil {
		return err
	}
	defer closeEvents() //nolint:errcheck
	events := report.New(eventsOut)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := memory.NewStore(s.Memory.Capacity)
	gen, err := newGenerator(s, store)
	if err != nil {
		return err
	}

	voices := elevenlabs.NewClient(elevenlabs.Config{
		APIKey:       s.Voice.APIKey,
		BaseURL:      s.Voice.BaseURL,
		ModelID:      s.Voice.ModelID,
		OutputFormat: s.Voice.OutputFormat,
		Stability:    &s.Voice.Stability,
		Similarity:   &s.Voice.Similarity,
	})
	catalog := elevenlabs.NewCatalog(voices)

	free := tts.NewGTTSEngine(tts.GTTSConfig{
		Binary:            s.GTTS.Binary,
		Language:          s.GTTS.Language,
		Slow:              s.GTTS.Slow,
		Timeout:           s.GTTS.Timeout,
		RequestsPerMinute: s.GTTS.RequestsPerMinute,
	})
	if err := free.Validate(); err != nil {
		log.Warn("Free voice fallback unavailable", "err", err)
	}

	router, closeAudio := newAudioRouter()
	defer closeAudio()

	synth := tts.NewSynthesizer(tts.Config{
		VoiceID:          s.Voice.VoiceID,
		Target:           audio.PlaybackTarget{DeviceID: s.Audio.DeviceID(), Volume: s.Audio.Volume},
		Timeout:          s.Voice.Timeout,
		RecoveryInterval: s.Voice.RecoveryInterval,
		TempDir:          s.Audio.TempDir,
	}, voices, free, audio.NewDecoder(audio.DefaultStrategies(s.Audio.FFmpeg)...), router, catalog, events)

	client, err := chat.NewClient(chat.Config{
		URL:     s.Chat.URL,
		Channel: s.Chat.Channel,
		Token:   s.Chat.Token,
		Nick:    s.Chat.Nick,
	}, events)
	if err != nil {
		return err //nolint:wrapcheck
	}

	messages := make(chan chat.Message, chatQueueSize)
	commands := make(chan control.Command, control.DefaultQueueSize)

	go func() {
		if err := client.Run(ctx, messages); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("Chat stopped", "err", err)
			stop()
		}
	}()
	go func() {
		if err := control.Read(ctx, os.Stdin, commands); err != nil && !errors.Is(err, context.Canceled) {
			log.Warn("Control input closed", "err", err)
		}
	}()
	config.NewWatcher(viper.GetViper(), s, commands).Start()

	log.Info("Bot started",
		"channel", s.Chat.Channel,
		"trigger", s.Chat.Trigger,
		"ai", gen.Enabled(),
		"voice", catalog.ResolveName(ctx, s.Voice.VoiceID),
		"premium", voices.Configured(),
	)
	events.Emit(report.TypeSystem, map[string]any{
		"status":  "started",
		"channel": s.Chat.Channel,
		"trigger": s.Chat.Trigger,
	})

	err = pipeline.New(s.Chat.Trigger, gen, store, synth, events).Run(ctx, messages, commands)
	events.Emit(report.TypeSystem, map[string]any{"status": "stopped"})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err //nolint:wrapcheck
}

func newGenerator(s config.Settings, history llm.History) (*llm.Generator, error) {
	factory, err := llm.NewFactory(llm.ProviderConfig{
		Provider: s.AI.Provider,
		Model:    s.AI.Model,
		BaseURL:  s.AI.BaseURL,
	})
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	gen := llm.NewGenerator(llm.Config{
		Personality: s.AI.Personality,
		ReplyHint:   s.AI.ReplyHint,
		Timeout:     s.AI.Timeout,
		MaxTokens:   s.AI.MaxTokens,
	}, factory, history)
	if err := gen.SetCredential(s.AI.APIKey); err != nil {
		return nil, err //nolint:wrapcheck
	}
	return gen, nil
}

// newAudioRouter wires device playback and the default player, leaving out
// whichever the host cannot provide.
func newAudioRouter() (*audio.Router, func()) {
	var devices audio.DeviceBackend
	backend, err := audio.NewMalgoBackend()
	if err != nil {
		log.Warn("Device selection unavailable, using the default output", "err", err)
	} else {
		devices = backend
	}

	var fallback audio.Player
	if player, err := audio.NewOtoPlayer(audio.DefaultPlayerConfig()); err != nil {
		log.Warn("Default audio player unavailable", "err", err)
	} else {
		fallback = player
	}

	return audio.NewRouter(devices, fallback), func() {
		if backend != nil {
			_ = backend.Close()
		}
	}
}

func openEvents(dest string) (io.Writer, func() error, error) {
	noop := func() error { return nil }
	switch dest {
	case "":
		return nil, noop, nil
	case "stdout":
		return os.Stdout, noop, nil
	case "stderr":
		return os.Stderr, noop, nil
	}
	f, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644) //nolint:gosec
	if err != nil {
		return nil, noop, fmt.Errorf("unable to open events file: %w", err)
	}
	return f, f.Close, nil
}
