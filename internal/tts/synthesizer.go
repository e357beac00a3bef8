package tts

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"

	"github.com/vozbot/vozbot/internal/audio"
	"github.com/vozbot/vozbot/internal/report"
)

// Defaults for Config.
const (
	DefaultSynthesisTimeout = 30 * time.Second
	DefaultRecoveryInterval = 15 * time.Minute
)

// Config configures a Synthesizer.
type Config struct {
	VoiceID string
	Target  audio.PlaybackTarget

	// Timeout bounds one premium request.
	Timeout time.Duration

	// RecoveryInterval is how long to wait after degrading before the
	// premium provider is probed again. Zero disables probing, so only a
	// credential update leaves the degraded state.
	RecoveryInterval time.Duration

	// TempDir holds audio payloads while they are decoded. Defaults to the
	// system temp dir.
	TempDir string
}

// Synthesizer speaks text with the premium provider, falling back to the
// free provider when the premium one fails or is exhausted.
type Synthesizer struct {
	premium PremiumProvider
	free    FreeProvider
	decoder Decoder
	router  Router
	voices  VoiceNames
	events  report.Emitter
	log     *log.Logger
	now     func() time.Time

	timeout          time.Duration
	recoveryInterval time.Duration
	tempDir          string

	mu         sync.Mutex
	voiceID    string
	target     audio.PlaybackTarget
	state      State
	degradedAt time.Time
	announced  bool
}

// NewSynthesizer wires a synthesizer. free may be nil when no fallback is
// installed; events may be nil.
func NewSynthesizer(cfg Config, premium PremiumProvider, free FreeProvider,
	decoder Decoder, router Router, voices VoiceNames, events report.Emitter,
) *Synthesizer {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultSynthesisTimeout
	}
	if cfg.RecoveryInterval < 0 {
		cfg.RecoveryInterval = 0
	}
	if cfg.TempDir == "" {
		cfg.TempDir = os.TempDir()
	}
	if events == nil {
		events = report.Discard
	}
	cfg.Target.Volume = audio.ClampVolume(cfg.Target.Volume)

	return &Synthesizer{
		premium:          premium,
		free:             free,
		decoder:          decoder,
		router:           router,
		voices:           voices,
		events:           events,
		log:              log.WithPrefix("tts"),
		now:              time.Now,
		timeout:          cfg.Timeout,
		recoveryInterval: cfg.RecoveryInterval,
		tempDir:          cfg.TempDir,
		voiceID:          cfg.VoiceID,
		target:           cfg.Target,
	}
}

// State returns the current synthesis state.
func (s *Synthesizer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// VoiceID returns the premium voice in use.
func (s *Synthesizer) VoiceID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.voiceID
}

// Target returns the playback target in use.
func (s *Synthesizer) Target() audio.PlaybackTarget {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.target
}

// SetVoice switches the premium voice and returns its display name.
func (s *Synthesizer) SetVoice(ctx context.Context, id string) string {
	s.mu.Lock()
	s.voiceID = id
	s.mu.Unlock()

	name := id
	if s.voices != nil {
		name = s.voices.ResolveName(ctx, id)
	}
	s.log.Info("Voice changed", "voice", name, "id", id)
	return name
}

// SetCredential replaces the premium credential. The voice cache is dropped
// and the synthesizer returns to the normal state.
func (s *Synthesizer) SetCredential(key string) {
	s.premium.SetAPIKey(key)
	if s.voices != nil {
		s.voices.Invalidate()
	}

	s.mu.Lock()
	s.state = StateNormal
	s.degradedAt = time.Time{}
	s.announced = false
	s.mu.Unlock()

	if s.premium.Configured() {
		s.log.Info("Premium voice key updated, premium voice enabled")
	} else {
		s.log.Info("Premium voice key removed, premium voice disabled")
	}
}

// SetDevice selects an output device, or the default output when id is nil.
func (s *Synthesizer) SetDevice(id *int) {
	s.mu.Lock()
	s.target.DeviceID = id
	s.mu.Unlock()
	if id == nil {
		s.log.Info("Using default audio device")
	} else {
		s.log.Info("Audio device updated", "device", *id)
	}
}

// SetVolume sets playback volume, clamped to 0..100.
func (s *Synthesizer) SetVolume(v int) {
	s.mu.Lock()
	s.target.Volume = audio.ClampVolume(v)
	s.mu.Unlock()
	s.log.Info("Volume updated", "volume", audio.ClampVolume(v))
}

// Speak voices text. It only fails with ErrProviderUnavailable, after every
// fallback has been tried, or with the context's error.
func (s *Synthesizer) Speak(ctx context.Context, text string) error {
	s.mu.Lock()
	state := s.state
	probe := state == StateDegraded && s.recoveryDueLocked()
	voiceID := s.voiceID
	s.mu.Unlock()

	if state == StateDegraded && !probe {
		return s.speakFree(ctx, text)
	}

	if !s.premium.Configured() {
		s.log.Warn("Premium voice is not configured, set an ElevenLabs API key to hear answers")
		s.events.Emit(report.TypeTTS, map[string]any{"status": "disabled"})
		return nil
	}

	if probe {
		s.log.Info("Retrying premium voice after degradation")
	}
	return s.speakPremium(ctx, voiceID, text, probe)
}

func (s *Synthesizer) recoveryDueLocked() bool {
	return s.recoveryInterval > 0 && s.now().Sub(s.degradedAt) >= s.recoveryInterval
}

func (s *Synthesizer) speakPremium(ctx context.Context, voiceID, text string, probe bool) error {
	reqCtx, cancel := context.WithTimeout(ctx, s.timeout)
	payload, err := s.premium.Synthesize(reqCtx, voiceID, text)
	cancel()

	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		var d Degrader
		switch {
		case errors.As(err, &d) && d.Degrades():
			s.degrade(err)
		case probe:
			s.log.Warn("Premium voice still unavailable", "err", err)
			s.restartRecoveryClock()
		default:
			s.log.Warn("Premium voice failed, using free voice for this message", "err", err)
		}
		return s.speakFree(ctx, text)
	}

	s.log.Debug("Premium audio received", "size", humanize.Bytes(uint64(len(payload))))
	if err := s.play(ctx, payload, s.premium.OutputFormat()); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.log.Warn("Premium audio could not be played, using free voice", "err", err)
		if probe {
			s.restartRecoveryClock()
		}
		return s.speakFree(ctx, text)
	}

	s.restore()
	s.events.Emit(report.TypeTTS, map[string]any{"provider": ProviderPremium, "status": "played"})
	return nil
}

func (s *Synthesizer) speakFree(ctx context.Context, text string) error {
	clean := Sanitize(text)
	if clean == "" {
		s.log.Info("Nothing left to say after removing unsupported characters")
		return nil
	}
	if s.free == nil {
		return fmt.Errorf("%w: no free provider installed", ErrProviderUnavailable)
	}

	s.announceFallback()
	s.log.Info("Using free voice", "text", runewidth.Truncate(clean, 50, "..."))

	payload, err := s.free.Synthesize(ctx, clean)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		code := ErrorCodeSynthesis
		if errors.Is(err, context.DeadlineExceeded) {
			code = ErrorCodeTimeout
		}
		return fmt.Errorf("%w: %w", ErrProviderUnavailable, NewSpeechError(code, "free synthesis failed", err))
	}

	if err := s.play(ctx, payload, s.free.Format()); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %w", ErrProviderUnavailable, err)
	}

	s.events.Emit(report.TypeTTS, map[string]any{"provider": s.free.Name(), "status": "played"})
	return nil
}

// play persists payload to a temp file for the decoder and removes it
// before returning.
func (s *Synthesizer) play(ctx context.Context, payload []byte, format string) error {
	target := s.Target()
	return withTempFile(s.tempDir, format, payload, func(path string) error {
		decoded, err := s.decoder.Decode(ctx, audio.Source{Path: path, Format: format})
		if err != nil {
			return NewSpeechError(ErrorCodeDecode, "failed to decode audio", err).WithContext("format", format)
		}
		if err := s.router.Play(ctx, decoded, target); err != nil {
			return NewSpeechError(ErrorCodePlayback, "failed to play audio", err)
		}
		return nil
	})
}

func (s *Synthesizer) degrade(cause error) {
	s.mu.Lock()
	was := s.state
	s.state = StateDegraded
	s.degradedAt = s.now()
	if was != StateDegraded {
		s.announced = false
	}
	s.mu.Unlock()

	s.log.Error("Premium voice quota exhausted or rate limited, switching to free voice", "err", cause)
	if s.recoveryInterval > 0 {
		s.log.Info("Premium voice will be retried", "after", s.recoveryInterval)
	}
	s.events.Emit(report.TypeTTS, map[string]any{"state": StateDegraded.String(), "reason": cause.Error()})
}

func (s *Synthesizer) restartRecoveryClock() {
	s.mu.Lock()
	s.degradedAt = s.now()
	s.mu.Unlock()
}

func (s *Synthesizer) restore() {
	s.mu.Lock()
	was := s.state
	s.state = StateNormal
	s.degradedAt = time.Time{}
	s.announced = false
	s.mu.Unlock()

	if was == StateDegraded {
		s.log.Info("Premium voice restored")
		s.events.Emit(report.TypeTTS, map[string]any{"state": StateNormal.String()})
	}
}

// announceFallback logs once per degradation that the free voice is in use.
func (s *Synthesizer) announceFallback() {
	s.mu.Lock()
	if s.state != StateDegraded || s.announced {
		s.mu.Unlock()
		return
	}
	s.announced = true
	s.mu.Unlock()

	s.log.Warn("Using free Google voice while the premium quota is exhausted")
}
