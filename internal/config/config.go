// Package config loads vozbot settings from the config file, VOZBOT_*
// environment variables and flags, and turns later edits of the file into
// control commands.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
	homedir "github.com/mitchellh/go-homedir"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/viper"

	"github.com/vozbot/vozbot/internal/elevenlabs"
	"github.com/vozbot/vozbot/internal/memory"
)

// AppName names the config file, env prefix and app directories.
const AppName = "vozbot"

// Settings is the resolved configuration.
type Settings struct {
	Chat   Chat   `mapstructure:"chat"`
	AI     AI     `mapstructure:"ai"`
	Voice  Voice  `mapstructure:"voice"`
	GTTS   GTTS   `mapstructure:"gtts"`
	Audio  Audio  `mapstructure:"audio"`
	Memory Memory `mapstructure:"memory"`
	Log    Log    `mapstructure:"log"`
	Report Report `mapstructure:"report"`
	Sentry Sentry `mapstructure:"sentry"`
}

type Chat struct {
	Channel string `mapstructure:"channel"`
	Token   string `mapstructure:"token"`
	Nick    string `mapstructure:"nick"`
	URL     string `mapstructure:"url"`
	Trigger string `mapstructure:"trigger"`
}

type AI struct {
	Provider    string        `mapstructure:"provider"`
	Model       string        `mapstructure:"model"`
	BaseURL     string        `mapstructure:"base_url"`
	APIKey      string        `mapstructure:"api_key"`
	Personality string        `mapstructure:"personality"`
	ReplyHint   string        `mapstructure:"reply_hint"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type Voice struct {
	APIKey           string        `mapstructure:"api_key"`
	BaseURL          string        `mapstructure:"base_url"`
	VoiceID          string        `mapstructure:"voice_id"`
	ModelID          string        `mapstructure:"model_id"`
	OutputFormat     string        `mapstructure:"output_format"`
	Stability        float64       `mapstructure:"stability"`
	Similarity       float64       `mapstructure:"similarity"`
	Timeout          time.Duration `mapstructure:"timeout"`
	RecoveryInterval time.Duration `mapstructure:"recovery_interval"`
}

type GTTS struct {
	Binary            string        `mapstructure:"binary"`
	Language          string        `mapstructure:"language"`
	Slow              bool          `mapstructure:"slow"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
}

type Audio struct {
	// Device is an output device index; negative selects the default.
	Device  int    `mapstructure:"device"`
	Volume  int    `mapstructure:"volume"`
	FFmpeg  string `mapstructure:"ffmpeg"`
	TempDir string `mapstructure:"temp_dir"`
}

// DeviceID returns the configured device, or nil for the default.
func (a Audio) DeviceID() *int {
	if a.Device < 0 {
		return nil
	}
	id := a.Device
	return &id
}

type Memory struct {
	Capacity int `mapstructure:"capacity"`
}

type Log struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

type Report struct {
	// Events is where JSON events go: "stdout", "stderr", a file path or
	// empty to disable.
	Events string `mapstructure:"events"`
}

type Sentry struct {
	DSN         string `mapstructure:"dsn"`
	Environment string `mapstructure:"environment"`
}

// Secrets are credentials read from their conventional environment
// variables. They win over the config file.
type Secrets struct {
	ChatToken string `env:"TWITCH_TOKEN"`
	AIKey     string `env:"GEMINI_API_KEY"`
	VoiceKey  string `env:"ELEVENLABS_API_KEY"`
	SentryDSN string `env:"SENTRY_DSN"`
}

// SetDefaults registers every key with its default, which also lets
// AutomaticEnv resolve VOZBOT_* variables for it.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("chat.channel", "")
	v.SetDefault("chat.token", "")
	v.SetDefault("chat.nick", "")
	v.SetDefault("chat.url", "wss://irc-ws.chat.twitch.tv:443")
	v.SetDefault("chat.trigger", "!IA")

	v.SetDefault("ai.provider", "gemini")
	v.SetDefault("ai.model", "")
	v.SetDefault("ai.base_url", "")
	v.SetDefault("ai.api_key", "")
	v.SetDefault("ai.personality", "")
	v.SetDefault("ai.reply_hint", "Keep your answers under 150 characters.")
	v.SetDefault("ai.max_tokens", 150)
	v.SetDefault("ai.timeout", "30s")

	v.SetDefault("voice.api_key", "")
	v.SetDefault("voice.base_url", "https://api.elevenlabs.io")
	v.SetDefault("voice.voice_id", "21m00Tcm4TlvDq8ikWAM")
	v.SetDefault("voice.model_id", "eleven_multilingual_v2")
	v.SetDefault("voice.output_format", "mp3_44100_128")
	v.SetDefault("voice.stability", elevenlabs.DefaultStability)
	v.SetDefault("voice.similarity", elevenlabs.DefaultSimilarity)
	v.SetDefault("voice.timeout", "30s")
	v.SetDefault("voice.recovery_interval", "15m")

	v.SetDefault("gtts.binary", "gtts-cli")
	v.SetDefault("gtts.language", "es")
	v.SetDefault("gtts.slow", false)
	v.SetDefault("gtts.timeout", "30s")
	v.SetDefault("gtts.requests_per_minute", 50)

	v.SetDefault("audio.device", -1)
	v.SetDefault("audio.volume", 100)
	v.SetDefault("audio.ffmpeg", "ffmpeg")
	v.SetDefault("audio.temp_dir", "")

	v.SetDefault("memory.capacity", memory.DefaultCapacity)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")

	v.SetDefault("report.events", "")

	v.SetDefault("sentry.dsn", "")
	v.SetDefault("sentry.environment", "production")
}

// ConfigDirs lists the directories searched for vozbot.yml, most specific
// first.
func ConfigDirs() ([]string, error) {
	dirs, err := gap.NewScope(gap.User, AppName).ConfigDirs()
	if err != nil {
		return nil, fmt.Errorf("could not find configuration directory: %w", err)
	}
	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, AppName)}, dirs...)
	}
	if c := os.Getenv("VOZBOT_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}
	return dirs, nil
}

// DefaultFile is where a new config file is created.
func DefaultFile() (string, error) {
	dirs, err := ConfigDirs()
	if err != nil {
		return "", err
	}
	return filepath.Join(dirs[0], AppName+".yml"), nil
}

// LogFile is the default log file location in the user cache dir.
func LogFile() (string, error) {
	dir, err := gap.NewScope(gap.User, AppName).CacheDir()
	if err != nil {
		return "", fmt.Errorf("could not find cache directory: %w", err)
	}
	return filepath.Join(dir, AppName+".log"), nil
}

// Prepare sets defaults and env handling on v and reads file, or searches the
// config dirs when file is empty. A missing config file is not an error.
func Prepare(v *viper.Viper, file string) error {
	SetDefaults(v)
	v.SetEnvPrefix(AppName)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		dirs, err := ConfigDirs()
		if err != nil {
			return err
		}
		for _, d := range dirs {
			v.AddConfigPath(d)
		}
		v.SetConfigName(AppName)
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || (file != "" && errors.Is(err, os.ErrNotExist)) {
			return nil
		}
		return fmt.Errorf("could not parse configuration file: %w", err)
	}
	log.Debug("Using configuration file", "path", v.ConfigFileUsed())
	return nil
}

// Load resolves Settings from v plus the secret environment variables.
func Load(v *viper.Viper) (Settings, error) {
	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return s, fmt.Errorf("invalid configuration: %w", err)
	}

	secrets, err := env.ParseAs[Secrets]()
	if err != nil {
		return s, fmt.Errorf("error parsing environment: %w", err)
	}
	override(&s.Chat.Token, secrets.ChatToken)
	override(&s.AI.APIKey, secrets.AIKey)
	override(&s.Voice.APIKey, secrets.VoiceKey)
	override(&s.Sentry.DSN, secrets.SentryDSN)

	for _, p := range []*string{&s.Audio.TempDir, &s.Audio.FFmpeg, &s.GTTS.Binary, &s.Log.File} {
		if *p, err = homedir.Expand(*p); err != nil {
			return s, fmt.Errorf("invalid path: %w", err)
		}
	}
	if !isStream(s.Report.Events) {
		if s.Report.Events, err = homedir.Expand(s.Report.Events); err != nil {
			return s, fmt.Errorf("invalid path: %w", err)
		}
	}

	return s, s.Validate()
}

// Validate checks values that would otherwise fail later at runtime.
func (s Settings) Validate() error {
	var errs []error
	if s.Chat.Trigger == "" || strings.ContainsAny(s.Chat.Trigger, " \t") {
		errs = append(errs, fmt.Errorf("chat.trigger must be a single word, got %q", s.Chat.Trigger))
	}
	if s.Audio.Volume < 0 || s.Audio.Volume > 100 {
		errs = append(errs, fmt.Errorf("audio.volume must be between 0 and 100, got %d", s.Audio.Volume))
	}
	if s.Memory.Capacity < 1 || s.Memory.Capacity > memory.DefaultCapacity {
		errs = append(errs, fmt.Errorf("memory.capacity must be between 1 and %d, got %d", memory.DefaultCapacity, s.Memory.Capacity))
	}
	if s.Voice.Stability < 0 || s.Voice.Stability > 1 {
		errs = append(errs, fmt.Errorf("voice.stability must be between 0 and 1, got %g", s.Voice.Stability))
	}
	if s.Voice.Similarity < 0 || s.Voice.Similarity > 1 {
		errs = append(errs, fmt.Errorf("voice.similarity must be between 0 and 1, got %g", s.Voice.Similarity))
	}
	if s.Voice.RecoveryInterval < 0 {
		errs = append(errs, fmt.Errorf("voice.recovery_interval must not be negative, got %s", s.Voice.RecoveryInterval))
	}
	if _, err := log.ParseLevel(s.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	return errors.Join(errs...)
}

func override(dst *string, val string) {
	if val != "" {
		*dst = val
	}
}

func isStream(s string) bool {
	return s == "" || s == "stdout" || s == "stderr"
}
