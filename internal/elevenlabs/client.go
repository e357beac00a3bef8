package elevenlabs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
)

const (
	// DefaultBaseURL is the public ElevenLabs API.
	DefaultBaseURL = "https://api.elevenlabs.io"

	// DefaultVoiceID is the "Rachel" voice.
	DefaultVoiceID = "21m00Tcm4TlvDq8ikWAM"

	// DefaultModelID is the multilingual model used for synthesis.
	DefaultModelID = "eleven_multilingual_v2"

	// DefaultOutputFormat is MP3 at 44.1kHz.
	DefaultOutputFormat = "mp3_44100_128"

	DefaultStability  = 0.5
	DefaultSimilarity = 0.5
)

// ErrNotConfigured is returned when no API key is set.
var ErrNotConfigured = errors.New("elevenlabs API key not configured")

// Config configures a Client.
type Config struct {
	APIKey       string
	BaseURL      string
	ModelID      string
	OutputFormat string
	// Stability and Similarity are voice settings in 0..1; nil selects
	// the defaults.
	Stability  *float64
	Similarity *float64
}

// Client is a small ElevenLabs REST client covering speech synthesis and
// the voice list.
type Client struct {
	baseURL      string
	modelID      string
	outputFormat string
	settings     voiceSettings
	httpClient   *http.Client

	mu     sync.RWMutex
	apiKey string
}

type ttsRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

// NewClient creates a client. Requests carry their own deadlines through
// context; the HTTP client timeout is only a backstop.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.ModelID == "" {
		cfg.ModelID = DefaultModelID
	}
	if cfg.OutputFormat == "" {
		cfg.OutputFormat = DefaultOutputFormat
	}
	settings := voiceSettings{Stability: DefaultStability, SimilarityBoost: DefaultSimilarity}
	if cfg.Stability != nil {
		settings.Stability = *cfg.Stability
	}
	if cfg.Similarity != nil {
		settings.SimilarityBoost = *cfg.Similarity
	}
	return &Client{
		apiKey:       strings.TrimSpace(cfg.APIKey),
		baseURL:      strings.TrimSuffix(cfg.BaseURL, "/"),
		modelID:      cfg.ModelID,
		outputFormat: cfg.OutputFormat,
		settings:     settings,
		httpClient:   &http.Client{Timeout: 60 * time.Second},
	}
}

// Configured reports whether an API key is set.
func (c *Client) Configured() bool {
	return c.key() != ""
}

// SetAPIKey replaces the API key. An empty key leaves the client unconfigured.
func (c *Client) SetAPIKey(key string) {
	c.mu.Lock()
	c.apiKey = strings.TrimSpace(key)
	c.mu.Unlock()
}

// OutputFormat returns the requested audio format, e.g. "mp3_44100_128".
func (c *Client) OutputFormat() string {
	return c.outputFormat
}

func (c *Client) key() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.apiKey
}

// Synthesize converts text to audio with the given voice. Failures are
// returned as *Error with their Kind already decided.
func (c *Client) Synthesize(ctx context.Context, voiceID, text string) ([]byte, error) {
	key := c.key()
	if key == "" {
		return nil, ErrNotConfigured
	}

	body, err := sonic.Marshal(ttsRequest{
		Text:          text,
		ModelID:       c.modelID,
		VoiceSettings: c.settings,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1/text-to-speech/%s?output_format=%s",
		c.baseURL, url.PathEscape(voiceID), url.QueryEscape(c.outputFormat))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")
	req.Header.Set("xi-api-key", key)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Cause: err}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: KindTransport, StatusCode: resp.StatusCode, Cause: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, classifyResponse(resp.StatusCode, payload)
	}
	if len(payload) == 0 {
		return nil, &Error{Kind: KindRejected, StatusCode: resp.StatusCode, Detail: "empty audio payload"}
	}
	return payload, nil
}

// ListVoices fetches every voice available to the account.
func (c *Client) ListVoices(ctx context.Context) ([]Voice, error) {
	key := c.key()
	if key == "" {
		return nil, ErrNotConfigured
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/voices", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("xi-api-key", key)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch voices: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read voices: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ElevenLabs API error: %s - %s", resp.Status, string(payload))
	}

	var out voicesResponse
	if err := sonic.Unmarshal(payload, &out); err != nil {
		return nil, fmt.Errorf("failed to decode voices: %w", err)
	}
	return out.Voices, nil
}
