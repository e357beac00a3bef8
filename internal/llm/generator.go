package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mattn/go-runewidth"
)

// DefaultPersonality is used when no personality is configured, or when an
// empty one is set.
const DefaultPersonality = "You are a friendly and helpful assistant that answers clearly and concisely."

// DefaultReplyHint is appended to the personality to keep answers speakable.
const DefaultReplyHint = "Keep your answers under 150 characters."

// DefaultTimeout bounds a single generation request.
const DefaultTimeout = 30 * time.Second

// Request is the provider-neutral payload sent to a Backend.
type Request struct {
	System    string
	User      string
	MaxTokens int
}

// Backend produces a completion for a request. Implementations return a
// classified *Error on failure.
type Backend interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// BackendFactory builds a Backend for a credential.
type BackendFactory func(apiKey string) (Backend, error)

// History supplies the conversation transcript for a user.
type History interface {
	Context(username string) string
}

// Config configures a Generator.
type Config struct {
	Personality string
	ReplyHint   string
	Timeout     time.Duration
	MaxTokens   int
}

// Generator turns a user's question into an answer using the configured
// backend, with that user's history as context.
type Generator struct {
	factory BackendFactory
	history History
	log     *log.Logger

	mu          sync.RWMutex
	backend     Backend
	personality string
	replyHint   string
	timeout     time.Duration
	maxTokens   int
}

// NewGenerator creates a generator. The generator starts disabled until
// SetCredential is called with a non-empty key.
func NewGenerator(cfg Config, factory BackendFactory, history History) *Generator {
	g := &Generator{
		factory:   factory,
		history:   history,
		log:       log.WithPrefix("ai"),
		replyHint: cfg.ReplyHint,
		timeout:   cfg.Timeout,
		maxTokens: cfg.MaxTokens,
	}
	if g.timeout <= 0 {
		g.timeout = DefaultTimeout
	}
	if g.maxTokens <= 0 {
		g.maxTokens = 256
	}
	g.SetPersonality(cfg.Personality)
	return g
}

// Enabled reports whether a backend is configured.
func (g *Generator) Enabled() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.backend != nil
}

// SetCredential replaces the backend credential. An empty key disables
// generation.
func (g *Generator) SetCredential(apiKey string) error {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		g.mu.Lock()
		g.backend = nil
		g.mu.Unlock()
		g.log.Info("API key removed, AI disabled")
		return nil
	}

	backend, err := g.factory(apiKey)
	if err != nil {
		return fmt.Errorf("failed to create AI backend: %w", err)
	}

	g.mu.Lock()
	g.backend = backend
	g.mu.Unlock()
	g.log.Info("API key updated, AI enabled")
	return nil
}

// SetPersonality replaces the system instruction wholesale. An empty value
// restores DefaultPersonality.
func (g *Generator) SetPersonality(p string) {
	p = strings.TrimSpace(p)
	if p == "" {
		p = DefaultPersonality
	}
	g.mu.Lock()
	g.personality = p
	g.mu.Unlock()
}

// Personality returns the current system instruction.
func (g *Generator) Personality() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.personality
}

// Generate asks the backend to answer question on behalf of username.
// The reply is returned unmodified. Failures are *Error values or ErrDisabled.
func (g *Generator) Generate(ctx context.Context, username, question string) (string, error) {
	g.mu.RLock()
	backend := g.backend
	req := g.buildRequest(username, question)
	timeout := g.timeout
	g.mu.RUnlock()

	if backend == nil {
		return "", ErrDisabled
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	g.log.Debug("Requesting answer", "user", username, "question", preview(question))
	reply, err := backend.Complete(ctx, req)
	if err != nil {
		var classified *Error
		if errors.As(err, &classified) {
			return "", classified
		}
		return "", classify(0, err.Error(), err)
	}
	return reply, nil
}

func (g *Generator) buildRequest(username, question string) Request {
	system := g.personality
	if g.replyHint != "" {
		system += " " + g.replyHint
	}

	user := fmt.Sprintf("The user %s asks: %s", username, normalize(question))
	if g.history != nil {
		if transcript := g.history.Context(username); transcript != "" {
			user = transcript + "\n" + user
		}
	}

	return Request{System: system, User: user, MaxTokens: g.maxTokens}
}

func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func preview(s string) string {
	return runewidth.Truncate(s, 60, "...")
}
