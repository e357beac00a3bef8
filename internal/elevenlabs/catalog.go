package elevenlabs

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/sahilm/fuzzy"
)

// DefaultCatalogTimeout bounds a voice list fetch.
const DefaultCatalogTimeout = 10 * time.Second

// Voice describes one premium voice.
type Voice struct {
	ID          string            `json:"voice_id"`
	Name        string            `json:"name"`
	Category    string            `json:"category,omitempty"`
	Description string            `json:"description,omitempty"`
	PreviewURL  string            `json:"preview_url,omitempty"`
	Labels      map[string]string `json:"labels,omitempty"`
}

type voicesResponse struct {
	Voices []Voice `json:"voices"`
}

// Voices is a list of voices searchable by name.
type Voices []Voice

func (v Voices) String(i int) string { return v[i].Name }
func (v Voices) Len() int            { return len(v) }

// VoiceLister fetches the voice list from the provider.
type VoiceLister interface {
	Configured() bool
	ListVoices(ctx context.Context) ([]Voice, error)
}

// Catalog caches voice display names. The cache is filled from a single
// fetch and dropped as a whole when the credential changes.
type Catalog struct {
	lister  VoiceLister
	timeout time.Duration
	log     *log.Logger

	mu    sync.Mutex
	names map[string]string
}

// NewCatalog creates a catalog backed by lister.
func NewCatalog(lister VoiceLister) *Catalog {
	return &Catalog{
		lister:  lister,
		timeout: DefaultCatalogTimeout,
		log:     log.WithPrefix("voices"),
		names:   make(map[string]string),
	}
}

// ResolveName returns the display name for a voice id, fetching the catalog
// once on a miss. Unknown ids resolve to themselves.
func (c *Catalog) ResolveName(ctx context.Context, id string) string {
	c.mu.Lock()
	name, ok := c.names[id]
	c.mu.Unlock()
	if ok {
		return name
	}

	voices, err := c.fetch(ctx)
	if err != nil {
		c.log.Debug("Could not resolve voice name", "id", id, "err", err)
		return id
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, v := range voices {
		c.names[v.ID] = v.Name
	}
	if name, ok := c.names[id]; ok {
		return name
	}
	return id
}

// Invalidate empties the name cache.
func (c *Catalog) Invalidate() {
	c.mu.Lock()
	c.names = make(map[string]string)
	c.mu.Unlock()
}

// ListVoices returns every voice sorted by name, ignoring case. It returns
// an empty list when the provider is unconfigured or the fetch fails.
func (c *Catalog) ListVoices(ctx context.Context) Voices {
	voices, err := c.fetch(ctx)
	if err != nil {
		c.log.Warn("Could not list voices", "err", err)
		return Voices{}
	}

	sorted := make(Voices, len(voices))
	copy(sorted, voices)
	sort.SliceStable(sorted, func(i, j int) bool {
		return strings.ToLower(sorted[i].Name) < strings.ToLower(sorted[j].Name)
	})
	return sorted
}

// Search returns voices whose names fuzzy-match query, best match first.
// An empty query returns the full sorted list.
func (c *Catalog) Search(ctx context.Context, query string) Voices {
	voices := c.ListVoices(ctx)
	if strings.TrimSpace(query) == "" {
		return voices
	}

	matches := fuzzy.FindFrom(query, voices)
	out := make(Voices, 0, len(matches))
	for _, m := range matches {
		out = append(out, voices[m.Index])
	}
	return out
}

func (c *Catalog) fetch(ctx context.Context) ([]Voice, error) {
	if !c.lister.Configured() {
		return nil, ErrNotConfigured
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return c.lister.ListVoices(ctx)
}
