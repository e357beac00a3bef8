package elevenlabs

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

type fakeLister struct {
	configured bool
	voices     []Voice
	err        error
	calls      int
}

func (f *fakeLister) Configured() bool { return f.configured }

func (f *fakeLister) ListVoices(ctx context.Context) ([]Voice, error) {
	f.calls++
	return f.voices, f.err
}

func TestCatalog_ResolveNameFetchesOnce(t *testing.T) {
	lister := &fakeLister{configured: true, voices: []Voice{
		{ID: "a", Name: "Rachel"},
		{ID: "b", Name: "Adam"},
	}}
	c := NewCatalog(lister)

	if got := c.ResolveName(context.Background(), "a"); got != "Rachel" {
		t.Errorf("got %q, want Rachel", got)
	}
	if got := c.ResolveName(context.Background(), "b"); got != "Adam" {
		t.Errorf("got %q, want Adam", got)
	}
	if lister.calls != 1 {
		t.Errorf("expected one fetch, got %d", lister.calls)
	}
}

func TestCatalog_ResolveNameFallsBackToID(t *testing.T) {
	tests := []struct {
		name   string
		lister *fakeLister
	}{
		{"unknown id", &fakeLister{configured: true, voices: []Voice{{ID: "a", Name: "Rachel"}}}},
		{"fetch error", &fakeLister{configured: true, err: errors.New("boom")}},
		{"unconfigured", &fakeLister{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCatalog(tt.lister)
			if got := c.ResolveName(context.Background(), "zzz"); got != "zzz" {
				t.Errorf("got %q, want the id itself", got)
			}
		})
	}
}

func TestCatalog_Invalidate(t *testing.T) {
	lister := &fakeLister{configured: true, voices: []Voice{{ID: "a", Name: "Rachel"}}}
	c := NewCatalog(lister)

	c.ResolveName(context.Background(), "a")
	lister.voices = []Voice{{ID: "a", Name: "Renamed"}}
	if got := c.ResolveName(context.Background(), "a"); got != "Rachel" {
		t.Errorf("cached name expected, got %q", got)
	}

	c.Invalidate()
	if got := c.ResolveName(context.Background(), "a"); got != "Renamed" {
		t.Errorf("expected refetch after invalidate, got %q", got)
	}
	if lister.calls != 2 {
		t.Errorf("expected two fetches, got %d", lister.calls)
	}
}

func TestCatalog_ListVoicesSorted(t *testing.T) {
	lister := &fakeLister{configured: true, voices: []Voice{
		{ID: "1", Name: "bella"},
		{ID: "2", Name: "Adam"},
		{ID: "3", Name: "Charlie"},
	}}
	c := NewCatalog(lister)

	got := c.ListVoices(context.Background())
	want := []string{"Adam", "bella", "Charlie"}
	if len(got) != len(want) {
		t.Fatalf("expected %d voices, got %d", len(want), len(got))
	}
	for i, v := range got {
		if v.Name != want[i] {
			t.Errorf("position %d: got %q, want %q", i, v.Name, want[i])
		}
	}
	if lister.voices[0].Name != "bella" {
		t.Error("source slice should not be reordered")
	}
}

func TestCatalog_ListVoicesEmptyOnFailure(t *testing.T) {
	for _, lister := range []*fakeLister{{}, {configured: true, err: errors.New("down")}} {
		got := NewCatalog(lister).ListVoices(context.Background())
		if got == nil || len(got) != 0 {
			t.Errorf("expected empty non-nil list, got %#v", got)
		}
	}
}

func TestCatalog_Search(t *testing.T) {
	lister := &fakeLister{configured: true, voices: []Voice{
		{ID: "1", Name: "Rachel"},
		{ID: "2", Name: "Adam"},
		{ID: "3", Name: "Domi"},
	}}
	c := NewCatalog(lister)

	got := c.Search(context.Background(), "rch")
	if len(got) != 1 || got[0].Name != "Rachel" {
		t.Errorf("expected Rachel, got %+v", got)
	}

	if all := c.Search(context.Background(), ""); len(all) != 3 {
		t.Errorf("empty query should return all voices, got %d", len(all))
	}
}

func TestCatalog_WithHTTPClient(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path != "/v1/voices" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"voices":[
			{"voice_id":"21m00Tcm4TlvDq8ikWAM","name":"Rachel","category":"premade","labels":{"accent":"american"}},
			{"voice_id":"pNInz6obpgDQGcFmaJgB","name":"Adam","category":"premade"}]}`)
	}))
	defer srv.Close()

	c := NewCatalog(NewClient(Config{APIKey: "k", BaseURL: srv.URL}))
	if got := c.ResolveName(context.Background(), DefaultVoiceID); got != "Rachel" {
		t.Errorf("got %q, want Rachel", got)
	}
	voices := c.ListVoices(context.Background())
	if len(voices) != 2 || voices[0].Name != "Adam" {
		t.Errorf("unexpected voices %+v", voices)
	}
	if voices[1].Labels["accent"] != "american" {
		t.Errorf("labels not decoded: %+v", voices[1].Labels)
	}
	if hits.Load() != 2 {
		t.Errorf("expected 2 requests, got %d", hits.Load())
	}
}
