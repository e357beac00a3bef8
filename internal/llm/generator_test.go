package llm

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

type fakeBackend struct {
	reply string
	err   error
	got   Request
	calls int
}

func (f *fakeBackend) Complete(ctx context.Context, req Request) (string, error) {
	f.calls++
	f.got = req
	return f.reply, f.err
}

type fakeHistory map[string]string

func (h fakeHistory) Context(username string) string { return h[username] }

func newTestGenerator(t *testing.T, backend Backend, history History) *Generator {
	t.Helper()
	g := NewGenerator(Config{ReplyHint: DefaultReplyHint}, func(string) (Backend, error) {
		return backend, nil
	}, history)
	if err := g.SetCredential("test-key"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	return g
}

func TestGenerator_DisabledWithoutCredential(t *testing.T) {
	g := NewGenerator(Config{}, func(string) (Backend, error) {
		t.Fatal("factory should not be called")
		return nil, nil
	}, nil)

	if g.Enabled() {
		t.Fatal("generator should start disabled")
	}
	_, err := g.Generate(context.Background(), "alice", "hello")
	if !errors.Is(err, ErrDisabled) {
		t.Errorf("expected ErrDisabled, got %v", err)
	}
	if msg := UserMessage(err); msg == "" {
		t.Error("disabled error should have a user message")
	}
}

func TestGenerator_EmptyCredentialDisables(t *testing.T) {
	g := newTestGenerator(t, &fakeBackend{reply: "hi"}, nil)
	if !g.Enabled() {
		t.Fatal("generator should be enabled")
	}
	if err := g.SetCredential("   "); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if g.Enabled() {
		t.Error("empty credential should disable the generator")
	}
}

func TestGenerator_ReturnsReplyUnmodified(t *testing.T) {
	reply := "  A long answer with trailing spaces and more than one hundred and fifty characters so that nothing here could be mistaken for truncation happening.   "
	backend := &fakeBackend{reply: reply}
	g := newTestGenerator(t, backend, nil)

	got, err := g.Generate(context.Background(), "alice", "tell me")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got != reply {
		t.Errorf("reply was modified: %q", got)
	}
}

func TestGenerator_BuildsPrompt(t *testing.T) {
	tests := []struct {
		name        string
		history     fakeHistory
		question    string
		wantUser    string
		wantHistory bool
	}{
		{
			name:     "no history",
			history:  fakeHistory{},
			question: "what   is\tgo?",
			wantUser: "The user alice asks: what is go?",
		},
		{
			name:        "with history",
			history:     fakeHistory{"alice": "Conversation history with this user:\nUser: hi\nYour answer: hello\n"},
			question:    "and now?",
			wantUser:    "The user alice asks: and now?",
			wantHistory: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := &fakeBackend{reply: "ok"}
			g := newTestGenerator(t, backend, tt.history)
			g.SetPersonality("You are a pirate.")

			if _, err := g.Generate(context.Background(), "alice", tt.question); err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}

			if !strings.HasPrefix(backend.got.System, "You are a pirate.") {
				t.Errorf("system should start with personality, got %q", backend.got.System)
			}
			if !strings.Contains(backend.got.System, DefaultReplyHint) {
				t.Errorf("system should carry the reply hint, got %q", backend.got.System)
			}
			if !strings.HasSuffix(backend.got.User, tt.wantUser) {
				t.Errorf("user content %q should end with %q", backend.got.User, tt.wantUser)
			}
			hasHistory := strings.HasPrefix(backend.got.User, "Conversation history")
			if hasHistory != tt.wantHistory {
				t.Errorf("history prefix = %v, want %v", hasHistory, tt.wantHistory)
			}
		})
	}
}

func TestGenerator_Personality(t *testing.T) {
	g := NewGenerator(Config{}, nil, nil)
	if g.Personality() != DefaultPersonality {
		t.Errorf("expected default personality, got %q", g.Personality())
	}

	g.SetPersonality("Be terse.")
	if g.Personality() != "Be terse." {
		t.Errorf("personality not replaced, got %q", g.Personality())
	}

	g.SetPersonality("")
	if g.Personality() != DefaultPersonality {
		t.Errorf("empty personality should restore default, got %q", g.Personality())
	}
}

func TestGenerator_PassesThroughClassifiedErrors(t *testing.T) {
	want := &Error{Kind: KindQuotaExceeded, Message: "quota"}
	g := newTestGenerator(t, &fakeBackend{err: want}, nil)

	_, err := g.Generate(context.Background(), "bob", "hi")
	var got *Error
	if !errors.As(err, &got) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if got != want {
		t.Errorf("classified error should pass through unchanged")
	}
}

func TestGenerator_ClassifiesUnknownErrorsAsTransient(t *testing.T) {
	g := newTestGenerator(t, &fakeBackend{err: errors.New("connection reset")}, nil)

	_, err := g.Generate(context.Background(), "bob", "hi")
	var got *Error
	if !errors.As(err, &got) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if got.Kind != KindTransient {
		t.Errorf("expected transient, got %s", got.Kind)
	}
}

type slowBackend struct{}

func (slowBackend) Complete(ctx context.Context, req Request) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestGenerator_Timeout(t *testing.T) {
	g := NewGenerator(Config{Timeout: 20 * time.Millisecond}, func(string) (Backend, error) {
		return slowBackend{}, nil
	}, nil)
	if err := g.SetCredential("key"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	_, err := g.Generate(context.Background(), "bob", "hi")
	var got *Error
	if !errors.As(err, &got) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if got.Kind != KindTransient {
		t.Errorf("timeout should be transient, got %s", got.Kind)
	}
}
