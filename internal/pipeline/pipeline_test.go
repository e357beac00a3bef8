package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/vozbot/vozbot/internal/chat"
	"github.com/vozbot/vozbot/internal/control"
	"github.com/vozbot/vozbot/internal/llm"
	"github.com/vozbot/vozbot/internal/memory"
	"github.com/vozbot/vozbot/internal/tts"
)

type fakeGen struct {
	enabled     bool
	answer      string
	err         error
	questions   []string
	key         string
	personality string
}

func (f *fakeGen) Enabled() bool { return f.enabled }

func (f *fakeGen) Generate(ctx context.Context, username, question string) (string, error) {
	f.questions = append(f.questions, username+": "+question)
	return f.answer, f.err
}

func (f *fakeGen) SetCredential(key string) error {
	f.key = key
	f.enabled = key != ""
	return nil
}

func (f *fakeGen) SetPersonality(p string) { f.personality = p }

type fakeSpeaker struct {
	spoken []string
	err    error
	voice  string
	key    string
	device *int
	volume int
}

func (f *fakeSpeaker) Speak(ctx context.Context, text string) error {
	f.spoken = append(f.spoken, text)
	return f.err
}

func (f *fakeSpeaker) SetVoice(ctx context.Context, id string) string {
	f.voice = id
	return "Voice " + id
}

func (f *fakeSpeaker) SetCredential(key string) { f.key = key }
func (f *fakeSpeaker) SetDevice(id *int)        { f.device = id }
func (f *fakeSpeaker) SetVolume(v int)          { f.volume = v }

type event struct {
	typ    string
	fields map[string]any
}

type fakeEvents struct {
	mu     sync.Mutex
	events []event
}

func (f *fakeEvents) Emit(typ string, fields map[string]any) {
	f.mu.Lock()
	f.events = append(f.events, event{typ, fields})
	f.mu.Unlock()
}

func (f *fakeEvents) of(typ string) []map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []map[string]any
	for _, e := range f.events {
		if e.typ == typ {
			out = append(out, e.fields)
		}
	}
	return out
}

type captured struct {
	err  error
	tags map[string]string
}

type fixture struct {
	gen      *fakeGen
	mem      *memory.Store
	speaker  *fakeSpeaker
	events   *fakeEvents
	captured []captured
	p        *Pipeline
}

func newFixture() *fixture {
	f := &fixture{
		gen:     &fakeGen{enabled: true, answer: "¡Hola!"},
		mem:     memory.NewStore(memory.DefaultCapacity),
		speaker: &fakeSpeaker{},
		events:  &fakeEvents{},
	}
	f.p = New("", f.gen, f.mem, f.speaker, f.events)
	f.p.newID = func() string { return "id-1" }
	f.p.capture = func(err error, tags map[string]string) {
		f.captured = append(f.captured, captured{err, tags})
	}
	return f
}

func TestHandleTrigger(t *testing.T) {
	f := newFixture()
	f.p.HandleTrigger(context.Background(), "alice", "¿qué tal?")

	if len(f.speaker.spoken) != 1 || f.speaker.spoken[0] != "¡Hola!" {
		t.Errorf("spoken = %q", f.speaker.spoken)
	}
	if got := f.mem.Entries("alice"); len(got) != 1 || got[0].Question != "¿qué tal?" || got[0].Answer != "¡Hola!" {
		t.Errorf("memory = %+v", got)
	}
	evs := f.events.of("ia_response")
	if len(evs) != 1 {
		t.Fatalf("ia_response events = %d", len(evs))
	}
	if evs[0]["id"] != "id-1" || evs[0]["username"] != "alice" || evs[0]["response"] != "¡Hola!" {
		t.Errorf("event = %v", evs[0])
	}
}

func TestHandleTriggerSkips(t *testing.T) {
	tests := []struct {
		name     string
		enabled  bool
		question string
	}{
		{name: "ai disabled", enabled: false, question: "hola"},
		{name: "empty question", enabled: true, question: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.gen.enabled = tt.enabled
			f.p.HandleTrigger(context.Background(), "bob", tt.question)

			if len(f.gen.questions) != 0 || len(f.speaker.spoken) != 0 {
				t.Errorf("generated %v, spoke %v", f.gen.questions, f.speaker.spoken)
			}
			if len(f.events.of("ia_response")) != 0 {
				t.Error("unexpected ia_response event")
			}
		})
	}
}

func TestHandleTriggerGenerationError(t *testing.T) {
	f := newFixture()
	f.gen.err = &llm.Error{Kind: llm.KindQuotaExceeded, Message: "The AI quota is exhausted."}

	f.p.HandleTrigger(context.Background(), "carol", "hola")

	if f.mem.Count("carol") != 0 {
		t.Error("failed interaction was remembered")
	}
	if len(f.speaker.spoken) != 1 || f.speaker.spoken[0] != "The AI quota is exhausted." {
		t.Errorf("spoken = %q", f.speaker.spoken)
	}
	evs := f.events.of("ia_response")
	if len(evs) != 1 || evs[0]["kind"] != "QUOTA_EXCEEDED" || evs[0]["error"] != "The AI quota is exhausted." {
		t.Errorf("events = %v", evs)
	}
	if len(f.captured) != 0 {
		t.Errorf("quota errors should not be reported: %v", f.captured)
	}

	f.gen.err = &llm.Error{Kind: llm.KindTransient, Message: "The AI is unavailable."}
	f.p.HandleTrigger(context.Background(), "carol", "hola")
	if len(f.captured) != 1 || f.captured[0].tags["stage"] != "generate" {
		t.Errorf("transient error not reported: %v", f.captured)
	}
}

func TestHandleTriggerSpeakError(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		wantCode      any
		wantRetryable any
		wantCaptured  bool
		wantTags      map[string]string
	}{
		{
			name:         "plain error",
			err:          errors.New("no provider"),
			wantCaptured: true,
			wantTags:     map[string]string{"stage": "speak"},
		},
		{
			name: "decode failure",
			err: fmt.Errorf("%w: %w", tts.ErrProviderUnavailable,
				tts.NewSpeechError(tts.ErrorCodeDecode, "failed to decode audio", errors.New("bad header")).WithContext("format", "mp3")),
			wantCode:      "UNSUPPORTED_FORMAT",
			wantRetryable: false,
			wantCaptured:  true,
			wantTags:      map[string]string{"stage": "speak", "code": "UNSUPPORTED_FORMAT", "format": "mp3"},
		},
		{
			name: "timeout",
			err: fmt.Errorf("%w: %w", tts.ErrProviderUnavailable,
				tts.NewSpeechError(tts.ErrorCodeTimeout, "free synthesis failed", context.DeadlineExceeded)),
			wantCode:      "TIMEOUT",
			wantRetryable: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.speaker.err = tt.err

			f.p.HandleTrigger(context.Background(), "dave", "hola")

			if f.mem.Count("dave") != 1 {
				t.Error("answer not remembered when speech failed")
			}
			evs := f.events.of("tts")
			if len(evs) != 1 || evs[0]["status"] != "failed" {
				t.Fatalf("tts events = %v", evs)
			}
			if evs[0]["code"] != tt.wantCode || evs[0]["retryable"] != tt.wantRetryable {
				t.Errorf("event code = %v, retryable = %v", evs[0]["code"], evs[0]["retryable"])
			}

			if !tt.wantCaptured {
				if len(f.captured) != 0 {
					t.Errorf("retryable failure was reported: %v", f.captured)
				}
				return
			}
			if len(f.captured) != 1 {
				t.Fatalf("captured %d errors, want 1", len(f.captured))
			}
			got := f.captured[0].tags
			if len(got) != len(tt.wantTags) {
				t.Errorf("tags = %v, want %v", got, tt.wantTags)
			}
			for k, v := range tt.wantTags {
				if got[k] != v {
					t.Errorf("tag %s = %q, want %q", k, got[k], v)
				}
			}
		})
	}
}

func TestHandleCommand(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.mem.Record("alice", "q1", "a1")
	f.mem.Record("alice", "q2", "a2")
	f.mem.Record("bob", "q", "a")

	apply := func(line string) {
		t.Helper()
		cmd, err := control.Parse(line)
		if err != nil {
			t.Fatalf("Parse(%q): %v", line, err)
		}
		f.p.HandleCommand(ctx, cmd)
	}

	apply("CHANGE_VOICE:v9")
	apply("UPDATE_GEMINI_KEY:new-ai")
	apply("UPDATE_ELEVENLABS_KEY:new-xi")
	apply("UPDATE_PERSONALITY:Eres un gato")
	apply("UPDATE_AUDIO_DEVICE:2")
	apply("UPDATE_VOLUME:35")
	apply("UPDATE_TRIGGER:!bot")

	if f.speaker.voice != "v9" || f.speaker.key != "new-xi" || f.speaker.volume != 35 {
		t.Errorf("speaker = %+v", f.speaker)
	}
	if f.speaker.device == nil || *f.speaker.device != 2 {
		t.Errorf("device = %v", f.speaker.device)
	}
	if f.gen.key != "new-ai" || f.gen.personality != "Eres un gato" {
		t.Errorf("gen = %+v", f.gen)
	}
	if f.p.Trigger() != "!bot" {
		t.Errorf("trigger = %q", f.p.Trigger())
	}
	if evs := f.events.of("system"); len(evs) != 1 || evs[0]["voice_name"] != "Voice v9" {
		t.Errorf("system events = %v", evs)
	}

	apply("MEMORY_STATS")
	apply("RESET_MEMORY:alice")
	apply("RESET_MEMORY")

	evs := f.events.of("memory")
	if len(evs) != 3 {
		t.Fatalf("memory events = %v", evs)
	}
	if evs[0]["users"] != 2 || evs[0]["interactions"] != 3 {
		t.Errorf("stats = %v", evs[0])
	}
	if evs[1]["users"] != 1 || evs[1]["interactions"] != 2 {
		t.Errorf("reset alice = %v", evs[1])
	}
	if evs[2]["users"] != 1 || evs[2]["interactions"] != 1 {
		t.Errorf("reset all = %v", evs[2])
	}
	if st := f.mem.Stats(); st.Users != 0 {
		t.Errorf("memory not empty: %+v", st)
	}
}

func TestRun(t *testing.T) {
	f := newFixture()
	messages := make(chan chat.Message, 8)
	commands := make(chan control.Command, 8)

	messages <- chat.Message{Username: "alice", Text: "hola a todos"}
	messages <- chat.Message{Username: "alice", Text: "!ia primera"}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- f.p.Run(ctx, messages, commands) }()

	// Wait for the first answer before changing the trigger so ordering
	// between the two channels is deterministic.
	waitFor(t, func() bool { return len(f.events.of("ia_response")) == 1 })

	commands <- control.Command{Kind: control.KindUpdateTrigger, Value: "!bot"}
	commands <- control.Command{Kind: control.KindMemoryStats}
	waitFor(t, func() bool { return len(f.events.of("memory")) == 1 })

	messages <- chat.Message{Username: "bob", Text: "!IA ignorada"}
	messages <- chat.Message{Username: "bob", Text: "!BOT segunda"}
	waitFor(t, func() bool { return len(f.events.of("ia_response")) == 2 })

	commands <- control.Command{Kind: control.KindStop}
	if err := <-done; err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := []string{"alice: primera", "bob: segunda"}
	if len(f.gen.questions) != len(want) {
		t.Fatalf("questions = %q, want %q", f.gen.questions, want)
	}
	for i := range want {
		if f.gen.questions[i] != want[i] {
			t.Errorf("questions[%d] = %q, want %q", i, f.gen.questions[i], want[i])
		}
	}
}

func TestRunClosedChannels(t *testing.T) {
	f := newFixture()
	messages := make(chan chat.Message)
	commands := make(chan control.Command)
	close(messages)
	close(commands)

	if err := f.p.Run(context.Background(), messages, commands); err != nil {
		t.Errorf("Run = %v, want nil", err)
	}
}

func TestRunCancelled(t *testing.T) {
	f := newFixture()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := f.p.Run(ctx, make(chan chat.Message), make(chan control.Command))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run = %v, want context.Canceled", err)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
