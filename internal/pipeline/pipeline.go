// Package pipeline runs the single worker that owns the bot's state: it
// answers chat triggers and applies control commands one at a time.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/mattn/go-runewidth"

	"github.com/vozbot/vozbot/internal/chat"
	"github.com/vozbot/vozbot/internal/control"
	"github.com/vozbot/vozbot/internal/llm"
	"github.com/vozbot/vozbot/internal/memory"
	"github.com/vozbot/vozbot/internal/report"
	"github.com/vozbot/vozbot/internal/tts"
)

// Generator produces answers.
type Generator interface {
	Enabled() bool
	Generate(ctx context.Context, username, question string) (string, error)
	SetCredential(apiKey string) error
	SetPersonality(p string)
}

// Memory records interactions.
type Memory interface {
	Record(username, question, answer string) int
	Clear(username string) memory.Stats
	Stats() memory.Stats
}

// Speaker voices answers.
type Speaker interface {
	Speak(ctx context.Context, text string) error
	SetVoice(ctx context.Context, id string) string
	SetCredential(key string)
	SetDevice(id *int)
	SetVolume(v int)
}

// Pipeline answers triggers and applies commands on one goroutine.
type Pipeline struct {
	gen     Generator
	mem     Memory
	speaker Speaker
	events  report.Emitter
	log     *log.Logger
	newID   func() string
	capture func(err error, tags map[string]string)

	// trigger is only touched by the worker.
	trigger string
}

// New creates a pipeline. An empty trigger selects chat.DefaultTrigger;
// events may be nil.
func New(trigger string, gen Generator, mem Memory, speaker Speaker, events report.Emitter) *Pipeline {
	if trigger == "" {
		trigger = chat.DefaultTrigger
	}
	if events == nil {
		events = report.Discard
	}
	return &Pipeline{
		gen:     gen,
		mem:     mem,
		speaker: speaker,
		events:  events,
		log:     log.WithPrefix("bot"),
		newID:   uuid.NewString,
		capture: report.Capture,
		trigger: trigger,
	}
}

// Trigger returns the active trigger token. Call it only from the worker
// or after Run returns.
func (p *Pipeline) Trigger() string {
	return p.trigger
}

// Run processes messages and commands until a STOP command arrives, ctx is
// done or both channels are closed. A STOP returns nil.
func (p *Pipeline) Run(ctx context.Context, messages <-chan chat.Message, commands <-chan control.Command) error {
	for messages != nil || commands != nil {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case msg, ok := <-messages:
			if !ok {
				messages = nil
				continue
			}
			if question, isTrigger := chat.ParseTrigger(p.trigger, msg.Text); isTrigger {
				p.HandleTrigger(ctx, msg.Username, question)
			}

		case cmd, ok := <-commands:
			if !ok {
				commands = nil
				continue
			}
			if cmd.Kind == control.KindStop {
				p.log.Info("Stop requested")
				return nil
			}
			p.HandleCommand(ctx, cmd)
		}
	}
	return nil
}

// HandleTrigger answers one question: generate, remember, report, speak.
func (p *Pipeline) HandleTrigger(ctx context.Context, username, question string) {
	if !p.gen.Enabled() {
		p.log.Warn("AI is disabled, set an AI API key to answer questions", "user", username)
		return
	}
	if question == "" {
		p.log.Info("Include a message after the trigger", "user", username, "trigger", p.trigger)
		return
	}

	id := p.newID()
	p.log.Info("Question", "user", username, "question", runewidth.Truncate(question, 80, "..."))

	answer, err := p.gen.Generate(ctx, username, question)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		msg := llm.UserMessage(err)
		fields := map[string]any{"id": id, "username": username, "question": question, "error": msg}
		var genErr *llm.Error
		if errors.As(err, &genErr) {
			fields["kind"] = genErr.Kind.String()
			if genErr.Kind == llm.KindTransient {
				p.capture(err, map[string]string{"stage": "generate"})
			}
		}
		p.log.Error("Could not generate an answer", "user", username, "err", err)
		p.events.Emit(report.TypeIAResponse, fields)
		p.speak(ctx, id, msg)
		return
	}

	p.mem.Record(username, question, answer)
	p.log.Info("Answer", "user", username, "answer", runewidth.Truncate(answer, 80, "..."))
	p.events.Emit(report.TypeIAResponse, map[string]any{
		"id":       id,
		"username": username,
		"question": question,
		"response": answer,
	})
	p.speak(ctx, id, answer)
}

// speak voices text. Failures that may pass on their own are only logged;
// the rest also go to Sentry.
func (p *Pipeline) speak(ctx context.Context, id, text string) {
	err := p.speaker.Speak(ctx, text)
	if err == nil || ctx.Err() != nil {
		return
	}

	fields := map[string]any{"id": id, "status": "failed", "error": err.Error()}
	tags := map[string]string{"stage": "speak"}
	retryable := false
	var se *tts.SpeechError
	if errors.As(err, &se) {
		retryable = se.IsRetryable()
		fields["code"] = string(se.Code)
		fields["retryable"] = retryable
		tags["code"] = string(se.Code)
		for k, v := range se.Context {
			tags[k] = fmt.Sprint(v)
		}
	}

	if retryable {
		p.log.Warn("Could not speak the answer, the next one may work", "err", err)
	} else {
		p.log.Error("Could not speak the answer", "err", err)
		p.capture(err, tags)
	}
	p.events.Emit(report.TypeTTS, fields)
}

// HandleCommand applies one control command. STOP is handled by Run.
func (p *Pipeline) HandleCommand(ctx context.Context, cmd control.Command) {
	switch cmd.Kind {
	case control.KindChangeVoice:
		name := p.speaker.SetVoice(ctx, cmd.Value)
		p.events.Emit(report.TypeSystem, map[string]any{"voice_id": cmd.Value, "voice_name": name})

	case control.KindUpdateAIKey:
		if err := p.gen.SetCredential(cmd.Value); err != nil {
			p.log.Error("Could not update AI key", "err", err)
		}

	case control.KindUpdateVoiceKey:
		p.speaker.SetCredential(cmd.Value)

	case control.KindUpdatePersonality:
		p.gen.SetPersonality(cmd.Value)
		p.log.Info("Personality updated")

	case control.KindUpdateAudioDevice:
		p.speaker.SetDevice(cmd.Device)

	case control.KindUpdateVolume:
		p.speaker.SetVolume(cmd.Volume)

	case control.KindUpdateTrigger:
		p.trigger = cmd.Value
		p.log.Info("Trigger updated", "trigger", cmd.Value)

	case control.KindResetMemory:
		removed := p.mem.Clear(cmd.Value)
		user := cmd.Value
		if user == "" {
			user = "*"
		}
		p.log.Info("Memory cleared", "user", user, "users", removed.Users, "interactions", removed.Interactions)
		p.events.Emit(report.TypeMemory, map[string]any{
			"action":       "reset",
			"user":         cmd.Value,
			"users":        removed.Users,
			"interactions": removed.Interactions,
		})

	case control.KindMemoryStats:
		st := p.mem.Stats()
		p.log.Info("Memory", "users", st.Users, "interactions", st.Interactions)
		p.events.Emit(report.TypeMemory, map[string]any{
			"action":       "stats",
			"users":        st.Users,
			"interactions": st.Interactions,
		})

	default:
		p.log.Warn("Unhandled command", "cmd", cmd.Kind)
	}
}
