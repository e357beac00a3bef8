// Package report writes machine-readable status events for a host UI and
// forwards unexpected errors to Sentry.
package report

import (
	"io"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/charmbracelet/log"
)

// Event types.
const (
	TypeSystem     = "system"
	TypeChat       = "chat"
	TypeIAResponse = "ia_response"
	TypeTTS        = "tts"
	TypeMemory     = "memory"
)

// Emitter receives status events. Delivery is best effort.
type Emitter interface {
	Emit(typ string, fields map[string]any)
}

// Reporter writes one JSON object per line. Write failures are logged and
// otherwise ignored.
type Reporter struct {
	w   io.Writer
	now func() time.Time
	log *log.Logger

	mu sync.Mutex
}

// New creates a reporter writing to w.
func New(w io.Writer) *Reporter {
	return &Reporter{
		w:   w,
		now: time.Now,
		log: log.WithPrefix("report"),
	}
}

// Emit implements Emitter. A nil Reporter discards events.
func (r *Reporter) Emit(typ string, fields map[string]any) {
	if r == nil || r.w == nil {
		return
	}

	event := make(map[string]any, len(fields)+2)
	for k, v := range fields {
		event[k] = v
	}
	event["type"] = typ
	event["ts"] = r.now().UTC().Format(time.RFC3339)

	line, err := sonic.Marshal(event)
	if err != nil {
		r.log.Warn("Could not encode event", "type", typ, "err", err)
		return
	}
	line = append(line, '\n')

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := r.w.Write(line); err != nil {
		r.log.Warn("Could not deliver event", "type", typ, "err", err)
	}
}

// Discard is an Emitter that drops every event.
var Discard Emitter = discard{}

type discard struct{}

func (discard) Emit(string, map[string]any) {}

var _ Emitter = (*Reporter)(nil)
