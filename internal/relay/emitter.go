package relay

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Emitter serializes outbound frames onto an SSE response stream. Each
// frame is written and flushed immediately; frames are never batched, so
// incremental content reaches the browser with minimal latency.
type Emitter struct {
	w       io.Writer
	flusher http.Flusher
}

// NewEmitter sets the event-stream response headers and returns an emitter
// over the response writer.
func NewEmitter(w http.ResponseWriter) *Emitter {
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")

	flusher, _ := w.(http.Flusher)
	return &Emitter{w: w, flusher: flusher}
}

// Emit writes one outbound frame. A write failure means the client is gone
// and the stream cannot continue.
func (e *Emitter) Emit(ev Outbound) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal outbound frame: %w", err)
	}
	if _, err := fmt.Fprintf(e.w, "data: %s\n\n", payload); err != nil {
		return fmt.Errorf("write outbound frame: %w", err)
	}
	if e.flusher != nil {
		e.flusher.Flush()
	}
	return nil
}
