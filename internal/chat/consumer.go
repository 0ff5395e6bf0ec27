package chat

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/Davy-hou/dify-relay/internal/relay"
	"github.com/Davy-hou/dify-relay/internal/sse"
)

// UpdateHook fires after each in-flight message mutation, e.g. to scroll a
// view to the bottom.
type UpdateHook func()

// Notifier surfaces transient error notifications.
type Notifier func(message string)

// Consumer folds the relay's simplified SSE stream into a conversation.
// It mirrors the relay's framing from the other side of the wire, split
// on blank-line event boundaries.
type Consumer struct {
	conv     *Conversation
	onUpdate UpdateHook
	onNotify Notifier
}

// NewConsumer creates a consumer applying frames to conv. Both hooks may
// be nil.
func NewConsumer(conv *Conversation, onUpdate UpdateHook, onNotify Notifier) *Consumer {
	return &Consumer{conv: conv, onUpdate: onUpdate, onNotify: onNotify}
}

// Run reads the stream to completion, applying each frame to the
// conversation as it arrives.
func (c *Consumer) Run(r io.Reader) error {
	parser := sse.NewEventParser()
	buf := make([]byte, 2048)

	for {
		n, readErr := r.Read(buf)
		if n > 0 {
			c.apply(parser.Feed(buf[:n]))
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				c.apply(parser.Flush())
				return nil
			}
			return fmt.Errorf("read stream: %w", readErr)
		}
	}
}

func (c *Consumer) apply(frames []sse.Frame) {
	for _, f := range frames {
		var fr relay.Frame
		if err := json.Unmarshal(f, &fr); err != nil {
			// Outbound frames are emitter-aligned; a broken one means a
			// lost frame, so it is skipped rather than retried.
			slog.Warn("chat: skipping malformed frame", "error", err)
			continue
		}
		c.applyFrame(fr)
	}
}

func (c *Consumer) applyFrame(fr relay.Frame) {
	if fr.Error != "" {
		if c.onNotify != nil {
			c.onNotify(fr.Error)
		}
		c.conv.Fail(fr.Error)
		return
	}
	if fr.Content != "" {
		if c.conv.AppendDelta(fr.Content) {
			c.update()
		}
	}
	if len(fr.KnowledgeSources) > 0 {
		if c.conv.AttachSources(fr.KnowledgeSources) {
			c.update()
		}
	}
	if fr.End {
		c.conv.Finalize()
		c.update()
	}
}

func (c *Consumer) update() {
	if c.onUpdate != nil {
		c.onUpdate()
	}
}
