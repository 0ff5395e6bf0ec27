// Package chat is the client half of the relay protocol: it consumes the
// simplified SSE stream, folds it into an in-memory conversation
// transcript, and keeps a bounded file-backed history of past
// conversations.
package chat

import (
	"github.com/Davy-hou/dify-relay/internal/domain"
)

// Conversation holds the active message list and the streaming state of
// the in-flight turn. A turn moves through: user message appended →
// assistant placeholder (loading) → streaming → finalized. Once a turn
// fails, further stream frames no longer mutate the message.
type Conversation struct {
	messages  []domain.Message
	loading   bool
	streaming bool
	failed    bool
}

// NewConversation returns an empty conversation.
func NewConversation() *Conversation {
	return &Conversation{}
}

// Messages returns a copy of the transcript.
func (c *Conversation) Messages() []domain.Message {
	out := make([]domain.Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Len returns the number of messages in the transcript.
func (c *Conversation) Len() int {
	return len(c.messages)
}

// IsLoading reports whether a turn is awaiting its first delta.
func (c *Conversation) IsLoading() bool {
	return c.loading
}

// IsStreaming reports whether a turn is actively streaming.
func (c *Conversation) IsStreaming() bool {
	return c.streaming
}

// AppendUser appends the user's prompt, starting a new turn.
func (c *Conversation) AppendUser(content, file string) {
	c.messages = append(c.messages, domain.Message{
		Role:    domain.RoleUser,
		Content: content,
		File:    file,
	})
	c.loading = true
	c.failed = false
}

// BeginAssistant appends the placeholder the streamed reply accumulates
// into.
func (c *Conversation) BeginAssistant() {
	c.messages = append(c.messages, domain.Message{
		Role:       domain.RoleAssistant,
		IsMarkdown: true,
	})
}

// AppendDelta appends one content delta to the in-flight assistant
// message. While streaming, markdown rendering is disabled so the UI can
// show raw incremental text. Reports whether the message was mutated.
func (c *Conversation) AppendDelta(delta string) bool {
	m := c.inflight()
	if m == nil || c.failed {
		return false
	}
	m.Content += delta
	m.IsMarkdown = false
	m.IsStreaming = true
	c.loading = false
	c.streaming = true
	return true
}

// AttachSources attaches retrieval hits to the in-flight assistant
// message, replacing any prior value. Sources that arrive after the end
// frame still attach; arrival order is preserved as-is.
func (c *Conversation) AttachSources(sources []domain.KnowledgeSource) bool {
	m := c.inflight()
	if m == nil || c.failed {
		return false
	}
	m.KnowledgeSources = sources
	return true
}

// Finalize marks the turn complete: the accumulated content is now safe to
// render as formatted markdown.
func (c *Conversation) Finalize() {
	if m := c.inflight(); m != nil && !c.failed {
		m.IsMarkdown = true
		m.IsStreaming = false
	}
	c.loading = false
	c.streaming = false
}

// Fail replaces the in-flight assistant message's content with an error
// marker, or appends one if no turn is in flight, and stops further
// mutation of that message.
func (c *Conversation) Fail(message string) {
	if m := c.inflight(); m != nil {
		m.Content = domain.ErrorPrefix + message
		m.IsMarkdown = false
		m.IsStreaming = false
	} else {
		c.messages = append(c.messages, domain.Message{
			Role:    domain.RoleAssistant,
			Content: domain.ErrorPrefix + message,
		})
	}
	c.loading = false
	c.streaming = false
	c.failed = true
}

// Reset replaces the transcript, e.g. when a past conversation is
// selected from history.
func (c *Conversation) Reset(messages []domain.Message) {
	c.messages = make([]domain.Message, len(messages))
	copy(c.messages, messages)
	c.loading = false
	c.streaming = false
	c.failed = false
}

// Clear empties the conversation for a fresh chat.
func (c *Conversation) Clear() {
	c.Reset(nil)
}

// inflight returns the assistant message currently being streamed into,
// which is always the last message of the transcript.
func (c *Conversation) inflight() *domain.Message {
	if len(c.messages) == 0 {
		return nil
	}
	m := &c.messages[len(c.messages)-1]
	if m.Role != domain.RoleAssistant {
		return nil
	}
	return m
}
