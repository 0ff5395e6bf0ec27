// Package domain contains core domain types for the relay and chat client.
package domain

// Role identifies who authored a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ErrorPrefix marks an assistant message whose content is an error report
// rather than model output. Renderers branch on this prefix.
const ErrorPrefix = "Error: "

// KnowledgeSource is one ranked retrieval hit attached to an assistant
// message by a knowledge-retrieval workflow step.
type KnowledgeSource struct {
	Content string  `json:"content"`
	Title   string  `json:"title,omitempty"`
	URL     string  `json:"url,omitempty"`
	Score   float64 `json:"score,omitempty"`
}

// Message is one entry in a conversation transcript. While its turn is
// streaming the message is mutated field-by-field; once the end frame is
// observed it is finalized with IsMarkdown true and IsStreaming false.
type Message struct {
	Role             Role              `json:"role"`
	Content          string            `json:"content"`
	IsMarkdown       bool              `json:"isMarkdown,omitempty"`
	IsStreaming      bool              `json:"isStreaming,omitempty"`
	File             string            `json:"file,omitempty"`
	KnowledgeSources []KnowledgeSource `json:"knowledgeSources,omitempty"`
}

// IsError returns true if the message content is an error report.
func (m Message) IsError() bool {
	return len(m.Content) >= len(ErrorPrefix) && m.Content[:len(ErrorPrefix)] == ErrorPrefix
}

// ChatHistoryEntry is one persisted past conversation. LastUpdated is unix
// milliseconds; the history store sorts descending on it.
type ChatHistoryEntry struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Messages    []Message `json:"messages"`
	LastUpdated int64     `json:"lastUpdated"`
}
