// Package relay re-streams upstream Dify events to the browser as a
// simplified SSE protocol: it reads the upstream event stream
// incrementally, translates each event, and emits one JSON object per
// outbound frame.
package relay

import (
	"github.com/Davy-hou/dify-relay/internal/domain"
)

// Outbound is one frame of the simplified SSE protocol. Each variant
// marshals to exactly the wire shape the browser client expects.
type Outbound interface {
	isOutbound()
}

// ContentEvent carries one incremental answer delta.
type ContentEvent struct {
	Content    string `json:"content"`
	IsMarkdown bool   `json:"isMarkdown"`
}

// ErrorEvent passes an upstream error through in-band.
type ErrorEvent struct {
	Error string `json:"error"`
}

// EndEvent terminates the turn. It is authoritative: the client finalizes
// the in-flight message on this frame, not on transport close.
type EndEvent struct {
	End      bool           `json:"end"`
	Metadata map[string]any `json:"metadata"`
}

// KnowledgeEvent attaches retrieval hits to the in-flight message.
type KnowledgeEvent struct {
	KnowledgeSources []domain.KnowledgeSource `json:"knowledgeSources"`
	NodeTitle        string                   `json:"nodeTitle"`
}

func (ContentEvent) isOutbound()   {}
func (ErrorEvent) isOutbound()     {}
func (EndEvent) isOutbound()       {}
func (KnowledgeEvent) isOutbound() {}

// Frame is the consumer-side decoding of one outbound frame. The emitter
// writes exactly one variant per frame, so at most one of the variant
// fields is populated.
type Frame struct {
	Content          string                   `json:"content"`
	IsMarkdown       bool                     `json:"isMarkdown"`
	Error            string                   `json:"error"`
	End              bool                     `json:"end"`
	Metadata         map[string]any           `json:"metadata"`
	KnowledgeSources []domain.KnowledgeSource `json:"knowledgeSources"`
	NodeTitle        string                   `json:"nodeTitle"`
}
