package relay

import (
	"github.com/Davy-hou/dify-relay/internal/dify"
)

// DefaultNodeTitle is attached to knowledge frames when the upstream node
// carries no title. The literal matches what the web client ships.
const DefaultNodeTitle = "知识检索"

// Translate maps one upstream event to zero or more outbound frames.
// Ordering beyond upstream's own order is not imposed here; consumers must
// tolerate knowledge frames arriving before, between, or after content
// frames of the same turn.
func Translate(ev dify.Event) []Outbound {
	switch e := ev.(type) {
	case dify.MessageEvent:
		// Empty deltas are not forwarded.
		if e.Answer == "" {
			return nil
		}
		return []Outbound{ContentEvent{Content: e.Answer, IsMarkdown: true}}

	case dify.ErrorEvent:
		return []Outbound{ErrorEvent{Error: e.Message}}

	case dify.MessageEndEvent:
		return []Outbound{EndEvent{End: true, Metadata: e.Metadata}}

	case dify.NodeFinishedEvent:
		if e.NodeType != dify.KnowledgeRetrievalNode || len(e.Results) == 0 {
			return nil
		}
		title := e.Title
		if title == "" {
			title = DefaultNodeTitle
		}
		return []Outbound{KnowledgeEvent{KnowledgeSources: e.Results, NodeTitle: title}}

	case dify.UnknownEvent:
		// Forward-compatible ignore.
		return nil

	default:
		return nil
	}
}
