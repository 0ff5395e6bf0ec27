// Package dify is the client for the upstream Dify workflow API: it opens
// the streaming chat completion and decodes the upstream event vocabulary.
package dify

import (
	"encoding/json"
	"fmt"

	"github.com/Davy-hou/dify-relay/internal/domain"
)

// KnowledgeRetrievalNode is the node_type whose outputs are projected into
// knowledge sources. All other node types are ignored.
const KnowledgeRetrievalNode = "knowledge-retrieval"

// Event is one parsed upstream stream event. The set is closed so the
// translator can switch over it exhaustively; unrecognized tags decode to
// UnknownEvent and are ignored downstream.
type Event interface {
	isEvent()
}

// MessageEvent carries one incremental answer delta.
type MessageEvent struct {
	Answer string
}

// MessageEndEvent is the authoritative stream-termination signal,
// independent of the outer HTTP stream's own completion.
type MessageEndEvent struct {
	Metadata map[string]any
}

// ErrorEvent is an upstream-reported error, passed through in-band.
type ErrorEvent struct {
	Message string
}

// NodeFinishedEvent reports a completed workflow node. Only
// knowledge-retrieval nodes with non-empty results are projected further.
type NodeFinishedEvent struct {
	NodeType string
	Title    string
	Results  []domain.KnowledgeSource
}

// UnknownEvent is any event tag this client does not understand.
type UnknownEvent struct {
	Name string
}

func (MessageEvent) isEvent()      {}
func (MessageEndEvent) isEvent()   {}
func (ErrorEvent) isEvent()        {}
func (NodeFinishedEvent) isEvent() {}
func (UnknownEvent) isEvent()      {}

// DecodeEvent parses one upstream frame payload into its event variant.
func DecodeEvent(frame []byte) (Event, error) {
	var env struct {
		Event    string         `json:"event"`
		Answer   string         `json:"answer"`
		Message  string         `json:"message"`
		Metadata map[string]any `json:"metadata"`
		Data     struct {
			NodeType string `json:"node_type"`
			Title    string `json:"title"`
			Outputs  struct {
				Result []domain.KnowledgeSource `json:"result"`
			} `json:"outputs"`
		} `json:"data"`
	}
	if err := json.Unmarshal(frame, &env); err != nil {
		return nil, fmt.Errorf("decode upstream event: %w", err)
	}

	switch env.Event {
	case "message":
		return MessageEvent{Answer: env.Answer}, nil
	case "message_end":
		return MessageEndEvent{Metadata: env.Metadata}, nil
	case "error":
		return ErrorEvent{Message: env.Message}, nil
	case "node_finished":
		return NodeFinishedEvent{
			NodeType: env.Data.NodeType,
			Title:    env.Data.Title,
			Results:  env.Data.Outputs.Result,
		}, nil
	default:
		return UnknownEvent{Name: env.Event}, nil
	}
}
