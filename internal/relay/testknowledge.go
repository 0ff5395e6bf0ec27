package relay

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/Davy-hou/dify-relay/internal/api"
	"github.com/Davy-hou/dify-relay/internal/domain"
)

// HandleTestKnowledge emits a canned simplified-SSE stream so the client
// pipeline (knowledge citations included) can be exercised without an
// upstream API key.
func (h *Handler) HandleTestKnowledge(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query string `json:"query"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusInternalServerError, "Request body is empty")
		return
	}

	em := NewEmitter(w)

	frames := []Outbound{
		ContentEvent{
			Content:    fmt.Sprintf("Looking up %q...", req.Query),
			IsMarkdown: true,
		},
		KnowledgeEvent{
			NodeTitle: DefaultNodeTitle,
			KnowledgeSources: []domain.KnowledgeSource{
				{
					Content: fmt.Sprintf("%s is a widely used concept with applications across several domains.", req.Query),
					Title:   fmt.Sprintf("%s: introduction", req.Query),
					URL:     "https://example.com/basic-intro",
					Score:   0.95,
				},
				{
					Content: fmt.Sprintf("A detailed analysis of %s covering its defining properties and practical behavior.", req.Query),
					Title:   fmt.Sprintf("%s: detailed analysis", req.Query),
					URL:     "https://example.com/detailed-analysis",
					Score:   0.87,
				},
				{
					Content: fmt.Sprintf("Case studies showing how %s is applied in real scenarios.", req.Query),
					Title:   fmt.Sprintf("%s: use cases", req.Query),
					URL:     "https://example.com/use-cases",
					Score:   0.82,
				},
			},
		},
		ContentEvent{
			Content: fmt.Sprintf("\n\nBased on the retrieved documents, %s can be summarized as:\n\n"+
				"1. **Definition**: a concept with distinct defining properties\n"+
				"2. **Applications**: used across several domains\n"+
				"3. **Outlook**: established and well supported by the literature\n", req.Query),
			IsMarkdown: true,
		},
		EndEvent{End: true, Metadata: map[string]any{"test": true}},
	}

	for i, f := range frames {
		if i > 0 {
			// Spread frames out so streaming behavior is observable.
			select {
			case <-r.Context().Done():
				return
			case <-time.After(300 * time.Millisecond):
			}
		}
		if err := em.Emit(f); err != nil {
			return
		}
	}
}
