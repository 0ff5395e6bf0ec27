package relay

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/Davy-hou/dify-relay/internal/api"
	"github.com/Davy-hou/dify-relay/internal/config"
	"github.com/Davy-hou/dify-relay/internal/dify"
	"github.com/Davy-hou/dify-relay/internal/domain"
	"github.com/Davy-hou/dify-relay/internal/settings"
	"github.com/Davy-hou/dify-relay/internal/sse"
	"github.com/go-chi/chi/v5"
)

// chatRequest is the inbound chat payload. The last message supplies the
// outgoing query text.
type chatRequest struct {
	Messages       []domain.Message `json:"messages"`
	AppToken       string           `json:"appToken"`
	AppProvider    string           `json:"appProvider"`
	ConversationID string           `json:"conversation_id"`
	User           string           `json:"user"`
}

// Handler relays chat requests to the upstream provider and re-streams
// the translated response. Each request runs one isolated read loop; there
// is no pooling or multiplexing across requests.
type Handler struct {
	cfg       *config.Config
	settings  *settings.Store
	newClient func(host string) *dify.Client
}

// NewHandler creates a relay handler.
func NewHandler(cfg *config.Config, st *settings.Store) *Handler {
	return &Handler{
		cfg:       cfg,
		settings:  st,
		newClient: dify.NewClient,
	}
}

// RegisterRoutes mounts the chat endpoints on the router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/api/chat", h.HandleChat)
	r.Post("/api/test-knowledge", h.HandleTestKnowledge)
}

// HandleChat proxies one conversation turn. Validation failures and
// upstream errors before streaming begins are reported as a single JSON
// error response; once the SSE stream is open, errors travel in-band.
func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusInternalServerError, "Request body is empty")
		return
	}
	if len(req.Messages) == 0 {
		api.Error(w, http.StatusInternalServerError, "Invalid or empty messages array")
		return
	}

	apiKey, host := h.resolveProvider(req.AppToken)
	if apiKey == "" {
		api.Error(w, http.StatusInternalServerError, "No API key available")
		return
	}

	query := req.Messages[len(req.Messages)-1].Content

	body, err := h.newClient(host).StreamChat(r.Context(), dify.ChatRequest{
		Query:          query,
		ConversationID: req.ConversationID,
		User:           req.User,
		APIKey:         apiKey,
	})
	if err != nil {
		slog.Error("relay: upstream request failed", "error", err)
		api.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer func() {
		if closeErr := body.Close(); closeErr != nil {
			slog.Debug("relay: failed to close upstream body", "error", closeErr)
		}
	}()

	h.stream(NewEmitter(w), body)
}

// resolveProvider picks the API key and host for this turn: the request's
// app token wins, then the settings file, then the environment.
func (h *Handler) resolveProvider(appToken string) (apiKey, host string) {
	apiKey = appToken
	host = h.cfg.DifyHost

	st, err := h.settings.Read()
	if err != nil {
		slog.Warn("relay: settings unavailable, falling back to environment", "error", err)
		st = settings.Settings{}
	}
	if apiKey == "" {
		apiKey = st.Dify
	}
	if apiKey == "" {
		apiKey = h.cfg.DifyAPIKey
	}
	if st.DifyHost != "" {
		host = st.DifyHost
	}
	return apiKey, host
}

// stream runs the relay read loop: reassemble upstream frames, translate,
// and emit until the upstream body ends or the client goes away.
func (h *Handler) stream(em *Emitter, body io.Reader) {
	parser := sse.NewLineParser()
	buf := make([]byte, 4096)

	for {
		n, readErr := body.Read(buf)
		if n > 0 {
			if err := forward(em, parser.Feed(buf[:n])); err != nil {
				slog.Info("relay: stream aborted", "error", err)
				return
			}
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				if err := forward(em, parser.Flush()); err != nil {
					slog.Info("relay: stream aborted at end", "error", err)
				}
				return
			}
			slog.Error("relay: upstream read failed", "error", readErr)
			// Mid-stream failure: the response is already streaming, so the
			// error travels in-band.
			_ = em.Emit(ErrorEvent{Error: readErr.Error()})
			return
		}
	}
}

// forward decodes and translates a batch of upstream frames, emitting the
// results. An emit failure aborts the stream; a frame that cannot be
// decoded is skipped.
func forward(em *Emitter, frames []sse.Frame) error {
	for _, f := range frames {
		ev, err := dify.DecodeEvent(f)
		if err != nil {
			slog.Warn("relay: skipping undecodable frame", "error", err)
			continue
		}
		for _, out := range Translate(ev) {
			if err := em.Emit(out); err != nil {
				return err
			}
		}
	}
	return nil
}
