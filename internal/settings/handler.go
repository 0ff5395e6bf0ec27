package settings

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/Davy-hou/dify-relay/internal/api"
	"github.com/Davy-hou/dify-relay/internal/dify"
	"github.com/go-chi/chi/v5"
)

// Handler exposes the provider settings HTTP surface.
type Handler struct {
	store *Store
}

// NewHandler creates a settings handler over the given store.
func NewHandler(store *Store) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes mounts the settings endpoints on the router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/api/settings/provider", h.handleGet)
	r.Post("/api/settings/provider", h.handleUpdate)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	st, err := h.store.Read()
	if err != nil {
		slog.Error("settings: read failed", "error", err)
		api.Error(w, http.StatusInternalServerError, "Failed to read settings")
		return
	}
	if st.DifyHost == "" {
		st.DifyHost = dify.DefaultHost
	}
	api.JSON(w, http.StatusOK, st)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var u Update
	if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
		api.Error(w, http.StatusInternalServerError, "Failed to save API key")
		return
	}
	if err := h.store.Apply(u); err != nil {
		slog.Error("settings: update failed", "error", err, "provider", u.Provider)
		api.Error(w, http.StatusInternalServerError, "Failed to save API key")
		return
	}
	api.Success(w)
}
