package registry

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Davy-hou/dify-relay/internal/api"
	"github.com/Davy-hou/dify-relay/internal/domain"
	"github.com/go-chi/chi/v5"
)

// Handler exposes the app registry HTTP surface.
type Handler struct {
	store *Store
}

// NewHandler creates a registry handler over the given store.
func NewHandler(store *Store) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes mounts the registry endpoints on the router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/api/settings/apps", h.handleList)
	r.Post("/api/settings/apps", h.handleCreate)
	r.Delete("/api/settings/apps", h.handleDelete)
}

// paginatedResponse is one page of app records.
type paginatedResponse struct {
	Items    []domain.AppRecord `json:"items"`
	Total    int                `json:"total"`
	Page     int                `json:"page"`
	PageSize int                `json:"pageSize"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	pageSize := queryInt(r, "pageSize", DefaultPageSize)

	items, total, err := h.store.List(page, pageSize)
	if err != nil {
		slog.Error("registry: list failed", "error", err)
		api.Error(w, http.StatusInternalServerError, "Failed to read apps")
		return
	}
	api.JSON(w, http.StatusOK, paginatedResponse{
		Items:    items,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Provider string `json:"provider"`
		Token    string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusInternalServerError, "Failed to save app")
		return
	}

	rec, err := h.store.Create(req.Name, req.Provider, req.Token)
	if err != nil {
		slog.Error("registry: create failed", "error", err)
		api.Error(w, http.StatusInternalServerError, "Failed to save app")
		return
	}
	api.JSON(w, http.StatusOK, rec)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusInternalServerError, "Failed to delete app")
		return
	}

	if err := h.store.Delete(req.ID); err != nil {
		slog.Error("registry: delete failed", "error", err, "id", req.ID)
		api.Error(w, http.StatusInternalServerError, "Failed to delete app")
		return
	}
	api.Success(w)
}

func queryInt(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
