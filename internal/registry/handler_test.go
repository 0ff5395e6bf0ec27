package registry

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Davy-hou/dify-relay/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) (chi.Router, *Store) {
	t.Helper()
	store := NewStore(filepath.Join(t.TempDir(), "apps.json"))
	r := chi.NewRouter()
	NewHandler(store).RegisterRoutes(r)
	return r, store
}

func TestHandleCreateAndList(t *testing.T) {
	r, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/settings/apps",
		strings.NewReader(`{"name":"support-bot","provider":"dify","token":"app-xyz"}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var created domain.AppRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "support-bot", created.Name)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/settings/apps", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var page paginatedResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Equal(t, 1, page.Total)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, DefaultPageSize, page.PageSize)
	require.Len(t, page.Items, 1)
	assert.Equal(t, created.ID, page.Items[0].ID)
}

func TestHandleListPaging(t *testing.T) {
	r, store := newTestRouter(t)
	seed(t, store, 7)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/settings/apps?page=2&pageSize=5", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var page paginatedResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Equal(t, 7, page.Total)
	assert.Equal(t, 2, page.Page)
	assert.Len(t, page.Items, 2)
}

func TestHandleDelete(t *testing.T) {
	r, store := newTestRouter(t)
	rec, err := store.Create("doomed", "dify", "t")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodDelete, "/api/settings/apps",
		strings.NewReader(`{"id":"`+rec.ID+`"}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true}`, w.Body.String())

	_, total, err := store.List(1, DefaultPageSize)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestHandleCreateBadBody(t *testing.T) {
	r, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/settings/apps", strings.NewReader("{"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Failed to save app")
}
