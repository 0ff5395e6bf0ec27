package dify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamChatSendsStreamingRequest(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = w.Write([]byte("data: {\"event\":\"message\",\"answer\":\"ok\"}\n\n"))
	}))
	defer srv.Close()

	body, err := NewClient(srv.URL).StreamChat(context.Background(), ChatRequest{
		Query:          "hello",
		ConversationID: "conv-1",
		APIKey:         "app-secret",
	})
	require.NoError(t, err)
	defer body.Close()

	_, err = io.ReadAll(body)
	require.NoError(t, err)

	assert.Equal(t, "/chat-messages", gotPath)
	assert.Equal(t, "Bearer app-secret", gotAuth)
	assert.Equal(t, "hello", gotBody["query"])
	assert.Equal(t, "streaming", gotBody["response_mode"])
	assert.Equal(t, "conv-1", gotBody["conversation_id"])
	assert.Equal(t, "default-user", gotBody["user"])
	assert.Equal(t, map[string]any{}, gotBody["inputs"])
}

func TestStreamChatNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).StreamChat(context.Background(), ChatRequest{
		Query:  "hello",
		APIKey: "app-secret",
	})
	require.Error(t, err)
	assert.Equal(t, "Dify API error: 404", err.Error())
}

func TestStreamChatRequiresAPIKey(t *testing.T) {
	_, err := NewClient("").StreamChat(context.Background(), ChatRequest{Query: "hello"})
	assert.Error(t, err)
}

func TestNewClientDefaultsAndTrimsHost(t *testing.T) {
	assert.Equal(t, DefaultHost, NewClient("").host)
	assert.Equal(t, "https://dify.local/v1", NewClient("https://dify.local/v1/").host)
}
