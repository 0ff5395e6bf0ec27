package dify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// DefaultHost is used when no host is configured.
const DefaultHost = "https://api.dify.ai/v1"

const defaultUser = "default-user"

// ChatRequest describes one streaming chat completion.
type ChatRequest struct {
	Query          string
	ConversationID string
	User           string
	APIKey         string
}

// Client talks to one Dify-compatible API host.
type Client struct {
	host       string
	httpClient *http.Client
}

// NewClient creates a client for the given host. The underlying HTTP
// client carries no overall timeout: streaming responses stay open for as
// long as the model generates.
func NewClient(host string) *Client {
	if host == "" {
		host = DefaultHost
	}
	return &Client{
		host:       strings.TrimRight(host, "/"),
		httpClient: &http.Client{},
	}
}

// StreamChat opens the upstream streaming completion and returns its body.
// The caller owns the body and must close it. A non-OK status or an absent
// body aborts immediately; no retry is attempted.
func (c *Client) StreamChat(ctx context.Context, req ChatRequest) (io.ReadCloser, error) {
	if req.APIKey == "" {
		return nil, errors.New("no API key available")
	}

	user := req.User
	if user == "" {
		user = defaultUser
	}
	body, err := json.Marshal(map[string]any{
		"inputs":          map[string]any{},
		"query":           req.Query,
		"response_mode":   "streaming",
		"conversation_id": req.ConversationID,
		"user":            user,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+"/chat-messages", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create chat request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+req.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("call Dify API: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("Dify API error: %d", resp.StatusCode)
	}
	if resp.Body == nil {
		return nil, errors.New("response body is null")
	}
	return resp.Body, nil
}
