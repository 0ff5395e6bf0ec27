package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Davy-hou/dify-relay/internal/domain"
)

// ErrNoApp is returned when a send is attempted with no app selected. The
// check runs before any network call.
var ErrNoApp = errors.New("no app selected")

// Session drives one user's chat against the relay: it owns the selected
// app, the active conversation, and the history store.
type Session struct {
	baseURL    string
	httpClient *http.Client
	app        *domain.AppRecord
	conv       *Conversation
	history    *History
	onUpdate   UpdateHook
	onNotify   Notifier
}

// NewSession creates a session against the relay at baseURL. Hooks may be
// nil.
func NewSession(baseURL string, history *History, onUpdate UpdateHook, onNotify Notifier) *Session {
	return &Session{
		baseURL:    baseURL,
		httpClient: &http.Client{},
		conv:       NewConversation(),
		history:    history,
		onUpdate:   onUpdate,
		onNotify:   onNotify,
	}
}

// SelectApp chooses the credential used for subsequent sends.
func (s *Session) SelectApp(app domain.AppRecord) {
	s.app = &app
}

// SelectedApp returns the currently selected app, or nil.
func (s *Session) SelectedApp() *domain.AppRecord {
	return s.app
}

// Conversation returns the active conversation.
func (s *Session) Conversation() *Conversation {
	return s.conv
}

// History returns the session's history store.
func (s *Session) History() *History {
	return s.history
}

// Send submits one prompt and streams the reply to completion. The send is
// rejected up front when the input is blank or no app is selected.
func (s *Session) Send(ctx context.Context, input string) error {
	if strings.TrimSpace(input) == "" {
		return nil
	}
	if s.app == nil {
		return ErrNoApp
	}

	s.conv.AppendUser(input, "")
	s.record()

	// Conversation ids are issued by the provider; the locally minted
	// history id must never go upstream.
	payload, err := json.Marshal(map[string]any{
		"messages":        s.conv.Messages(),
		"appToken":        s.app.Token,
		"appProvider":     s.app.Provider,
		"conversation_id": "",
	})
	if err != nil {
		return fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.fail(err.Error())
		return fmt.Errorf("call relay: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			slog.Debug("chat: failed to close response body", "error", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		msg := fmt.Sprintf("HTTP error! status: %d", resp.StatusCode)
		s.fail(msg)
		return errors.New(msg)
	}

	s.conv.BeginAssistant()
	s.record()

	consumer := NewConsumer(s.conv, func() {
		// Persist the transcript on every in-flight mutation, matching the
		// snapshot-per-change history contract.
		s.record()
		if s.onUpdate != nil {
			s.onUpdate()
		}
	}, s.onNotify)

	if err := consumer.Run(resp.Body); err != nil {
		s.fail(err.Error())
		return err
	}

	s.record()
	return nil
}

// SelectChat loads a past conversation into the active transcript.
func (s *Session) SelectChat(id string) bool {
	msgs, ok := s.history.Select(id)
	if !ok {
		return false
	}
	s.conv.Reset(msgs)
	return true
}

// DeleteChat removes a conversation from history, clearing the transcript
// if it was active.
func (s *Session) DeleteChat(id string) error {
	if id == s.history.CurrentID() {
		s.conv.Clear()
	}
	return s.history.Delete(id)
}

// NewChat starts a fresh conversation.
func (s *Session) NewChat() {
	s.conv.Clear()
	s.history.New()
}

func (s *Session) fail(message string) {
	if s.onNotify != nil {
		s.onNotify(message)
	}
	s.conv.Fail(message)
	s.record()
}

func (s *Session) record() {
	if err := s.history.Record(s.conv.Messages()); err != nil {
		slog.Warn("chat: failed to persist history", "error", err)
	}
}
