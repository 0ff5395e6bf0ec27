package chat

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/Davy-hou/dify-relay/internal/domain"
	"github.com/google/uuid"
)

const (
	// maxHistoryEntries caps the persisted history to the most recently
	// updated conversations.
	maxHistoryEntries = 50

	// titleRunes is how much of the first message becomes the entry title.
	titleRunes = 30
)

// History is a bounded, file-backed store of past conversations. The whole
// list is rewritten on every mutation — no incremental diffing — sorted by
// last update, newest first.
type History struct {
	path    string
	entries []domain.ChatHistoryEntry
	current string
	now     func() time.Time
}

// NewHistory creates a history store over the given file, loading any
// existing snapshot.
func NewHistory(path string) (*History, error) {
	h := &History{path: path, now: time.Now}
	if err := h.load(); err != nil {
		return nil, err
	}
	return h, nil
}

// Entries returns a copy of the history, newest first.
func (h *History) Entries() []domain.ChatHistoryEntry {
	out := make([]domain.ChatHistoryEntry, len(h.entries))
	copy(out, h.entries)
	return out
}

// CurrentID returns the active conversation id, or "" when none.
func (h *History) CurrentID() string {
	return h.current
}

// Record upserts the active conversation after a message-list change: a
// new entry is minted when no conversation is active, otherwise the
// existing entry is updated in place. The list is then re-sorted, capped,
// and persisted as a whole snapshot.
func (h *History) Record(messages []domain.Message) error {
	if len(messages) == 0 {
		h.current = ""
		return nil
	}

	now := h.now().UnixMilli()

	idx := -1
	if h.current != "" {
		idx = h.indexOf(h.current)
	}
	if idx >= 0 {
		h.entries[idx].Messages = messages
		h.entries[idx].LastUpdated = now
	} else {
		// No active conversation, or it was deleted underneath us.
		h.current = uuid.NewString()
		h.entries = append([]domain.ChatHistoryEntry{{
			ID:          h.current,
			Title:       deriveTitle(messages[0].Content),
			Messages:    messages,
			LastUpdated: now,
		}}, h.entries...)
	}

	sort.SliceStable(h.entries, func(i, j int) bool {
		return h.entries[i].LastUpdated > h.entries[j].LastUpdated
	})
	if len(h.entries) > maxHistoryEntries {
		h.entries = h.entries[:maxHistoryEntries]
	}

	return h.save()
}

// Select makes the given entry the active conversation and returns its
// messages.
func (h *History) Select(id string) ([]domain.Message, bool) {
	idx := h.indexOf(id)
	if idx < 0 {
		return nil, false
	}
	h.current = id
	msgs := make([]domain.Message, len(h.entries[idx].Messages))
	copy(msgs, h.entries[idx].Messages)
	return msgs, true
}

// Delete removes an entry. Deleting the active conversation deactivates
// it.
func (h *History) Delete(id string) error {
	if id == h.current {
		h.current = ""
	}
	kept := h.entries[:0]
	for _, e := range h.entries {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	h.entries = kept
	return h.save()
}

// New deactivates the current conversation so the next Record starts a
// fresh entry.
func (h *History) New() {
	h.current = ""
}

func (h *History) indexOf(id string) int {
	for i, e := range h.entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}

func (h *History) load() error {
	data, err := os.ReadFile(h.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read history file: %w", err)
	}
	if err := json.Unmarshal(data, &h.entries); err != nil {
		return fmt.Errorf("parse history file: %w", err)
	}
	return nil
}

func (h *History) save() error {
	entries := h.entries
	if entries == nil {
		entries = []domain.ChatHistoryEntry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(h.path), 0o755); err != nil {
		return fmt.Errorf("create history directory: %w", err)
	}
	if err := os.WriteFile(h.path, data, 0o644); err != nil {
		return fmt.Errorf("write history file: %w", err)
	}
	return nil
}

// deriveTitle truncates the first message to the title length and appends
// an ellipsis.
func deriveTitle(content string) string {
	runes := []rune(content)
	if len(runes) > titleRunes {
		runes = runes[:titleRunes]
	}
	return string(runes) + "..."
}
