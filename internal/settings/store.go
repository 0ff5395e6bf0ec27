// Package settings persists provider credentials and hosts in a key=value
// settings file and exposes them over HTTP.
package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// Provider identifiers accepted by the update endpoint.
const (
	ProviderDify = "dify"
	ProviderCoze = "coze"
)

// Keys recognized in the settings file.
const (
	keyDifyAPIKey = "DIFY_API_KEY"
	keyCozeAPIKey = "COZE_API_KEY"
	keyDifyHost   = "DIFY_HOST"
)

// Settings is the provider configuration view returned to clients.
type Settings struct {
	Dify     string `json:"dify"`
	Coze     string `json:"coze"`
	DifyHost string `json:"difyHost"`
}

// Update is one provider upsert request.
type Update struct {
	Provider string `json:"provider"`
	Key      string `json:"key"`
	Host     string `json:"host"`
}

// Store reads and rewrites the key=value settings file. Every update is a
// full read-modify-write of the whole file with no locking; expected
// concurrency is a single local user.
type Store struct {
	path string
}

// NewStore creates a store over the given settings file path. The file is
// created lazily on first update.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Read returns the current settings. A missing file yields empty settings,
// not an error.
func (s *Store) Read() (Settings, error) {
	env, err := godotenv.Read(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Settings{}, nil
		}
		return Settings{}, fmt.Errorf("read settings file: %w", err)
	}
	return Settings{
		Dify:     env[keyDifyAPIKey],
		Coze:     env[keyCozeAPIKey],
		DifyHost: env[keyDifyHost],
	}, nil
}

// Apply upserts one provider's entries and rewrites the whole file.
// Unrelated keys are preserved. For dify, key and host are each only
// written when non-empty so one can be updated without the other.
func (s *Store) Apply(u Update) error {
	env, err := godotenv.Read(s.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("read settings file: %w", err)
	}
	if env == nil {
		env = make(map[string]string)
	}

	switch u.Provider {
	case ProviderDify:
		if u.Key != "" {
			env[keyDifyAPIKey] = u.Key
		}
		if u.Host != "" {
			env[keyDifyHost] = u.Host
		}
	case ProviderCoze:
		env[keyCozeAPIKey] = u.Key
	default:
		return fmt.Errorf("unknown provider %q", u.Provider)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create settings directory: %w", err)
	}
	if err := godotenv.Write(env, s.path); err != nil {
		return fmt.Errorf("write settings file: %w", err)
	}
	return nil
}
