// Package registry is the flat-file app registry: it maps friendly app
// names to provider tokens and exposes paginated CRUD over HTTP.
package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Davy-hou/dify-relay/internal/domain"
	"github.com/google/uuid"
)

// DefaultPageSize is used when a list request does not specify one.
const DefaultPageSize = 5

// Store persists app records as a single JSON array file. Every mutation
// is a full read-modify-write of the whole file with no locking:
// simultaneous writers can lose updates. Expected concurrency is a single
// local user, so this is a documented limitation rather than a bug to fix.
type Store struct {
	path string
}

// NewStore creates a store over the given file path. The file is created
// lazily on first write.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// List returns one page of records plus the total count.
func (s *Store) List(page, pageSize int) ([]domain.AppRecord, int, error) {
	apps, err := s.readAll()
	if err != nil {
		return nil, 0, err
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}

	start := (page - 1) * pageSize
	if start >= len(apps) {
		return []domain.AppRecord{}, len(apps), nil
	}
	end := start + pageSize
	if end > len(apps) {
		end = len(apps)
	}
	return apps[start:end], len(apps), nil
}

// Create appends a new record and rewrites the file.
func (s *Store) Create(name, provider, token string) (domain.AppRecord, error) {
	apps, err := s.readAll()
	if err != nil {
		return domain.AppRecord{}, err
	}

	rec := domain.AppRecord{
		ID:        uuid.NewString(),
		Name:      name,
		Provider:  provider,
		Token:     token,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	apps = append(apps, rec)

	if err := s.writeAll(apps); err != nil {
		return domain.AppRecord{}, err
	}
	return rec, nil
}

// Delete removes the record with the given id. Deleting an unknown id is
// not an error; the file is rewritten either way.
func (s *Store) Delete(id string) error {
	apps, err := s.readAll()
	if err != nil {
		return err
	}

	kept := apps[:0]
	for _, a := range apps {
		if a.ID != id {
			kept = append(kept, a)
		}
	}
	return s.writeAll(kept)
}

// FindByName returns the first record with the given friendly name.
func (s *Store) FindByName(name string) (domain.AppRecord, bool, error) {
	apps, err := s.readAll()
	if err != nil {
		return domain.AppRecord{}, false, err
	}
	for _, a := range apps {
		if a.Name == name {
			return a, true, nil
		}
	}
	return domain.AppRecord{}, false, nil
}

func (s *Store) readAll() ([]domain.AppRecord, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read apps file: %w", err)
	}

	var apps []domain.AppRecord
	if err := json.Unmarshal(data, &apps); err != nil {
		return nil, fmt.Errorf("parse apps file: %w", err)
	}
	return apps, nil
}

func (s *Store) writeAll(apps []domain.AppRecord) error {
	if apps == nil {
		apps = []domain.AppRecord{}
	}
	data, err := json.MarshalIndent(apps, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal apps: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create apps directory: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write apps file: %w", err)
	}
	return nil
}
