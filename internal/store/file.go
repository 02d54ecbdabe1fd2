package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	domain "github.com/dmfarley/bidwatch/pkg/types"
)

// FileStore persists the document as an indented JSON file. Saves go
// through a temp file and rename so a crash mid-write never leaves a
// half-written document behind.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a file-backed store at path. The file need not
// exist yet; the parent directory is created on first save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the document. A missing or unparseable file yields an empty
// document, never an error.
func (s *FileStore) Load(_ context.Context) (Document, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return Document{}, nil
	}

	doc := Document{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, nil
	}
	return doc, nil
}

// Save writes the document atomically.
func (s *FileStore) Save(_ context.Context, doc Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding listing document: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating store directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".listings-*.json")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing listing document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replacing listing document: %w", err)
	}
	return nil
}

// UpdateRecord applies mutate to one record under the store mutex.
func (s *FileStore) UpdateRecord(
	ctx context.Context,
	channelID string,
	mutate func(*domain.ListingRecord) error,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.Load(ctx)
	if err != nil {
		return err
	}
	if err := applyMutation(doc, channelID, mutate); err != nil {
		return err
	}
	return s.Save(ctx, doc)
}

// CreateRecord inserts a new record for a channel not yet tracked.
func (s *FileStore) CreateRecord(
	ctx context.Context,
	channelID string,
	rec *domain.ListingRecord,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.Load(ctx)
	if err != nil {
		return err
	}
	if _, exists := doc[channelID]; exists {
		return fmt.Errorf("channel %s already tracks a listing", channelID)
	}
	doc[channelID] = rec
	return s.Save(ctx, doc)
}

// Ping verifies the store directory is writable.
func (s *FileStore) Ping(_ context.Context) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("store directory unavailable: %w", err)
	}
	return nil
}

// Close is a no-op for the file backend.
func (*FileStore) Close() error {
	return nil
}
