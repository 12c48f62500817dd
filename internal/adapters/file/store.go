package file

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/leadflow/pkg/domain"
)

// Store implements ports.LeadStore using the local filesystem.
// It stores one JSON document per lead in a configured directory.
type Store struct {
	BasePath string
}

// New creates a new Store with the given base path.
// If basePath is empty, it defaults to ".leadflow/leads".
func New(basePath string) *Store {
	if basePath == "" {
		basePath = filepath.Join(".leadflow", "leads")
	}
	return &Store{BasePath: basePath}
}

// Channel ids are external addresses ("+55...", "user@host"); escape them
// so they always map to a single file name.
func (s *Store) path(channelID string) string {
	return filepath.Join(s.BasePath, url.PathEscape(channelID)+".json")
}

// Save persists the lead to a JSON file atomically.
// It writes to a temporary file first, syncs via fsync, and then renames it to the destination.
func (s *Store) Save(ctx context.Context, lead *domain.Lead) error {
	if lead.ChannelID == "" {
		return fmt.Errorf("channel id cannot be empty")
	}

	if err := os.MkdirAll(s.BasePath, 0755); err != nil {
		return fmt.Errorf("failed to ensure lead directory: %w", err)
	}

	destPath := s.path(lead.ChannelID)

	data, err := json.MarshalIndent(lead, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal lead: %w", err)
	}

	// Same directory as the destination: rename is only atomic within a filesystem.
	tmpFile, err := os.CreateTemp(s.BasePath, "tmp-*.json.partial")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath) // no-op once renamed
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}

	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}

	// Close before rename (cannot rename an open file on Windows)
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file to lead record: %w", err)
	}

	return nil
}

// Load retrieves the lead from its JSON file.
func (s *Store) Load(ctx context.Context, channelID string) (*domain.Lead, error) {
	if channelID == "" {
		return nil, fmt.Errorf("channel id cannot be empty")
	}

	data, err := os.ReadFile(s.path(channelID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrLeadNotFound
		}
		return nil, fmt.Errorf("failed to read lead file: %w", err)
	}

	var lead domain.Lead
	if err := json.Unmarshal(data, &lead); err != nil {
		return nil, fmt.Errorf("failed to unmarshal lead: %w", err)
	}
	if lead.Answers == nil {
		lead.Answers = make(map[string]string)
	}

	return &lead, nil
}

// Delete removes the lead file.
func (s *Store) Delete(ctx context.Context, channelID string) error {
	if channelID == "" {
		return fmt.Errorf("channel id cannot be empty")
	}

	err := os.Remove(s.path(channelID))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete lead file: %w", err)
	}

	return nil
}

// List returns every lead stored in the directory, ordered by creation time.
func (s *Store) List(ctx context.Context) ([]*domain.Lead, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []*domain.Lead{}, nil
		}
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}

	leads := make([]*domain.Lead, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".json" || strings.HasPrefix(name, "tmp-") {
			continue
		}
		channelID, err := url.PathUnescape(strings.TrimSuffix(name, ".json"))
		if err != nil {
			continue
		}
		lead, err := s.Load(ctx, channelID)
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}

	sort.Slice(leads, func(i, j int) bool {
		return leads[i].CreatedAt.Before(leads[j].CreatedAt)
	})
	return leads, nil
}
