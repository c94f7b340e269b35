package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/foldtable/pkg/domain"
)

// Store implements ports.SnapshotStore using the local filesystem.
// It stores snapshots as JSON files in a configured directory.
type Store struct {
	BasePath string
}

// NewStore creates a new Store with the given base path.
// If basePath is empty, it defaults to ".foldtable/streams".
func NewStore(basePath string) *Store {
	if basePath == "" {
		basePath = filepath.Join(".foldtable", "streams")
	}
	return &Store{BasePath: basePath}
}

func (f *Store) path(streamID string) (string, error) {
	if streamID == "" {
		return "", fmt.Errorf("streamID cannot be empty")
	}
	if strings.ContainsAny(streamID, `/\`) || streamID == "." || streamID == ".." {
		return "", fmt.Errorf("invalid streamID %q", streamID)
	}
	return filepath.Join(f.BasePath, streamID+".json"), nil
}

// Save persists the snapshot to a JSON file atomically.
// Each call writes its own temp file in BasePath, fsyncs it and renames it over the target.
func (f *Store) Save(ctx context.Context, streamID string, snap *domain.Snapshot) error {
	filePath, err := f.path(streamID)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(f.BasePath, 0755); err != nil {
		return fmt.Errorf("failed to ensure stream directory: %w", err)
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	// Same directory as the target so the rename stays on one filesystem.
	tmpFile, err := os.CreateTemp(f.BasePath, "."+streamID+"-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	// Windows cannot rename an open file.
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, filePath); err != nil {
		return fmt.Errorf("failed to replace stream file: %w", err)
	}

	return nil
}

// Load retrieves the snapshot from its JSON file.
func (f *Store) Load(ctx context.Context, streamID string) (*domain.Snapshot, error) {
	filePath, err := f.path(streamID)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrStreamNotFound
		}
		return nil, fmt.Errorf("failed to read stream file: %w", err)
	}

	var snap domain.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}

	return &snap, nil
}

// Delete removes the stream file.
func (f *Store) Delete(ctx context.Context, streamID string) error {
	filePath, err := f.path(streamID)
	if err != nil {
		return err
	}

	err = os.Remove(filePath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete stream file: %w", err)
	}

	return nil
}

// List returns all stored stream IDs.
func (f *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(f.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list streams: %w", err)
	}

	var streams []string
	for _, entry := range entries {
		if !entry.IsDir() && filepath.Ext(entry.Name()) == ".json" {
			name := entry.Name()
			streams = append(streams, strings.TrimSuffix(name, ".json"))
		}
	}

	return streams, nil
}
