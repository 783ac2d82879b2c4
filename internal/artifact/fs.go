// File path: internal/artifact/fs.go
package artifact

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FSBackend stores artifact records as JSON files under a local directory.
// It is the fallback when no object store is configured or reachable.
type FSBackend struct {
	root string
}

func NewFSBackend(root string) (*FSBackend, error) {
	if root == "" {
		root = filepath.Join(os.TempDir(), "ragline-artifacts")
	}
	if err := os.MkdirAll(filepath.Join(root, "artifacts"), 0o755); err != nil {
		return nil, fmt.Errorf("create artifact dir: %w", err)
	}
	return &FSBackend{root: root}, nil
}

func (b *FSBackend) Get(ctx context.Context, contentHash string) (*Record, error) {
	data, err := os.ReadFile(b.path(contentHash))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, contentHash)
		}
		return nil, fmt.Errorf("read artifact: %w", err)
	}
	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("decode artifact %s: %w", contentHash, err)
	}
	return &record, nil
}

// Put writes through a temp file and rename so readers never observe a
// partially written record.
func (b *FSBackend) Put(ctx context.Context, record *Record) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode artifact: %w", err)
	}
	target := b.path(record.ContentHash)
	tmp, err := os.CreateTemp(filepath.Dir(target), ".artifact-*")
	if err != nil {
		return fmt.Errorf("create temp artifact: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp artifact: %w", err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("publish artifact: %w", err)
	}
	return nil
}

func (b *FSBackend) Name() string { return "fs" }

func (b *FSBackend) path(contentHash string) string {
	return filepath.Join(b.root, filepath.FromSlash(ObjectKey(contentHash)))
}
