package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/maltedev/course-catalog-scraper/internal/models"
)

// FileStore writes one JSON file per key under dir. Snapshots older than ttl are treated as missing.
type FileStore struct {
	mu  sync.RWMutex
	dir string
	ttl time.Duration
	now func() time.Time
}

func NewFileStore(dir string, ttl time.Duration) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache dir: %w", err)
	}

	return &FileStore{
		dir: dir,
		ttl: ttl,
		now: time.Now,
	}, nil
}

func (fs *FileStore) path(key string) string {
	safe := strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(key)
	return filepath.Join(fs.dir, "snapshot-"+safe+".json")
}

func (fs *FileStore) Load(ctx context.Context, key string) (*models.Snapshot, error) {
	snapshot, err := fs.LoadLatest(ctx, key)
	if err != nil {
		return nil, err
	}

	if fs.ttl > 0 && fs.now().Sub(snapshot.ScrapedAt) > fs.ttl {
		return nil, ErrCacheMiss
	}

	return snapshot, nil
}

func (fs *FileStore) LoadLatest(ctx context.Context, key string) (*models.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fs.mu.RLock()
	defer fs.mu.RUnlock()

	data, err := os.ReadFile(fs.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var snapshot models.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}

	return &snapshot, nil
}

func (fs *FileStore) Save(ctx context.Context, key string, snapshot *models.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	// Write to temp file first for atomicity
	target := fs.path(key)
	tmpFile := target + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}

	if err := os.Rename(tmpFile, target); err != nil {
		os.Remove(tmpFile)
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}

	return nil
}
