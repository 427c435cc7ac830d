package storage

import (
	"context"
	"errors"

	"github.com/maltedev/course-catalog-scraper/internal/models"
)

var ErrCacheMiss = errors.New("snapshot not found or expired")

// Store keeps the latest snapshot per term key. Load honors the store's TTL so callers know when to
// scrape again; LoadLatest returns the last saved snapshot however old it is.
type Store interface {
	Load(ctx context.Context, key string) (*models.Snapshot, error)
	LoadLatest(ctx context.Context, key string) (*models.Snapshot, error)
	Save(ctx context.Context, key string, snapshot *models.Snapshot) error
}
