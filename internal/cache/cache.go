// Package cache holds snapshot stores for the shared barcode directory.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/attendance-api/internal/models"
)

// ErrMiss is returned when no unexpired snapshot is stored
var ErrMiss = errors.New("cache miss")

// DirectoryStore keeps the latest snapshot of active directory entries
type DirectoryStore interface {
	Get(ctx context.Context) ([]models.EventTypeBarcode, error)
	Set(ctx context.Context, entries []models.EventTypeBarcode, ttl time.Duration) error
}
