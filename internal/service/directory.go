package service

import (
	"context"
	"errors"
	"time"

	"github.com/attendance-api/internal/cache"
	"github.com/attendance-api/internal/metrics"
	"github.com/attendance-api/internal/models"
	"github.com/attendance-api/internal/repository"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

const directoryLoadTimeout = 5 * time.Second

// BarcodeDirectory answers lookups against the active shared barcodes.
// Snapshots are cached for ttl; administrative edits become visible once the
// snapshot expires.
type BarcodeDirectory struct {
	repo    repository.BarcodeRepository
	store   cache.DirectoryStore
	ttl     time.Duration
	group   singleflight.Group
	metrics *metrics.Metrics
	log     zerolog.Logger
}

// NewBarcodeDirectory creates a directory reading through store
func NewBarcodeDirectory(repo repository.BarcodeRepository, store cache.DirectoryStore, ttl time.Duration, m *metrics.Metrics, log zerolog.Logger) *BarcodeDirectory {
	if store == nil {
		store = cache.NewMemoryStore()
	}
	return &BarcodeDirectory{
		repo:    repo,
		store:   store,
		ttl:     ttl,
		metrics: m,
		log:     log.With().Str("component", "barcode_directory").Logger(),
	}
}

// Lookup returns the active entry for barcode, or nil when it is not a
// shared barcode
func (d *BarcodeDirectory) Lookup(ctx context.Context, barcode string) (*models.EventTypeBarcode, error) {
	entries, err := d.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		if entries[i].Barcode == barcode && entries[i].Active {
			entry := entries[i]
			return &entry, nil
		}
	}
	return nil, nil
}

func (d *BarcodeDirectory) snapshot(ctx context.Context) ([]models.EventTypeBarcode, error) {
	entries, err := d.store.Get(ctx)
	if err == nil {
		d.metrics.IncDirectoryLoad("cache")
		return entries, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		d.log.Warn().Err(err).Msg("Directory cache unavailable, reading database")
	}

	// The load is shared by every waiting scan, so it must not inherit the
	// cancellation of whichever request started it.
	ch := d.group.DoChan("directory", func() (any, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), directoryLoadTimeout)
		defer cancel()

		loaded, err := d.repo.ListActive(loadCtx)
		if err != nil {
			return nil, err
		}
		loaded = d.knownTypes(loaded)
		if err := d.store.Set(loadCtx, loaded, d.ttl); err != nil {
			d.log.Warn().Err(err).Msg("Failed to store directory snapshot")
		}
		d.metrics.IncDirectoryLoad("database")
		return loaded, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]models.EventTypeBarcode), nil
	}
}

// knownTypes drops entries whose event type this build does not handle
func (d *BarcodeDirectory) knownTypes(entries []models.EventTypeBarcode) []models.EventTypeBarcode {
	out := make([]models.EventTypeBarcode, 0, len(entries))
	for _, e := range entries {
		if !models.ValidEventTypes[e.EventType] {
			d.log.Warn().Str("barcode", e.Barcode).Str("event_type", string(e.EventType)).
				Msg("Ignoring shared barcode with unknown event type")
			continue
		}
		out = append(out, e)
	}
	return out
}
