package service

import (
	"context"

	"github.com/attendance-api/internal/models"
	"github.com/attendance-api/internal/repository"
	"github.com/rs/zerolog"
)

// barcodeService is the concrete implementation of BarcodeService
type barcodeService struct {
	barcodes repository.BarcodeRepository
	log      zerolog.Logger
}

// newBarcodeService creates a new BarcodeService
func newBarcodeService(barcodes repository.BarcodeRepository, log zerolog.Logger) *barcodeService {
	return &barcodeService{
		barcodes: barcodes,
		log:      log.With().Str("service", "barcode").Logger(),
	}
}

// ListSharedBarcodes returns every directory entry with usage statistics
func (s *barcodeService) ListSharedBarcodes(ctx context.Context) ([]models.SharedBarcodeStats, error) {
	stats, err := s.barcodes.ListWithStats(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to list shared barcodes")
		return nil, errStorage("list shared barcodes", err)
	}
	return stats, nil
}
