package api

import (
	"net/http"

	"github.com/attendance-api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// BarcodeHandler handles the shared barcode directory endpoints
type BarcodeHandler struct {
	barcodes service.BarcodeService
	log      zerolog.Logger
}

// NewBarcodeHandler creates a new BarcodeHandler
func NewBarcodeHandler(services *service.Services, log zerolog.Logger) *BarcodeHandler {
	return &BarcodeHandler{
		barcodes: services.Barcodes,
		log:      log.With().Str("handler", "barcode").Logger(),
	}
}

// ListShared handles GET /v1/shared-barcodes
func (h *BarcodeHandler) ListShared(c *gin.Context) {
	stats, err := h.barcodes.ListSharedBarcodes(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    stats,
		"count":   len(stats),
	})
}
