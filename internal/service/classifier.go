package service

import (
	"context"

	"github.com/attendance-api/internal/models"
)

// Classification is the outcome of classifying a scanned barcode. It is
// either a SharedClassification or an IndividualClassification.
type Classification interface {
	Barcode() string
	classification()
}

// SharedClassification is a barcode found in the shared barcode directory
type SharedClassification struct {
	Entry models.EventTypeBarcode
}

func (c SharedClassification) Barcode() string { return c.Entry.Barcode }
func (SharedClassification) classification()   {}

// IndividualClassification is a barcode to resolve directly against events
type IndividualClassification struct {
	Code string
}

func (c IndividualClassification) Barcode() string { return c.Code }
func (IndividualClassification) classification()   {}

type classifier struct {
	directory *BarcodeDirectory
}

// Classify looks barcode up in the active directory
func (c *classifier) Classify(ctx context.Context, barcode string) (Classification, error) {
	entry, err := c.directory.Lookup(ctx, barcode)
	if err != nil {
		return nil, errStorage("look up barcode directory", err)
	}
	if entry != nil {
		return SharedClassification{Entry: *entry}, nil
	}
	return IndividualClassification{Code: barcode}, nil
}
