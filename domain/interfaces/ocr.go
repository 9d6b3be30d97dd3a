package interfaces

import (
	"context"

	"bank_automation/domain/entities"
)

// OCR maps a screenshot to the text fragments it contains.
type OCR interface {
	Recognize(ctx context.Context, image []byte) ([]entities.OCRFragment, error)
}
