package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"bank_automation/domain/entities"
	"bank_automation/domain/interfaces"
)

// Client talks to an external OCR service that maps a screenshot to text
// fragments with bounding boxes.
type Client struct {
	url  string
	http *http.Client
}

// NewClient creates a client for the given recognize endpoint.
func NewClient(url string) *Client {
	return &Client{
		url: url,
		http: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

type recognizeResponse struct {
	Fragments []entities.OCRFragment `json:"fragments"`
}

// Recognize posts the PNG image and returns the recognized fragments.
func (c *Client) Recognize(ctx context.Context, image []byte) ([]entities.OCRFragment, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(image))
	if err != nil {
		return nil, fmt.Errorf("build ocr request: %w", err)
	}
	req.Header.Set("Content-Type", "image/png")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &entities.TransportError{Op: "ocr recognize", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ocr service returned status %d", resp.StatusCode)
	}

	var result recognizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode ocr response: %w", err)
	}
	return result.Fragments, nil
}

var _ interfaces.OCR = (*Client)(nil)
