//go:build !tesseract

package scanning

import (
	"context"
	"fmt"
)

// Tesseract is unavailable without the tesseract build tag
type Tesseract struct{}

// NewTesseract fails because the binary was built without libtesseract.
// Rebuild with -tags tesseract.
func NewTesseract(languages ...string) (*Tesseract, error) {
	return nil, fmt.Errorf("tesseract support not compiled in (build with -tags tesseract)")
}

// Name returns the source name
func (t *Tesseract) Name() string {
	return SourceTesseract
}

// Recognize always fails
func (t *Tesseract) Recognize(ctx context.Context, img Image) (Payload, error) {
	return Payload{}, fmt.Errorf("tesseract support not compiled in")
}

// Close is a no-op
func (t *Tesseract) Close() error {
	return nil
}
