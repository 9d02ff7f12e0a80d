package scanning

import (
	"context"
	"time"
)

// Source names for the OCR providers shipped with this module
const (
	SourceTesseract = "tesseract"
	SourceOCRSpace  = "ocr_space"
	SourceGemini    = "gemini"
	SourceOllama    = "ollama"
)

// Token is a single recognized word with its position on the page
type Token struct {
	Text        string  `json:"text"`
	Left        int     `json:"left"`
	Top         int     `json:"top"`
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	Confidence  float64 `json:"confidence"`
	BlockID     int     `json:"block_id"`
	ParagraphID int     `json:"paragraph_id"`
	LineID      int     `json:"line_id"`
}

// Payload is the normalized output of one OCR provider for one image
type Payload struct {
	Source string `json:"source"`
	Text   string `json:"text"`
	// AmountText is an optional digits-only recognition pass
	AmountText string   `json:"amount_text,omitempty"`
	Tokens     []Token  `json:"tokens,omitempty"`
	Confidence *float64 `json:"confidence"`

	OK       bool          `json:"ok"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration,omitempty"`
}

// Image is the input handed to every recognizer
type Image struct {
	Data        []byte
	ContentType string
}

// Recognizer defines the interface for OCR providers
type Recognizer interface {
	// Name returns the source name reported in payloads
	Name() string
	// Recognize runs OCR over an image and returns the recognized text
	Recognize(ctx context.Context, img Image) (Payload, error)
	// Close closes the recognizer and releases resources
	Close() error
}

// Confidence is a helper for building payloads with a known confidence
func Confidence(v float64) *float64 {
	return &v
}
