package receipt

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category sources
const (
	CategoryRule       = "rule"
	CategoryClassifier = "classifier"
	CategoryManual     = "manual"
)

// Receipt is a scanned receipt with its resolved fields
type Receipt struct {
	ID              string           `json:"id"`
	Store           string           `json:"store,omitempty"`
	StoreNormalized string           `json:"store_normalized,omitempty"`
	Total           *decimal.Decimal `json:"total,omitempty"`
	Date            string           `json:"date,omitempty"` // YYYY-MM-DD
	SourceTag       string           `json:"source_tag"`

	Category           string  `json:"category,omitempty"`
	CategoryReason     string  `json:"category_reason,omitempty"`
	CategorySource     string  `json:"category_source,omitempty"`
	CategoryConfidence float64 `json:"category_confidence,omitempty"`

	// OCRConfidence is the confidence of the primary text, 0-100
	OCRConfidence *float64       `json:"ocr_confidence,omitempty"`
	Text          string         `json:"text,omitempty"`
	Sources       []SourceReport `json:"sources,omitempty"`

	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SourceReport records what one OCR provider contributed to a receipt
type SourceReport struct {
	Name       string           `json:"name"`
	OK         bool             `json:"ok"`
	Error      string           `json:"error,omitempty"`
	Confidence *float64         `json:"confidence,omitempty"`
	DurationMS int64            `json:"duration_ms"`
	Store      string           `json:"store,omitempty"`
	Total      *decimal.Decimal `json:"total,omitempty"`
	Date       string           `json:"date,omitempty"`
}

// Update is a manual correction. Nil fields are left unchanged.
type Update struct {
	Store    *string          `json:"store,omitempty"`
	Total    *decimal.Decimal `json:"total,omitempty"`
	Date     *string          `json:"date,omitempty"`
	Category *string          `json:"category,omitempty"`
}

// Classification is a category decision and where it came from
type Classification struct {
	Category   string  `json:"category"`
	Reason     string  `json:"reason,omitempty"`
	Source     string  `json:"source,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
}

// Correction types
const (
	CorrectionOCR      = "ocr"
	CorrectionCategory = "category"
)

// Correction records one field changed by a manual update. ID is assigned by
// the database.
type Correction struct {
	ID        string    `json:"id"`
	ReceiptID string    `json:"receipt_id"`
	Field     string    `json:"field"`
	Old       string    `json:"old"`
	New       string    `json:"new"`
	Type      string    `json:"type"`
	LoggedAt  time.Time `json:"logged_at"`
}
