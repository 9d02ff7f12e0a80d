// Package fields extracts the store name, total amount and transaction date
// from the output of a single OCR provider. Everything here is pure: malformed
// input yields empty fields, never an error.
package fields

import (
	"github.com/shopspring/decimal"

	"github.com/KenCariquitan/Receipt-Spendle/internal/scanning"
)

// Fields are the values found in one payload. Empty strings and a nil Total
// mean the field was not found.
type Fields struct {
	Store string
	Total *decimal.Decimal
	Date  string
}

// Found counts how many of the three fields were extracted
func (f Fields) Found() int {
	n := 0
	if f.Store != "" {
		n++
	}
	if f.Total != nil {
		n++
	}
	if f.Date != "" {
		n++
	}
	return n
}

// Total picks the total for a payload: by layout when it has tokens, else
// from the digits-only amount pass when present, else from the text.
func Total(p scanning.Payload) *decimal.Decimal {
	amountText := p.AmountText
	if amountText == "" {
		amountText = p.Text
	}

	var total *decimal.Decimal
	if len(p.Tokens) > 0 {
		total = TotalFromLayout(p.Tokens, amountText)
	} else {
		total = TotalFromText(amountText)
	}
	if total == nil && amountText != p.Text {
		total = TotalFromText(p.Text)
	}
	return total
}

// Extract runs all three extractors over a payload
func Extract(p scanning.Payload) Fields {
	return Fields{
		Store: Store(p.Text),
		Total: Total(p),
		Date:  Date(p.Text),
	}
}
