//go:build tesseract

package scanning

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// Tesseract implements the Recognizer interface with a local libtesseract.
// It is the only provider that reports word layout.
type Tesseract struct {
	languages []string
}

// NewTesseract creates a new Tesseract Recognizer instance
func NewTesseract(languages ...string) (*Tesseract, error) {
	if len(languages) == 0 {
		languages = []string{"eng"}
	}
	return &Tesseract{languages: languages}, nil
}

// Name returns the source name
func (t *Tesseract) Name() string {
	return SourceTesseract
}

// Recognize runs a full-page pass for text and layout tokens, then a second
// pass restricted to digits and separators for the amount extractor.
func (t *Tesseract) Recognize(ctx context.Context, img Image) (Payload, error) {
	pngData, err := toPNG(img)
	if err != nil {
		return Payload{}, err
	}

	// gosseract clients are not safe for concurrent use
	c := gosseract.NewClient()
	defer c.Close()

	if err := c.SetLanguage(t.languages...); err != nil {
		return Payload{}, fmt.Errorf("set languages: %w", err)
	}
	if err := c.SetPageSegMode(gosseract.PSM_AUTO); err != nil {
		return Payload{}, fmt.Errorf("set page segmentation: %w", err)
	}
	if err := c.SetImageFromBytes(pngData); err != nil {
		return Payload{}, fmt.Errorf("set image: %w", err)
	}

	text, err := c.Text()
	if err != nil {
		return Payload{}, fmt.Errorf("recognize text: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return Payload{}, err
	}

	boxes, err := c.GetBoundingBoxesVerbose()
	if err != nil {
		return Payload{}, fmt.Errorf("bounding boxes: %w", err)
	}
	tokens := make([]Token, 0, len(boxes))
	var sum float64
	for _, b := range boxes {
		word := strings.TrimSpace(b.Word)
		if word == "" {
			continue
		}
		sum += b.Confidence
		tokens = append(tokens, Token{
			Text:        word,
			Left:        b.Box.Min.X,
			Top:         b.Box.Min.Y,
			Width:       b.Box.Dx(),
			Height:      b.Box.Dy(),
			Confidence:  b.Confidence,
			BlockID:     b.BlockNum,
			ParagraphID: b.ParNum,
			LineID:      b.LineNum,
		})
	}

	var conf *float64
	if len(tokens) > 0 {
		conf = Confidence(sum / float64(len(tokens)))
	}

	p := Payload{
		Source:     SourceTesseract,
		Text:       strings.TrimSpace(text),
		Tokens:     tokens,
		Confidence: conf,
	}

	if err := ctx.Err(); err != nil {
		return Payload{}, err
	}
	// the amount pass is best effort
	if err := c.SetWhitelist("0123456789.,"); err == nil {
		if err := c.SetPageSegMode(gosseract.PSM_SINGLE_BLOCK); err == nil {
			if amountText, err := c.Text(); err == nil {
				p.AmountText = strings.TrimSpace(amountText)
			}
		}
	}

	return p, nil
}

// Close is a no-op; clients are created per call
func (t *Tesseract) Close() error {
	return nil
}
