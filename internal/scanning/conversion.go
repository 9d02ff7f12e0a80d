package scanning

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	"image/png"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/gen2brain/heic"
)

// transcribePrompt is the shared prompt used by the LLM providers. They act as
// plain OCR engines; field extraction happens downstream.
const transcribePrompt = `You are an OCR engine. Transcribe every line of text on this receipt exactly as printed, top to bottom, keeping the original line breaks, spelling, numbers and punctuation. Do not summarize, translate, correct or reorder anything.

Return ONLY valid JSON in this exact format:
{
  "text": "line 1\nline 2\n...",
  "confidence": 0
}

Important:
- "confidence" is your estimate from 0 to 100 of how legible the receipt was
- Use an empty string for "text" if no text is readable
- Do not include any text before or after the JSON
- Do not use markdown code blocks`

// pdfToPNG renders the first page of a PDF; receipts are single page
func pdfToPNG(pdfData []byte) ([]byte, error) {
	doc, err := fitz.NewFromMemory(pdfData)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	defer doc.Close()

	img, err := doc.Image(0)
	if err != nil {
		return nil, fmt.Errorf("rendering PDF page: %w", err)
	}
	return encodePNG(img)
}

// decodeImage decodes JPEG, PNG, GIF and HEIC/HEIF images
func decodeImage(data []byte, mimeType string) (image.Image, error) {
	if isHEIC(data, mimeType) {
		img, err := heic.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decoding HEIC/HEIF image: %w", err)
		}
		return img, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		if strings.Contains(err.Error(), "unknown format") {
			return nil, fmt.Errorf("unsupported image format (supported: JPEG, PNG, GIF, HEIC, HEIF, PDF): %w", err)
		}
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	return img, nil
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// isHEIC checks the ftyp box brand and the MIME type for HEIC/HEIF content
func isHEIC(data []byte, mimeType string) bool {
	if strings.Contains(mimeType, "heic") || strings.Contains(mimeType, "heif") {
		return true
	}
	if len(data) < 12 || string(data[4:8]) != "ftyp" {
		return false
	}
	switch string(data[8:12]) {
	case "heic", "heif", "mif1", "msf1":
		return true
	}
	return false
}

// normalizeMIME lowercases the content type and drops parameters
func normalizeMIME(contentType string) string {
	mimeType := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	if mimeType == "" {
		return "image/jpeg"
	}
	return mimeType
}

// toPNG converts PDFs and non-PNG images to PNG. PNG input is returned as-is.
func toPNG(img Image) ([]byte, error) {
	mimeType := normalizeMIME(img.ContentType)

	switch {
	case mimeType == "application/pdf":
		data, err := pdfToPNG(img.Data)
		if err != nil {
			return nil, fmt.Errorf("converting PDF to image: %w", err)
		}
		return data, nil
	case mimeType == "image/png" && !isHEIC(img.Data, mimeType):
		return img.Data, nil
	}

	decoded, err := decodeImage(img.Data, mimeType)
	if err != nil {
		return nil, fmt.Errorf("converting image to PNG: %w", err)
	}
	return encodePNG(decoded)
}
