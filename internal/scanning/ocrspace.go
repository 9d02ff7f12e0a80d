package scanning

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image/jpeg"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
)

const (
	defaultOCRSpaceURL = "https://api.ocr.space/parse/image"
	// free tier rejects uploads over 1MB
	ocrSpaceMaxBytes = 1_000_000
)

// OCRSpace implements the Recognizer interface using the OCR.space HTTP API
type OCRSpace struct {
	url      string
	apiKey   string
	language string
	client   *http.Client
}

// NewOCRSpace creates a new OCR.space Recognizer instance
func NewOCRSpace(apiKey, url, language string) (*OCRSpace, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("ocr.space api key is required")
	}
	if url == "" {
		url = defaultOCRSpaceURL
	}
	if language == "" {
		language = "eng"
	}
	return &OCRSpace{
		url:      url,
		apiKey:   apiKey,
		language: language,
		client:   &http.Client{},
	}, nil
}

type ocrSpaceResponse struct {
	ParsedResults []struct {
		ParsedText string `json:"ParsedText"`
	} `json:"ParsedResults"`
	IsErroredOnProcessing bool `json:"IsErroredOnProcessing"`
	// string or list of strings depending on the failure
	ErrorMessage json.RawMessage `json:"ErrorMessage"`
}

// Name returns the source name
func (o *OCRSpace) Name() string {
	return SourceOCRSpace
}

// Recognize uploads the image and joins the parsed text of every result
func (o *OCRSpace) Recognize(ctx context.Context, img Image) (Payload, error) {
	data, filename, err := o.prepareUpload(img)
	if err != nil {
		return Payload{}, err
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fields := map[string]string{
		"language":          o.language,
		"isOverlayRequired": "false",
		"OCREngine":         "2",
		"scale":             "true",
		"isTable":           "false",
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return Payload{}, fmt.Errorf("writing form field: %w", err)
		}
	}
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return Payload{}, fmt.Errorf("creating form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return Payload{}, fmt.Errorf("writing form file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return Payload{}, fmt.Errorf("closing multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.url, &body)
	if err != nil {
		return Payload{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("apikey", o.apiKey)

	resp, err := o.client.Do(req)
	if err != nil {
		return Payload{}, fmt.Errorf("calling ocr.space API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return Payload{}, fmt.Errorf("ocr.space API error (status %d): %s", resp.StatusCode, string(msg))
	}

	var parsed ocrSpaceResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return Payload{}, fmt.Errorf("decoding response: %w", err)
	}
	if parsed.IsErroredOnProcessing {
		return Payload{}, fmt.Errorf("ocr.space processing error: %s", errorMessage(parsed.ErrorMessage))
	}

	texts := make([]string, 0, len(parsed.ParsedResults))
	for _, r := range parsed.ParsedResults {
		texts = append(texts, r.ParsedText)
	}
	text := strings.TrimSpace(strings.ReplaceAll(strings.Join(texts, "\n"), "\r\n", "\n"))

	return Payload{
		Source: SourceOCRSpace,
		Text:   text,
	}, nil
}

// prepareUpload sends small PNG/JPEG files untouched and re-encodes
// everything else, as JPEG when the PNG would exceed the size cap.
func (o *OCRSpace) prepareUpload(img Image) ([]byte, string, error) {
	mimeType := normalizeMIME(img.ContentType)
	if len(img.Data) <= ocrSpaceMaxBytes && !isHEIC(img.Data, mimeType) {
		switch mimeType {
		case "image/png":
			return img.Data, "receipt.png", nil
		case "image/jpeg", "image/jpg":
			return img.Data, "receipt.jpg", nil
		}
	}

	pngData, err := toPNG(img)
	if err != nil {
		return nil, "", err
	}
	if len(pngData) <= ocrSpaceMaxBytes {
		return pngData, "receipt.png", nil
	}

	decoded, err := decodeImage(pngData, "image/png")
	if err != nil {
		return nil, "", err
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, decoded, &jpeg.Options{Quality: 85}); err != nil {
		return nil, "", fmt.Errorf("encoding JPEG: %w", err)
	}
	return buf.Bytes(), "receipt.jpg", nil
}

func errorMessage(raw json.RawMessage) string {
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return strings.Join(list, "; ")
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil && s != "" {
		return s
	}
	return "unknown"
}

// Close is a no-op for the HTTP client
func (o *OCRSpace) Close() error {
	return nil
}
