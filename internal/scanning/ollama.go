package scanning

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Ollama implements the Recognizer interface using a local Ollama vision model
type Ollama struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewOllama creates a new Ollama Recognizer instance.
// Vision models with decent OCR: llava:1.6, qwen2-vl:7b, llama3.2-vision.
func NewOllama(baseURL string, modelName string) (*Ollama, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if modelName == "" {
		modelName = "llava"
	}

	return &Ollama{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   modelName,
		// the fan-out deadline bounds each request
		client: &http.Client{},
	}, nil
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Format   string          `json:"format,omitempty"`
}

type ollamaMessage struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"`
}

type ollamaChatResponse struct {
	Message ollamaMessage `json:"message"`
	Done    bool          `json:"done"`
}

// Name returns the source name
func (o *Ollama) Name() string {
	return SourceOllama
}

// Recognize transcribes the receipt text
func (o *Ollama) Recognize(ctx context.Context, img Image) (Payload, error) {
	pngData, err := toPNG(img)
	if err != nil {
		return Payload{}, err
	}

	reqBody := ollamaChatRequest{
		Model:  o.model,
		Stream: false,
		Format: "json",
		Messages: []ollamaMessage{
			{
				Role:    "system",
				Content: "You transcribe printed receipts character by character.",
			},
			{
				Role:    "user",
				Content: transcribePrompt,
				Images:  []string{base64.StdEncoding.EncodeToString(pngData)},
			},
		},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return Payload{}, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return Payload{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return Payload{}, fmt.Errorf("calling ollama API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return Payload{}, fmt.Errorf("ollama API error (status %d): %s", resp.StatusCode, string(msg))
	}

	var chatResp ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return Payload{}, fmt.Errorf("decoding response: %w", err)
	}

	// local models rarely self-report usefully, so always score heuristically
	p, err := transcriptPayload(SourceOllama, chatResp.Message.Content)
	if err != nil {
		return Payload{}, err
	}
	p.Confidence = Confidence(HeuristicConfidence(p.Text))
	return p, nil
}

// Close is a no-op for the HTTP client
func (o *Ollama) Close() error {
	return nil
}
