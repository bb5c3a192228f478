package extraction

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dmodern/invoice-etl/internal/schema"
)

// Ollama implements the Extractor interface using a local Ollama server.
// Ollama has no response-schema support, so the expected JSON shape is
// rendered into the prompt instead.
type Ollama struct {
	baseURL string
	model   string
	prompt  string
	client  *http.Client
}

// NewOllama creates a new Ollama Extractor instance. Vision models such
// as llava or qwen2-vl work best; smaller models tend to drop line items.
func NewOllama(baseURL string, modelName string, invoiceSchema *schema.Node) (*Ollama, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if modelName == "" {
		modelName = "llava"
	}
	if err := invoiceSchema.Validate(); err != nil {
		return nil, fmt.Errorf("invalid invoice schema: %w", err)
	}

	return &Ollama{
		baseURL: baseURL,
		model:   modelName,
		prompt:  buildPrompt(invoiceSchema),
		client: &http.Client{
			Timeout: 120 * time.Second, // vision models are slow
		},
	}, nil
}

// ollamaChatRequest represents the request body for Ollama's chat API
type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Images   []string        `json:"images,omitempty"`
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ollamaChatResponse represents the response from Ollama's chat API
type ollamaChatResponse struct {
	Message ollamaMessage `json:"message"`
	Done    bool          `json:"done"`
}

// Extract sends all pages of one invoice and decodes the JSON response
func (o *Ollama) Extract(ctx context.Context, pages []Page) (any, error) {
	if len(pages) == 0 {
		return nil, fmt.Errorf("no pages provided")
	}

	ctx, cancel := context.WithTimeout(ctx, 120*time.Second)
	defer cancel()

	images := make([]string, 0, len(pages))
	for _, page := range pages {
		data, _, _, err := prepareImageData(page.Data, page.ContentType)
		if err != nil {
			return nil, err
		}
		images = append(images, base64.StdEncoding.EncodeToString(data))
	}

	reqBody := ollamaChatRequest{
		Model:  o.model,
		Stream: false,
		Messages: []ollamaMessage{
			{
				Role:    "system",
				Content: "You are an expert at reading and extracting information from invoices. You must carefully read all text in images and extract accurate information.",
			},
			{
				Role:    "user",
				Content: o.prompt,
			},
		},
		Images: images,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	url := fmt.Sprintf("%s/api/chat", o.baseURL)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling ollama API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ollama API error (status %d): %s", resp.StatusCode, string(body))
	}

	var chatResp ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	doc, err := DecodeDocument(chatResp.Message.Content)
	if err != nil {
		return nil, fmt.Errorf("parsing invoice response: %w (raw response: %s)", err, chatResp.Message.Content)
	}
	return doc, nil
}

// Close closes the Ollama client (no-op for HTTP client)
func (o *Ollama) Close() error {
	return nil
}
