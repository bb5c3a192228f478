package extraction

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/dmodern/invoice-etl/internal/schema"
)

// Gemini implements the Extractor interface using Google Gemini with a
// structured-output response schema
type Gemini struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGemini creates a new Gemini Extractor configured to return JSON
// matching invoiceSchema
func NewGemini(apiKey string, modelName string, invoiceSchema *schema.Node) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if modelName == "" {
		modelName = "gemini-2.0-flash"
	}
	if err := invoiceSchema.Validate(); err != nil {
		return nil, fmt.Errorf("invalid invoice schema: %w", err)
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(0.2)
	model.SetTopP(0.95)
	model.SetTopK(40)
	model.SetMaxOutputTokens(8192)
	model.GenerationConfig.ResponseMIMEType = "application/json"
	model.GenerationConfig.ResponseSchema = toGenaiSchema(invoiceSchema)

	return &Gemini{
		client: client,
		model:  model,
	}, nil
}

// Extract sends all pages of one invoice in a single request and decodes
// the JSON response
func (g *Gemini) Extract(ctx context.Context, pages []Page) (any, error) {
	if len(pages) == 0 {
		return nil, fmt.Errorf("no pages provided")
	}

	ctx, cancel := context.WithTimeout(ctx, 120*time.Second)
	defer cancel()

	parts := make([]genai.Part, 0, len(pages)+1)
	for _, page := range pages {
		// prepareImageData re-encodes everything as PNG, so the format
		// suffix is always "png"
		data, _, _, err := prepareImageData(page.Data, page.ContentType)
		if err != nil {
			return nil, err
		}
		parts = append(parts, genai.ImageData("png", data))
	}
	parts = append(parts, genai.Text(extractInstruction))

	resp, err := g.model.GenerateContent(ctx, parts...)
	if err != nil {
		return nil, fmt.Errorf("generating content: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("no response from gemini")
	}

	var responseText strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			responseText.WriteString(string(text))
		}
	}

	doc, err := DecodeDocument(responseText.String())
	if err != nil {
		return nil, fmt.Errorf("parsing invoice response: %w (raw response: %s)", err, responseText.String())
	}
	return doc, nil
}

// Close closes the Gemini client
func (g *Gemini) Close() error {
	return g.client.Close()
}

// toGenaiSchema converts the invoice schema tree into the Gemini
// response-schema representation. Gemini's Properties map is unordered;
// output key order is restored later when the response is normalized.
func toGenaiSchema(n *schema.Node) *genai.Schema {
	switch n.Kind {
	case schema.KindObject:
		props := make(map[string]*genai.Schema, len(n.Properties))
		for _, p := range n.Properties {
			props[p.Name] = toGenaiSchema(p.Schema)
		}
		return &genai.Schema{
			Type:        genai.TypeObject,
			Description: n.Description,
			Properties:  props,
		}
	case schema.KindArray:
		return &genai.Schema{
			Type:        genai.TypeArray,
			Description: n.Description,
			Items:       toGenaiSchema(n.Items),
		}
	case schema.KindNumber:
		return &genai.Schema{
			Type:        genai.TypeNumber,
			Description: n.Description,
		}
	default:
		return &genai.Schema{
			Type:        genai.TypeString,
			Description: n.Description,
		}
	}
}
