// Package describe asks the Gemini API for a product title and description
// of an uploaded image.
package describe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	htransport "google.golang.org/api/transport/http"
)

// DefaultEndpoint is the Gemini REST API root.
const DefaultEndpoint = "https://generativelanguage.googleapis.com/"

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-3-flash-preview"

const prompt = "Analyze this product image and extract its title and a short factual description for a marketplace inventory system."

// ErrMalformed is returned when the response is not the expected JSON object.
var ErrMalformed = errors.New("malformed AI response")

// ErrNotConfigured is returned by Unconfigured.
var ErrNotConfigured = errors.New("ai verification failed: no API key configured")

// Unconfigured rejects every request. It is used when no API key is set so
// uploads fail instead of the storefront refusing to start.
type Unconfigured struct{}

func (Unconfigured) Describe(context.Context, []byte, string) (Details, error) {
	return Details{}, ErrNotConfigured
}

// Details is the structured answer.
type Details struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Client calls the v1beta generateContent method with a fixed response schema.
type Client struct {
	http     *http.Client
	endpoint string
	apiKey   string
	model    string
}

// NewClient creates a client. Extra options (endpoint, HTTP client) override
// the defaults.
func NewClient(ctx context.Context, apiKey, model string, opts ...option.ClientOption) (*Client, error) {
	if model == "" {
		model = DefaultModel
	}
	// The key travels in a header, so the transport itself needs no credentials.
	opts = append([]option.ClientOption{
		option.WithEndpoint(DefaultEndpoint),
		option.WithoutAuthentication(),
	}, opts...)
	hc, endpoint, err := htransport.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating AI client: %w", err)
	}
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if !strings.HasSuffix(endpoint, "/") {
		endpoint += "/"
	}
	return &Client{http: hc, endpoint: endpoint, apiKey: apiKey, model: model}, nil
}

type schema struct {
	Type        string            `json:"type"`
	Description string            `json:"description,omitempty"`
	Properties  map[string]schema `json:"properties,omitempty"`
	Required    []string          `json:"required,omitempty"`
}

type blob struct {
	MimeType string `json:"mimeType"`
	Data     []byte `json:"data"`
}

type part struct {
	Text       string `json:"text,omitempty"`
	InlineData *blob  `json:"inlineData,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	ResponseMimeType string  `json:"responseMimeType"`
	ResponseSchema   *schema `json:"responseSchema"`
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content *content `json:"content"`
	} `json:"candidates"`
}

var responseSchema = &schema{
	Type: "OBJECT",
	Properties: map[string]schema{
		"title": {
			Type:        "STRING",
			Description: "A professional product title.",
		},
		"description": {
			Type:        "STRING",
			Description: "A brief one-sentence factual description.",
		},
	},
	Required: []string{"title", "description"},
}

// Describe sends the image and returns the parsed details. Every failure,
// including a response that does not parse, is an error.
func (c *Client) Describe(ctx context.Context, payload []byte, mimeType string) (Details, error) {
	text, err := c.generate(ctx, payload, mimeType)
	if err != nil {
		slog.Error("AI analysis failed", "model", c.model, "error", err)
		return Details{}, fmt.Errorf("ai verification failed: %w", err)
	}

	details, err := parse(text)
	if err != nil {
		slog.Error("AI analysis failed", "model", c.model, "error", err)
		return Details{}, fmt.Errorf("ai verification failed: %w", err)
	}
	return details, nil
}

func (c *Client) generate(ctx context.Context, payload []byte, mimeType string) (string, error) {
	body, err := json.Marshal(generateRequest{
		Contents: []content{{
			Role: "user",
			Parts: []part{
				{Text: prompt},
				// []byte marshals as standard base64, which is what inlineData expects.
				{InlineData: &blob{MimeType: mimeType, Data: payload}},
			},
		}},
		GenerationConfig: generationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   responseSchema,
		},
	})
	if err != nil {
		return "", fmt.Errorf("encoding request: %w", err)
	}

	url := c.endpoint + "v1beta/models/" + c.model + ":generateContent"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling generateContent: %w", err)
	}
	defer resp.Body.Close()

	if err := googleapi.CheckResponse(resp); err != nil {
		return "", err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}
	var out generateResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return responseText(out), nil
}

func responseText(resp generateResponse) string {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String()
}

// parse decodes the model's JSON text. Both fields are required.
func parse(text string) (Details, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Details{}, fmt.Errorf("%w: no content", ErrMalformed)
	}

	var d Details
	if err := json.Unmarshal([]byte(text), &d); err != nil {
		return Details{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	d.Title = strings.TrimSpace(d.Title)
	d.Description = strings.TrimSpace(d.Description)
	if d.Title == "" {
		return Details{}, fmt.Errorf("%w: missing title", ErrMalformed)
	}
	if d.Description == "" {
		return Details{}, fmt.Errorf("%w: missing description", ErrMalformed)
	}
	return d, nil
}
