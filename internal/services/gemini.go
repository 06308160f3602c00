package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/vibecast/internal/shared"
	"golang.org/x/time/rate"
)

const (
	geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	geminiModel   = "gemini-2.0-flash"
)

// GeminiOpts configures a [GeminiClient].
type GeminiOpts struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
	Limiter    *rate.Limiter
	Logger     *log.Logger
}

// GeminiClient implements [TextGenerator] with the Gemini generateContent endpoint.
type GeminiClient struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *log.Logger
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	ResponseMimeType string         `json:"responseMimeType"`
	ResponseSchema   map[string]any `json:"responseSchema,omitempty"`
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewGeminiClient returns a client for the given API key.
func NewGeminiClient(opts GeminiOpts) (*GeminiClient, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("%w: gemini api_key", shared.ErrMissingCredentials)
	}
	if opts.Model == "" {
		opts.Model = geminiModel
	}
	if opts.BaseURL == "" {
		opts.BaseURL = geminiBaseURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Logger == nil {
		opts.Logger = shared.DiscardLogger()
	}
	return &GeminiClient{
		apiKey:     opts.APIKey,
		model:      opts.Model,
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		httpClient: opts.HTTPClient,
		limiter:    opts.Limiter,
		logger:     shared.WithLogger(opts.Logger, "service", "gemini"),
	}, nil
}

func (g *GeminiClient) Name() string { return "Gemini" }

// Generate sends prompt as a single user turn and returns the JSON text of the first candidate.
//
// Transport and status failures wrap [shared.ErrGeneratorFailed]. An empty candidate list is also a failure.
func (g *GeminiClient) Generate(ctx context.Context, prompt string, schema *Schema) ([]byte, error) {
	payload := geminiRequest{
		Contents: []geminiContent{{Role: "user", Parts: []geminiPart{{Text: prompt}}}},
		GenerationConfig: geminiGenerationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   schema.geminiSchema(),
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: gemini: marshal request: %v", shared.ErrGeneratorFailed, err)
	}

	if err := pace(ctx, g.limiter); err != nil {
		return nil, fmt.Errorf("%w: gemini: %v", shared.ErrGeneratorFailed, err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", g.baseURL, g.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: gemini: build request: %v", shared.ErrGeneratorFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: gemini: request failed: %v", shared.ErrGeneratorFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("%w: gemini: unexpected status %d", shared.ErrGeneratorFailed, resp.StatusCode)
	}

	var parsed geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: gemini: decode response: %v", shared.ErrGeneratorFailed, err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("%w: gemini: %s", shared.ErrGeneratorFailed, parsed.Error.Message)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("%w: gemini: no candidates", shared.ErrGeneratorFailed)
	}

	var text strings.Builder
	for _, part := range parsed.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}
	g.logger.Debug("generated content", "model", g.model, "finish", parsed.Candidates[0].FinishReason, "bytes", text.Len())
	return []byte(text.String()), nil
}
