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
	ollamaHost  = "http://localhost:11434"
	ollamaModel = "llama3.1"
)

// OllamaOpts configures an [OllamaClient].
type OllamaOpts struct {
	Host       string
	Model      string
	HTTPClient *http.Client
	Limiter    *rate.Limiter
	Logger     *log.Logger
}

// OllamaClient implements [TextGenerator] against a local Ollama server's chat endpoint.
type OllamaClient struct {
	host       string
	model      string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *log.Logger
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Format   any             `json:"format,omitempty"`
}

type ollamaChatResponse struct {
	Message ollamaMessage `json:"message"`
	Error   string        `json:"error,omitempty"`
}

func NewOllamaClient(opts OllamaOpts) *OllamaClient {
	if opts.Host == "" {
		opts.Host = ollamaHost
	}
	if opts.Model == "" {
		opts.Model = ollamaModel
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Logger == nil {
		opts.Logger = shared.DiscardLogger()
	}
	return &OllamaClient{
		host:       strings.TrimRight(opts.Host, "/"),
		model:      opts.Model,
		httpClient: opts.HTTPClient,
		limiter:    opts.Limiter,
		logger:     shared.WithLogger(opts.Logger, "service", "ollama"),
	}
}

func (o *OllamaClient) Name() string { return "Ollama" }

// Generate runs a non-streaming chat completion with the output constrained to schema.
// A nil schema falls back to plain JSON mode.
func (o *OllamaClient) Generate(ctx context.Context, prompt string, schema *Schema) ([]byte, error) {
	payload := ollamaChatRequest{
		Model:    o.model,
		Stream:   false,
		Messages: []ollamaMessage{{Role: "user", Content: prompt}},
		Format:   "json",
	}
	if schema != nil {
		payload.Format = schema
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: ollama: marshal request: %v", shared.ErrGeneratorFailed, err)
	}

	if err := pace(ctx, o.limiter); err != nil {
		return nil, fmt.Errorf("%w: ollama: %v", shared.ErrGeneratorFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.host+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: ollama: build request: %v", shared.ErrGeneratorFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: ollama: request failed: %v", shared.ErrGeneratorFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("%w: ollama: unexpected status %d", shared.ErrGeneratorFailed, resp.StatusCode)
	}

	var parsed ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: ollama: decode response: %v", shared.ErrGeneratorFailed, err)
	}
	if parsed.Error != "" {
		return nil, fmt.Errorf("%w: ollama: %s", shared.ErrGeneratorFailed, parsed.Error)
	}

	content := strings.TrimSpace(parsed.Message.Content)
	o.logger.Debug("chat completed", "model", o.model, "bytes", len(content))
	return []byte(content), nil
}
