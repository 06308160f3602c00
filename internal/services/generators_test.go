package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/desertthunder/vibecast/internal/shared"
)

var testSchema = &Schema{
	Type: TypeObject,
	Properties: map[string]*Schema{
		"primaryMood": {Type: TypeString},
		"tags":        {Type: TypeArray, Items: &Schema{Type: TypeString}, MinItems: Ptr(3), MaxItems: Ptr(5)},
	},
	Required: []string{"primaryMood", "tags"},
}

func TestGeminiClient(t *testing.T) {
	t.Run("Missing API Key", func(t *testing.T) {
		_, err := NewGeminiClient(GeminiOpts{})
		if !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})

	t.Run("Generate", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/v1beta/models/test-model:generateContent" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			if r.Header.Get("x-goog-api-key") != "key" {
				t.Errorf("expected api key header")
			}

			var body struct {
				Contents []struct {
					Parts []struct{ Text string } `json:"parts"`
				} `json:"contents"`
				GenerationConfig struct {
					ResponseMimeType string         `json:"responseMimeType"`
					ResponseSchema   map[string]any `json:"responseSchema"`
				} `json:"generationConfig"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Fatalf("decode request: %v", err)
			}
			if body.Contents[0].Parts[0].Text != "describe" {
				t.Errorf("expected prompt, got %+v", body.Contents)
			}
			if body.GenerationConfig.ResponseMimeType != "application/json" {
				t.Errorf("expected json mime type")
			}
			if body.GenerationConfig.ResponseSchema["type"] != "OBJECT" {
				t.Errorf("expected upper case schema type, got %v", body.GenerationConfig.ResponseSchema["type"])
			}

			fmt.Fprint(w, `{"candidates":[{"content":{"parts":[{"text":"{\"primaryMood\":"},{"text":"\"Calm\"}"}]},"finishReason":"STOP"}]}`)
		}))
		defer srv.Close()

		g, err := NewGeminiClient(GeminiOpts{APIKey: "key", Model: "test-model", BaseURL: srv.URL + "/v1beta", HTTPClient: srv.Client()})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		out, err := g.Generate(context.Background(), "describe", testSchema)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if string(out) != `{"primaryMood":"Calm"}` {
			t.Errorf("expected joined parts, got %s", out)
		}
	})

	t.Run("Failures", func(t *testing.T) {
		tests := []struct {
			name   string
			status int
			body   string
		}{
			{"Server Error", http.StatusInternalServerError, `{}`},
			{"No Candidates", http.StatusOK, `{"candidates":[]}`},
			{"Undecodable", http.StatusOK, `not json`},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(tt.status)
					fmt.Fprint(w, tt.body)
				}))
				defer srv.Close()

				g, _ := NewGeminiClient(GeminiOpts{APIKey: "key", BaseURL: srv.URL, HTTPClient: srv.Client()})
				_, err := g.Generate(context.Background(), "p", testSchema)
				if !errors.Is(err, shared.ErrGeneratorFailed) {
					t.Errorf("expected ErrGeneratorFailed, got %v", err)
				}
			})
		}
	})
}

func TestOllamaClient(t *testing.T) {
	t.Run("Generate", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/chat" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			var body struct {
				Model    string          `json:"model"`
				Stream   bool            `json:"stream"`
				Format   json.RawMessage `json:"format"`
				Messages []ollamaMessage `json:"messages"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Fatalf("decode request: %v", err)
			}
			if body.Stream {
				t.Errorf("expected non-streaming request")
			}
			var format Schema
			if err := json.Unmarshal(body.Format, &format); err != nil || format.Type != TypeObject {
				t.Errorf("expected schema as format, got %s", body.Format)
			}
			fmt.Fprint(w, `{"message":{"role":"assistant","content":" {\"primaryMood\":\"Calm\"} "}}`)
		}))
		defer srv.Close()

		o := NewOllamaClient(OllamaOpts{Host: srv.URL, HTTPClient: srv.Client()})
		if o.Name() != "Ollama" {
			t.Errorf("unexpected name %s", o.Name())
		}
		out, err := o.Generate(context.Background(), "describe", testSchema)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if string(out) != `{"primaryMood":"Calm"}` {
			t.Errorf("expected trimmed content, got %q", out)
		}
	})

	t.Run("Error Field", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"error":"model not found"}`)
		}))
		defer srv.Close()

		o := NewOllamaClient(OllamaOpts{Host: srv.URL, HTTPClient: srv.Client()})
		_, err := o.Generate(context.Background(), "p", nil)
		if !errors.Is(err, shared.ErrGeneratorFailed) {
			t.Errorf("expected ErrGeneratorFailed, got %v", err)
		}
	})
}

func TestLimiter(t *testing.T) {
	if NewLimiter(0) != nil {
		t.Errorf("expected nil limiter for zero rate")
	}
	if err := pace(context.Background(), nil); err != nil {
		t.Errorf("expected nil limiter not to block, got %v", err)
	}

	l := NewLimiter(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = l.Allow()
	if err := pace(ctx, l); err == nil {
		t.Errorf("expected cancelled context to stop pacing")
	}
}
