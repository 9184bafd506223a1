package rag

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"TechPulse/internal/model"

	"github.com/PaesslerAG/jsonpath"
	"google.golang.org/genai"
)

// Generator turns a prompt into a reply using a hosted language model.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Name() string
}

// DefaultInferenceURL is the Hugging Face serverless inference base.
const DefaultInferenceURL = "https://api-inference.huggingface.co/models"

// HuggingFaceGenerator calls the serverless inference API for text generation.
type HuggingFaceGenerator struct {
	BaseURL      string
	Model        string
	Token        string
	MaxNewTokens int
	Client       *http.Client
}

// NewHuggingFaceGenerator creates a generator for model with a bounded reply length.
func NewHuggingFaceGenerator(model, token string, maxNewTokens int) *HuggingFaceGenerator {
	return &HuggingFaceGenerator{
		BaseURL:      DefaultInferenceURL,
		Model:        model,
		Token:        token,
		MaxNewTokens: maxNewTokens,
		Client:       &http.Client{Timeout: 120 * time.Second},
	}
}

func (g *HuggingFaceGenerator) Name() string { return "huggingface/" + g.Model }

func (g *HuggingFaceGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(map[string]any{
		"inputs": prompt,
		"parameters": map[string]any{
			"max_new_tokens":   g.MaxNewTokens,
			"return_full_text": false,
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}

	endpoint := strings.TrimRight(g.BaseURL, "/") + "/" + g.Model
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if g.Token != "" {
		req.Header.Set("Authorization", "Bearer "+g.Token)
	}

	resp, err := g.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("inference: %w: %w", model.ErrNetworkFailure, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("inference read body: %w: %w", model.ErrNetworkFailure, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("inference: %w: status %d, body: %s", model.ErrNetworkFailure, resp.StatusCode, string(body))
	}

	var doc interface{}
	if err := json.Unmarshal(body, &doc); err != nil {
		return "", fmt.Errorf("inference decode: %w: %w", model.ErrMalformedResponse, err)
	}
	v, err := jsonpath.Get("$[0].generated_text", doc)
	if err != nil {
		return "", fmt.Errorf("inference reply: %w: %w", model.ErrMalformedResponse, err)
	}
	text, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("inference reply: %w: generated_text is %T", model.ErrMalformedResponse, v)
	}
	return strings.TrimSpace(text), nil
}

// GeminiGenerator generates replies with the Gemini API.
type GeminiGenerator struct {
	Client       *genai.Client
	Model        string
	MaxNewTokens int
}

// NewGeminiGenerator creates a Gemini client authenticated with apiKey.
func NewGeminiGenerator(ctx context.Context, apiKey, modelName string, maxNewTokens int) (*GeminiGenerator, error) {
	return newGeminiGenerator(ctx, genai.HTTPOptions{}, apiKey, modelName, maxNewTokens)
}

func newGeminiGenerator(ctx context.Context, opts genai.HTTPOptions, apiKey, modelName string, maxNewTokens int) (*GeminiGenerator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: opts,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &GeminiGenerator{Client: client, Model: modelName, MaxNewTokens: maxNewTokens}, nil
}

func (g *GeminiGenerator) Name() string { return "gemini/" + g.Model }

func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.Client.Models.GenerateContent(ctx, g.Model, genai.Text(prompt), &genai.GenerateContentConfig{
		MaxOutputTokens: int32(g.MaxNewTokens),
	})
	if err != nil {
		return "", fmt.Errorf("gemini: %w: %w", model.ErrNetworkFailure, err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini: %w: no candidates", model.ErrMalformedResponse)
	}
	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	return strings.TrimSpace(b.String()), nil
}
