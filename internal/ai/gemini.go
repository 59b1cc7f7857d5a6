package ai

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// PlaceholderAPIKey is the value shipped in sample env files. It is treated
// the same as no key at all.
const PlaceholderAPIKey = "YOUR_GEMINI_API_KEY"

type GeminiConfig struct {
	APIKey          string
	Model           string
	StructuredModel string
}

type GeminiModel struct {
	client          *genai.Client
	model           string
	structuredModel string
}

// UsableAPIKey reports whether key can be sent upstream.
func UsableAPIKey(key string) bool {
	key = strings.TrimSpace(key)
	return key != "" && key != PlaceholderAPIKey
}

func NewGeminiModel(ctx context.Context, cfg GeminiConfig) (*GeminiModel, error) {
	if !UsableAPIKey(cfg.APIKey) {
		return nil, fmt.Errorf("gemini api key is missing")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client failed: %w", err)
	}
	if cfg.StructuredModel == "" {
		cfg.StructuredModel = cfg.Model
	}
	return &GeminiModel{client: client, model: cfg.Model, structuredModel: cfg.StructuredModel}, nil
}

func (m *GeminiModel) Name() string {
	return "gemini"
}

func (m *GeminiModel) Generate(ctx context.Context, prompt string, p Params) (string, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(p.Temperature),
		TopP:            genai.Ptr(p.TopP),
		TopK:            genai.Ptr(p.TopK),
		MaxOutputTokens: p.MaxOutputTokens,
		SafetySettings:  safetySettings(),
	}
	model := m.model
	if p.JSON {
		cfg.ResponseMIMEType = "application/json"
		model = m.structuredModel
	}

	resp, err := m.client.Models.GenerateContent(ctx, model, genai.Text(prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate failed: %w", err)
	}
	return resp.Text(), nil
}

func safetySettings() []*genai.SafetySetting {
	categories := []genai.HarmCategory{
		genai.HarmCategoryHarassment,
		genai.HarmCategoryHateSpeech,
		genai.HarmCategorySexuallyExplicit,
		genai.HarmCategoryDangerousContent,
	}
	settings := make([]*genai.SafetySetting, 0, len(categories))
	for _, c := range categories {
		settings = append(settings, &genai.SafetySetting{
			Category:  c,
			Threshold: genai.HarmBlockThresholdBlockMediumAndAbove,
		})
	}
	return settings
}
