package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const (
	ProviderGemini     = "gemini"
	DefaultGeminiModel = "gemini-2.5-flash"
)

// GeminiClient — тот же контракт поверх Gemini API.
type GeminiClient struct {
	client *genai.Client
}

func NewGeminiClient(ctx context.Context, apiKey string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, &ServiceError{Kind: KindNotConfigured, Provider: ProviderGemini}
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiClient{client: client}, nil
}

func (c *GeminiClient) Complete(ctx context.Context, req Request) (string, error) {
	req = req.withDefaults()
	model := req.Model
	// модели OpenAI из общих настроек Gemini не поймёт
	if model == "" || !strings.HasPrefix(model, "gemini") {
		model = DefaultGeminiModel
	}

	res, err := c.client.Models.GenerateContent(ctx, model,
		[]*genai.Content{genai.NewContentFromText(req.User, genai.RoleUser)},
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(req.System, genai.RoleUser),
			Temperature:       genai.Ptr(float32(req.Temperature)),
			MaxOutputTokens:   int32(req.MaxTokens),
		})
	if err != nil {
		return "", Classify(ProviderGemini, err)
	}

	out := strings.TrimSpace(res.Text())
	if out == "" {
		return "", &ServiceError{Kind: KindEmpty, Provider: ProviderGemini, Err: errors.New("empty output")}
	}
	return out, nil
}
