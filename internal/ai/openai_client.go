package ai

import (
	"context"
	"errors"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/responses"
)

const ProviderOpenAI = "openai"

// DefaultOpenAIModel используется, если модель в настройках не задана.
const DefaultOpenAIModel = openai.ChatModelGPT4oMini

// OpenAIClient отправляет запрос в Responses API: системная инструкция идёт в Instructions.
type OpenAIClient struct {
	client openai.Client
}

func NewOpenAIClient(apiKey string, opts ...option.RequestOption) *OpenAIClient {
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &OpenAIClient{client: openai.NewClient(opts...)}
}

func (c *OpenAIClient) Complete(ctx context.Context, req Request) (string, error) {
	req = req.withDefaults()
	model := req.Model
	if model == "" {
		model = DefaultOpenAIModel
	}

	resp, err := c.client.Responses.New(ctx, responses.ResponseNewParams{
		Model:           model,
		Instructions:    openai.String(req.System),
		Temperature:     openai.Float(req.Temperature),
		MaxOutputTokens: openai.Int(int64(req.MaxTokens)),
		Input: responses.ResponseNewParamsInputUnion{
			OfString: openai.String(req.User),
		},
	})
	if err != nil {
		return "", Classify(ProviderOpenAI, err)
	}

	out := strings.TrimSpace(resp.OutputText())
	if out == "" {
		return "", &ServiceError{Kind: KindEmpty, Provider: ProviderOpenAI, Err: errors.New("empty output")}
	}
	return out, nil
}
