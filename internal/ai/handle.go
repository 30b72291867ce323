package ai

import (
	"context"
	"fmt"
	"sync"
)

// Factory создаёт клиента провайдера для ключа.
type Factory func(ctx context.Context, provider, apiKey string) (Client, error)

// DefaultFactory знает openai, gemini и stub.
func DefaultFactory(ctx context.Context, provider, apiKey string) (Client, error) {
	switch provider {
	case ProviderOpenAI, "":
		return NewOpenAIClient(apiKey), nil
	case ProviderGemini:
		return NewGeminiClient(ctx, apiKey)
	case ProviderStub:
		return NewStubClient(), nil
	}
	return nil, fmt.Errorf("unknown provider %q", provider)
}

// Handle хранит клиента и пересоздаёт его, когда меняется ключ или провайдер.
type Handle struct {
	factory Factory

	mu       sync.Mutex
	client   Client
	provider string
	key      string
}

func NewHandle(factory Factory) *Handle {
	if factory == nil {
		factory = DefaultFactory
	}
	return &Handle{factory: factory}
}

// Client возвращает клиента для текущих провайдера и ключа.
// Пустой ключ у реального провайдера — ошибка KindNotConfigured.
func (h *Handle) Client(ctx context.Context, provider, apiKey string) (Client, error) {
	if apiKey == "" && provider != ProviderStub {
		return nil, &ServiceError{Kind: KindNotConfigured, Provider: provider}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.client != nil && h.provider == provider && h.key == apiKey {
		return h.client, nil
	}
	c, err := h.factory(ctx, provider, apiKey)
	if err != nil {
		return nil, err
	}
	h.client, h.provider, h.key = c, provider, apiKey
	return c, nil
}

// Reset сбрасывает закэшированного клиента.
func (h *Handle) Reset() {
	h.mu.Lock()
	h.client, h.provider, h.key = nil, "", ""
	h.mu.Unlock()
}
