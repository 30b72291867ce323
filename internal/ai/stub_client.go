package ai

import (
	"context"
	"strings"
)

const ProviderStub = "stub"

// StubClient заглушка, которая не делает реальных запросов: возвращает текст без изменений.
type StubClient struct{}

func NewStubClient() *StubClient { return &StubClient{} }

func (c *StubClient) Complete(ctx context.Context, req Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", Classify(ProviderStub, context.Cause(ctx))
	}
	out := strings.TrimSpace(req.User)
	if out == "" {
		return "", &ServiceError{Kind: KindEmpty, Provider: ProviderStub}
	}
	return out, nil
}
