package ai

import "context"

// Параметры запроса по умолчанию: низкая температура для стабильного результата.
const (
	DefaultTemperature = 0.3
	DefaultMaxTokens   = 2048
)

// Request — один запрос на переписывание.
type Request struct {
	Model       string
	System      string
	User        string
	Temperature float64
	MaxTokens   int
}

func (r Request) withDefaults() Request {
	if r.Temperature == 0 {
		r.Temperature = DefaultTemperature
	}
	if r.MaxTokens <= 0 {
		r.MaxTokens = DefaultMaxTokens
	}
	return r
}

// Client интерфейс сервиса переписывания. Все реализации должны быть взаимозаменяемыми.
// Возвращаемый текст уже обрезан; пустой ответ — ошибка KindEmpty.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}
