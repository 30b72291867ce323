package ai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/openai/openai-go/v3"
	"google.golang.org/genai"
)

// Kind — класс ошибки сервиса, от него зависит сообщение пользователю.
type Kind string

const (
	KindAuth          Kind = "auth"
	KindRateLimit     Kind = "rate_limit"
	KindTimeout       Kind = "timeout"
	KindNetwork       Kind = "network"
	KindEmpty         Kind = "empty"
	KindNotConfigured Kind = "not_configured"
	KindOther         Kind = "other"
)

// ErrRequestTimeout — причина отмены контекста по таймауту запроса.
var ErrRequestTimeout = errors.New("completion request timed out")

// ServiceError — ошибка сервиса переписывания.
type ServiceError struct {
	Kind     Kind
	Provider string
	Status   int
	Err      error
}

func (e *ServiceError) Error() string {
	if e.Err == nil {
		return e.UserMessage()
	}
	return fmt.Sprintf("%s (%s): %v", e.UserMessage(), e.Provider, e.Err)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// UserMessage — короткое сообщение для уведомления.
func (e *ServiceError) UserMessage() string {
	switch e.Kind {
	case KindAuth:
		return "Invalid API key"
	case KindRateLimit:
		return "Rate limited. Try again in a moment"
	case KindTimeout:
		return "Request timed out"
	case KindNetwork:
		return "Connection error. Check your network"
	case KindEmpty:
		return "Empty response from API"
	case KindNotConfigured:
		return "API key not set. Run: rephrasectl key set"
	}
	msg := "unknown error"
	if e.Err != nil {
		msg = e.Err.Error()
	}
	if r := []rune(msg); len(r) > 50 {
		msg = string(r[:50])
	}
	return "API error: " + msg
}

// Classify приводит ошибку провайдера к ServiceError.
func Classify(provider string, err error) *ServiceError {
	if err == nil {
		return nil
	}
	var se *ServiceError
	if errors.As(err, &se) {
		return se
	}
	out := &ServiceError{Kind: KindOther, Provider: provider, Err: err}

	var oaErr *openai.Error
	var gPtr *genai.APIError
	var gVal genai.APIError
	var netErr net.Error
	switch {
	case errors.Is(err, ErrRequestTimeout), errors.Is(err, context.DeadlineExceeded):
		out.Kind = KindTimeout
	case errors.As(err, &oaErr):
		out.Status = oaErr.StatusCode
		out.Kind = kindForStatus(oaErr.StatusCode)
	case errors.As(err, &gPtr):
		out.Status = gPtr.Code
		out.Kind = kindForStatus(gPtr.Code)
	case errors.As(err, &gVal):
		out.Status = gVal.Code
		out.Kind = kindForStatus(gVal.Code)
	case errors.As(err, &netErr):
		if netErr.Timeout() {
			out.Kind = KindTimeout
		} else {
			out.Kind = KindNetwork
		}
	default:
		out.Kind = kindForMessage(err.Error())
	}
	return out
}

func kindForStatus(code int) Kind {
	switch {
	case code == 401 || code == 403:
		return KindAuth
	case code == 429:
		return KindRateLimit
	case code == 408 || code == 504:
		return KindTimeout
	}
	return KindOther
}

func kindForMessage(msg string) Kind {
	m := strings.ToLower(msg)
	switch {
	case strings.Contains(m, "api_key"), strings.Contains(m, "api key"), strings.Contains(m, "authentication"):
		return KindAuth
	case strings.Contains(m, "rate_limit"), strings.Contains(m, "rate limit"):
		return KindRateLimit
	case strings.Contains(m, "timeout"), strings.Contains(m, "timed out"):
		return KindTimeout
	}
	return KindOther
}
