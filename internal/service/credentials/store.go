// Package credentials хранит ключ API в системном хранилище секретов с запасным чтением из окружения.
package credentials

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/zalando/go-keyring"
)

// Source — откуда взят ключ.
type Source string

const (
	SourceNone    Source = "none"
	SourceKeyring Source = "keyring"
	SourceEnv     Source = "env"
)

// ErrEmptyKey — попытка сохранить пустой ключ.
var ErrEmptyKey = errors.New("api key is empty")

// Backend — минимальный срез go-keyring.
type Backend interface {
	Get(service, user string) (string, error)
	Set(service, user, password string) error
	Delete(service, user string) error
}

type systemKeyring struct{}

func (systemKeyring) Get(service, user string) (string, error) { return keyring.Get(service, user) }
func (systemKeyring) Set(service, user, password string) error { return keyring.Set(service, user, password) }
func (systemKeyring) Delete(service, user string) error        { return keyring.Delete(service, user) }

// Store — ключ одного провайдера.
type Store struct {
	backend Backend
	service string
	account string
	envVars []string
	getenv  func(string) string
}

func New(service, account string, envVars ...string) *Store {
	return &Store{backend: systemKeyring{}, service: service, account: account, envVars: envVars, getenv: os.Getenv}
}

// ForProvider выбирает запись хранилища и переменные окружения для провайдера.
func ForProvider(provider, service, openaiAccount string) *Store {
	switch provider {
	case "gemini":
		return New(service, "gemini-api-key", "GEMINI_API_KEY", "GOOGLE_API_KEY")
	default:
		return New(service, openaiAccount, "OPENAI_API_KEY")
	}
}

// WithBackend подменяет хранилище.
func (s *Store) WithBackend(b Backend) *Store {
	s.backend = b
	return s
}

// Account — имя записи в хранилище.
func (s *Store) Account() string { return s.account }

// Credential возвращает ключ: сначала хранилище, затем окружение.
// Отсутствие ключа не ошибка: ok == false.
func (s *Store) Credential() (key string, src Source, ok bool, err error) {
	v, kerr := s.backend.Get(s.service, s.account)
	switch {
	case kerr == nil && strings.TrimSpace(v) != "":
		return strings.TrimSpace(v), SourceKeyring, true, nil
	case kerr != nil && !errors.Is(kerr, keyring.ErrNotFound):
		// хранилище недоступно (нет dbus и т.п.), пробуем окружение
		err = fmt.Errorf("read keyring: %w", kerr)
	}
	for _, name := range s.envVars {
		if v := strings.TrimSpace(s.getenv(name)); v != "" {
			return v, SourceEnv, true, nil
		}
	}
	return "", SourceNone, false, err
}

// Set сохраняет ключ в хранилище.
func (s *Store) Set(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return ErrEmptyKey
	}
	if err := s.backend.Set(s.service, s.account, key); err != nil {
		return fmt.Errorf("write keyring: %w", err)
	}
	return nil
}

// Delete удаляет ключ. Отсутствующий ключ не ошибка.
func (s *Store) Delete() error {
	if err := s.backend.Delete(s.service, s.account); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("delete keyring: %w", err)
	}
	return nil
}

// Mask оставляет от ключа префикс и последние 4 символа.
func Mask(key string) string {
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:3] + "..." + key[len(key)-4:]
}
