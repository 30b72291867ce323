package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"Rephraser/internal/service/prompt"
)

const reloadDebounce = 100 * time.Millisecond

// Preferences — пользовательские настройки, которые читаются в начале каждого запуска.
type Preferences struct {
	Model       string            `toml:"model" yaml:"model"`
	DefaultTone string            `toml:"default_tone" yaml:"default_tone"`
	Seniority   string            `toml:"seniority" yaml:"seniority"`
	ToneAliases map[string]string `toml:"tone_aliases" yaml:"tone_aliases"`
}

func DefaultPreferences() Preferences {
	return Preferences{
		Model:       "gpt-4o-mini",
		DefaultTone: prompt.DefaultTone,
		Seniority:   string(prompt.SeniorityNone),
		ToneAliases: prompt.DefaultAliases(),
	}
}

// Clone возвращает независимую копию.
func (p Preferences) Clone() Preferences {
	p.ToneAliases = maps.Clone(p.ToneAliases)
	return p
}

// Validate отклоняет неизвестные тоны и уровни.
func (p Preferences) Validate() error {
	var errs []error
	if strings.TrimSpace(p.Model) == "" {
		errs = append(errs, errors.New("model is empty"))
	}
	if _, ok := prompt.Tones[p.DefaultTone]; !ok {
		errs = append(errs, fmt.Errorf("unknown default tone %q", p.DefaultTone))
	}
	if prompt.ParseSeniority(p.Seniority) != prompt.Seniority(strings.ToLower(strings.TrimSpace(p.Seniority))) {
		errs = append(errs, fmt.Errorf("unknown seniority %q", p.Seniority))
	}
	for alias, tone := range p.ToneAliases {
		if _, ok := prompt.Tones[tone]; !ok {
			errs = append(errs, fmt.Errorf("alias %q maps to unknown tone %q", alias, tone))
		}
	}
	return errors.Join(errs...)
}

// withDefaults заполняет пропущенные в файле поля.
func (p Preferences) withDefaults() Preferences {
	def := DefaultPreferences()
	if p.Model == "" {
		p.Model = def.Model
	}
	if p.DefaultTone == "" {
		p.DefaultTone = def.DefaultTone
	}
	if p.Seniority == "" {
		p.Seniority = def.Seniority
	}
	if p.ToneAliases == nil {
		p.ToneAliases = def.ToneAliases
	}
	p.DefaultTone = strings.ToLower(strings.TrimSpace(p.DefaultTone))
	p.Seniority = strings.ToLower(strings.TrimSpace(p.Seniority))
	aliases := make(map[string]string, len(p.ToneAliases))
	for k, v := range p.ToneAliases {
		aliases[strings.ToLower(strings.TrimSpace(k))] = strings.ToLower(strings.TrimSpace(v))
	}
	p.ToneAliases = aliases
	return p
}

// Store хранит актуальные настройки. Читатели получают целостный снимок,
// перезагрузка подменяет указатель целиком.
type Store struct {
	path   string
	logger *zap.SugaredLogger

	current atomic.Pointer[Preferences]

	writeMu  sync.Mutex
	cbMu     sync.Mutex
	onChange []func(Preferences)
}

func NewStore(path string, logger *zap.SugaredLogger) *Store {
	s := &Store{path: path, logger: logger}
	def := DefaultPreferences()
	s.current.Store(&def)
	return s
}

// Path — путь к файлу настроек.
func (s *Store) Path() string { return s.path }

// Load читает файл. Если файла нет, создаёт его с настройками по умолчанию.
func (s *Store) Load() error {
	p, err := readPreferences(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.logger.Infow("Файл настроек не найден, создаём по умолчанию", "path", s.path)
		def := DefaultPreferences()
		if err := writePreferences(s.path, def); err != nil {
			return err
		}
		s.current.Store(&def)
		return nil
	}
	if err != nil {
		return err
	}
	if err := p.Validate(); err != nil {
		return fmt.Errorf("validate %s: %w", s.path, err)
	}
	s.current.Store(&p)
	return nil
}

// Snapshot возвращает копию текущих настроек.
func (s *Store) Snapshot() Preferences {
	return s.current.Load().Clone()
}

// Update применяет изменение, проверяет результат и сохраняет его в файл.
func (s *Store) Update(fn func(*Preferences)) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	next := s.Snapshot()
	fn(&next)
	next = next.withDefaults()
	if err := next.Validate(); err != nil {
		return err
	}
	if err := writePreferences(s.path, next); err != nil {
		return err
	}
	s.current.Store(&next)
	s.notify(next)
	return nil
}

// OnChange регистрирует колбэк, вызываемый после успешной перезагрузки или Update.
func (s *Store) OnChange(cb func(Preferences)) {
	s.cbMu.Lock()
	s.onChange = append(s.onChange, cb)
	s.cbMu.Unlock()
}

func (s *Store) notify(p Preferences) {
	s.cbMu.Lock()
	cbs := append([]func(Preferences){}, s.onChange...)
	s.cbMu.Unlock()
	for _, cb := range cbs {
		cb(p.Clone())
	}
}

// Reload перечитывает файл. Некорректный файл отклоняется, текущие настройки остаются.
func (s *Store) Reload() error {
	p, err := readPreferences(s.path)
	if err != nil {
		return fmt.Errorf("reload preferences: %w", err)
	}
	if err := p.Validate(); err != nil {
		return fmt.Errorf("validate preferences: %w", err)
	}
	s.current.Store(&p)
	s.notify(p)
	return nil
}

// Watch следит за файлом настроек до отмены контекста.
func (s *Store) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	// Следим за каталогом: редакторы сохраняют файл через rename
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		return fmt.Errorf("watch directory: %w", err)
	}

	var debounce *time.Timer
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != filepath.Base(s.path) {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(reloadDebounce, func() {
				if err := s.Reload(); err != nil {
					s.logger.Warnw("Настройки не применены", "error", err)
					return
				}
				s.logger.Infow("Настройки перезагружены", "path", s.path)
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warnw("Ошибка наблюдения за файлом настроек", "error", err)
		}
	}
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

func readPreferences(path string) (Preferences, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Preferences{}, err
	}
	var p Preferences
	if isYAML(path) {
		err = yaml.Unmarshal(data, &p)
	} else {
		_, err = toml.Decode(string(data), &p)
	}
	if err != nil {
		return Preferences{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return p.withDefaults(), nil
}

// writePreferences пишет файл через временный и rename, чтобы наблюдатель не увидел половину файла.
func writePreferences(path string, p Preferences) error {
	var buf bytes.Buffer
	if isYAML(path) {
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(p); err != nil {
			return fmt.Errorf("encode preferences: %w", err)
		}
		_ = enc.Close()
	} else if err := toml.NewEncoder(&buf).Encode(p); err != nil {
		return fmt.Errorf("encode preferences: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".prefs-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("write preferences: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write preferences: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace preferences: %w", err)
	}
	return nil
}
