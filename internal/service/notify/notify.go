// Package notify показывает пользователю итог запуска: системное уведомление и, по желанию, звук.
package notify

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gen2brain/beeep"
	"go.uber.org/zap"
)

// Kind — тип уведомления.
type Kind string

const (
	KindSuccess Kind = "success"
	KindInfo    Kind = "info"
	KindWarning Kind = "warning"
	KindError   Kind = "error"
)

// Notifier — fire-and-forget: ошибки показа игнорируются.
type Notifier interface {
	Notify(kind Kind, message string)
}

// Nop ничего не показывает.
type Nop struct{}

func (Nop) Notify(Kind, string) {}

const soundTimeout = 5 * time.Second

// Desktop показывает уведомления через beeep.
type Desktop struct {
	title  string
	logger *zap.SugaredLogger
	sound  *Sound

	// подменяется в тестах
	notify func(title, message, icon string) error
	alert  func(title, message, icon string) error
}

// NewDesktop создаёт нотификатор. sound может быть nil.
func NewDesktop(title string, logger *zap.SugaredLogger, sound *Sound) *Desktop {
	return &Desktop{
		title:  title,
		logger: logger,
		sound:  sound,
		notify: func(t, m, i string) error { return beeep.Notify(t, m, i) },
		alert:  func(t, m, i string) error { return beeep.Alert(t, m, i) },
	}
}

func (d *Desktop) Notify(kind Kind, message string) {
	show := d.notify
	// без своего звука ошибки сопровождаются системным сигналом
	if d.sound == nil && (kind == KindError || kind == KindWarning) {
		show = d.alert
	}
	if err := show(d.title, message, ""); err != nil {
		d.logger.Debugw("Уведомление не показано", "kind", kind, "error", err)
	}
	if d.sound != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), soundTimeout)
			defer cancel()
			_ = d.sound.Play(ctx)
		}()
	}
}

// Player проигрывает звук. Реализация на системном аудио — notify/player.Speaker.
type Player interface {
	Play(ctx context.Context, format string, r io.ReadCloser) error
	Supports(format string) bool
}

// Sound — звуковой файл уведомления.
type Sound struct {
	path   string
	ply    Player
	logger *zap.SugaredLogger
}

// NewSound возвращает nil, если путь пуст или формат не поддерживается.
// Относительный путь сначала ищется рядом с бинарём.
func NewSound(path string, ply Player, logger *zap.SugaredLogger) *Sound {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}
	if !filepath.IsAbs(path) {
		if exe, err := os.Executable(); err == nil {
			cand := filepath.Join(filepath.Dir(exe), path)
			if _, statErr := os.Stat(cand); statErr == nil {
				path = cand
			}
		}
	}
	if ply == nil || !ply.Supports(soundFormat(path)) {
		logger.Warnw("Неподдерживаемый формат звука уведомления", "path", path)
		return nil
	}
	return &Sound{path: path, ply: ply, logger: logger}
}

func soundFormat(path string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if ext == "" {
		ext = "mp3" // по умолчанию
	}
	return ext
}

// Play проигрывает звук. Ошибки логируются и возвращаются.
func (s *Sound) Play(ctx context.Context) error {
	if err := context.Cause(ctx); err != nil {
		return err
	}
	f, err := os.Open(s.path)
	if err != nil {
		s.logger.Warnw("Не удалось открыть звуковой файл уведомления", "path", s.path, "error", err)
		return err
	}
	defer f.Close()

	if err := s.ply.Play(ctx, soundFormat(s.path), f); err != nil {
		s.logger.Warnw("Не удалось воспроизвести звуковое уведомление", "path", s.path, "error", err)
		return err
	}
	return nil
}
