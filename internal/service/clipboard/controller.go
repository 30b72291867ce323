// Package clipboard реализует безопасный протокол захвата выделения через буфер обмена:
// снимок, копирование, опрос, затем либо замена результатом, либо восстановление снимка.
package clipboard

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
)

// Automation — примитивы ОС, через которые идёт работа с выделением.
type Automation interface {
	SimulateCopy() error
	SimulateMenuCopy() error
	SimulatePaste() error
	ReadClipboard() (string, error)
	WriteClipboard(text string) error
}

// ForegroundReporter опционально сообщает имя активного приложения.
type ForegroundReporter interface {
	ForegroundApp() (string, error)
}

// Snapshot — содержимое буфера до любых изменений.
type Snapshot struct {
	Content    string
	CapturedAt time.Time

	// Readable == false: буфер не читался как текст (например, картинка), восстанавливать нечего.
	Readable bool
}

// Config — бюджет опроса и задержки.
type Config struct {
	Attempts    int           // попыток опроса после копирования
	Interval    time.Duration // пауза перед каждой попыткой
	PasteSettle time.Duration // пауза между записью результата и вставкой
	// Приложения, игнорирующие синтетические нажатия: для них сразу используется копирование через меню.
	IgnoreSimulatedInput []string
}

// DefaultConfig — 3 попытки по 150ms, не больше 450ms на один механизм копирования.
func DefaultConfig() Config {
	return Config{Attempts: 3, Interval: 150 * time.Millisecond, PasteSettle: 80 * time.Millisecond}
}

// Controller выполняет захват выделения и обратную запись.
type Controller struct {
	auto   Automation
	cfg    Config
	logger *zap.SugaredLogger

	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
}

// Option настраивает Controller.
type Option func(*Controller)

// WithSleep подменяет ожидание (тесты, виртуальное время).
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Controller) { c.sleep = fn }
}

// WithClock подменяет источник времени.
func WithClock(fn func() time.Time) Option {
	return func(c *Controller) { c.now = fn }
}

func NewController(auto Automation, cfg Config, logger *zap.SugaredLogger, opts ...Option) *Controller {
	def := DefaultConfig()
	if cfg.Attempts <= 0 {
		cfg.Attempts = def.Attempts
	}
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	if cfg.PasteSettle < 0 {
		cfg.PasteSettle = 0
	}
	c := &Controller{auto: auto, cfg: cfg, logger: logger, sleep: sleepCtx, now: time.Now}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Capture — захваченное выделение. Должно завершиться ровно одним из WriteBack/AbortRestore;
// Release завершает захват восстановлением, если этого ещё не произошло.
type Capture struct {
	c        *Controller
	snapshot Snapshot
	text     string

	mu       sync.Mutex
	released bool
}

// CaptureSelection снимает буфер, копирует выделение и дожидается изменения буфера.
// При любой неудаче буфер восстанавливается до возврата ошибки.
func (c *Controller) CaptureSelection(ctx context.Context) (*Capture, error) {
	snap := Snapshot{CapturedAt: c.now()}
	if content, err := c.auto.ReadClipboard(); err != nil {
		c.logger.Warnw("Не удалось прочитать буфер перед копированием", "error", err)
	} else {
		snap.Content, snap.Readable = content, true
	}
	cp := &Capture{c: c, snapshot: snap}

	// Очищаем буфер, чтобы заметить копирование даже если выделение совпадает со снимком.
	// Нечитаемое содержимое не трогаем: вернуть его потом не получится.
	baseline := snap.Content
	if snap.Readable {
		if err := c.auto.WriteClipboard(""); err != nil {
			c.logger.Debugw("Не удалось очистить буфер, сравниваем со снимком", "error", err)
		} else {
			baseline = ""
		}
	}

	text, changed, err := c.copyAndPoll(ctx, baseline)
	if err != nil {
		cp.restore()
		return nil, err
	}
	if !changed {
		cp.restore()
		return nil, ErrNoSelection
	}
	if strings.TrimSpace(text) == "" {
		cp.restore()
		return nil, fmt.Errorf("%w: whitespace only", ErrNoSelection)
	}

	cp.text = text
	c.logger.Debugw("Выделение захвачено", "chars", utf8.RuneCountInString(text))
	return cp, nil
}

func (c *Controller) copyAndPoll(ctx context.Context, baseline string) (string, bool, error) {
	if app, skip := c.ignoresSimulatedInput(); skip {
		c.logger.Debugw("Приложение игнорирует синтетический ввод, копируем через меню", "app", app)
	} else {
		if err := c.auto.SimulateCopy(); err != nil {
			c.logger.Warnw("Синтетическое копирование не удалось", "error", err)
		} else {
			text, changed, err := c.poll(ctx, baseline)
			if err != nil || changed {
				return text, changed, err
			}
		}
	}

	c.logger.Debugw("Буфер не изменился, пробуем копирование через меню")
	if err := c.auto.SimulateMenuCopy(); err != nil {
		c.logger.Warnw("Копирование через меню не удалось", "error", err)
		return "", false, nil
	}
	return c.poll(ctx, baseline)
}

func (c *Controller) poll(ctx context.Context, baseline string) (string, bool, error) {
	for attempt := 1; attempt <= c.cfg.Attempts; attempt++ {
		if err := c.sleep(ctx, c.cfg.Interval); err != nil {
			return "", false, err
		}
		text, err := c.auto.ReadClipboard()
		if err != nil {
			c.logger.Debugw("Ошибка чтения буфера при опросе", "attempt", attempt, "error", err)
			continue
		}
		if text != baseline {
			return text, true, nil
		}
	}
	return "", false, nil
}

func (c *Controller) ignoresSimulatedInput() (string, bool) {
	if len(c.cfg.IgnoreSimulatedInput) == 0 {
		return "", false
	}
	fr, ok := c.auto.(ForegroundReporter)
	if !ok {
		return "", false
	}
	app, err := fr.ForegroundApp()
	if err != nil || app == "" {
		return "", false
	}
	return app, slices.ContainsFunc(c.cfg.IgnoreSimulatedInput, func(s string) bool {
		return strings.EqualFold(strings.TrimSpace(s), app)
	})
}

// Text возвращает захваченное выделение.
func (cp *Capture) Text() string { return cp.text }

// Snapshot возвращает исходное содержимое буфера.
func (cp *Capture) Snapshot() Snapshot { return cp.snapshot }

// Released сообщает, завершён ли захват.
func (cp *Capture) Released() bool {
	cp.mu.Lock()
	defer cp.mu.Unlock()
	return cp.released
}

func (cp *Capture) acquireRelease() bool {
	cp.mu.Lock()
	defer cp.mu.Unlock()
	if cp.released {
		return false
	}
	cp.released = true
	return true
}

// WriteBack записывает результат в буфер и вставляет его. Снимок после этого отбрасывается:
// буфер намеренно остаётся с результатом.
func (cp *Capture) WriteBack(ctx context.Context, result string) error {
	if !cp.acquireRelease() {
		return ErrReleased
	}
	c := cp.c
	if err := c.auto.WriteClipboard(result); err != nil {
		// результат в буфер не попал — возвращаем снимок, чтобы не оставить промежуточное состояние
		cp.restore()
		return &ReplaceError{Stage: "write", Err: err}
	}
	if c.cfg.PasteSettle > 0 {
		if err := c.sleep(ctx, c.cfg.PasteSettle); err != nil {
			return &ReplaceError{Stage: "paste", Err: err}
		}
	}
	if err := c.auto.SimulatePaste(); err != nil {
		return &ReplaceError{Stage: "paste", Err: err}
	}
	return nil
}

// AbortRestore возвращает буфер к снимку. Ошибка восстановления логируется и возвращается
// только для учёта; вызывающий не должен её пробрасывать.
func (cp *Capture) AbortRestore() error {
	if !cp.acquireRelease() {
		return nil
	}
	return cp.restore()
}

// Release завершает захват восстановлением, если ни WriteBack, ни AbortRestore не вызывались.
func (cp *Capture) Release() {
	_ = cp.AbortRestore()
}

func (cp *Capture) restore() error {
	c := cp.c
	if !cp.snapshot.Readable {
		c.logger.Warnw("Исходное содержимое буфера не читалось как текст, восстановление пропущено")
		return nil
	}
	err := c.auto.WriteClipboard(cp.snapshot.Content)
	if err == nil {
		// проверяем, что буфер не перезаписан параллельно другим процессом
		var got string
		got, err = c.auto.ReadClipboard()
		if err == nil && got != cp.snapshot.Content {
			err = errors.New("clipboard modified concurrently")
		}
	}
	if err != nil {
		rerr := &RestoreError{Err: err}
		c.logger.Errorw("Не удалось восстановить буфер обмена", "error", rerr)
		return rerr
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return context.Cause(ctx)
	case <-t.C:
		return nil
	}
}
