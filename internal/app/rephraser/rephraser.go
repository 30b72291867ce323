// Package rephraser — оркестратор одного запуска: захват выделения, сборка запроса,
// обращение к сервису и замена текста. Одновременно выполняется не больше одного запуска.
package rephraser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"Rephraser/internal/ai"
	"Rephraser/internal/config"
	"Rephraser/internal/logging"
	"Rephraser/internal/service/clipboard"
	"Rephraser/internal/service/credentials"
	"Rephraser/internal/service/hotkey"
	"Rephraser/internal/service/notify"
	"Rephraser/internal/service/prompt"
)

// Stage — этап запуска.
type Stage string

const (
	StageTriggered  Stage = "triggered"
	StageCapturing  Stage = "capturing"
	StageComposing  Stage = "composing"
	StageRequesting Stage = "requesting"
	StageReplacing  Stage = "replacing"
	StageDone       Stage = "done"
)

// Outcome — итог запуска.
type Outcome string

const (
	OutcomeSuccess        Outcome = "success"
	OutcomeNoSelection    Outcome = "no_selection"
	OutcomeServiceError   Outcome = "service_error"
	OutcomeReplaceFailure Outcome = "replace_failure"
	OutcomeInternal       Outcome = "internal_error"
)

// Сообщения пользователю.
const (
	MsgReplaced    = "Text replaced!"
	MsgNoSelection = "No text selected"
	MsgPasteFailed = "Couldn't paste. Text copied to clipboard."
	MsgWriteFailed = "Couldn't replace text. Clipboard restored."
)

// Result описывает завершённый запуск.
type Result struct {
	ID       string
	Outcome  Outcome
	Stage    Stage // этап, на котором запуск завершился
	Tone     string
	Duration time.Duration
	Err      error
}

// Capturer захватывает выделение.
type Capturer interface {
	CaptureSelection(ctx context.Context) (*clipboard.Capture, error)
}

// Preferences отдаёт целостный снимок настроек.
type Preferences interface {
	Snapshot() config.Preferences
}

// Credentials отдаёт ключ API.
type Credentials interface {
	Credential() (key string, src credentials.Source, ok bool, err error)
}

// Recorder — метрики запусков.
type Recorder interface {
	RunFinished(outcome string)
	TriggerDropped()
	ObserveStage(stage string, d time.Duration)
}

// Usage — учёт успешных замен.
type Usage interface {
	Record() (int, error)
}

// Deps — зависимости оркестратора. Notifier, Usage и Metrics необязательны.
type Deps struct {
	Capturer    Capturer
	Preferences Preferences
	Credentials Credentials
	Clients     *ai.Handle
	Notifier    notify.Notifier
	Usage       Usage
	Metrics     Recorder
}

// Options — параметры запуска.
type Options struct {
	Provider       string
	HotkeyDelay    time.Duration // пауза перед копированием, пока пользователь отпускает клавиши
	RequestTimeout time.Duration
}

type nopRecorder struct{}

func (nopRecorder) RunFinished(string)                 {}
func (nopRecorder) TriggerDropped()                    {}
func (nopRecorder) ObserveStage(string, time.Duration) {}

// Orchestrator выполняет запуски по сигналам хоткея.
type Orchestrator struct {
	deps   Deps
	opts   Options
	logger *zap.SugaredLogger
	sleep  func(ctx context.Context, d time.Duration) error

	running atomic.Bool
	wg      sync.WaitGroup
}

// Option настраивает Orchestrator.
type Option func(*Orchestrator)

// WithSleep подменяет ожидание после хоткея.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(o *Orchestrator) { o.sleep = fn }
}

func New(deps Deps, opts Options, logger *zap.SugaredLogger, options ...Option) *Orchestrator {
	if deps.Notifier == nil {
		deps.Notifier = notify.Nop{}
	}
	if deps.Metrics == nil {
		deps.Metrics = nopRecorder{}
	}
	if deps.Clients == nil {
		deps.Clients = ai.NewHandle(nil)
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	o := &Orchestrator{deps: deps, opts: opts, logger: logger, sleep: sleepCtx}
	for _, opt := range options {
		opt(o)
	}
	return o
}

// Run обрабатывает сигналы до отмены контекста или закрытия канала, затем дожидается активного запуска.
func (o *Orchestrator) Run(ctx context.Context, triggers <-chan hotkey.Trigger) error {
	defer o.wg.Wait()
	for {
		select {
		case <-ctx.Done():
			return nil
		case tr, ok := <-triggers:
			if !ok {
				return nil
			}
			o.Dispatch(ctx, tr)
		}
	}
}

// Dispatch запускает конвейер в отдельной горутине. Если запуск уже идёт, сигнал отбрасывается
// и возвращается false.
func (o *Orchestrator) Dispatch(ctx context.Context, tr hotkey.Trigger) bool {
	if !o.running.CompareAndSwap(false, true) {
		o.logger.Infow("Запуск уже выполняется, сигнал отброшен", "chord", tr.Chord.String())
		o.deps.Metrics.TriggerDropped()
		return false
	}
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		defer o.running.Store(false)
		o.Execute(ctx)
	}()
	return true
}

// Busy сообщает, идёт ли запуск.
func (o *Orchestrator) Busy() bool { return o.running.Load() }

// Wait дожидается завершения активного запуска.
func (o *Orchestrator) Wait() { o.wg.Wait() }

// Execute синхронно выполняет один запуск. Любая ошибка после захвата сначала
// восстанавливает буфер и только потом показывается пользователю.
func (o *Orchestrator) Execute(ctx context.Context) (res Result) {
	res = Result{ID: uuid.NewString(), Stage: StageTriggered}
	log := o.logger.With("run", res.ID)
	start := time.Now()

	var capture *clipboard.Capture
	defer func() {
		if r := recover(); r != nil {
			res.Outcome = OutcomeInternal
			res.Err = fmt.Errorf("panic at %s: %v", res.Stage, r)
		}
		if capture != nil {
			// no-op после успешного WriteBack
			capture.Release()
		}
		res.Duration = time.Since(start)
		o.finish(log, res)
	}()

	stage := func(s Stage) func() {
		res.Stage = s
		t := time.Now()
		return func() { o.deps.Metrics.ObserveStage(string(s), time.Since(t)) }
	}
	fail := func(out Outcome, err error) Result {
		res.Outcome, res.Err = out, err
		return res
	}

	if err := o.sleep(ctx, o.opts.HotkeyDelay); err != nil {
		return fail(OutcomeInternal, err)
	}
	// настройки читаются один раз в начале запуска
	prefs := o.deps.Preferences.Snapshot()

	done := stage(StageCapturing)
	c, err := o.deps.Capturer.CaptureSelection(ctx)
	done()
	if errors.Is(err, clipboard.ErrNoSelection) {
		return fail(OutcomeNoSelection, err)
	}
	if err != nil {
		return fail(OutcomeInternal, err)
	}
	capture = c

	done = stage(StageComposing)
	req, err := prompt.Build(capture.Text(), prompt.Settings{
		DefaultTone: prefs.DefaultTone,
		Seniority:   prefs.Seniority,
		Aliases:     prefs.ToneAliases,
	})
	done()
	if errors.Is(err, prompt.ErrEmptyText) {
		return fail(OutcomeNoSelection, err)
	}
	if err != nil {
		return fail(OutcomeInternal, err)
	}
	res.Tone = req.Tone
	log.Debugw("Запрос собран",
		"tone", req.Tone,
		"seniority", req.Seniority,
		"hasContext", req.HasContext,
		"chars", utf8.RuneCountInString(req.UserText),
		"preview", logging.Preview(req.UserText, 40),
	)

	done = stage(StageRequesting)
	out, err := o.request(ctx, log, prefs.Model, req)
	done()
	if err != nil {
		return fail(OutcomeServiceError, err)
	}

	done = stage(StageReplacing)
	err = capture.WriteBack(ctx, out)
	done()
	if err != nil {
		return fail(OutcomeReplaceFailure, err)
	}

	res.Stage = StageDone
	res.Outcome = OutcomeSuccess
	if o.deps.Usage != nil {
		if n, err := o.deps.Usage.Record(); err != nil {
			log.Warnw("Не удалось записать статистику", "error", err)
		} else {
			log.Debugw("Статистика обновлена", "today", n)
		}
	}
	return res
}

func (o *Orchestrator) request(ctx context.Context, log *zap.SugaredLogger, model string, req prompt.Request) (string, error) {
	key, src, ok, err := o.deps.Credentials.Credential()
	if err != nil {
		log.Warnw("Хранилище ключей недоступно", "error", err)
	}
	if !ok && o.opts.Provider != ai.ProviderStub {
		return "", &ai.ServiceError{Kind: ai.KindNotConfigured, Provider: o.opts.Provider}
	}
	client, err := o.deps.Clients.Client(ctx, o.opts.Provider, key)
	if err != nil {
		return "", ai.Classify(o.opts.Provider, err)
	}
	log.Debugw("Отправляем запрос", "provider", o.opts.Provider, "model", model, "keySource", src)

	reqCtx, cancel := context.WithTimeoutCause(ctx, o.opts.RequestTimeout, ai.ErrRequestTimeout)
	defer cancel()
	out, err := client.Complete(reqCtx, ai.Request{Model: model, System: req.System, User: req.UserText})
	if err != nil {
		if cause := context.Cause(reqCtx); errors.Is(cause, ai.ErrRequestTimeout) {
			return "", &ai.ServiceError{Kind: ai.KindTimeout, Provider: o.opts.Provider, Err: err}
		}
		return "", ai.Classify(o.opts.Provider, err)
	}
	return out, nil
}

// finish пишет итог в лог и метрики и уведомляет пользователя.
func (o *Orchestrator) finish(log *zap.SugaredLogger, res Result) {
	o.deps.Metrics.RunFinished(string(res.Outcome))

	fields := []any{"outcome", res.Outcome, "stage", res.Stage, "tone", res.Tone, "duration", res.Duration}
	switch res.Outcome {
	case OutcomeSuccess:
		log.Infow("Текст заменён", fields...)
		o.deps.Notifier.Notify(notify.KindSuccess, MsgReplaced)
	case OutcomeNoSelection:
		log.Infow("Нет выделенного текста", append(fields, "reason", res.Err)...)
		o.deps.Notifier.Notify(notify.KindWarning, MsgNoSelection)
	case OutcomeServiceError:
		log.Errorw("Ошибка сервиса", append(fields, "error", res.Err)...)
		msg := res.Err.Error()
		var se *ai.ServiceError
		if errors.As(res.Err, &se) {
			msg = se.UserMessage()
		}
		o.deps.Notifier.Notify(notify.KindError, msg)
	case OutcomeReplaceFailure:
		log.Errorw("Не удалось заменить текст", append(fields, "error", res.Err)...)
		msg := MsgPasteFailed
		var re *clipboard.ReplaceError
		if errors.As(res.Err, &re) && re.Stage == "write" {
			msg = MsgWriteFailed
		}
		o.deps.Notifier.Notify(notify.KindWarning, msg)
	default:
		// внутренние ошибки только в лог
		log.Errorw("Запуск прерван", append(fields, "error", res.Err)...)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return context.Cause(ctx)
	case <-t.C:
		return nil
	}
}
