package hotkey

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// Source — платформенный источник сырых событий клавиатуры.
// Run блокируется до отмены контекста.
type Source interface {
	Run(ctx context.Context, out chan<- Event) error
}

// Trigger — сигнал о распознанном сочетании.
type Trigger struct {
	Chord Chord
	At    time.Time
}

// Config параметры слушателя.
type Config struct {
	Chord    Chord
	Debounce time.Duration
}

// Listener читает сырые события, прогоняет их через автомат и публикует Trigger.
// Состояние клавиш живёт только в горутине Run.
type Listener struct {
	machine Machine
	src     Source
	logger  *zap.SugaredLogger

	// входящие от платформенного источника
	in chan Event
	// исходящие для оркестратора
	out chan Trigger
}

// NewListener создаёт слушателя поверх источника событий.
func NewListener(cfg Config, src Source, logger *zap.SugaredLogger) *Listener {
	return &Listener{
		machine: NewMachine(cfg.Chord, cfg.Debounce),
		src:     src,
		logger:  logger,
		in:      make(chan Event, 256),
		out:     make(chan Trigger, 8),
	}
}

func (l *Listener) Triggers() <-chan Trigger { return l.out }

// Run запускает источник и основной цикл. Выход по отмене контекста или ошибке источника.
func (l *Listener) Run(ctx context.Context) error {
	if l.src == nil {
		return errors.New("hotkey: nil event source")
	}
	defer close(l.out)

	srcCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	srcErr := make(chan error, 1)
	go func() { srcErr <- l.src.Run(srcCtx, l.in) }()

	l.logger.Infow("Слушатель горячей клавиши запущен", "chord", l.machine.Chord.String(), "debounce", l.machine.Debounce.String())

	var st KeyState
	for {
		select {
		case <-ctx.Done():
			return context.Cause(ctx)
		case err := <-srcErr:
			if err == nil {
				err = errors.New("hotkey: event source stopped")
			}
			return err
		case ev := <-l.in:
			if ev.At.IsZero() {
				ev.At = time.Now()
			}
			var outcome Outcome
			st, outcome = l.machine.Step(st, ev)
			switch outcome {
			case OutcomeTrigger:
				l.logger.Infow("Горячая клавиша сработала", "chord", l.machine.Chord.String())
				l.safeSend(Trigger{Chord: l.machine.Chord, At: ev.At})
			case OutcomeSuppressed:
				l.logger.Debugw("Повторное нажатие в окне дебаунса проигнорировано")
			}
		}
	}
}

func (l *Listener) safeSend(t Trigger) {
	select {
	case l.out <- t:
	default:
		// в случае переполнения — дроп, чтобы не блокировать чтение клавиатуры
		l.logger.Warnw("Очередь триггеров переполнена, событие отброшено")
	}
}

// ChanSource — источник поверх готового канала (тесты, внешние интеграции).
type ChanSource <-chan Event

func (c ChanSource) Run(ctx context.Context, out chan<- Event) error {
	for {
		select {
		case <-ctx.Done():
			return context.Cause(ctx)
		case ev, ok := <-c:
			if !ok {
				<-ctx.Done()
				return context.Cause(ctx)
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				return context.Cause(ctx)
			}
		}
	}
}
