package hotkey

import "time"

// DebounceInterval — минимальный интервал между двумя принятыми срабатываниями.
const DebounceInterval = time.Second

// Phase — состояние автомата распознавания сочетания.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseArmed
	// PhaseFired существует только внутри Step: автомат сразу уходит в PhaseCooldown.
	PhaseFired
	PhaseCooldown
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseArmed:
		return "armed"
	case PhaseFired:
		return "fired"
	case PhaseCooldown:
		return "cooldown"
	}
	return "unknown"
}

// Outcome — результат обработки одного события.
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeTrigger
	// OutcomeSuppressed — триггер внутри окна дебаунса, событие поглощено без изменений.
	OutcomeSuppressed
)

// KeyState — состояние зажатых клавиш и окно дебаунса. Принадлежит только слушателю.
type KeyState struct {
	Held        Modifier
	TriggerHeld bool
	Phase       Phase
	LastFire    time.Time
}

// Machine — чистая функция переходов для заданного сочетания.
type Machine struct {
	Chord    Chord
	Debounce time.Duration
}

// NewMachine создаёт автомат; debounce <= 0 заменяется на DebounceInterval.
func NewMachine(chord Chord, debounce time.Duration) Machine {
	if debounce <= 0 {
		debounce = DebounceInterval
	}
	return Machine{Chord: chord, Debounce: debounce}
}

// Step применяет событие к состоянию и возвращает новое состояние.
// При срабатывании состояние клавиш очищается полностью, даже если клавиши физически зажаты.
// Триггер, зажатый до готовности сочетания, не срабатывает, пока его не отпустят и не нажмут снова.
func (m Machine) Step(st KeyState, ev Event) (KeyState, Outcome) {
	if mod := ev.Key.Modifier(); mod != 0 {
		if ev.Down {
			st.Held |= mod
			if st.Held&m.Chord.Modifiers == m.Chord.Modifiers {
				st.Phase = PhaseArmed
			}
			return st, OutcomeNone
		}
		st.Held &^= mod
		// отпускание в cooldown всегда возвращает в idle: cooldown ограничивает только повторное срабатывание
		if m.Chord.Modifiers&mod != 0 || st.Phase == PhaseCooldown {
			st.Phase = PhaseIdle
		}
		return st, OutcomeNone
	}

	if ev.Key != m.Chord.Trigger {
		return st, OutcomeNone
	}

	if !ev.Down {
		st.TriggerHeld = false
		return st, OutcomeNone
	}
	// клавиша зажата с прошлого нажатия: это автоповтор, срабатывает только новое нажатие
	if st.TriggerHeld {
		return st, OutcomeNone
	}
	if st.Phase != PhaseArmed {
		st.TriggerHeld = true
		return st, OutcomeNone
	}
	if !st.LastFire.IsZero() && ev.At.Sub(st.LastFire) < m.Debounce {
		return st, OutcomeSuppressed
	}
	return KeyState{Phase: PhaseCooldown, LastFire: ev.At}, OutcomeTrigger
}
