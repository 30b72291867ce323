package hotkey

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ctrlAltR = Chord{Modifiers: ModCtrl | ModAlt, Trigger: LetterKey('r')}

type stepper struct {
	t   *testing.T
	m   Machine
	st  KeyState
	now time.Time
}

func newStepper(t *testing.T) *stepper {
	return &stepper{t: t, m: NewMachine(ctrlAltR, 0), now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (s *stepper) press(k Key) Outcome   { return s.send(k, true) }
func (s *stepper) release(k Key) Outcome { return s.send(k, false) }

func (s *stepper) send(k Key, down bool) Outcome {
	var out Outcome
	s.st, out = s.m.Step(s.st, Event{Key: k, Down: down, At: s.now})
	return out
}

func (s *stepper) advance(d time.Duration) { s.now = s.now.Add(d) }

func TestChordFiresOnce(t *testing.T) {
	s := newStepper(t)
	assert.Equal(t, OutcomeNone, s.press(KeyCtrl))
	assert.Equal(t, PhaseIdle, s.st.Phase)
	assert.Equal(t, OutcomeNone, s.press(KeyAlt))
	assert.Equal(t, PhaseArmed, s.st.Phase)

	assert.Equal(t, OutcomeTrigger, s.press(LetterKey('r')))
	assert.Equal(t, PhaseCooldown, s.st.Phase)
	assert.Zero(t, s.st.Held)
	assert.False(t, s.st.TriggerHeld)
	assert.Equal(t, s.now, s.st.LastFire)
}

func TestTriggerWithoutModifiersDoesNothing(t *testing.T) {
	s := newStepper(t)
	assert.Equal(t, OutcomeNone, s.press(LetterKey('r')))
	assert.True(t, s.st.TriggerHeld)
	assert.Equal(t, OutcomeNone, s.press(KeyCtrl))
	assert.Equal(t, OutcomeNone, s.press(KeyAlt))
	// триггер уже зажат до модификаторов: срабатывания нет, пока его не нажмут снова
	assert.Equal(t, PhaseArmed, s.st.Phase)
	assert.Equal(t, OutcomeNone, s.press(LetterKey('r')), "auto-repeat of a held trigger")
	assert.Equal(t, OutcomeNone, s.release(LetterKey('r')))
	assert.Equal(t, OutcomeTrigger, s.press(LetterKey('r')))
}

func TestAutoRepeatAfterArmingDoesNotFire(t *testing.T) {
	s := newStepper(t)
	s.press(KeyCtrl)
	assert.Equal(t, OutcomeNone, s.press(LetterKey('r')))
	// evdev присылает автоповтор как нажатие
	for range 5 {
		s.advance(30 * time.Millisecond)
		assert.Equal(t, OutcomeNone, s.press(LetterKey('r')))
	}
	s.press(KeyAlt)
	require.Equal(t, PhaseArmed, s.st.Phase)
	for range 5 {
		s.advance(30 * time.Millisecond)
		assert.Equal(t, OutcomeNone, s.press(LetterKey('r')))
	}
	assert.True(t, s.st.TriggerHeld)

	s.release(LetterKey('r'))
	assert.Equal(t, OutcomeTrigger, s.press(LetterKey('r')))
}

func TestSecondPressWithinWindowSuppressed(t *testing.T) {
	s := newStepper(t)
	s.press(KeyCtrl)
	s.press(KeyAlt)
	require.Equal(t, OutcomeTrigger, s.press(LetterKey('r')))
	s.release(LetterKey('r'))
	s.release(KeyAlt)
	s.release(KeyCtrl)

	s.advance(400 * time.Millisecond)
	s.press(KeyCtrl)
	s.press(KeyAlt)
	before := s.st
	assert.Equal(t, OutcomeSuppressed, s.press(LetterKey('r')))
	assert.Equal(t, before, s.st, "suppressed trigger must not change state")

	s.advance(700 * time.Millisecond)
	assert.Equal(t, OutcomeTrigger, s.press(LetterKey('r')))
}

func TestModifierReleaseReturnsToIdle(t *testing.T) {
	s := newStepper(t)
	s.press(KeyCtrl)
	s.press(KeyAlt)
	require.Equal(t, PhaseArmed, s.st.Phase)
	s.release(KeyAlt)
	assert.Equal(t, PhaseIdle, s.st.Phase)
	assert.Equal(t, OutcomeNone, s.press(LetterKey('r')))
}

func TestReleaseDuringCooldownResetsToIdle(t *testing.T) {
	s := newStepper(t)
	s.press(KeyShift)
	s.press(KeyCtrl)
	s.press(KeyAlt)
	require.Equal(t, OutcomeTrigger, s.press(LetterKey('r')))
	require.Equal(t, PhaseCooldown, s.st.Phase)

	// даже отпускание постороннего модификатора выводит из cooldown
	s.release(KeyShift)
	assert.Equal(t, PhaseIdle, s.st.Phase)
}

func TestStaleHeldKeysDoNotRefire(t *testing.T) {
	s := newStepper(t)
	s.press(KeyCtrl)
	s.press(KeyAlt)
	require.Equal(t, OutcomeTrigger, s.press(LetterKey('r')))

	// клавиши физически зажаты, автоповтор триггера через 2 секунды не должен сработать
	s.advance(2 * time.Second)
	assert.Equal(t, OutcomeNone, s.press(LetterKey('r')))
	assert.Equal(t, OutcomeNone, s.press(LetterKey('r')))
}

func TestExtraModifiersAllowed(t *testing.T) {
	s := newStepper(t)
	s.press(KeyCtrl)
	s.press(KeyShift)
	s.press(KeyAlt)
	assert.Equal(t, OutcomeTrigger, s.press(LetterKey('r')))
}

func TestOtherKeysIgnored(t *testing.T) {
	s := newStepper(t)
	s.press(KeyCtrl)
	s.press(KeyAlt)
	before := s.st
	assert.Equal(t, OutcomeNone, s.press(LetterKey('x')))
	assert.Equal(t, OutcomeNone, s.release(LetterKey('x')))
	assert.Equal(t, before, s.st)
}

func TestDebounceHoldsForRandomSequences(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 7))
	keys := []Key{KeyCtrl, KeyAlt, KeyShift, LetterKey('r'), LetterKey('x')}

	for run := range 200 {
		s := newStepper(t)
		var fires []time.Time
		for range 400 {
			s.advance(time.Duration(rng.IntN(300)) * time.Millisecond)
			k := keys[rng.IntN(len(keys))]
			if s.send(k, rng.IntN(3) != 0) == OutcomeTrigger {
				fires = append(fires, s.now)
				assert.False(t, s.st.TriggerHeld, "run %d: trigger key left held after firing", run)
				assert.Zero(t, s.st.Held, "run %d: modifiers left held after firing", run)
			}
		}
		for i := 1; i < len(fires); i++ {
			assert.GreaterOrEqual(t, fires[i].Sub(fires[i-1]), DebounceInterval, "run %d", run)
		}
	}
}
