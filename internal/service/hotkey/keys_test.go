package hotkey

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseChord(t *testing.T) {
	tests := []struct {
		in   string
		want Chord
	}{
		{"ctrl+alt+r", Chord{Modifiers: ModCtrl | ModAlt, Trigger: LetterKey('r')}},
		{"Cmd+Option+R", Chord{Modifiers: ModSuper | ModAlt, Trigger: LetterKey('r')}},
		{"ctrl+shift+f5", Chord{Modifiers: ModCtrl | ModShift, Trigger: KeyF1 + 4}},
		{"ctrl + enter", Chord{Modifiers: ModCtrl, Trigger: KeyEnter}},
		{"win+7", Chord{Modifiers: ModSuper, Trigger: Key0 + 7}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseChord(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseChordErrors(t *testing.T) {
	for _, in := range []string{"r", "", "ctrl+", "hyper+r", "ctrl+alt", "ctrl+f13", "ctrl+ab"} {
		_, err := ParseChord(in)
		assert.ErrorIs(t, err, ErrInvalidChord, "input %q", in)
	}
}

func TestChordString(t *testing.T) {
	c, err := ParseChord("alt+ctrl+r")
	require.NoError(t, err)
	assert.Equal(t, "ctrl+alt+r", c.String())
}
