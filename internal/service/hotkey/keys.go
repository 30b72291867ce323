package hotkey

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Modifier — битовая маска модификаторов. Левые и правые клавиши не различаются.
type Modifier uint8

const (
	ModCtrl Modifier = 1 << iota
	ModAlt
	ModShift
	ModSuper
)

// Key — платформенно-независимый код клавиши.
type Key uint16

const (
	KeyUnknown Key = iota
	KeyCtrl
	KeyAlt
	KeyShift
	KeySuper
	KeyEnter
	KeySpace
	KeyInsert
)

// Буквы, цифры и F-клавиши идут непрерывными диапазонами.
const (
	KeyA  Key = 100
	Key0  Key = 200
	KeyF1 Key = 300
)

// LetterKey возвращает код для латинской буквы a-z (регистр не важен).
func LetterKey(r rune) Key {
	switch {
	case r >= 'a' && r <= 'z':
		return KeyA + Key(r-'a')
	case r >= 'A' && r <= 'Z':
		return KeyA + Key(r-'A')
	}
	return KeyUnknown
}

// Modifier возвращает бит модификатора для клавиши или 0, если это не модификатор.
func (k Key) Modifier() Modifier {
	switch k {
	case KeyCtrl:
		return ModCtrl
	case KeyAlt:
		return ModAlt
	case KeyShift:
		return ModShift
	case KeySuper:
		return ModSuper
	}
	return 0
}

func (k Key) String() string {
	switch {
	case k == KeyCtrl:
		return "ctrl"
	case k == KeyAlt:
		return "alt"
	case k == KeyShift:
		return "shift"
	case k == KeySuper:
		return "super"
	case k == KeyEnter:
		return "enter"
	case k == KeySpace:
		return "space"
	case k == KeyInsert:
		return "insert"
	case k >= KeyA && k < KeyA+26:
		return string(rune('a' + int(k-KeyA)))
	case k >= Key0 && k < Key0+10:
		return string(rune('0' + int(k-Key0)))
	case k >= KeyF1 && k < KeyF1+12:
		return fmt.Sprintf("f%d", int(k-KeyF1)+1)
	}
	return "unknown"
}

// Event — сырое событие нажатия/отпускания клавиши от ОС.
type Event struct {
	Key  Key
	Down bool
	At   time.Time
}

// Chord — требуемые модификаторы плюс клавиша-триггер.
type Chord struct {
	Modifiers Modifier
	Trigger   Key
}

func (c Chord) String() string {
	parts := make([]string, 0, 5)
	for _, m := range []struct {
		bit  Modifier
		name string
	}{{ModCtrl, "ctrl"}, {ModAlt, "alt"}, {ModShift, "shift"}, {ModSuper, "super"}} {
		if c.Modifiers&m.bit != 0 {
			parts = append(parts, m.name)
		}
	}
	parts = append(parts, c.Trigger.String())
	return strings.Join(parts, "+")
}

// ErrInvalidChord — строка сочетания не разобрана.
var ErrInvalidChord = errors.New("invalid hotkey chord")

// ParseChord разбирает строки вида "ctrl+alt+r", "cmd+option+r", "ctrl+shift+f1".
// Нужен хотя бы один модификатор.
func ParseChord(s string) (Chord, error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(s)), "+")
	if len(parts) < 2 {
		return Chord{}, fmt.Errorf("%w: %q (need modifier+key)", ErrInvalidChord, s)
	}
	var c Chord
	for _, p := range parts[:len(parts)-1] {
		switch strings.TrimSpace(p) {
		case "ctrl", "control":
			c.Modifiers |= ModCtrl
		case "alt", "option", "opt":
			c.Modifiers |= ModAlt
		case "shift":
			c.Modifiers |= ModShift
		case "super", "win", "cmd", "command", "meta":
			c.Modifiers |= ModSuper
		default:
			return Chord{}, fmt.Errorf("%w: unknown modifier %q", ErrInvalidChord, p)
		}
	}
	k := parseKeyName(strings.TrimSpace(parts[len(parts)-1]))
	if k == KeyUnknown || k.Modifier() != 0 {
		return Chord{}, fmt.Errorf("%w: unsupported trigger key %q", ErrInvalidChord, parts[len(parts)-1])
	}
	c.Trigger = k
	return c, nil
}

func parseKeyName(name string) Key {
	switch name {
	case "enter", "return":
		return KeyEnter
	case "space":
		return KeySpace
	case "insert", "ins":
		return KeyInsert
	}
	if len(name) == 1 {
		r := rune(name[0])
		if r >= '0' && r <= '9' {
			return Key0 + Key(r-'0')
		}
		return LetterKey(r)
	}
	if strings.HasPrefix(name, "f") {
		if n, err := strconv.Atoi(name[1:]); err == nil && n >= 1 && n <= 12 {
			return KeyF1 + Key(n-1)
		}
	}
	return KeyUnknown
}
