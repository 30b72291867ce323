//go:build linux

package hotkey

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	evKey        = 1
	inputEvtSize = 24 // struct input_event на 64-битных системах
)

// коды клавиш из linux/input-event-codes.h
var evdevKeys = map[uint16]Key{
	29: KeyCtrl, 97: KeyCtrl,
	56: KeyAlt, 100: KeyAlt,
	42: KeyShift, 54: KeyShift,
	125: KeySuper, 126: KeySuper,
	28: KeyEnter, 57: KeySpace, 110: KeyInsert,
	2: Key0 + 1, 3: Key0 + 2, 4: Key0 + 3, 5: Key0 + 4, 6: Key0 + 5,
	7: Key0 + 6, 8: Key0 + 7, 9: Key0 + 8, 10: Key0 + 9, 11: Key0,
	59: KeyF1, 60: KeyF1 + 1, 61: KeyF1 + 2, 62: KeyF1 + 3, 63: KeyF1 + 4, 64: KeyF1 + 5,
	65: KeyF1 + 6, 66: KeyF1 + 7, 67: KeyF1 + 8, 68: KeyF1 + 9, 87: KeyF1 + 10, 88: KeyF1 + 11,
}

func init() {
	// раскладка QWERTY по скан-кодам
	rows := []struct {
		start uint16
		keys  string
	}{{16, "qwertyuiop"}, {30, "asdfghjkl"}, {44, "zxcvbnm"}}
	for _, row := range rows {
		for i, r := range row.keys {
			evdevKeys[row.start+uint16(i)] = LetterKey(r)
		}
	}
}

type evdevSource struct {
	devices []string
}

// NewSource возвращает источник событий, читающий /dev/input/event* (нужна группа input).
func NewSource() (Source, error) {
	devices, err := findKeyboardDevices()
	if err != nil {
		return nil, fmt.Errorf("hotkey: cannot find keyboard devices: %w", err)
	}
	if len(devices) == 0 {
		return nil, errors.New("hotkey: no keyboard devices found")
	}
	return &evdevSource{devices: devices}, nil
}

func (s *evdevSource) Run(ctx context.Context, out chan<- Event) error {
	files := make([]*os.File, 0, len(s.devices))
	for _, dev := range s.devices {
		f, err := os.OpenFile(dev, os.O_RDONLY, 0)
		if err != nil {
			continue
		}
		files = append(files, f)
	}
	if len(files) == 0 {
		return errors.New("hotkey: cannot read keyboard devices (need to be in 'input' group or run as root)")
	}

	for _, f := range files {
		go readDevice(f, out)
	}
	<-ctx.Done()
	// закрытие файлов разблокирует Read в горутинах чтения
	for _, f := range files {
		_ = f.Close()
	}
	return context.Cause(ctx)
}

func readDevice(f *os.File, out chan<- Event) {
	buf := make([]byte, inputEvtSize)
	for {
		if _, err := io.ReadFull(f, buf); err != nil {
			return
		}
		typ := binary.LittleEndian.Uint16(buf[16:18])
		code := binary.LittleEndian.Uint16(buf[18:20])
		value := int32(binary.LittleEndian.Uint32(buf[20:24]))
		if typ != evKey {
			continue
		}
		key, ok := evdevKeys[code]
		if !ok {
			continue
		}
		// value: 0 — отпускание, 1 — нажатие, 2 — автоповтор
		select {
		case out <- Event{Key: key, Down: value != 0, At: time.Now()}:
		default:
		}
	}
}

// virtualKeyboardName — имя uinput-устройства, которое создаёт keybd_event.
// Его события — наши собственные синтетические нажатия.
const virtualKeyboardName = "keybd interface"

// keyboardProbeCodes — KEY_Q, KEY_P, KEY_A, KEY_Z и KEY_LEFTCTRL: по ним мышь и кнопки питания
// отличаются от клавиатуры.
var keyboardProbeCodes = []uint{16, 25, 30, 44, 29}

// hasKeys проверяет биты в маске KEY=: слова по 64 бита в hex, старшее слово первым.
func hasKeys(bitmap string, codes ...uint) bool {
	words := strings.Fields(bitmap)
	for _, code := range codes {
		idx := len(words) - 1 - int(code/64)
		if idx < 0 {
			return false
		}
		w, err := strconv.ParseUint(words[idx], 16, 64)
		if err != nil || w&(1<<(code%64)) == 0 {
			return false
		}
	}
	return true
}

// findKeyboardDevices находит клавиатуры по /proc/bus/input/devices.
func findKeyboardDevices() ([]string, error) {
	f, err := os.Open("/proc/bus/input/devices")
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return parseKeyboardDevices(f)
}

// parseKeyboardDevices разбирает формат /proc/bus/input/devices, пропуская виртуальную клавиатуру.
func parseKeyboardDevices(r io.Reader) ([]string, error) {
	var devices []string
	var handler, name string
	isKeyboard := false

	flush := func() {
		if isKeyboard && handler != "" && !strings.EqualFold(strings.TrimSpace(name), virtualKeyboardName) {
			devices = append(devices, handler)
		}
		handler, name, isKeyboard = "", "", false
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "N: Name="):
			name = strings.Trim(strings.TrimPrefix(line, "N: Name="), "\"")
		case strings.HasPrefix(line, "H: Handlers="):
			for _, part := range strings.Fields(line) {
				if strings.HasPrefix(part, "event") {
					handler = filepath.Join("/dev/input", part)
				}
			}
		case strings.HasPrefix(line, "B: KEY="):
			isKeyboard = hasKeys(strings.TrimPrefix(line, "B: KEY="), keyboardProbeCodes...)
		case line == "":
			flush()
		}
	}
	flush()
	return devices, scanner.Err()
}
