// Package automation — примитивы рабочего стола: буфер обмена и синтетические нажатия.
package automation

import (
	"fmt"
	"sync"
	"time"

	"github.com/atotto/clipboard"
	"github.com/micmonay/keybd_event"
	"go.uber.org/zap"
)

// Desktop реализует clipboard.Automation поверх atotto/clipboard и keybd_event.
type Desktop struct {
	mu     sync.Mutex
	kb     keybd_event.KeyBonding
	logger *zap.SugaredLogger
}

func New(logger *zap.SugaredLogger) (*Desktop, error) {
	kb, err := keybd_event.NewKeyBonding()
	if err != nil {
		return nil, fmt.Errorf("init keyboard emulation: %w", err)
	}
	if d := initDelay(); d > 0 {
		// виртуальному устройству нужно время, чтобы система его подхватила
		time.Sleep(d)
	}
	if clipboard.Unsupported {
		logger.Warnw("Буфер обмена недоступен в этой системе (нет xclip/xsel/wl-clipboard)")
	}
	return &Desktop{kb: kb, logger: logger}, nil
}

func (d *Desktop) ReadClipboard() (string, error) {
	return clipboard.ReadAll()
}

func (d *Desktop) WriteClipboard(text string) error {
	return clipboard.WriteAll(text)
}

// SimulateCopy нажимает основной модификатор + C.
func (d *Desktop) SimulateCopy() error {
	return d.chord(keybd_event.VK_C)
}

// SimulatePaste нажимает основной модификатор + V.
func (d *Desktop) SimulatePaste() error {
	return d.chord(keybd_event.VK_V)
}

// SimulateMenuCopy — резервный способ копирования, реализуется отдельно для каждой ОС.
func (d *Desktop) SimulateMenuCopy() error {
	return d.menuCopy()
}

func (d *Desktop) chord(keys ...int) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.kb.Clear()
	setPrimaryModifier(&d.kb, true)
	d.kb.SetKeys(keys...)
	err := d.kb.Launching()
	setPrimaryModifier(&d.kb, false)
	d.kb.Clear()
	if err != nil {
		return fmt.Errorf("send keystroke: %w", err)
	}
	return nil
}
