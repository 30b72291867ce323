//go:build linux

package automation

import (
	"time"

	"github.com/micmonay/keybd_event"
)

// uinput-устройству нужно около двух секунд до первого события.
func initDelay() time.Duration { return 2 * time.Second }

func setPrimaryModifier(kb *keybd_event.KeyBonding, on bool) { kb.HasCTRL(on) }

// menuCopy использует Ctrl+Insert: его понимают терминалы и большинство тулкитов.
func (d *Desktop) menuCopy() error {
	return d.chord(keybd_event.VK_INSERT)
}

// ForegroundApp без оконного менеджера определить нельзя.
func (d *Desktop) ForegroundApp() (string, error) {
	return "", nil
}
