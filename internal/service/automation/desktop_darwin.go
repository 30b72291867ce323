//go:build darwin

package automation

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/micmonay/keybd_event"
)

const osascriptTimeout = 2 * time.Second

func initDelay() time.Duration { return 0 }

// Cmd на macOS.
func setPrimaryModifier(kb *keybd_event.KeyBonding, on bool) { kb.HasSuper(on) }

// menuCopy нажимает пункт меню Edit > Copy активного приложения через System Events.
func (d *Desktop) menuCopy() error {
	_, err := osascript(`tell application "System Events" to tell (first application process whose frontmost is true) to click menu item "Copy" of menu 1 of menu bar item "Edit" of menu bar 1`)
	return err
}

func (d *Desktop) ForegroundApp() (string, error) {
	return osascript(`tell application "System Events" to get name of first application process whose frontmost is true`)
}

func osascript(script string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), osascriptTimeout)
	defer cancel()
	out, err := exec.CommandContext(ctx, "osascript", "-e", script).Output()
	if err != nil {
		return "", fmt.Errorf("osascript: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}
