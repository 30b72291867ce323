//go:build !windows && !linux

package hotkey

import "errors"

// NewSource на неподдерживаемых платформах возвращает ошибку.
func NewSource() (Source, error) {
	return nil, errors.New("hotkey: keyboard listener unavailable on this platform")
}
