package clipboard

import (
	"errors"
	"fmt"
)

// ErrNoSelection — после копирования и всех повторов буфер не изменился либо содержит только пробелы.
var ErrNoSelection = errors.New("no text selected")

// ErrReleased — захват уже завершён через WriteBack или AbortRestore.
var ErrReleased = errors.New("capture already released")

// RestoreError — не удалось вернуть исходное содержимое буфера. Только логируется.
type RestoreError struct {
	Err error
}

func (e *RestoreError) Error() string { return fmt.Sprintf("clipboard restore failed: %v", e.Err) }
func (e *RestoreError) Unwrap() error { return e.Err }

// ReplaceError — результат получен, но записать или вставить его не удалось.
// При ошибке вставки результат остаётся в буфере, чтобы пользователь вставил его вручную.
type ReplaceError struct {
	Stage string // write | paste
	Err   error
}

func (e *ReplaceError) Error() string { return fmt.Sprintf("replace failed at %s: %v", e.Stage, e.Err) }
func (e *ReplaceError) Unwrap() error { return e.Err }
