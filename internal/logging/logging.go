// Package logging собирает zap-логгер: консоль плюс дневной файл rephrase_YYYY-MM-DD.log.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New создаёт логгер. В файл всегда пишется уровень debug, в консоль — info, либо debug в режиме дебага.
// Пустой dir отключает файловый вывод.
func New(dir string, debug bool) (*zap.Logger, error) {
	consoleLevel := zapcore.InfoLevel
	if debug {
		consoleLevel = zapcore.DebugLevel
	}
	consoleEnc := zap.NewDevelopmentEncoderConfig()
	consoleEnc.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(consoleEnc), zapcore.Lock(os.Stderr), consoleLevel),
	}

	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
		file, err := NewDailyFile(dir, time.Now)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		fileEnc := zap.NewProductionEncoderConfig()
		fileEnc.EncodeTime = zapcore.ISO8601TimeEncoder
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(fileEnc), zapcore.AddSync(file), zapcore.DebugLevel))
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller()), nil
}

// MaxAge — сколько хранятся старые лог-файлы.
const MaxAge = 30 * 24 * time.Hour

// NewDailyFile открывает файл текущего дня; после полуночи запись переключается на новый файл.
func NewDailyFile(dir string, now func() time.Time) (*rotatelogs.RotateLogs, error) {
	return rotatelogs.New(
		filepath.Join(dir, "rephrase_%Y-%m-%d.log"),
		rotatelogs.WithClock(clockFunc(now)),
		rotatelogs.WithRotationTime(24*time.Hour),
		rotatelogs.WithMaxAge(MaxAge),
	)
}

type clockFunc func() time.Time

func (f clockFunc) Now() time.Time { return f() }

// FileName — имя лог-файла для даты.
func FileName(t time.Time) string {
	return "rephrase_" + t.Format(time.DateOnly) + ".log"
}

// Preview сокращает пользовательский текст для логов: полностью выделение не пишется.
func Preview(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + "…"
}
