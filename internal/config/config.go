package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// Config — параметры запуска. Пользовательские настройки (модель, тон, уровень) живут в Preferences.
type Config struct {
	DebugMode bool   `env:"DEBUG_MODE"`        //Режим дебага
	Provider  string `env:"REPHRASE_PROVIDER"` // openai|gemini|stub

	// Хоткей
	Hotkey           string        `env:"REPHRASE_HOTKEY"`          // Сочетание, напр. ctrl+alt+r
	DebounceInterval time.Duration `env:"REPHRASE_DEBOUNCE"`        // Минимальный интервал между срабатываниями
	HotkeyDelay      time.Duration `env:"REPHRASE_HOTKEY_DELAY"`    // Пауза после хоткея, чтобы пользователь отпустил клавиши
	RequestTimeout   time.Duration `env:"REPHRASE_REQUEST_TIMEOUT"` // Таймаут запроса к сервису переписывания

	Clipboard ClipboardConfig

	// Файлы
	PreferencesPath string `env:"REPHRASE_PREFERENCES"` // toml или yaml, по расширению
	LogDir          string `env:"REPHRASE_LOG_DIR"`     // Каталог дневных логов
	StatsPath       string `env:"REPHRASE_STATS"`       // JSON со статистикой использования

	// Ключ API
	KeyringService string `env:"REPHRASE_KEYRING_SERVICE"`
	KeyringAccount string `env:"REPHRASE_KEYRING_ACCOUNT"`

	// Уведомления
	Notifications         bool   `env:"REPHRASE_NOTIFICATIONS"`
	NotificationSoundPath string `env:"NOTIFICATION_SOUND_PATH"` // Путь к звуковому файлу уведомления, пусто — без звука

	MetricsAddr string `env:"REPHRASE_METRICS_ADDR"` // Адрес /metrics, пусто — выключено
}

// ClipboardConfig — бюджет опроса буфера.
type ClipboardConfig struct {
	PollAttempts         int           `env:"REPHRASE_POLL_ATTEMPTS"`
	PollInterval         time.Duration `env:"REPHRASE_POLL_INTERVAL"`
	PasteSettle          time.Duration `env:"REPHRASE_PASTE_SETTLE"`
	IgnoreSimulatedInput []string      `env:"REPHRASE_IGNORE_SIMULATED_INPUT" envSeparator:";"` // Приложения, где копируем через меню
}

// Dir — каталог приложения по умолчанию (~/.config/rephrase).
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".rephrase"
	}
	return filepath.Join(home, ".config", "rephrase")
}

// Defaults возвращает конфигурацию с предустановленными значениями по умолчанию.
// Эти значения перекрываются .env, переменными окружения и флагами CLI.
func Defaults() *Config {
	dir := Dir()
	return &Config{
		DebugMode:        false,
		Provider:         "openai",
		Hotkey:           "ctrl+alt+r",
		DebounceInterval: time.Second,
		HotkeyDelay:      200 * time.Millisecond,
		RequestTimeout:   30 * time.Second,
		Clipboard: ClipboardConfig{
			PollAttempts: 3,
			PollInterval: 150 * time.Millisecond,
			PasteSettle:  80 * time.Millisecond,
		},
		PreferencesPath: filepath.Join(dir, "config.toml"),
		LogDir:          filepath.Join(dir, "logs"),
		StatsPath:       filepath.Join(dir, "usage_stats.json"),
		KeyringService:  "rephrase-app",
		KeyringAccount:  "openai-api-key",
		Notifications:   true,
	}
}

// Load собирает конфигурацию из дефолтов, .env и окружения, без флагов.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := Defaults()
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.normalize()
	return cfg, cfg.Validate()
}

// NewConfig загружает конфигурацию приложения, включая флаги командной строки.
func NewConfig() (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}

	flag.BoolVar(&cfg.DebugMode, "debug-mode", cfg.DebugMode, "включить режим дебага")
	flag.StringVar(&cfg.Provider, "provider", cfg.Provider, "сервис переписывания: openai|gemini|stub")
	flag.StringVar(&cfg.Hotkey, "hotkey", cfg.Hotkey, "сочетание клавиш, напр. ctrl+alt+r")
	flag.DurationVar(&cfg.DebounceInterval, "debounce", cfg.DebounceInterval, "минимальный интервал между срабатываниями хоткея")
	flag.DurationVar(&cfg.HotkeyDelay, "hotkey-delay", cfg.HotkeyDelay, "пауза после хоткея перед копированием, напр. 200ms")
	flag.DurationVar(&cfg.RequestTimeout, "request-timeout", cfg.RequestTimeout, "таймаут запроса к сервису переписывания")
	flag.IntVar(&cfg.Clipboard.PollAttempts, "poll-attempts", cfg.Clipboard.PollAttempts, "попыток опроса буфера после копирования")
	flag.DurationVar(&cfg.Clipboard.PollInterval, "poll-interval", cfg.Clipboard.PollInterval, "пауза между попытками опроса буфера")
	flag.DurationVar(&cfg.Clipboard.PasteSettle, "paste-settle", cfg.Clipboard.PasteSettle, "пауза между записью результата и вставкой")
	// Принимаем список приложений одной строкой, разделённой ';'
	ignoreFlag := strings.Join(cfg.Clipboard.IgnoreSimulatedInput, ";")
	flag.StringVar(&ignoreFlag, "ignore-simulated-input", ignoreFlag, "приложения, игнорирующие синтетические нажатия, через ';'")
	flag.StringVar(&cfg.PreferencesPath, "preferences", cfg.PreferencesPath, "файл настроек (toml или yaml)")
	flag.StringVar(&cfg.LogDir, "log-dir", cfg.LogDir, "каталог дневных логов")
	flag.StringVar(&cfg.StatsPath, "stats", cfg.StatsPath, "файл статистики использования")
	flag.BoolVar(&cfg.Notifications, "notifications", cfg.Notifications, "показывать уведомления о результате")
	flag.StringVar(&cfg.NotificationSoundPath, "notification-sound-path", cfg.NotificationSoundPath, "путь к звуковому файлу уведомления (mp3 или wav)")
	flag.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "адрес для /metrics, напр. 127.0.0.1:9464")
	flag.Parse()

	cfg.Clipboard.IgnoreSimulatedInput = parseListFlag(ignoreFlag, nil)
	cfg.normalize()
	return cfg, cfg.Validate()
}

func (c *Config) normalize() {
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	c.Hotkey = strings.TrimSpace(c.Hotkey)
	c.PreferencesPath = expandHome(c.PreferencesPath)
	c.LogDir = expandHome(c.LogDir)
	c.StatsPath = expandHome(c.StatsPath)
	c.NotificationSoundPath = expandHome(c.NotificationSoundPath)
}

// Validate проверяет значения, которые нельзя молча исправить.
func (c *Config) Validate() error {
	var errs []error
	switch c.Provider {
	case "openai", "gemini", "stub":
	default:
		errs = append(errs, fmt.Errorf("unknown provider %q", c.Provider))
	}
	if c.Hotkey == "" {
		errs = append(errs, errors.New("hotkey is empty"))
	}
	if c.DebounceInterval < 0 || c.HotkeyDelay < 0 {
		errs = append(errs, errors.New("negative hotkey timing"))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request timeout must be positive"))
	}
	if c.Clipboard.PollAttempts <= 0 || c.Clipboard.PollInterval <= 0 {
		errs = append(errs, errors.New("clipboard poll budget must be positive"))
	}
	if c.PreferencesPath == "" {
		errs = append(errs, errors.New("preferences path is empty"))
	}
	return errors.Join(errs...)
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}

// parseListFlag разбирает значение флага со списком, разделённым ';'
func parseListFlag(v string, def []string) []string {
	// Пустая строка → дефолт
	if v == "" {
		return def
	}
	parts := strings.Split(v, ";")
	cleaned := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			cleaned = append(cleaned, p)
		}
	}
	if len(cleaned) == 0 {
		return def
	}
	return cleaned
}
