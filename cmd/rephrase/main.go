package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"Rephraser/internal/ai"
	"Rephraser/internal/app/rephraser"
	"Rephraser/internal/config"
	"Rephraser/internal/logging"
	"Rephraser/internal/metrics"
	"Rephraser/internal/service/automation"
	"Rephraser/internal/service/clipboard"
	"Rephraser/internal/service/credentials"
	"Rephraser/internal/service/hotkey"
	"Rephraser/internal/service/notify"
	"Rephraser/internal/service/notify/player"
	"Rephraser/internal/service/usage"
)

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Некорректная конфигурация: %v\n", err)
		os.Exit(2)
	}

	logger, err := logging.New(cfg.LogDir, cfg.DebugMode)
	if err != nil {
		panic(err)
	}
	sugar := logger.Sugar()
	//сброс буфера логгера
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, sugar); err != nil {
		sugar.Errorw("Приложение завершилось с ошибкой", "error", err)
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config, sugar *zap.SugaredLogger) error {
	chord, err := hotkey.ParseChord(cfg.Hotkey)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	prefs := config.NewStore(cfg.PreferencesPath, sugar)
	if err := prefs.Load(); err != nil {
		// некорректный файл не мешает запуску: работаем на настройках по умолчанию
		sugar.Warnw("Настройки не загружены, используются значения по умолчанию", "path", cfg.PreferencesPath, "error", err)
	}

	creds := credentials.ForProvider(cfg.Provider, cfg.KeyringService, cfg.KeyringAccount)
	switch _, src, ok, err := creds.Credential(); {
	case ok:
		sugar.Infow("Ключ API найден", "source", src)
	case cfg.Provider != ai.ProviderStub:
		sugar.Warnw("Ключ API не задан: выполните rephrasectl key set", "provider", cfg.Provider, "error", err)
	}

	desk, err := automation.New(sugar)
	if err != nil {
		return err
	}
	ctrl := clipboard.NewController(desk, clipboard.Config{
		Attempts:             cfg.Clipboard.PollAttempts,
		Interval:             cfg.Clipboard.PollInterval,
		PasteSettle:          cfg.Clipboard.PasteSettle,
		IgnoreSimulatedInput: cfg.Clipboard.IgnoreSimulatedInput,
	}, sugar)

	tracker := usage.NewTracker(cfg.StatsPath)
	rec := metrics.New(tracker)

	var notifier notify.Notifier = notify.Nop{}
	if cfg.Notifications {
		sound := notify.NewSound(cfg.NotificationSoundPath, player.New(0), sugar)
		notifier = notify.NewDesktop("Rephrase", sugar, sound)
	}

	src, err := hotkey.NewSource()
	if err != nil {
		return err
	}
	listener := hotkey.NewListener(hotkey.Config{Chord: chord, Debounce: cfg.DebounceInterval}, src, sugar)

	orch := rephraser.New(rephraser.Deps{
		Capturer:    ctrl,
		Preferences: prefs,
		Credentials: creds,
		Clients:     ai.NewHandle(ai.DefaultFactory),
		Notifier:    notifier,
		Usage:       tracker,
		Metrics:     rec,
	}, rephraser.Options{
		Provider:       cfg.Provider,
		HotkeyDelay:    cfg.HotkeyDelay,
		RequestTimeout: cfg.RequestTimeout,
	}, sugar)

	sugar.Infow("Starting app",
		"DebugMode", cfg.DebugMode,
		"hotkey", chord.String(),
		"provider", cfg.Provider,
		"preferences", prefs.Path(),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return listener.Run(gctx) })
	g.Go(func() error { return orch.Run(gctx, listener.Triggers()) })
	g.Go(func() error { return prefs.Watch(gctx) })
	if cfg.MetricsAddr != "" {
		g.Go(func() error {
			sugar.Infow("Метрики доступны", "addr", cfg.MetricsAddr)
			return rec.Serve(gctx, cfg.MetricsAddr)
		})
	}

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	sugar.Infow("Приложение остановлено")
	return err
}
