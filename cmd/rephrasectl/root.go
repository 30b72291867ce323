package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"Rephraser/internal/ai"
	"Rephraser/internal/config"
	"Rephraser/internal/service/credentials"
	"Rephraser/internal/service/usage"
)

// env — общее окружение команд, собирается лениво в PersistentPreRunE.
type env struct {
	cfg     *config.Config
	prefs   *config.Store
	creds   *credentials.Store
	tracker *usage.Tracker
	clients *ai.Handle
	logger  *zap.SugaredLogger
}

func loadEnv() (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := zap.NewNop().Sugar()
	prefs := config.NewStore(cfg.PreferencesPath, logger)
	if err := prefs.Load(); err != nil {
		return nil, err
	}
	return &env{
		cfg:     cfg,
		prefs:   prefs,
		creds:   credentials.ForProvider(cfg.Provider, cfg.KeyringService, cfg.KeyringAccount),
		tracker: usage.NewTracker(cfg.StatsPath),
		clients: ai.NewHandle(ai.DefaultFactory),
		logger:  logger,
	}, nil
}

// newRootCmd собирает дерево команд. Если e == nil, окружение загружается из конфигурации.
func newRootCmd(e *env) *cobra.Command {
	lazy := e == nil
	if lazy {
		e = &env{}
	}
	root := &cobra.Command{
		Use:           "rephrasectl",
		Short:         "Управление Rephrase: ключ API, настройки, статистика",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if !lazy {
				return nil
			}
			loaded, err := loadEnv()
			if err != nil {
				return err
			}
			*e = *loaded
			return nil
		},
	}
	root.AddCommand(newKeyCmd(e), newConfigCmd(e), newStatsCmd(e), newTestCmd(e))
	return root
}
