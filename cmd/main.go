package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/solpass/solpass/internal/config"
	"github.com/solpass/solpass/internal/session"
	"github.com/solpass/solpass/internal/storage"
)

func main() {
	if err := Run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

func Run(ctx context.Context) error {
	var verbose bool

	rootCmd := &cobra.Command{
		Use:           "solpass",
		Short:         "Diagnostic CLI for the solpass wallet client core",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(
		newStatusCmd(&verbose),
		newClearCmd(&verbose),
		newExtendCmd(&verbose),
		newPrefsCmd(&verbose),
		newServeCmd(&verbose),
	)

	return rootCmd.ExecuteContext(ctx)
}

// env holds the wired dependencies shared by all subcommands.
type env struct {
	config   config.Config
	logger   *slog.Logger
	kv       storage.Store
	sessions *session.Store
}

func setup(verbose bool) (*env, error) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	kv, err := openStorage(cfg, logger)
	if err != nil {
		return nil, err
	}

	sessions := session.NewStore(kv, logger, &session.StoreConfig{
		Prefix:        cfg.Storage.Prefix,
		DefaultExpiry: cfg.Session.DefaultExpiry,
	})

	return &env{
		config:   cfg,
		logger:   logger,
		kv:       kv,
		sessions: sessions,
	}, nil
}

func (e *env) close() {
	if err := e.kv.Close(); err != nil {
		e.logger.Warn("closing storage failed", "error", err)
	}
}

func openStorage(cfg config.Config, logger *slog.Logger) (storage.Store, error) {
	switch cfg.Storage.Backend {
	case config.BackendMemory:
		return storage.NewMemoryStore(), nil
	case config.BackendSQLite:
		if err := os.MkdirAll(dirOf(cfg.Storage.SQLitePath), 0o700); err != nil {
			return nil, err
		}
		return storage.NewSQLiteStore(cfg.Storage.SQLitePath, logger)
	case config.BackendRedis:
		redisConfig := storage.DefaultRedisConfig()
		redisConfig.Addr = cfg.Storage.RedisAddr
		redisConfig.Password = cfg.Storage.RedisPassword
		redisConfig.DB = cfg.Storage.RedisDB
		return storage.NewRedisStore(redisConfig, logger)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}
