package main

import (
	"context"
	"crypto/rand"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gofiber/fiber/v3"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"pairpool/internal/config"
	"pairpool/internal/handler"
	"pairpool/internal/pool"
	"pairpool/internal/service"
	"pairpool/internal/storage"
	"pairpool/internal/storage/postgres"
)

func main() {
	root := &cobra.Command{
		Use:          "pairpool",
		Short:        "Two-asset constant-product liquidity pool service",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the pool HTTP service",
		RunE:  runServe,
	}

	serveCmd.Flags().String("addr", ":8080", "listen address")
	serveCmd.Flags().String("snapshot", "./data/pool.json", "snapshot file path")
	serveCmd.Flags().String("journal", "./data/events.jsonl", "event journal path, empty disables")
	serveCmd.Flags().String("pg-dsn", "", "Postgres DSN, overrides the file snapshot")
	serveCmd.Flags().Uint64("fee-bps", 30, "initial swap fee in basis points")
	serveCmd.Flags().Int("max-retries", 5, "maximum snapshot save retries")
	serveCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial save retry backoff")
	serveCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(serveCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	_ = godotenv.Load()

	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The fee administrator is the engine's own identity, generated fresh and
	// never disclosed. Over the API, fee updates stay locked out unless a
	// snapshot from an older incarnation carries its admin forward.
	self, err := engineIdentity()
	if err != nil {
		return fmt.Errorf("generate engine identity: %w", err)
	}

	engine, err := pool.New(self, cfg.FeeBps)
	if err != nil {
		return fmt.Errorf("create pool: %w", err)
	}

	var store storage.Store
	if cfg.PGDSN != "" {
		pgStore, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pgStore.Close()
		store = pgStore
	} else {
		store = storage.NewFileStore(cfg.SnapshotPath)
	}

	var journal *storage.Journal
	if cfg.JournalPath != "" {
		journal = storage.NewJournal(cfg.JournalPath)
	}

	svc := service.NewPoolService(logger, engine, store, journal, service.Config{
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
	})
	if err := svc.Restore(ctx); err != nil {
		return err
	}

	app := fiber.New()
	handler.NewPoolHandler(logger, svc).Register(app)

	logger.Info("pool service start",
		zap.String("addr", cfg.Addr),
		zap.Uint64("fee_bps", engine.State().FeeBps),
		zap.Bool("postgres", cfg.PGDSN != ""),
		zap.String("snapshot", cfg.SnapshotPath),
		zap.String("journal", cfg.JournalPath),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(cfg.Addr)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}

	logger.Info("shutting down")
	if err := app.Shutdown(); err != nil {
		logger.Warn("shutdown failed", zap.Error(err))
	}
	return nil
}

func engineIdentity() (common.Address, error) {
	var b [common.AddressLength]byte
	if _, err := rand.Read(b[:]); err != nil {
		return common.Address{}, err
	}
	return common.BytesToAddress(b[:]), nil
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
