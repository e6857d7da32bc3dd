package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/lineuphq/lineup/runner"
	"github.com/lineuphq/lineup/runner/migraterunner"
	"github.com/lineuphq/lineup/runner/syncrunner"
)

func main() {
	_ = godotenv.Load() // Load .env file if present

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := runner.ParseConfig()

	logger, err := newLogger(cfg.Debug)
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck // stderr sync failure is harmless

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan

		logger.Info("received signal, shutting down")
		cancel()
	}()

	runnerInstance, err := runnerFactory(cfg, logger)
	if err != nil {
		logger.Error("failed to start", zap.Error(err))
		os.Exit(1)
	}

	if err := runnerInstance.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("runner failed", zap.Error(err))

		_ = runnerInstance.Close(ctx)

		os.Exit(1)
	}

	_ = runnerInstance.Close(ctx)
}

func runnerFactory(cfg *runner.Config, logger *zap.Logger) (runner.Runner, error) {
	switch cfg.RunMode {
	case runner.RunModeWorker, runner.RunModeWeb, runner.RunModeAll:
		return syncrunner.New(cfg, logger)
	case runner.RunModeMigrate:
		return migraterunner.New(cfg, logger)
	default:
		return nil, runner.ErrInvalidRunMode
	}
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}

	return zap.NewProduction()
}
