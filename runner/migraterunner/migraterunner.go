// Package migraterunner applies database schema migrations and exits.
package migraterunner

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/lineuphq/lineup/postgres"
	"github.com/lineuphq/lineup/runner"
)

type migrateRunner struct {
	mr *postgres.MigrationRunner
}

func New(cfg *runner.Config, logger *zap.Logger) (runner.Runner, error) {
	if cfg.Dsn == "" {
		return nil, errors.New("a postgres connection string is required")
	}

	mr := postgres.NewMigrationRunner(cfg.Dsn, logger)

	if cfg.MigrationsDir != "" {
		if err := mr.SetMigrationsDir(cfg.MigrationsDir); err != nil {
			return nil, err
		}
	}

	return &migrateRunner{mr: mr}, nil
}

func (r *migrateRunner) Run(context.Context) error {
	return r.mr.Up()
}

func (r *migrateRunner) Close(context.Context) error {
	return nil
}
