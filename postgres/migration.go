package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"
)

// MigrationRunner applies schema migrations with golang-migrate. Migration
// files live in scripts/migrations by default and follow the
// {version}_{description}.up.sql / .down.sql naming convention; applied
// versions are tracked in the schema_migrations table.
type MigrationRunner struct {
	dsn           string
	migrationsDir string
	logger        *zap.Logger
	timeout       time.Duration
}

func NewMigrationRunner(dsn string, logger *zap.Logger) *MigrationRunner {
	return &MigrationRunner{
		dsn:           dsn,
		migrationsDir: "scripts/migrations",
		logger:        logger.Named("migrations"),
		timeout:       30 * time.Second,
	}
}

func (m *MigrationRunner) SetMigrationsDir(dir string) error {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("invalid directory path: %w", err)
	}

	m.migrationsDir = absPath

	return nil
}

// Up applies all pending migrations.
func (m *MigrationRunner) Up() error {
	db, err := sql.Open("pgx", m.dsn)
	if err != nil {
		return fmt.Errorf("failed to open database for migration: %w", err)
	}
	defer db.Close()

	driver, err := migratepg.WithInstance(db, &migratepg.Config{
		StatementTimeout: m.timeout,
	})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	sourceURL := "file://" + filepath.ToSlash(m.migrationsDir)

	mg, err := migrate.NewWithDatabaseInstance(sourceURL, "postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to initialize migrations: %w", err)
	}

	if err := mg.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			m.logger.Info("schema is up to date")

			return nil
		}

		return fmt.Errorf("migration failed: %w", err)
	}

	version, dirty, err := mg.Version()
	if err == nil {
		m.logger.Info("migrations applied", zap.Uint("version", version), zap.Bool("dirty", dirty))
	}

	return nil
}
