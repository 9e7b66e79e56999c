package repository

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/joseph-ayodele/syncora/db"
)

// Migrator applies the embedded migrations for the DSN's dialect over its own connection.
type Migrator struct {
	m      *migrate.Migrate
	logger *slog.Logger
}

func NewMigrator(dsn string, logger *slog.Logger) (*Migrator, error) {
	if logger == nil {
		logger = slog.Default()
	}
	dir, dbURL := "migrations/sqlite", "sqlite://"+strings.TrimPrefix(dsn, "file:")
	if IsPostgres(dsn) {
		dir = "migrations/postgres"
		dbURL = "pgx5://" + dsn[strings.Index(dsn, "://")+3:]
	}
	if i := strings.Index(dbURL, "?_pragma"); i > 0 {
		dbURL = dbURL[:i]
	}

	src, err := iofs.New(db.Migrations, dir)
	if err != nil {
		return nil, fmt.Errorf("open embedded migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, dbURL)
	if err != nil {
		return nil, fmt.Errorf("create migrator: %w", err)
	}
	return &Migrator{m: m, logger: logger}, nil
}

// Up applies all pending migrations; no pending migrations is not an error.
func (mg *Migrator) Up() error {
	if err := mg.m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		mg.logger.Error("migration failed", "error", err)
		return fmt.Errorf("apply migrations: %w", err)
	}
	v, dirty, _ := mg.Version()
	mg.logger.Info("migrations applied", "version", v, "dirty", dirty)
	return nil
}

// Version returns the applied schema version; 0 when nothing has run yet.
func (mg *Migrator) Version() (uint, bool, error) {
	v, dirty, err := mg.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return v, dirty, err
}

func (mg *Migrator) Close() error {
	srcErr, dbErr := mg.m.Close()
	return errors.Join(srcErr, dbErr)
}

// Migrate is the one-shot form used at startup.
func Migrate(dsn string, logger *slog.Logger) error {
	mg, err := NewMigrator(dsn, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := mg.Close(); err != nil && logger != nil {
			logger.Warn("close migrator", "error", err)
		}
	}()
	return mg.Up()
}
