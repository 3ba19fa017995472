package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	pgmigrate "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/sirupsen/logrus"
)

func newMigrator(dsn, migrationsDir string) (*migrate.Migrate, func(), error) {
	// golang-migrate needs a database/sql handle; pgx stdlib provides it.
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, nil, err
	}
	driver, err := pgmigrate.WithInstance(db, &pgmigrate.Config{})
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	m, err := migrate.NewWithDatabaseInstance(fmt.Sprintf("file://%s", migrationsDir), "postgres", driver)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return m, func() { _, _ = m.Close() }, nil
}

// MigrateUp applies every pending migration. No pending migration is not an error.
func MigrateUp(dsn, migrationsDir string, logger *logrus.Logger) error {
	m, closeFn, err := newMigrator(dsn, migrationsDir)
	if err != nil {
		return err
	}
	defer closeFn()

	logger.Info("running migrations...")
	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info("no migrations to run")
		return nil
	}
	return err
}

// MigrateDown reverts the given number of migrations.
func MigrateDown(dsn, migrationsDir string, steps int, logger *logrus.Logger) error {
	if steps <= 0 {
		return fmt.Errorf("steps must be positive, got %d", steps)
	}
	m, closeFn, err := newMigrator(dsn, migrationsDir)
	if err != nil {
		return err
	}
	defer closeFn()

	logger.WithField("steps", steps).Info("reverting migrations...")
	err = m.Steps(-steps)
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return err
}
