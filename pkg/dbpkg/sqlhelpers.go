// Package dbpkg provides helpers to make db initialization and testing easier.
package dbpkg

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/go-petr/pet-finance/db"
)

// Setup sets up connection with database.
func Setup(driver, source string) (*sql.DB, error) {
	conn, err := sql.Open(driver, source)
	if err != nil {
		return nil, err
	}

	if err = conn.Ping(); err != nil {
		return nil, err
	}

	return conn, nil
}

// Migrate applies all pending embedded migrations.
//
// It opens its own connection because closing the migrate instance closes the database.
func Migrate(driver, source string) error {
	conn, err := sql.Open(driver, source)
	if err != nil {
		return fmt.Errorf("open migration database: %w", err)
	}

	dbDriver, err := postgres.WithInstance(conn, &postgres.Config{})
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("create postgres driver: %w", err)
	}

	src, err := iofs.New(db.MigrationFS, db.MigrationDir)
	if err != nil {
		_ = dbDriver.Close()
		return fmt.Errorf("create iofs source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", dbDriver)
	if err != nil {
		_ = dbDriver.Close()
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}
