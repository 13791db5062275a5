// Package integrationtest provides db helpers used in integration tests.
package integrationtest

import (
	"database/sql"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/go-petr/pet-finance/cmd/httpserver"
	"github.com/go-petr/pet-finance/internal/domain"
	"github.com/go-petr/pet-finance/internal/eventpkg"
	"github.com/go-petr/pet-finance/internal/middleware"
	"github.com/go-petr/pet-finance/pkg/configpkg"
	"github.com/go-petr/pet-finance/pkg/dbpkg"
)

// LoadConfig loads the test configuration and applies the migrations.
func LoadConfig(t *testing.T) configpkg.Config {
	t.Helper()

	config, err := configpkg.Load("../../configs")
	if err != nil {
		t.Fatalf(`configpkg.Load("../../configs") returned error: %v`, err)
	}

	if err := dbpkg.Migrate(config.DBDriver, config.DBSource); err != nil {
		t.Fatalf("dbpkg.Migrate() returned error: %v", err)
	}

	return config
}

// SetupServer returns test server that cleans up database after each integration test.
func SetupServer(t *testing.T) *httpserver.Server {
	config := LoadConfig(t)

	zerolog.SetGlobalLevel(zerolog.FatalLevel)

	logger := middleware.CreateLogger(config)

	db := SetupDB(t, config.DBDriver, config.DBSource)

	gin.SetMode(gin.ReleaseMode)

	server, err := httpserver.New(db, logger, config, eventpkg.NopPublisher{})
	if err != nil {
		t.Fatalf(`httpserver.New(db, logger, config) returned error: %v`, err)
	}

	return server
}

// Flush removes all users, their transactions and the roles that are not built in.
func Flush(t *testing.T, db *sql.DB) {
	t.Helper()

	if _, err := db.Exec(`TRUNCATE TABLE transactions, users RESTART IDENTITY CASCADE`); err != nil {
		t.Fatalf("db cleanup failed. err: %v", err)
	}

	if _, err := db.Exec(`DELETE FROM roles WHERE name NOT IN ($1, $2)`, domain.RoleAdmin, domain.RoleUser); err != nil {
		t.Fatalf("db cleanup failed. err: %v", err)
	}
}

// SetupDB sets up connection with database for testing and then cleans it.
func SetupDB(t *testing.T, driver, source string) *sql.DB {
	t.Helper()

	db, err := dbpkg.Setup(driver, source)
	if err != nil {
		t.Fatalf("db initialization failed. err: %v", err)
	}

	t.Cleanup(func() {
		Flush(t, db)

		if err := db.Close(); err != nil {
			t.Fatalf("db cleanup failed. err: %v", err)
		}
	})

	return db
}

// SetupTX sets up a database transaction to be used in tests.
//
// Once the tests are done it will rollback the transaction.
func SetupTX(t *testing.T, driver, source string) *sql.Tx {
	t.Helper()

	db, err := dbpkg.Setup(driver, source)
	if err != nil {
		t.Fatalf("db initialization failed. err: %v", err)
	}

	tx, err := db.Begin()
	if err != nil {
		t.Fatalf("db.Begin() failed: %v", err)
	}

	t.Cleanup(func() {
		if err := tx.Rollback(); err != nil {
			t.Fatalf("tx.Rollback() failed: %v", err)
		}
		if err := db.Close(); err != nil {
			t.Fatalf("db.Close() failed: %v", err)
		}
	})

	return tx
}
