package database

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	mdb "github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

//go:embed migrations
var migrationsFS embed.FS

// Migrate applies all pending up migrations for the connection's driver.
// The migrate instance is not closed because that would close db.
func Migrate(db *sqlx.DB, log *logrus.Entry) error {
	driver := db.DriverName()

	if driver == driverSQLite {
		if err := upgradeLegacyChats(db, log); err != nil {
			return err
		}
	}

	src, err := iofs.New(migrationsFS, "migrations/"+driver)
	if err != nil {
		return fmt.Errorf("failed to open embedded migrations: %w", err)
	}

	var target mdb.Driver
	switch driver {
	case driverSQLite:
		target, err = sqlite3.WithInstance(db.DB, &sqlite3.Config{})
	case driverPostgres:
		target, err = postgres.WithInstance(db.DB, &postgres.Config{})
	default:
		return fmt.Errorf("unsupported database driver %q", driver)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, driver, target)
	if err != nil {
		return fmt.Errorf("failed to initialize migrations: %w", err)
	}

	fromVer, _, _ := m.Version()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration execution failed: %w", err)
	}
	toVer, dirty, _ := m.Version()

	log.WithFields(logrus.Fields{
		"driver":   driver,
		"from_ver": fromVer,
		"to_ver":   toVer,
		"dirty":    dirty,
	}).Info("Database migrations applied")
	return nil
}
