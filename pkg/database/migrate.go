package database

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations
var migrationsFS embed.FS

// Migrate applies every pending migration for the connection's platform.
func Migrate(conn *Conn) error {
	m, err := newMigrator(conn)
	if err != nil {
		return err
	}
	// The sqlite driver closes the shared *sql.DB on Close.
	if conn.platform == PlatformPostgres {
		defer func() { _, _ = m.Close() }()
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

func newMigrator(conn *Conn) (*migrate.Migrate, error) {
	src, err := iofs.New(migrationsFS, "migrations/"+string(conn.platform))
	if err != nil {
		return nil, fmt.Errorf("load migrations: %w", err)
	}

	var driver migratedb.Driver
	switch conn.platform {
	case PlatformPostgres:
		driver, err = postgres.WithInstance(conn.db.DB, &postgres.Config{})
	default:
		driver, err = sqlite.WithInstance(conn.db.DB, &sqlite.Config{})
	}
	if err != nil {
		return nil, fmt.Errorf("init migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, string(conn.platform), driver)
	if err != nil {
		return nil, fmt.Errorf("init migrator: %w", err)
	}
	return m, nil
}
