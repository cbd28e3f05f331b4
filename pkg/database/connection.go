package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	_ "github.com/tursodatabase/libsql-client-go/libsql" // Turso driver
	_ "modernc.org/sqlite"                               // Local SQLite driver
)

// Conn is a handle bound to the application database.
type Conn struct {
	db       *sqlx.DB
	platform Platform
	name     string
}

// Open prepares a connection to the database named by dsn. No connection is
// established until first use.
func Open(dsn string) (*Conn, error) {
	driverName, platform := Detect(dsn)

	db, err := sqlx.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", platform, err)
	}

	return NewConn(db, platform, DatabaseName(dsn)), nil
}

func NewConn(db *sqlx.DB, platform Platform, name string) *Conn {
	return &Conn{db: db, platform: platform, name: name}
}

func (c *Conn) DB() *sqlx.DB         { return c.db }
func (c *Conn) Platform() Platform   { return c.platform }
func (c *Conn) DatabaseName() string { return c.name }
func (c *Conn) Close() error         { return c.db.Close() }

// ListTableNames lists the tables of the application database.
func (c *Conn) ListTableNames(ctx context.Context) ([]string, error) {
	var query string
	switch c.platform {
	case PlatformPostgres:
		query = `SELECT table_name FROM information_schema.tables
			WHERE table_schema = current_schema() AND table_type = 'BASE TABLE'
			ORDER BY table_name`
	default:
		query = `SELECT name FROM sqlite_master
			WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
			ORDER BY name`
	}

	var names []string
	if err := c.db.SelectContext(ctx, &names, query); err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	return names, nil
}

// ServerConn is a handle to the same server as a Conn, with no database
// selected. Some engines refuse connections naming a database that does not
// exist yet, so server-level operations go through this handle.
type ServerConn struct {
	db       *sqlx.DB
	platform Platform
}

// OpenServer prepares a server-level connection for dsn. adminDSN overrides
// the derived server DSN when not empty. For file-based platforms nothing is
// opened and every operation returns ErrUnsupportedPlatform.
func OpenServer(dsn, adminDSN string) (*ServerConn, error) {
	driverName, platform := Detect(dsn)
	if platform.IsFileBased() {
		return &ServerConn{platform: platform}, nil
	}

	serverDSN := adminDSN
	if serverDSN == "" {
		var err error
		if serverDSN, err = ServerDSN(dsn); err != nil {
			return nil, fmt.Errorf("derive server dsn: %w", err)
		}
	}

	db, err := sqlx.Open(driverName, serverDSN)
	if err != nil {
		return nil, fmt.Errorf("open %s server connection: %w", platform, err)
	}
	return NewServerConn(db, platform), nil
}

func NewServerConn(db *sqlx.DB, platform Platform) *ServerConn {
	return &ServerConn{db: db, platform: platform}
}

func (s *ServerConn) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *ServerConn) ListDatabases(ctx context.Context) ([]string, error) {
	if s.platform != PlatformPostgres {
		return nil, ErrUnsupportedPlatform
	}

	var names []string
	if err := s.db.SelectContext(ctx, &names, `SELECT datname FROM pg_database WHERE datistemplate = false`); err != nil {
		return nil, fmt.Errorf("list databases: %w", err)
	}
	return names, nil
}

func (s *ServerConn) CreateDatabase(ctx context.Context, name string) error {
	if s.platform != PlatformPostgres {
		return ErrUnsupportedPlatform
	}

	if _, err := s.db.ExecContext(ctx, "CREATE DATABASE "+pq.QuoteIdentifier(name)); err != nil {
		return fmt.Errorf("create database %q: %w", name, err)
	}
	return nil
}
