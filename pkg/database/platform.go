package database

import (
	"errors"
	"net/url"
	"strings"

	"github.com/lib/pq"
)

// Platform identifies the database engine behind a DSN.
type Platform string

const (
	PlatformSQLite   Platform = "sqlite"
	PlatformPostgres Platform = "postgres"
)

// ErrUnsupportedPlatform is returned for server-level operations on file-based engines.
var ErrUnsupportedPlatform = errors.New("operation not supported by database platform")

// IsFileBased reports whether the engine has no separate "create database" step.
func (p Platform) IsFileBased() bool {
	return p == PlatformSQLite
}

// postgresMaintenanceDB is always present on a PostgreSQL server.
const postgresMaintenanceDB = "postgres"

// Detect returns the sql driver name and platform for dsn.
func Detect(dsn string) (driverName string, platform Platform) {
	switch {
	case strings.Contains(dsn, "libsql://") || strings.Contains(dsn, "wss://"):
		return "libsql", PlatformSQLite
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"),
		strings.Contains(dsn, "dbname="):
		return "postgres", PlatformPostgres
	default:
		return "sqlite", PlatformSQLite
	}
}

// DatabaseName extracts the target database name from dsn.
func DatabaseName(dsn string) string {
	_, platform := Detect(dsn)
	if platform != PlatformPostgres {
		name := strings.TrimPrefix(dsn, "file:")
		name, _, _ = strings.Cut(name, "?")
		return name
	}

	kv := dsn
	if isURL(dsn) {
		converted, err := pq.ParseURL(dsn)
		if err != nil {
			return ""
		}
		kv = converted
	}
	for _, field := range strings.Fields(kv) {
		key, value, ok := strings.Cut(field, "=")
		if ok && key == "dbname" {
			return strings.Trim(value, "'")
		}
	}
	return ""
}

// ServerDSN rewrites dsn so that it selects no application database.
// File-based DSNs are returned unchanged.
func ServerDSN(dsn string) (string, error) {
	_, platform := Detect(dsn)
	if platform != PlatformPostgres {
		return dsn, nil
	}

	if isURL(dsn) {
		u, err := url.Parse(dsn)
		if err != nil {
			return "", err
		}
		u.Path = "/" + postgresMaintenanceDB
		return u.String(), nil
	}

	fields := strings.Fields(dsn)
	replaced := false
	for i, field := range fields {
		if strings.HasPrefix(field, "dbname=") {
			fields[i] = "dbname=" + postgresMaintenanceDB
			replaced = true
		}
	}
	if !replaced {
		fields = append(fields, "dbname="+postgresMaintenanceDB)
	}
	return strings.Join(fields, " "), nil
}

func isURL(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}
