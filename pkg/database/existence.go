package database

import (
	"context"
	"slices"
)

// DatabaseInspector is the database-scoped capability used by the checks below.
type DatabaseInspector interface {
	Platform() Platform
	DatabaseName() string
	ListTableNames(ctx context.Context) ([]string, error)
}

// ServerAdmin is the server-scoped capability used to create a missing database.
type ServerAdmin interface {
	ListDatabases(ctx context.Context) ([]string, error)
	CreateDatabase(ctx context.Context, name string) error
}

// EnsureDatabaseExists creates the application database through server when
// it is missing. File-based platforms are skipped: the file appears on first write.
func EnsureDatabaseExists(ctx context.Context, db DatabaseInspector, server ServerAdmin) error {
	if db.Platform().IsFileBased() {
		return nil
	}

	databases, err := server.ListDatabases(ctx)
	if err != nil {
		return err
	}

	name := db.DatabaseName()
	if slices.Contains(databases, name) {
		return nil
	}
	return server.CreateDatabase(ctx, name)
}

// SchemaExists reports whether at least one table exists in the database.
// Anything more detailed is left to migrations.
func SchemaExists(ctx context.Context, db DatabaseInspector) (bool, error) {
	tables, err := db.ListTableNames(ctx)
	if err != nil {
		return false, err
	}
	return len(tables) > 0, nil
}
