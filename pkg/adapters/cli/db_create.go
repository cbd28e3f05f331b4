package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/wadjakorntonsri/go-shortlink/pkg/database"
)

const schemaCreateCommand = "schema:create"

// DatabaseCreator makes sure the database and its schema exist.
type DatabaseCreator struct {
	db     database.DatabaseInspector
	server database.ServerAdmin
	runner ProcessRunner
	out    io.Writer
}

func NewDatabaseCreator(db database.DatabaseInspector, server database.ServerAdmin, runner ProcessRunner, out io.Writer) *DatabaseCreator {
	return &DatabaseCreator{db: db, server: server, runner: runner, out: out}
}

// Execute must run under the db:create lock.
func (c *DatabaseCreator) Execute(ctx context.Context) error {
	if err := database.EnsureDatabaseExists(ctx, c.db, c.server); err != nil {
		return fmt.Errorf("ensure database exists: %w", err)
	}

	exists, err := database.SchemaExists(ctx, c.db)
	if err != nil {
		return fmt.Errorf("check schema: %w", err)
	}
	if exists {
		fmt.Fprintln(c.out, `Database already exists. Run "db:migrate" command to make sure it is up to date.`)
		return nil
	}

	fmt.Fprintln(c.out, "Creating database tables...")
	if err := c.runner.Run(ctx, c.out, schemaCreateCommand); err != nil {
		return err
	}
	fmt.Fprintln(c.out, "Database properly created!")
	return nil
}
