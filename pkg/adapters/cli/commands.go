package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/wadjakorntonsri/go-shortlink/pkg/adapters/repository/sqlstore"
	"github.com/wadjakorntonsri/go-shortlink/pkg/core/domain"
	"github.com/wadjakorntonsri/go-shortlink/pkg/database"
	"github.com/wadjakorntonsri/go-shortlink/pkg/logger"
)

func (a *App) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "shortlink",
		Short:         "Maintenance commands for the shortlink service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	root.AddCommand(
		a.dbCreateCommand(),
		a.dbMigrateCommand(),
		a.schemaCreateCommand(),
		a.linkExportCommand(),
		a.linkImportCommand(),
		a.apiKeyGenerateCommand(),
	)
	return root
}

func (a *App) dbCreateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "db:create",
		Short: "Creates the database and its tables when they do not exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conn, err := a.database()
			if err != nil {
				return err
			}
			server, err := database.OpenServer(a.cfg.DatabaseURL, a.cfg.DatabaseAdminURL)
			if err != nil {
				return err
			}
			defer server.Close()

			creator := NewDatabaseCreator(conn, server, a.runner, a.out)
			return a.lockedRunner().Run(cmd.Context(), LockedCommandConfig{Name: "db:create", Blocking: true}, creator.Execute)
		},
	}
}

func (a *App) dbMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "db:migrate",
		Short: "Applies pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conn, err := a.database()
			if err != nil {
				return err
			}
			return a.lockedRunner().Run(cmd.Context(), LockedCommandConfig{Name: "db:migrate", Blocking: true}, func(context.Context) error {
				fmt.Fprintln(a.out, "Migrating database...")
				if err := database.Migrate(conn); err != nil {
					return err
				}
				fmt.Fprintln(a.out, "Database properly migrated!")
				return nil
			})
		},
	}
}

// schemaCreateCommand is spawned by db:create, which already holds the lock.
func (a *App) schemaCreateCommand() *cobra.Command {
	return &cobra.Command{
		Use:    schemaCreateCommand,
		Short:  "Creates the database tables",
		Hidden: true,
		Args:   cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conn, err := a.database()
			if err != nil {
				return err
			}
			return database.Migrate(conn)
		},
	}
}

func (a *App) linkExportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "link:export",
		Short: "Writes every link, deleted ones included, as JSON to stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conn, err := a.database()
			if err != nil {
				return err
			}

			links, err := sqlstore.NewRepository(conn).Dump(cmd.Context())
			if err != nil {
				return fmt.Errorf("export failed: %w", err)
			}

			encoder := json.NewEncoder(a.out)
			encoder.SetIndent("", "  ")
			return encoder.Encode(links)
		},
	}
}

func (a *App) linkImportCommand() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "link:import",
		Short: "Imports links from a JSON export, skipping existing short codes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := os.Open(file)
			if err != nil {
				return fmt.Errorf("open import file: %w", err)
			}
			defer f.Close()

			var links []domain.Link
			if err := json.NewDecoder(f).Decode(&links); err != nil {
				return fmt.Errorf("decode import file: %w", err)
			}

			conn, err := a.database()
			if err != nil {
				return err
			}
			repo := sqlstore.NewRepository(conn)
			ctx := cmd.Context()

			imported := 0
			for i := range links {
				link := links[i]
				existing, err := repo.GetByShortCode(ctx, link.ShortCode)
				if err != nil {
					return err
				}
				if existing != nil {
					a.logger.Info("Skipping existing code", logger.String("short_code", link.ShortCode))
					continue
				}
				if err := repo.Create(ctx, &link); err != nil {
					a.logger.Warn("Failed to import link", logger.String("short_code", link.ShortCode), logger.Err(err))
					continue
				}
				imported++
			}

			fmt.Fprintf(a.out, "Imported %d links\n", imported)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "JSON file to import")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func (a *App) apiKeyGenerateCommand() *cobra.Command {
	var (
		name           string
		noOrphanVisits bool
		expiresIn      time.Duration
	)

	cmd := &cobra.Command{
		Use:   "api-key:generate",
		Short: "Generates a new API key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conn, err := a.database()
			if err != nil {
				return err
			}

			now := time.Now()
			key := &domain.APIKey{
				Key:       uuid.NewString(),
				Name:      name,
				Enabled:   true,
				CreatedAt: now,
			}
			if noOrphanVisits {
				key.Roles = append(key.Roles, domain.RoleNoOrphanVisits)
			}
			if expiresIn > 0 {
				expiresAt := now.Add(expiresIn)
				key.ExpiresAt = &expiresAt
			}

			if err := sqlstore.NewRepository(conn).CreateAPIKey(cmd.Context(), key); err != nil {
				return fmt.Errorf("create api key: %w", err)
			}

			fmt.Fprintf(a.out, "Generated API key: %s\n", key.Key)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Name to identify the key")
	cmd.Flags().BoolVar(&noOrphanVisits, "no-orphan-visits", false, "Hide orphan visits from this key")
	cmd.Flags().DurationVar(&expiresIn, "expires-in", 0, "Lifetime of the key (0 never expires)")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}
