// Package bootstrap wires the HTTP application from configuration. It is
// shared by the standalone server and the serverless entrypoint.
package bootstrap

import (
	"fmt"
	"net/http"

	"github.com/wadjakorntonsri/go-shortlink/pkg/adapters/handler"
	"github.com/wadjakorntonsri/go-shortlink/pkg/adapters/matomo"
	"github.com/wadjakorntonsri/go-shortlink/pkg/adapters/repository/sqlstore"
	"github.com/wadjakorntonsri/go-shortlink/pkg/config"
	"github.com/wadjakorntonsri/go-shortlink/pkg/core/listeners"
	"github.com/wadjakorntonsri/go-shortlink/pkg/core/services"
	"github.com/wadjakorntonsri/go-shortlink/pkg/database"
	"github.com/wadjakorntonsri/go-shortlink/pkg/events"
	"github.com/wadjakorntonsri/go-shortlink/pkg/logger"
	"github.com/wadjakorntonsri/go-shortlink/pkg/ports"
)

type App struct {
	Handler http.Handler
	conn    *database.Conn
}

// New opens the database, migrates it when AutoMigrate is set and builds the router.
// locator may be nil.
func New(cfg *config.Config, log logger.Logger, locator ports.IPLocationResolver) (*App, error) {
	conn, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if cfg.AutoMigrate {
		if err := database.Migrate(conn); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("migrate database: %w", err)
		}
	}

	repo := sqlstore.NewRepository(conn)

	dispatcher := events.NewDispatcher(log)
	matomoListener := listeners.NewSendVisitToMatomo(
		repo,
		log.With(logger.String("listener", "matomo")),
		services.NewShortURLStringifier(cfg.BaseURL),
		cfg.Matomo.Enabled,
		matomo.NewTrackerBuilder(matomo.Options{
			BaseURL:  cfg.Matomo.BaseURL,
			SiteID:   cfg.Matomo.SiteID,
			APIToken: cfg.Matomo.APIToken,
			Retries:  cfg.Matomo.Retries,
			Timeout:  cfg.Matomo.Timeout,
		}),
	)
	dispatcher.OnVisitLocated(matomoListener.Handle)

	tracker := services.NewVisitsTracker(repo, dispatcher, locator, log, services.VisitsTrackerOptions{
		TrackOrphanVisits:   cfg.TrackOrphanVisits,
		AnonymizeRemoteAddr: cfg.AnonymizeRemoteAddr,
	})
	linkService := services.NewLinkService(repo, repo, tracker)
	visitService := services.NewVisitService(repo, tracker)

	return &App{
		Handler: handler.NewRouter(cfg, linkService, visitService, repo, log),
		conn:    conn,
	}, nil
}

func (a *App) Close() error {
	return a.conn.Close()
}
