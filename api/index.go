package handler

import (
	"net/http"

	"github.com/wadjakorntonsri/go-shortlink/pkg/bootstrap"
	"github.com/wadjakorntonsri/go-shortlink/pkg/config"
	"github.com/wadjakorntonsri/go-shortlink/pkg/logger"
)

var mux http.Handler

func init() {
	cfg := config.Load()

	log, err := logger.New(logger.Config{Level: cfg.LogLevel})
	if err != nil {
		panic(err)
	}

	// Note: On Vercel, db.sqlite is ephemeral unless using a remote SQL/Turso URL in DATABASE_URL
	app, err := bootstrap.New(cfg, log, nil)
	if err != nil {
		panic(err)
	}
	mux = app.Handler
}

// Handler is the entrypoint for Vercel
func Handler(w http.ResponseWriter, r *http.Request) {
	mux.ServeHTTP(w, r)
}
